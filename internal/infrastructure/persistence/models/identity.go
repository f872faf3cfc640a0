package models

import (
	"github.com/pathway/backend/internal/domain/identity"
)

// AdminUserModel is the persistence model for the AdminUser aggregate
type AdminUserModel struct {
	AggregateModel
	CredentialColumns
	Email              string              `gorm:"type:varchar(200);not null;uniqueIndex"`
	Name               string              `gorm:"type:varchar(200);not null"`
	Role               identity.Role       `gorm:"type:varchar(30);not null"`
	Status             identity.UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	MustChangePassword bool                `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (AdminUserModel) TableName() string {
	return "admin_users"
}

// ToDomain converts the persistence model to a domain AdminUser
func (m *AdminUserModel) ToDomain() *identity.AdminUser {
	return &identity.AdminUser{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		Credential:         m.ToDomainCredential(),
		Email:              m.Email,
		Name:               m.Name,
		Role:               m.Role,
		Status:             m.Status,
		MustChangePassword: m.MustChangePassword,
	}
}

// AdminUserModelFromDomain creates a new persistence model from a domain AdminUser
func AdminUserModelFromDomain(u *identity.AdminUser) *AdminUserModel {
	m := &AdminUserModel{
		Email:              u.Email,
		Name:               u.Name,
		Role:               u.Role,
		Status:             u.Status,
		MustChangePassword: u.MustChangePassword,
	}
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.FromDomainCredential(u.Credential)
	return m
}
