package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/shared"
)

// AuditLogModel is the persistence model for an audit log entry
type AuditLogModel struct {
	ID         uuid.UUID        `gorm:"type:uuid;primary_key"`
	ActorID    *uuid.UUID       `gorm:"type:uuid;index"`
	ActorType  shared.ActorType `gorm:"type:varchar(20);not null"`
	ActorEmail string           `gorm:"type:varchar(200)"`
	Action     string           `gorm:"type:varchar(60);not null;index"`
	EntityType string           `gorm:"type:varchar(40);not null;index:idx_audit_entity,priority:1"`
	EntityID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_audit_entity,priority:2"`
	Changes    *string          `gorm:"type:jsonb"`
	IPAddress  string           `gorm:"column:ip_address;type:varchar(45)"`
	UserAgent  string           `gorm:"type:varchar(500)"`
	RequestID  string           `gorm:"type:varchar(64)"`
	CreatedAt  time.Time        `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to a domain audit Log. Malformed
// change documents are dropped rather than failing the read.
func (m *AuditLogModel) ToDomain() *audit.Log {
	l := &audit.Log{
		ID:         m.ID,
		ActorID:    m.ActorID,
		ActorType:  m.ActorType,
		ActorEmail: m.ActorEmail,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		IPAddress:  m.IPAddress,
		UserAgent:  m.UserAgent,
		RequestID:  m.RequestID,
		CreatedAt:  m.CreatedAt,
	}
	if m.Changes != nil && *m.Changes != "" {
		var changes audit.Changes
		if err := json.Unmarshal([]byte(*m.Changes), &changes); err == nil {
			l.Changes = &changes
		}
	}
	return l
}

// AuditLogModelFromDomain creates a new persistence model from a domain audit Log
func AuditLogModelFromDomain(l *audit.Log) *AuditLogModel {
	m := &AuditLogModel{
		ID:         l.ID,
		ActorID:    l.ActorID,
		ActorType:  l.ActorType,
		ActorEmail: l.ActorEmail,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		IPAddress:  l.IPAddress,
		UserAgent:  l.UserAgent,
		RequestID:  l.RequestID,
		CreatedAt:  l.CreatedAt,
	}
	if changes := l.ChangesJSON(); changes != "" {
		m.Changes = &changes
	}
	return m
}
