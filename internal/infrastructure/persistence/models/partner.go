package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// PDModel is the persistence model for the PD aggregate
type PDModel struct {
	AggregateModel
	CredentialColumns
	Code          string           `gorm:"type:varchar(20);not null;uniqueIndex"`
	FirstName     string           `gorm:"type:varchar(100);not null"`
	LastName      string           `gorm:"type:varchar(100);not null"`
	Email         string           `gorm:"type:varchar(200);not null;uniqueIndex"`
	Phone         string           `gorm:"type:varchar(50)"`
	City          string           `gorm:"type:varchar(100);not null;index"`
	Status        partner.PDStatus `gorm:"type:varchar(20);not null;index"`
	FeePerCase    decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	StatusReason  string           `gorm:"type:text"`
	ApplicationID *uuid.UUID       `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (PDModel) TableName() string {
	return "pds"
}

// ToDomain converts the persistence model to a domain PD
func (m *PDModel) ToDomain() *partner.PD {
	return &partner.PD{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Credential:        m.ToDomainCredential(),
		Code:              m.Code,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Email:             m.Email,
		Phone:             m.Phone,
		City:              m.City,
		Status:            m.Status,
		FeePerCase:        m.FeePerCase,
		StatusReason:      m.StatusReason,
		ApplicationID:     m.ApplicationID,
	}
}

// PDModelFromDomain creates a new persistence model from a domain PD
func PDModelFromDomain(pd *partner.PD) *PDModel {
	m := &PDModel{
		Code:          pd.Code,
		FirstName:     pd.FirstName,
		LastName:      pd.LastName,
		Email:         pd.Email,
		Phone:         pd.Phone,
		City:          pd.City,
		Status:        pd.Status,
		FeePerCase:    pd.FeePerCase,
		StatusReason:  pd.StatusReason,
		ApplicationID: pd.ApplicationID,
	}
	m.FromDomainAggregateRoot(pd.BaseAggregateRoot)
	m.FromDomainCredential(pd.Credential)
	return m
}

// PDApplicationModel is the persistence model for PDApplication
type PDApplicationModel struct {
	AggregateModel
	Email             string                  `gorm:"type:varchar(200);not null;index"`
	FirstName         string                  `gorm:"type:varchar(100)"`
	LastName          string                  `gorm:"type:varchar(100)"`
	Phone             string                  `gorm:"type:varchar(50)"`
	City              string                  `gorm:"type:varchar(100)"`
	ResumeTokenHash   string                  `gorm:"type:varchar(64);not null"`
	CurrentStep       partner.ApplicationStep `gorm:"type:varchar(20);not null"`
	CompletedSteps    StringList              `gorm:"type:jsonb"`
	YearsExperience   int                     `gorm:"not null;default:0"`
	Background        string                  `gorm:"type:text"`
	Specialties       StringList              `gorm:"type:jsonb"`
	HoursPerWeek      int                     `gorm:"not null;default:0"`
	StartDate         *time.Time              `gorm:"type:date"`
	AgreementAccepted bool                    `gorm:"not null;default:false"`
	AgreedAt          *time.Time
	DocumentKeys      StringList                `gorm:"type:jsonb"`
	Status            partner.ApplicationStatus `gorm:"type:varchar(20);not null;index"`
	SubmittedAt       *time.Time
	ReviewNote        string     `gorm:"type:text"`
	ReviewedBy        *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt        *time.Time
	PDID              *uuid.UUID `gorm:"column:pd_id;type:uuid"`
}

// TableName returns the table name for GORM
func (PDApplicationModel) TableName() string {
	return "pd_applications"
}

// ToDomain converts the persistence model to a domain PDApplication
func (m *PDApplicationModel) ToDomain() *partner.PDApplication {
	steps := make([]partner.ApplicationStep, 0, len(m.CompletedSteps))
	for _, s := range m.CompletedSteps {
		steps = append(steps, partner.ApplicationStep(s))
	}
	return &partner.PDApplication{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Email:             m.Email,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Phone:             m.Phone,
		City:              m.City,
		ResumeTokenHash:   m.ResumeTokenHash,
		CurrentStep:       m.CurrentStep,
		CompletedSteps:    steps,
		YearsExperience:   m.YearsExperience,
		Background:        m.Background,
		Specialties:       []string(m.Specialties),
		HoursPerWeek:      m.HoursPerWeek,
		StartDate:         m.StartDate,
		AgreementAccepted: m.AgreementAccepted,
		AgreedAt:          m.AgreedAt,
		DocumentKeys:      []string(m.DocumentKeys),
		Status:            m.Status,
		SubmittedAt:       m.SubmittedAt,
		ReviewNote:        m.ReviewNote,
		ReviewedBy:        m.ReviewedBy,
		ReviewedAt:        m.ReviewedAt,
		PDID:              m.PDID,
	}
}

// PDApplicationModelFromDomain creates a new persistence model from a domain PDApplication
func PDApplicationModelFromDomain(a *partner.PDApplication) *PDApplicationModel {
	steps := make(StringList, 0, len(a.CompletedSteps))
	for _, s := range a.CompletedSteps {
		steps = append(steps, string(s))
	}
	m := &PDApplicationModel{
		Email:             a.Email,
		FirstName:         a.FirstName,
		LastName:          a.LastName,
		Phone:             a.Phone,
		City:              a.City,
		ResumeTokenHash:   a.ResumeTokenHash,
		CurrentStep:       a.CurrentStep,
		CompletedSteps:    steps,
		YearsExperience:   a.YearsExperience,
		Background:        a.Background,
		Specialties:       StringList(a.Specialties),
		HoursPerWeek:      a.HoursPerWeek,
		StartDate:         a.StartDate,
		AgreementAccepted: a.AgreementAccepted,
		AgreedAt:          a.AgreedAt,
		DocumentKeys:      StringList(a.DocumentKeys),
		Status:            a.Status,
		SubmittedAt:       a.SubmittedAt,
		ReviewNote:        a.ReviewNote,
		ReviewedBy:        a.ReviewedBy,
		ReviewedAt:        a.ReviewedAt,
		PDID:              a.PDID,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// ClinicalChannelModel is the persistence model for ClinicalChannel
type ClinicalChannelModel struct {
	BaseModel
	Code        string              `gorm:"type:varchar(32);not null;uniqueIndex"`
	Name        string              `gorm:"type:varchar(200);not null"`
	Kind        partner.ChannelKind `gorm:"type:varchar(20);not null"`
	Description string              `gorm:"type:text"`
	Active      bool                `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ClinicalChannelModel) TableName() string {
	return "clinical_channels"
}

// ToDomain converts the persistence model to a domain ClinicalChannel
func (m *ClinicalChannelModel) ToDomain() *partner.ClinicalChannel {
	return &partner.ClinicalChannel{
		BaseEntity:  m.BaseModel.ToDomain(),
		Code:        m.Code,
		Name:        m.Name,
		Kind:        m.Kind,
		Description: m.Description,
		Active:      m.Active,
	}
}

// ClinicalChannelModelFromDomain creates a new persistence model from a domain ClinicalChannel
func ClinicalChannelModelFromDomain(c *partner.ClinicalChannel) *ClinicalChannelModel {
	m := &ClinicalChannelModel{
		Code:        c.Code,
		Name:        c.Name,
		Kind:        c.Kind,
		Description: c.Description,
		Active:      c.Active,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// ProviderModel is the persistence model for Provider
type ProviderModel struct {
	BaseModel
	ChannelID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null"`
	City      string    `gorm:"type:varchar(100);index"`
	Email     string    `gorm:"type:varchar(200)"`
	Phone     string    `gorm:"type:varchar(50)"`
	Active    bool      `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProviderModel) TableName() string {
	return "providers"
}

// ToDomain converts the persistence model to a domain Provider
func (m *ProviderModel) ToDomain() *partner.Provider {
	return &partner.Provider{
		BaseEntity: m.BaseModel.ToDomain(),
		ChannelID:  m.ChannelID,
		Name:       m.Name,
		City:       m.City,
		Email:      m.Email,
		Phone:      m.Phone,
		Active:     m.Active,
	}
}

// ProviderModelFromDomain creates a new persistence model from a domain Provider
func ProviderModelFromDomain(p *partner.Provider) *ProviderModel {
	m := &ProviderModel{
		ChannelID: p.ChannelID,
		Name:      p.Name,
		City:      p.City,
		Email:     p.Email,
		Phone:     p.Phone,
		Active:    p.Active,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
