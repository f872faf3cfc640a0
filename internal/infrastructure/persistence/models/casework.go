package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/shared"
)

// CaseModel is the persistence model for the Case aggregate
type CaseModel struct {
	AggregateModel
	TrackingCode     string                  `gorm:"type:varchar(20);not null;uniqueIndex"`
	PatientFirstName string                  `gorm:"type:varchar(100);not null"`
	PatientLastName  string                  `gorm:"type:varchar(100);not null"`
	PatientEmail     string                  `gorm:"type:varchar(200);not null;index"`
	PatientPhone     string                  `gorm:"type:varchar(50);not null"`
	PatientDOB       time.Time               `gorm:"column:patient_dob;type:date;not null"`
	City             string                  `gorm:"type:varchar(100);not null;index"`
	Postcode         string                  `gorm:"type:varchar(20)"`
	Pathway          string                  `gorm:"type:varchar(100);not null"`
	Urgency          casework.Urgency        `gorm:"type:varchar(20);not null;default:'routine'"`
	SymptomsSummary  string                  `gorm:"type:text"`
	ConsentGiven     bool                    `gorm:"not null;default:false"`
	ConsentAt        time.Time               `gorm:"not null"`
	ReferralCode     string                  `gorm:"type:varchar(20)"`
	ChannelID        *uuid.UUID              `gorm:"type:uuid;index"`
	ProviderID       *uuid.UUID              `gorm:"type:uuid;index"`
	PDID             *uuid.UUID              `gorm:"column:pd_id;type:uuid;index"`
	PoolID           *uuid.UUID              `gorm:"type:uuid;index"`
	AssignmentMode   casework.AssignmentMode `gorm:"type:varchar(20)"`
	AssignedAt       *time.Time
	PooledAt         *time.Time
	Status           casework.CaseStatus `gorm:"type:varchar(20);not null;index"`
	StatusChangedAt  time.Time           `gorm:"not null"`
	HoldReason       string              `gorm:"type:text"`
	CancelReason     string              `gorm:"type:text"`
	CompletedAt      *time.Time
	CancelledAt      *time.Time
}

// TableName returns the table name for GORM
func (CaseModel) TableName() string {
	return "cases"
}

// ToDomain converts the persistence model to a domain Case
func (m *CaseModel) ToDomain() *casework.Case {
	return &casework.Case{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		TrackingCode:      m.TrackingCode,
		Patient: casework.Patient{
			FirstName:   m.PatientFirstName,
			LastName:    m.PatientLastName,
			Email:       m.PatientEmail,
			Phone:       m.PatientPhone,
			DateOfBirth: m.PatientDOB,
			City:        m.City,
			Postcode:    m.Postcode,
		},
		Pathway:         m.Pathway,
		Urgency:         m.Urgency,
		SymptomsSummary: m.SymptomsSummary,
		ConsentGiven:    m.ConsentGiven,
		ConsentAt:       m.ConsentAt,
		ReferralCode:    m.ReferralCode,
		ChannelID:       m.ChannelID,
		ProviderID:      m.ProviderID,
		PDID:            m.PDID,
		PoolID:          m.PoolID,
		AssignmentMode:  m.AssignmentMode,
		AssignedAt:      m.AssignedAt,
		PooledAt:        m.PooledAt,
		Status:          m.Status,
		StatusChangedAt: m.StatusChangedAt,
		HoldReason:      m.HoldReason,
		CancelReason:    m.CancelReason,
		CompletedAt:     m.CompletedAt,
		CancelledAt:     m.CancelledAt,
	}
}

// FromDomain populates the persistence model from a domain Case
func (m *CaseModel) FromDomain(c *casework.Case) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.TrackingCode = c.TrackingCode
	m.PatientFirstName = c.Patient.FirstName
	m.PatientLastName = c.Patient.LastName
	m.PatientEmail = c.Patient.Email
	m.PatientPhone = c.Patient.Phone
	m.PatientDOB = c.Patient.DateOfBirth
	m.City = c.Patient.City
	m.Postcode = c.Patient.Postcode
	m.Pathway = c.Pathway
	m.Urgency = c.Urgency
	m.SymptomsSummary = c.SymptomsSummary
	m.ConsentGiven = c.ConsentGiven
	m.ConsentAt = c.ConsentAt
	m.ReferralCode = c.ReferralCode
	m.ChannelID = c.ChannelID
	m.ProviderID = c.ProviderID
	m.PDID = c.PDID
	m.PoolID = c.PoolID
	m.AssignmentMode = c.AssignmentMode
	m.AssignedAt = c.AssignedAt
	m.PooledAt = c.PooledAt
	m.Status = c.Status
	m.StatusChangedAt = c.StatusChangedAt
	m.HoldReason = c.HoldReason
	m.CancelReason = c.CancelReason
	m.CompletedAt = c.CompletedAt
	m.CancelledAt = c.CancelledAt
}

// CaseModelFromDomain creates a new persistence model from a domain Case
func CaseModelFromDomain(c *casework.Case) *CaseModel {
	m := &CaseModel{}
	m.FromDomain(c)
	return m
}

// EscalationModel is the persistence model for Escalation
type EscalationModel struct {
	BaseModel
	CaseID         uuid.UUID                   `gorm:"type:uuid;not null;index"`
	RaisedByID     *uuid.UUID                  `gorm:"type:uuid"`
	RaisedByType   shared.ActorType            `gorm:"type:varchar(20);not null"`
	Reason         string                      `gorm:"type:text;not null"`
	Priority       casework.EscalationPriority `gorm:"type:varchar(20);not null"`
	Status         casework.EscalationStatus   `gorm:"type:varchar(20);not null;index"`
	AcknowledgedBy *uuid.UUID                  `gorm:"type:uuid"`
	AcknowledgedAt *time.Time
	ResolutionNote string     `gorm:"type:text"`
	ResolvedBy     *uuid.UUID `gorm:"type:uuid"`
	ResolvedAt     *time.Time
}

// TableName returns the table name for GORM
func (EscalationModel) TableName() string {
	return "escalations"
}

// ToDomain converts the persistence model to a domain Escalation
func (m *EscalationModel) ToDomain() *casework.Escalation {
	return &casework.Escalation{
		BaseEntity:     m.BaseModel.ToDomain(),
		CaseID:         m.CaseID,
		RaisedByID:     m.RaisedByID,
		RaisedByType:   m.RaisedByType,
		Reason:         m.Reason,
		Priority:       m.Priority,
		Status:         m.Status,
		AcknowledgedBy: m.AcknowledgedBy,
		AcknowledgedAt: m.AcknowledgedAt,
		ResolutionNote: m.ResolutionNote,
		ResolvedBy:     m.ResolvedBy,
		ResolvedAt:     m.ResolvedAt,
	}
}

// EscalationModelFromDomain creates a new persistence model from a domain Escalation
func EscalationModelFromDomain(e *casework.Escalation) *EscalationModel {
	m := &EscalationModel{
		CaseID:         e.CaseID,
		RaisedByID:     e.RaisedByID,
		RaisedByType:   e.RaisedByType,
		Reason:         e.Reason,
		Priority:       e.Priority,
		Status:         e.Status,
		AcknowledgedBy: e.AcknowledgedBy,
		AcknowledgedAt: e.AcknowledgedAt,
		ResolutionNote: e.ResolutionNote,
		ResolvedBy:     e.ResolvedBy,
		ResolvedAt:     e.ResolvedAt,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}

// ComplianceFlagModel is the persistence model for ComplianceFlag
type ComplianceFlagModel struct {
	BaseModel
	CaseID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	PDID          *uuid.UUID            `gorm:"column:pd_id;type:uuid;index"`
	Type          casework.FlagType     `gorm:"type:varchar(30);not null"`
	Severity      casework.FlagSeverity `gorm:"type:varchar(20);not null"`
	Description   string                `gorm:"type:text;not null"`
	Status        casework.FlagStatus   `gorm:"type:varchar(20);not null;index"`
	RaisedBy      *uuid.UUID            `gorm:"type:uuid"`
	ClearedBy     *uuid.UUID            `gorm:"type:uuid"`
	ClearedAt     *time.Time
	ClearanceNote string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ComplianceFlagModel) TableName() string {
	return "compliance_flags"
}

// ToDomain converts the persistence model to a domain ComplianceFlag
func (m *ComplianceFlagModel) ToDomain() *casework.ComplianceFlag {
	return &casework.ComplianceFlag{
		BaseEntity:    m.BaseModel.ToDomain(),
		CaseID:        m.CaseID,
		PDID:          m.PDID,
		Type:          m.Type,
		Severity:      m.Severity,
		Description:   m.Description,
		Status:        m.Status,
		RaisedBy:      m.RaisedBy,
		ClearedBy:     m.ClearedBy,
		ClearedAt:     m.ClearedAt,
		ClearanceNote: m.ClearanceNote,
	}
}

// ComplianceFlagModelFromDomain creates a new persistence model from a domain ComplianceFlag
func ComplianceFlagModelFromDomain(f *casework.ComplianceFlag) *ComplianceFlagModel {
	m := &ComplianceFlagModel{
		CaseID:        f.CaseID,
		PDID:          f.PDID,
		Type:          f.Type,
		Severity:      f.Severity,
		Description:   f.Description,
		Status:        f.Status,
		RaisedBy:      f.RaisedBy,
		ClearedBy:     f.ClearedBy,
		ClearedAt:     f.ClearedAt,
		ClearanceNote: f.ClearanceNote,
	}
	m.FromDomainBaseEntity(f.BaseEntity)
	return m
}

// ContactLogModel is the persistence model for ContactLog
type ContactLogModel struct {
	ID          uuid.UUID                 `gorm:"type:uuid;primary_key"`
	CaseID      uuid.UUID                 `gorm:"type:uuid;not null;index"`
	ActorID     *uuid.UUID                `gorm:"type:uuid"`
	ActorType   shared.ActorType          `gorm:"type:varchar(20);not null"`
	Method      casework.ContactMethod    `gorm:"type:varchar(20);not null"`
	Direction   casework.ContactDirection `gorm:"type:varchar(20);not null"`
	Outcome     casework.ContactOutcome   `gorm:"type:varchar(20);not null"`
	Note        string                    `gorm:"type:text"`
	ContactedAt time.Time                 `gorm:"not null"`
	CreatedAt   time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ContactLogModel) TableName() string {
	return "contact_logs"
}

// ToDomain converts the persistence model to a domain ContactLog
func (m *ContactLogModel) ToDomain() *casework.ContactLog {
	return &casework.ContactLog{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.CreatedAt,
		},
		CaseID:      m.CaseID,
		ActorID:     m.ActorID,
		ActorType:   m.ActorType,
		Method:      m.Method,
		Direction:   m.Direction,
		Outcome:     m.Outcome,
		Note:        m.Note,
		ContactedAt: m.ContactedAt,
	}
}

// ContactLogModelFromDomain creates a new persistence model from a domain ContactLog
func ContactLogModelFromDomain(l *casework.ContactLog) *ContactLogModel {
	return &ContactLogModel{
		ID:          l.ID,
		CaseID:      l.CaseID,
		ActorID:     l.ActorID,
		ActorType:   l.ActorType,
		Method:      l.Method,
		Direction:   l.Direction,
		Outcome:     l.Outcome,
		Note:        l.Note,
		ContactedAt: l.ContactedAt,
		CreatedAt:   l.CreatedAt,
	}
}

// PoolModel is the persistence model for Pool
type PoolModel struct {
	BaseModel
	Name     string `gorm:"type:varchar(100);not null"`
	City     string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Active   bool   `gorm:"not null;default:true"`
	SLAHours int    `gorm:"column:sla_hours;not null;default:48"`
}

// TableName returns the table name for GORM
func (PoolModel) TableName() string {
	return "pools"
}

// ToDomain converts the persistence model to a domain Pool
func (m *PoolModel) ToDomain() *casework.Pool {
	return &casework.Pool{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		City:       m.City,
		Active:     m.Active,
		SLAHours:   m.SLAHours,
	}
}

// PoolModelFromDomain creates a new persistence model from a domain Pool
func PoolModelFromDomain(p *casework.Pool) *PoolModel {
	m := &PoolModel{
		Name:     p.Name,
		City:     p.City,
		Active:   p.Active,
		SLAHours: p.SLAHours,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
