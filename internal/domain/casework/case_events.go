package casework

import (
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeCase = "Case"

// Event type constants
const (
	EventTypeCaseSubmitted     = "case.submitted"
	EventTypeCaseStatusChanged = "case.status_changed"
	EventTypeCaseAssigned      = "case.assigned"
	EventTypeCasePooled        = "case.pooled"
	EventTypeCaseCompleted     = "case.completed"
)

// CaseSubmittedEvent is raised when intake creates a case
type CaseSubmittedEvent struct {
	shared.BaseDomainEvent
	CaseID       uuid.UUID `json:"case_id"`
	TrackingCode string    `json:"tracking_code"`
	Pathway      string    `json:"pathway"`
	City         string    `json:"city"`
}

// NewCaseSubmittedEvent creates a new CaseSubmittedEvent
func NewCaseSubmittedEvent(c *Case) *CaseSubmittedEvent {
	return &CaseSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCaseSubmitted, AggregateTypeCase, c.ID),
		CaseID:          c.ID,
		TrackingCode:    c.TrackingCode,
		Pathway:         c.Pathway,
		City:            c.Patient.City,
	}
}

// CaseStatusChangedEvent is raised on every status change
type CaseStatusChangedEvent struct {
	shared.BaseDomainEvent
	CaseID       uuid.UUID  `json:"case_id"`
	TrackingCode string     `json:"tracking_code"`
	FromStatus   CaseStatus `json:"from_status"`
	ToStatus     CaseStatus `json:"to_status"`
	Reason       string     `json:"reason,omitempty"`
}

// NewCaseStatusChangedEvent creates a new CaseStatusChangedEvent
func NewCaseStatusChangedEvent(c *Case, from CaseStatus, reason string) *CaseStatusChangedEvent {
	return &CaseStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCaseStatusChanged, AggregateTypeCase, c.ID),
		CaseID:          c.ID,
		TrackingCode:    c.TrackingCode,
		FromStatus:      from,
		ToStatus:        c.Status,
		Reason:          reason,
	}
}

// CaseAssignedEvent is raised when a PD takes ownership of a case
type CaseAssignedEvent struct {
	shared.BaseDomainEvent
	CaseID       uuid.UUID      `json:"case_id"`
	TrackingCode string         `json:"tracking_code"`
	PDID         uuid.UUID      `json:"pd_id"`
	PreviousPDID *uuid.UUID     `json:"previous_pd_id,omitempty"`
	Mode         AssignmentMode `json:"mode"`
}

// NewCaseAssignedEvent creates a new CaseAssignedEvent
func NewCaseAssignedEvent(c *Case, previous *uuid.UUID) *CaseAssignedEvent {
	return &CaseAssignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCaseAssigned, AggregateTypeCase, c.ID),
		CaseID:          c.ID,
		TrackingCode:    c.TrackingCode,
		PDID:            *c.PDID,
		PreviousPDID:    previous,
		Mode:            c.AssignmentMode,
	}
}

// CasePooledEvent is raised when a case is placed in a pool
type CasePooledEvent struct {
	shared.BaseDomainEvent
	CaseID       uuid.UUID `json:"case_id"`
	TrackingCode string    `json:"tracking_code"`
	PoolID       uuid.UUID `json:"pool_id"`
	City         string    `json:"city"`
}

// NewCasePooledEvent creates a new CasePooledEvent
func NewCasePooledEvent(c *Case) *CasePooledEvent {
	return &CasePooledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCasePooled, AggregateTypeCase, c.ID),
		CaseID:          c.ID,
		TrackingCode:    c.TrackingCode,
		PoolID:          *c.PoolID,
		City:            c.Patient.City,
	}
}

// CaseCompletedEvent is raised when a case reaches completed.
// The earnings context accrues the PD fee from it.
type CaseCompletedEvent struct {
	shared.BaseDomainEvent
	CaseID       uuid.UUID `json:"case_id"`
	TrackingCode string    `json:"tracking_code"`
	PDID         uuid.UUID `json:"pd_id"`
	CompletedAt  time.Time `json:"completed_at"`
}

// NewCaseCompletedEvent creates a new CaseCompletedEvent
func NewCaseCompletedEvent(c *Case) *CaseCompletedEvent {
	return &CaseCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCaseCompleted, AggregateTypeCase, c.ID),
		CaseID:          c.ID,
		TrackingCode:    c.TrackingCode,
		PDID:            *c.PDID,
		CompletedAt:     *c.CompletedAt,
	}
}
