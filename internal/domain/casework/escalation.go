package casework

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
)

// EscalationStatus represents the status of an escalation
type EscalationStatus string

const (
	EscalationStatusOpen         EscalationStatus = "open"
	EscalationStatusAcknowledged EscalationStatus = "acknowledged"
	EscalationStatusResolved     EscalationStatus = "resolved"
)

// IsValid checks if the status is a valid EscalationStatus
func (s EscalationStatus) IsValid() bool {
	switch s {
	case EscalationStatusOpen, EscalationStatusAcknowledged, EscalationStatusResolved:
		return true
	}
	return false
}

// IsOpen reports whether the escalation still needs attention
func (s EscalationStatus) IsOpen() bool {
	return s == EscalationStatusOpen || s == EscalationStatusAcknowledged
}

// EscalationPriority ranks how quickly an escalation must be handled
type EscalationPriority string

const (
	EscalationPriorityLow      EscalationPriority = "low"
	EscalationPriorityMedium   EscalationPriority = "medium"
	EscalationPriorityHigh     EscalationPriority = "high"
	EscalationPriorityCritical EscalationPriority = "critical"
)

// IsValid checks if the priority is valid
func (p EscalationPriority) IsValid() bool {
	switch p {
	case EscalationPriorityLow, EscalationPriorityMedium, EscalationPriorityHigh, EscalationPriorityCritical:
		return true
	}
	return false
}

// ErrResolutionNoteRequired is returned when resolving without a note
var ErrResolutionNoteRequired = shared.NewDomainError("RESOLUTION_NOTE_REQUIRED", "A resolution note is required to resolve an escalation")

// Escalation flags a case for managerial attention
type Escalation struct {
	shared.BaseEntity
	CaseID         uuid.UUID
	RaisedByID     *uuid.UUID
	RaisedByType   shared.ActorType
	Reason         string
	Priority       EscalationPriority
	Status         EscalationStatus
	AcknowledgedBy *uuid.UUID
	AcknowledgedAt *time.Time
	ResolutionNote string
	ResolvedBy     *uuid.UUID
	ResolvedAt     *time.Time
}

// NewEscalation opens an escalation against a case
func NewEscalation(caseID uuid.UUID, raisedBy shared.Actor, reason string, priority EscalationPriority) (*Escalation, error) {
	if caseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CASE", "Case ID cannot be empty")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewDomainError("REASON_REQUIRED", "An escalation reason is required")
	}
	if !priority.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRIORITY", fmt.Sprintf("Unknown priority %q", priority))
	}
	return &Escalation{
		BaseEntity:   shared.NewBaseEntity(),
		CaseID:       caseID,
		RaisedByID:   raisedBy.ID,
		RaisedByType: raisedBy.Type,
		Reason:       reason,
		Priority:     priority,
		Status:       EscalationStatusOpen,
	}, nil
}

// Acknowledge records that a manager has picked the escalation up
func (e *Escalation) Acknowledge(by uuid.UUID) error {
	if e.Status != EscalationStatusOpen {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot acknowledge an escalation in %s status", e.Status))
	}
	now := time.Now()
	e.Status = EscalationStatusAcknowledged
	e.AcknowledgedBy = &by
	e.AcknowledgedAt = &now
	e.UpdatedAt = now
	return nil
}

// Resolve closes the escalation. The note is mandatory.
func (e *Escalation) Resolve(by uuid.UUID, note string) error {
	if !e.Status.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", "Escalation is already resolved")
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return ErrResolutionNoteRequired
	}
	now := time.Now()
	e.Status = EscalationStatusResolved
	e.ResolutionNote = note
	e.ResolvedBy = &by
	e.ResolvedAt = &now
	e.UpdatedAt = now
	return nil
}

// IsSystemRaised reports whether a background job opened the escalation
func (e *Escalation) IsSystemRaised() bool {
	return e.RaisedByType == shared.ActorTypeSystem
}
