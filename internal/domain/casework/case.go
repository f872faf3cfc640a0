package casework

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
)

// TrackingCodePrefix is prepended to every patient-facing case reference
const TrackingCodePrefix = "TRK"

// TrackingCodeLength is the number of random symbols after the prefix
const TrackingCodeLength = 8

// NewTrackingCode generates a fresh tracking code such as TRK-7KQ2M9XD
func NewTrackingCode() (string, error) {
	return shared.NewCode(TrackingCodePrefix, TrackingCodeLength)
}

// IsTrackingCode reports whether s is shaped like a tracking code
func IsTrackingCode(s string) bool {
	return shared.IsCode(strings.ToUpper(strings.TrimSpace(s)), TrackingCodePrefix, TrackingCodeLength)
}

// Case is the aggregate root for a patient's journey through a pathway
type Case struct {
	shared.BaseAggregateRoot
	TrackingCode    string
	Patient         Patient
	Pathway         string
	Urgency         Urgency
	SymptomsSummary string
	ConsentGiven    bool
	ConsentAt       time.Time
	ReferralCode    string
	ChannelID       *uuid.UUID
	ProviderID      *uuid.UUID
	PDID            *uuid.UUID
	PoolID          *uuid.UUID
	AssignmentMode  AssignmentMode
	AssignedAt      *time.Time
	PooledAt        *time.Time
	Status          CaseStatus
	StatusChangedAt time.Time
	HoldReason      string
	CancelReason    string
	CompletedAt     *time.Time
	CancelledAt     *time.Time
}

// NewCase creates a case in the new status
func NewCase(trackingCode string, patient Patient, pathway string, urgency Urgency, symptoms string, consent bool, referralCode string) (*Case, error) {
	if !IsTrackingCode(trackingCode) {
		return nil, shared.NewDomainError("INVALID_TRACKING_CODE", "Tracking code is malformed")
	}
	pathway = strings.TrimSpace(pathway)
	if pathway == "" {
		return nil, shared.NewDomainError("INVALID_PATHWAY", "Pathway is required")
	}
	if urgency == "" {
		urgency = UrgencyRoutine
	}
	if !urgency.IsValid() {
		return nil, shared.NewDomainError("INVALID_URGENCY", fmt.Sprintf("Unknown urgency %q", urgency))
	}
	if !consent {
		return nil, shared.NewDomainError("CONSENT_REQUIRED", "Patient consent is required to open a case")
	}

	now := time.Now()
	c := &Case{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TrackingCode:      strings.ToUpper(trackingCode),
		Patient:           patient,
		Pathway:           pathway,
		Urgency:           urgency,
		SymptomsSummary:   strings.TrimSpace(symptoms),
		ConsentGiven:      true,
		ConsentAt:         now,
		ReferralCode:      strings.ToUpper(strings.TrimSpace(referralCode)),
		Status:            CaseStatusNew,
		StatusChangedAt:   now,
	}
	c.AddDomainEvent(NewCaseSubmittedEvent(c))
	return c, nil
}

// TransitionTo moves the case to target using the fixed transition table.
// Assignment and pool routing have their own operations because they carry
// extra data, so target may not be assigned or pooled here.
func (c *Case) TransitionTo(target CaseStatus, reason string) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown case status %q", target))
	}
	if !c.Status.CanTransitionTo(target) {
		return invalidTransition(c.Status, target)
	}
	switch target {
	case CaseStatusAssigned:
		return shared.NewDomainError("INVALID_TRANSITION", "Use an assignment operation to assign a case")
	case CaseStatusPooled:
		return shared.NewDomainError("INVALID_TRANSITION", "Use pool routing to place a case in a pool")
	case CaseStatusTriage:
		if c.Status == CaseStatusAssigned {
			return shared.NewDomainError("INVALID_TRANSITION", "Use unassign to release an assigned case")
		}
	}

	reason = strings.TrimSpace(reason)
	switch target {
	case CaseStatusCancelled:
		if reason == "" {
			return shared.NewDomainError("REASON_REQUIRED", "A reason is required to cancel a case")
		}
	case CaseStatusOnHold:
		if reason == "" {
			return shared.NewDomainError("REASON_REQUIRED", "A reason is required to put a case on hold")
		}
	case CaseStatusCompleted:
		if c.PDID == nil {
			return shared.NewDomainError("PD_REQUIRED", "A case must have an assigned PD to be completed")
		}
	}

	from := c.Status
	now := time.Now()
	switch target {
	case CaseStatusCancelled:
		c.CancelReason = reason
		c.CancelledAt = &now
	case CaseStatusOnHold:
		c.HoldReason = reason
	case CaseStatusInProgress:
		c.HoldReason = ""
	case CaseStatusCompleted:
		c.CompletedAt = &now
	case CaseStatusTriage:
		// Pulling a case out of its pool returns it to the admin queue.
		c.PoolID = nil
		c.PooledAt = nil
	}
	c.setStatus(target, now)
	c.AddDomainEvent(NewCaseStatusChangedEvent(c, from, reason))
	if target == CaseStatusCompleted {
		c.AddDomainEvent(NewCaseCompletedEvent(c))
	}
	return nil
}

// TransitionByPD applies a status change requested by the case's own PD.
// PDs may only move the case between working statuses.
func (c *Case) TransitionByPD(pdID uuid.UUID, target CaseStatus, reason string) error {
	if !c.IsAssignedTo(pdID) {
		return shared.NewDomainError("NOT_CASE_OWNER", "Case is not assigned to this PD")
	}
	if !c.Status.PDCanTransitionTo(target) {
		return invalidTransition(c.Status, target)
	}
	return c.TransitionTo(target, reason)
}

// AssignDirect assigns a freshly submitted case to the PD whose referral
// code the patient supplied.
func (c *Case) AssignDirect(pdID uuid.UUID) error {
	if c.Status != CaseStatusNew {
		return shared.NewDomainError("INVALID_STATE", "Direct assignment is only possible for new cases")
	}
	return c.assign(pdID, AssignmentModeDirectCode)
}

// ClaimFromPool assigns a pooled case to the claiming PD
func (c *Case) ClaimFromPool(pdID, poolID uuid.UUID) error {
	if c.Status != CaseStatusPooled || c.PoolID == nil || *c.PoolID != poolID {
		return shared.NewDomainError("CASE_NOT_IN_POOL", "Case is not available in this pool")
	}
	return c.assign(pdID, AssignmentModePoolClaim)
}

// AssignManually assigns or reassigns the case on behalf of an admin
func (c *Case) AssignManually(pdID uuid.UUID) error {
	switch c.Status {
	case CaseStatusNew, CaseStatusTriage, CaseStatusPooled:
	case CaseStatusAssigned:
		if c.IsAssignedTo(pdID) {
			return shared.NewDomainError("ALREADY_ASSIGNED", "Case is already assigned to this PD")
		}
	default:
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot assign a case in %s status", c.Status))
	}
	return c.assign(pdID, AssignmentModeManualAdmin)
}

func (c *Case) assign(pdID uuid.UUID, mode AssignmentMode) error {
	if pdID == uuid.Nil {
		return shared.NewDomainError("INVALID_PD", "PD ID cannot be empty")
	}
	if c.Status != CaseStatusAssigned && !c.Status.CanTransitionTo(CaseStatusAssigned) {
		return invalidTransition(c.Status, CaseStatusAssigned)
	}

	previous := c.PDID
	from := c.Status
	now := time.Now()
	id := pdID
	c.PDID = &id
	c.AssignmentMode = mode
	c.AssignedAt = &now
	c.setStatus(CaseStatusAssigned, now)

	if from != CaseStatusAssigned {
		c.AddDomainEvent(NewCaseStatusChangedEvent(c, from, ""))
	}
	c.AddDomainEvent(NewCaseAssignedEvent(c, previous))
	return nil
}

// Unassign removes the PD. The case goes back to its pool if it came from
// one, otherwise to triage.
func (c *Case) Unassign(reason string) error {
	if c.Status != CaseStatusAssigned {
		return shared.NewDomainError("INVALID_STATE", "Only assigned cases can be unassigned")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("REASON_REQUIRED", "A reason is required to unassign a case")
	}

	target := CaseStatusTriage
	if c.PoolID != nil {
		target = CaseStatusPooled
	}
	from := c.Status
	now := time.Now()
	c.PDID = nil
	c.AssignmentMode = AssignmentModeNone
	c.AssignedAt = nil
	if target == CaseStatusPooled {
		c.PooledAt = &now
	}
	c.setStatus(target, now)
	c.AddDomainEvent(NewCaseStatusChangedEvent(c, from, reason))
	return nil
}

// RouteToPool places the case in a city pool for PD claim
func (c *Case) RouteToPool(pool *Pool) error {
	if pool == nil {
		return shared.NewDomainError("INVALID_POOL", "Pool is required")
	}
	if !pool.Active {
		return shared.NewDomainError("POOL_INACTIVE", "Pool is not active")
	}
	if !shared.SameCity(pool.City, c.Patient.City) {
		return shared.NewDomainError("POOL_CITY_MISMATCH", fmt.Sprintf("Pool serves %s but the case is in %s", pool.City, c.Patient.City))
	}
	if !c.Status.CanTransitionTo(CaseStatusPooled) {
		return invalidTransition(c.Status, CaseStatusPooled)
	}

	from := c.Status
	now := time.Now()
	poolID := pool.ID
	c.PoolID = &poolID
	c.PooledAt = &now
	c.PDID = nil
	c.AssignmentMode = AssignmentModeNone
	c.AssignedAt = nil
	c.setStatus(CaseStatusPooled, now)
	c.AddDomainEvent(NewCaseStatusChangedEvent(c, from, ""))
	c.AddDomainEvent(NewCasePooledEvent(c))
	return nil
}

// SetRouting sets the clinical channel and provider the case is routed to
func (c *Case) SetRouting(channelID, providerID *uuid.UUID) error {
	if c.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot change routing of a %s case", c.Status))
	}
	c.ChannelID = channelID
	c.ProviderID = providerID
	c.Touch()
	return nil
}

// IsAssignedTo reports whether the case is owned by the PD
func (c *Case) IsAssignedTo(pdID uuid.UUID) bool {
	return c.PDID != nil && *c.PDID == pdID
}

// IsPoolOverdue reports whether the case has waited in its pool longer
// than sla.
func (c *Case) IsPoolOverdue(sla time.Duration, now time.Time) bool {
	if c.Status != CaseStatusPooled || c.PooledAt == nil || sla <= 0 {
		return false
	}
	return now.Sub(*c.PooledAt) > sla
}

func (c *Case) setStatus(status CaseStatus, at time.Time) {
	c.Status = status
	c.StatusChangedAt = at
	c.UpdatedAt = at
}

func invalidTransition(from, to CaseStatus) error {
	return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot move case from %s to %s", from, to))
}
