package casework

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
)

// FlagType categorises a compliance flag
type FlagType string

const (
	FlagTypeConsentMissing   FlagType = "consent_missing"
	FlagTypeIdentityMismatch FlagType = "identity_mismatch"
	FlagTypeConduct          FlagType = "conduct"
	FlagTypeDocumentation    FlagType = "documentation"
	FlagTypeOther            FlagType = "other"
)

// IsValid checks if the flag type is valid
func (t FlagType) IsValid() bool {
	switch t {
	case FlagTypeConsentMissing, FlagTypeIdentityMismatch, FlagTypeConduct, FlagTypeDocumentation, FlagTypeOther:
		return true
	}
	return false
}

// FlagSeverity ranks a compliance flag
type FlagSeverity string

const (
	FlagSeverityLow    FlagSeverity = "low"
	FlagSeverityMedium FlagSeverity = "medium"
	FlagSeverityHigh   FlagSeverity = "high"
)

// IsValid checks if the severity is valid
func (s FlagSeverity) IsValid() bool {
	switch s {
	case FlagSeverityLow, FlagSeverityMedium, FlagSeverityHigh:
		return true
	}
	return false
}

// BlocksCompletion reports whether an open flag of this severity stops
// the case from being completed.
func (s FlagSeverity) BlocksCompletion() bool {
	return s == FlagSeverityHigh
}

// FlagStatus represents the status of a compliance flag
type FlagStatus string

const (
	FlagStatusOpen    FlagStatus = "open"
	FlagStatusCleared FlagStatus = "cleared"
)

// ComplianceFlag records a compliance concern about a case or its PD
type ComplianceFlag struct {
	shared.BaseEntity
	CaseID        uuid.UUID
	PDID          *uuid.UUID
	Type          FlagType
	Severity      FlagSeverity
	Description   string
	Status        FlagStatus
	RaisedBy      *uuid.UUID
	ClearedBy     *uuid.UUID
	ClearedAt     *time.Time
	ClearanceNote string
}

// NewComplianceFlag raises an open flag
func NewComplianceFlag(caseID uuid.UUID, pdID *uuid.UUID, flagType FlagType, severity FlagSeverity, description string, raisedBy *uuid.UUID) (*ComplianceFlag, error) {
	if caseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CASE", "Case ID cannot be empty")
	}
	if !flagType.IsValid() {
		return nil, shared.NewDomainError("INVALID_FLAG_TYPE", fmt.Sprintf("Unknown flag type %q", flagType))
	}
	if !severity.IsValid() {
		return nil, shared.NewDomainError("INVALID_SEVERITY", fmt.Sprintf("Unknown severity %q", severity))
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("DESCRIPTION_REQUIRED", "A description is required")
	}
	return &ComplianceFlag{
		BaseEntity:  shared.NewBaseEntity(),
		CaseID:      caseID,
		PDID:        pdID,
		Type:        flagType,
		Severity:    severity,
		Description: description,
		Status:      FlagStatusOpen,
		RaisedBy:    raisedBy,
	}, nil
}

// Clear closes the flag with a clearance note
func (f *ComplianceFlag) Clear(by uuid.UUID, note string) error {
	if f.Status != FlagStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Compliance flag is already cleared")
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return shared.NewDomainError("CLEARANCE_NOTE_REQUIRED", "A clearance note is required to clear a compliance flag")
	}
	now := time.Now()
	f.Status = FlagStatusCleared
	f.ClearedBy = &by
	f.ClearedAt = &now
	f.ClearanceNote = note
	f.UpdatedAt = now
	return nil
}

// IsBlocking reports whether the flag currently blocks completion
func (f *ComplianceFlag) IsBlocking() bool {
	return f.Status == FlagStatusOpen && f.Severity.BlocksCompletion()
}
