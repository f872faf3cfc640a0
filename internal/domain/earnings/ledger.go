// Package earnings is the PD compensation ledger. Entries are accrued when a
// case completes and move through approval to payout.
package earnings

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry
type EntryKind string

const (
	EntryKindAccrual    EntryKind = "accrual"
	EntryKindAdjustment EntryKind = "adjustment"
	EntryKindPayout     EntryKind = "payout"
)

// IsValid checks if the kind is valid
func (k EntryKind) IsValid() bool {
	switch k {
	case EntryKindAccrual, EntryKindAdjustment, EntryKindPayout:
		return true
	}
	return false
}

// EntryStatus represents the status of a ledger entry
type EntryStatus string

const (
	EntryStatusPending  EntryStatus = "pending"
	EntryStatusApproved EntryStatus = "approved"
	EntryStatusPaid     EntryStatus = "paid"
	EntryStatusVoid     EntryStatus = "void"
)

// IsValid checks if the status is valid
func (s EntryStatus) IsValid() bool {
	switch s {
	case EntryStatusPending, EntryStatusApproved, EntryStatusPaid, EntryStatusVoid:
		return true
	}
	return false
}

// String returns the string representation
func (s EntryStatus) String() string {
	return string(s)
}

// LedgerEntry is one line in a PD's earnings ledger
type LedgerEntry struct {
	shared.BaseAggregateRoot
	PDID            uuid.UUID
	CaseID          *uuid.UUID
	Kind            EntryKind
	Amount          decimal.Decimal
	Currency        string
	Status          EntryStatus
	Description     string
	ApprovedBy      *uuid.UUID
	ApprovedAt      *time.Time
	PaidAt          *time.Time
	PayoutReference string
	VoidReason      string
}

// NewAccrual creates the pending fee entry for a completed case
func NewAccrual(pdID, caseID uuid.UUID, amount decimal.Decimal, currency, trackingCode string) (*LedgerEntry, error) {
	if caseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CASE", "Case ID cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Accrual amount cannot be negative")
	}
	id := caseID
	return newEntry(pdID, &id, EntryKindAccrual, amount, currency, fmt.Sprintf("Completed case %s", trackingCode))
}

// NewAdjustment creates a manual pending correction. amount may be negative.
func NewAdjustment(pdID uuid.UUID, amount decimal.Decimal, currency, reason string) (*LedgerEntry, error) {
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Adjustment amount cannot be zero")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewDomainError("REASON_REQUIRED", "A reason is required for an adjustment")
	}
	return newEntry(pdID, nil, EntryKindAdjustment, amount, currency, reason)
}

func newEntry(pdID uuid.UUID, caseID *uuid.UUID, kind EntryKind, amount decimal.Decimal, currency, description string) (*LedgerEntry, error) {
	if pdID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PD", "PD ID cannot be empty")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter ISO code")
	}
	e := &LedgerEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PDID:              pdID,
		CaseID:            caseID,
		Kind:              kind,
		Amount:            amount.Round(2),
		Currency:          currency,
		Status:            EntryStatusPending,
		Description:       description,
	}
	e.AddDomainEvent(NewEntryRecordedEvent(e))
	return e, nil
}

// Approve confirms a pending entry for payout
func (e *LedgerEntry) Approve(by uuid.UUID) error {
	if e.Status != EntryStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve a %s entry", e.Status))
	}
	now := time.Now()
	e.ApprovedBy = &by
	e.ApprovedAt = &now
	e.changeStatus(EntryStatusApproved)
	return nil
}

// MarkPaid records that an approved entry was paid out
func (e *LedgerEntry) MarkPaid(reference string) error {
	if e.Status != EntryStatusApproved {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot pay a %s entry", e.Status))
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return shared.NewDomainError("REFERENCE_REQUIRED", "A payout reference is required")
	}
	now := time.Now()
	e.PaidAt = &now
	e.PayoutReference = reference
	e.changeStatus(EntryStatusPaid)
	return nil
}

// Void cancels an entry that has not been paid
func (e *LedgerEntry) Void(reason string) error {
	if e.Status != EntryStatusPending && e.Status != EntryStatusApproved {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot void a %s entry", e.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("REASON_REQUIRED", "A reason is required to void an entry")
	}
	e.VoidReason = reason
	e.changeStatus(EntryStatusVoid)
	return nil
}

func (e *LedgerEntry) changeStatus(to EntryStatus) {
	from := e.Status
	e.Status = to
	e.Touch()
	e.AddDomainEvent(NewEntryStatusChangedEvent(e, from))
}

// Summary totals a PD's ledger by status. Void entries are excluded.
type Summary struct {
	PDID     uuid.UUID
	Currency string
	Pending  decimal.Decimal
	Approved decimal.Decimal
	Paid     decimal.Decimal
	Lifetime decimal.Decimal
}

// Summarize totals one PD's entries
func Summarize(pdID uuid.UUID, entries []LedgerEntry) Summary {
	s := Summary{
		PDID:     pdID,
		Pending:  decimal.Zero,
		Approved: decimal.Zero,
		Paid:     decimal.Zero,
		Lifetime: decimal.Zero,
	}
	for _, e := range entries {
		if e.Status == EntryStatusVoid {
			continue
		}
		if s.Currency == "" {
			s.Currency = e.Currency
		}
		s.AddTotal(e.Status, e.Amount)
	}
	return s
}

// AddTotal adds amount to the bucket for status
func (s *Summary) AddTotal(status EntryStatus, amount decimal.Decimal) {
	switch status {
	case EntryStatusPending:
		s.Pending = s.Pending.Add(amount)
	case EntryStatusApproved:
		s.Approved = s.Approved.Add(amount)
	case EntryStatusPaid:
		s.Paid = s.Paid.Add(amount)
	default:
		return
	}
	s.Lifetime = s.Lifetime.Add(amount)
}
