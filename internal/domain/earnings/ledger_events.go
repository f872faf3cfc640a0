package earnings

import (
	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeLedgerEntry = "LedgerEntry"

// Event type constants
const (
	EventTypeEntryRecorded      = "earnings.recorded"
	EventTypeEntryStatusChanged = "earnings.status_changed"
)

// EntryRecordedEvent is raised when a ledger entry is created
type EntryRecordedEvent struct {
	shared.BaseDomainEvent
	EntryID uuid.UUID       `json:"entry_id"`
	PDID    uuid.UUID       `json:"pd_id"`
	CaseID  *uuid.UUID      `json:"case_id,omitempty"`
	Kind    EntryKind       `json:"kind"`
	Amount  decimal.Decimal `json:"amount"`
}

// NewEntryRecordedEvent creates a new EntryRecordedEvent
func NewEntryRecordedEvent(e *LedgerEntry) *EntryRecordedEvent {
	return &EntryRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntryRecorded, AggregateTypeLedgerEntry, e.ID),
		EntryID:         e.ID,
		PDID:            e.PDID,
		CaseID:          e.CaseID,
		Kind:            e.Kind,
		Amount:          e.Amount,
	}
}

// EntryStatusChangedEvent is raised on approve, pay and void
type EntryStatusChangedEvent struct {
	shared.BaseDomainEvent
	EntryID    uuid.UUID   `json:"entry_id"`
	PDID       uuid.UUID   `json:"pd_id"`
	FromStatus EntryStatus `json:"from_status"`
	ToStatus   EntryStatus `json:"to_status"`
}

// NewEntryStatusChangedEvent creates a new EntryStatusChangedEvent
func NewEntryStatusChangedEvent(e *LedgerEntry, from EntryStatus) *EntryStatusChangedEvent {
	return &EntryStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntryStatusChanged, AggregateTypeLedgerEntry, e.ID),
		EntryID:         e.ID,
		PDID:            e.PDID,
		FromStatus:      from,
		ToStatus:        e.Status,
	}
}
