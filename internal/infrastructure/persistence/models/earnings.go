package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/earnings"
	"github.com/shopspring/decimal"
)

// LedgerEntryModel is the persistence model for an earnings ledger entry
type LedgerEntryModel struct {
	AggregateModel
	PDID            uuid.UUID            `gorm:"column:pd_id;type:uuid;not null;index"`
	CaseID          *uuid.UUID           `gorm:"type:uuid;index"`
	Kind            earnings.EntryKind   `gorm:"type:varchar(20);not null"`
	Amount          decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	Currency        string               `gorm:"type:char(3);not null"`
	Status          earnings.EntryStatus `gorm:"type:varchar(20);not null;index"`
	Description     string               `gorm:"type:text"`
	ApprovedBy      *uuid.UUID           `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	PaidAt          *time.Time
	PayoutReference string `gorm:"type:varchar(100)"`
	VoidReason      string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "earnings_ledger"
}

// ToDomain converts the persistence model to a domain LedgerEntry
func (m *LedgerEntryModel) ToDomain() *earnings.LedgerEntry {
	return &earnings.LedgerEntry{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PDID:              m.PDID,
		CaseID:            m.CaseID,
		Kind:              m.Kind,
		Amount:            m.Amount,
		Currency:          m.Currency,
		Status:            m.Status,
		Description:       m.Description,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		PaidAt:            m.PaidAt,
		PayoutReference:   m.PayoutReference,
		VoidReason:        m.VoidReason,
	}
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry
func LedgerEntryModelFromDomain(e *earnings.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{
		PDID:            e.PDID,
		CaseID:          e.CaseID,
		Kind:            e.Kind,
		Amount:          e.Amount,
		Currency:        e.Currency,
		Status:          e.Status,
		Description:     e.Description,
		ApprovedBy:      e.ApprovedBy,
		ApprovedAt:      e.ApprovedAt,
		PaidAt:          e.PaidAt,
		PayoutReference: e.PayoutReference,
		VoidReason:      e.VoidReason,
	}
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	return m
}
