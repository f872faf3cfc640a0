package earnings

import (
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/earnings"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaxPayoutBatch caps the number of entries paid in one request
const MaxPayoutBatch = 500

// ListEntriesFilter represents ledger query parameters
type ListEntriesFilter struct {
	PDID      string     `form:"pd_id" binding:"omitempty,uuid"`
	CaseID    string     `form:"case_id" binding:"omitempty,uuid"`
	Status    string     `form:"status" binding:"omitempty,oneof=pending approved paid void"`
	Kind      string     `form:"kind" binding:"omitempty,oneof=accrual adjustment payout"`
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by" binding:"omitempty,oneof=created_at updated_at amount status"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToFilter converts the request filter to a repository filter
func (f ListEntriesFilter) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	filter.OrderBy = f.OrderBy
	filter.OrderDir = f.OrderDir
	for key, value := range map[string]string{
		"pd_id":   f.PDID,
		"case_id": f.CaseID,
		"status":  f.Status,
		"kind":    f.Kind,
	} {
		if value != "" {
			filter.Filters[key] = value
		}
	}
	if f.StartDate != nil {
		filter.Filters["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		filter.Filters["end_date"] = *f.EndDate
	}
	return filter.Normalize()
}

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	ID              uuid.UUID       `json:"id"`
	PDID            uuid.UUID       `json:"pd_id"`
	CaseID          *uuid.UUID      `json:"case_id,omitempty"`
	Kind            string          `json:"kind"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	Description     string          `json:"description"`
	ApprovedBy      *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	PayoutReference string          `json:"payout_reference,omitempty"`
	VoidReason      string          `json:"void_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToEntryResponse converts a domain LedgerEntry to EntryResponse
func ToEntryResponse(e *earnings.LedgerEntry) EntryResponse {
	return EntryResponse{
		ID:              e.ID,
		PDID:            e.PDID,
		CaseID:          e.CaseID,
		Kind:            string(e.Kind),
		Amount:          e.Amount,
		Currency:        e.Currency,
		Status:          string(e.Status),
		Description:     e.Description,
		ApprovedBy:      e.ApprovedBy,
		ApprovedAt:      e.ApprovedAt,
		PaidAt:          e.PaidAt,
		PayoutReference: e.PayoutReference,
		VoidReason:      e.VoidReason,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// SummaryResponse totals a ledger by status
type SummaryResponse struct {
	PDID     *uuid.UUID      `json:"pd_id,omitempty"`
	Currency string          `json:"currency"`
	Pending  decimal.Decimal `json:"pending"`
	Approved decimal.Decimal `json:"approved"`
	Paid     decimal.Decimal `json:"paid"`
	Lifetime decimal.Decimal `json:"lifetime"`
}

// PayoutRequest marks approved entries as paid under one reference
type PayoutRequest struct {
	EntryIDs  []uuid.UUID `json:"entry_ids" binding:"required,min=1,max=500"`
	Reference string      `json:"reference" binding:"required,min=1,max=100"`
}

// PayoutResponse reports the paid batch
type PayoutResponse struct {
	Reference string          `json:"reference"`
	Count     int             `json:"count"`
	Total     decimal.Decimal `json:"total"`
	Entries   []EntryResponse `json:"entries"`
}

// AdjustmentRequest creates a manual correction for a PD
type AdjustmentRequest struct {
	PDID   uuid.UUID       `json:"pd_id" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason" binding:"required,min=1,max=500"`
}

// VoidRequest cancels an unpaid entry
type VoidRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}
