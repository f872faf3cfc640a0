// Package earnings runs the PD compensation ledger: accruals from completed
// cases, admin approval, payout batches and adjustments.
package earnings

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	auditapp "github.com/pathway/backend/internal/application/audit"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/earnings"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/export"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Payout errors
var (
	ErrEmptyPayout     = shared.NewDomainError("EMPTY_PAYOUT", "At least one entry is required")
	ErrPayoutTooLarge  = shared.NewDomainError("PAYOUT_TOO_LARGE", fmt.Sprintf("A payout may include at most %d entries", MaxPayoutBatch))
	ErrMixedCurrencies = shared.NewDomainError("MIXED_CURRENCIES", "A payout cannot mix currencies")
)

// Service manages the earnings ledger
type Service struct {
	ledger   earnings.LedgerRepository
	pds      partner.PDRepository
	tx       shared.TxManager
	events   shared.EventPublisher
	recorder *auditapp.Recorder
	currency string
	logger   *zap.Logger
}

// NewService creates a new earnings service
func NewService(
	ledger earnings.LedgerRepository,
	pds partner.PDRepository,
	tx shared.TxManager,
	events shared.EventPublisher,
	recorder *auditapp.Recorder,
	currency string,
	logger *zap.Logger,
) *Service {
	if currency == "" {
		currency = "GBP"
	}
	return &Service{
		ledger:   ledger,
		pds:      pds,
		tx:       tx,
		events:   events,
		recorder: recorder,
		currency: currency,
		logger:   logger,
	}
}

// List retrieves a page of ledger entries
func (s *Service) List(ctx context.Context, filter ListEntriesFilter) ([]EntryResponse, int64, error) {
	f := filter.ToFilter()
	entries, err := s.ledger.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.ledger.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]EntryResponse, len(entries))
	for i := range entries {
		out[i] = ToEntryResponse(&entries[i])
	}
	return out, total, nil
}

// Summary totals the ledger by status, for one PD when pdID is set
func (s *Service) Summary(ctx context.Context, pdID *uuid.UUID) (*SummaryResponse, error) {
	sums, err := s.ledger.SumByStatus(ctx, pdID)
	if err != nil {
		return nil, err
	}
	var summary earnings.Summary
	summary.Pending, summary.Approved, summary.Paid, summary.Lifetime = decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for status, amount := range sums {
		summary.AddTotal(status, amount)
	}
	return &SummaryResponse{
		PDID:     pdID,
		Currency: s.currency,
		Pending:  summary.Pending,
		Approved: summary.Approved,
		Paid:     summary.Paid,
		Lifetime: summary.Lifetime,
	}, nil
}

// ListForPD retrieves the PD's own entries
func (s *Service) ListForPD(ctx context.Context, actor shared.Actor, filter ListEntriesFilter) ([]EntryResponse, int64, error) {
	if actor.Type != shared.ActorTypePD || actor.ID == nil {
		return nil, 0, shared.ErrForbidden
	}
	filter.PDID = actor.ID.String()
	return s.List(ctx, filter)
}

// SummaryForPD totals the PD's own ledger
func (s *Service) SummaryForPD(ctx context.Context, actor shared.Actor) (*SummaryResponse, error) {
	if actor.Type != shared.ActorTypePD || actor.ID == nil {
		return nil, shared.ErrForbidden
	}
	return s.Summary(ctx, actor.ID)
}

// Approve confirms a pending entry for payout
func (s *Service) Approve(ctx context.Context, actor shared.Actor, id uuid.UUID) (*EntryResponse, error) {
	if actor.ID == nil {
		return nil, shared.ErrUnauthorized
	}
	entry, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.Approve(*actor.ID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, audit.ActionEarningsApproved, audit.Diff("status", earnings.EntryStatusPending, entry.Status), entry); err != nil {
		return nil, err
	}
	resp := ToEntryResponse(entry)
	return &resp, nil
}

// Payout marks a batch of approved entries as paid. Either every entry is
// paid or none is.
func (s *Service) Payout(ctx context.Context, actor shared.Actor, req PayoutRequest) (*PayoutResponse, error) {
	ids := dedupe(req.EntryIDs)
	if len(ids) == 0 {
		return nil, ErrEmptyPayout
	}
	if len(ids) > MaxPayoutBatch {
		return nil, ErrPayoutTooLarge
	}

	entries, err := s.ledger.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(entries) != len(ids) {
		return nil, shared.ErrNotFound
	}

	total := decimal.Zero
	batch := make([]*earnings.LedgerEntry, len(entries))
	for i := range entries {
		e := &entries[i]
		if e.Currency != entries[0].Currency {
			return nil, ErrMixedCurrencies
		}
		if err := e.MarkPaid(req.Reference); err != nil {
			return nil, shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Entry %s cannot be paid: %s", e.ID, shared.ErrorCode(err)))
		}
		total = total.Add(e.Amount)
		batch[i] = e
	}

	changes := audit.After(map[string]any{"reference": req.Reference, "status": earnings.EntryStatusPaid})
	if err := s.save(ctx, actor, audit.ActionEarningsPaid, changes, batch...); err != nil {
		return nil, err
	}
	s.logger.Info("Earnings payout recorded",
		zap.String("reference", req.Reference),
		zap.Int("entries", len(batch)),
		zap.String("total", total.String()))

	resp := &PayoutResponse{
		Reference: req.Reference,
		Count:     len(batch),
		Total:     total,
		Entries:   make([]EntryResponse, len(batch)),
	}
	for i, e := range batch {
		resp.Entries[i] = ToEntryResponse(e)
	}
	return resp, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Adjust creates a pending manual adjustment for a PD
func (s *Service) Adjust(ctx context.Context, actor shared.Actor, req AdjustmentRequest) (*EntryResponse, error) {
	if _, err := s.pds.FindByID(ctx, req.PDID); err != nil {
		return nil, err
	}
	entry, err := earnings.NewAdjustment(req.PDID, req.Amount, s.currency, req.Reason)
	if err != nil {
		return nil, err
	}
	changes := audit.After(map[string]any{"pd_id": req.PDID.String(), "amount": entry.Amount.String(), "reason": entry.Description})
	if err := s.save(ctx, actor, audit.ActionEarningsAdjusted, changes, entry); err != nil {
		return nil, err
	}
	resp := ToEntryResponse(entry)
	return &resp, nil
}

// Void cancels an unpaid entry
func (s *Service) Void(ctx context.Context, actor shared.Actor, id uuid.UUID, req VoidRequest) (*EntryResponse, error) {
	entry, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := entry.Status
	if err := entry.Void(req.Reason); err != nil {
		return nil, err
	}
	changes := &audit.Changes{
		Before: map[string]any{"status": from},
		After:  map[string]any{"status": entry.Status, "reason": entry.VoidReason},
	}
	if err := s.save(ctx, actor, audit.ActionEarningsVoided, changes, entry); err != nil {
		return nil, err
	}
	resp := ToEntryResponse(entry)
	return &resp, nil
}

// Export streams matching entries to w as CSV
func (s *Service) Export(ctx context.Context, actor shared.Actor, w io.Writer, filter ListEntriesFilter) (int, error) {
	if !actor.HasPermission(identity.PermEarningsExport) {
		return 0, shared.ErrForbidden
	}
	writer := export.NewWriter(w, export.LedgerColumns(), export.WithBOM())
	rows, err := export.Stream(ctx, writer, filter.ToFilter(), s.ledger.FindAll)
	if err != nil {
		s.logger.Error("Earnings export failed", zap.Int("rows", rows), zap.Error(err))
		return rows, err
	}
	if err := s.recorder.Record(ctx, actor, audit.ActionEarningsExported, audit.EntityLedgerEntry, uuid.Nil,
		audit.After(map[string]any{"rows": rows})); err != nil {
		s.logger.Error("Failed to audit earnings export", zap.Error(err))
	}
	return rows, nil
}

// save writes the entries, one audit row each, and their events in a
// single transaction.
func (s *Service) save(ctx context.Context, actor shared.Actor, action string, changes *audit.Changes, entries ...*earnings.LedgerEntry) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, e := range entries {
			if err := s.ledger.Save(ctx, e); err != nil {
				return err
			}
			if err := s.recorder.Record(ctx, actor, action, audit.EntityLedgerEntry, e.ID, changes); err != nil {
				return err
			}
			if err := s.events.Publish(ctx, e.GetDomainEvents()...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, e := range entries {
		e.ClearDomainEvents()
	}
	return nil
}
