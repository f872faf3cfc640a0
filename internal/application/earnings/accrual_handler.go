package earnings

import (
	"context"
	"fmt"

	auditapp "github.com/pathway/backend/internal/application/audit"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/earnings"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CaseCompletedHandler accrues the PD fee when a case completes
type CaseCompletedHandler struct {
	ledger   earnings.LedgerRepository
	pds      partner.PDRepository
	tx       shared.TxManager
	recorder *auditapp.Recorder
	currency string
	logger   *zap.Logger
}

// NewCaseCompletedHandler creates the accrual handler
func NewCaseCompletedHandler(
	ledger earnings.LedgerRepository,
	pds partner.PDRepository,
	tx shared.TxManager,
	recorder *auditapp.Recorder,
	currency string,
	logger *zap.Logger,
) *CaseCompletedHandler {
	if currency == "" {
		currency = "GBP"
	}
	return &CaseCompletedHandler{
		ledger:   ledger,
		pds:      pds,
		tx:       tx,
		recorder: recorder,
		currency: currency,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *CaseCompletedHandler) EventTypes() []string {
	return []string{casework.EventTypeCaseCompleted}
}

// Handle creates the accrual for a completed case, once per case
func (h *CaseCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completed, ok := event.(*casework.CaseCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			casework.EventTypeCaseCompleted, event.EventType())
	}

	exists, err := h.ledger.ExistsAccrualForCase(ctx, completed.CaseID)
	if err != nil {
		return fmt.Errorf("failed to check existing accrual: %w", err)
	}
	if exists {
		h.logger.Warn("Accrual already exists for case, skipping",
			zap.String("tracking_code", completed.TrackingCode))
		return nil
	}

	pd, err := h.pds.FindByID(ctx, completed.PDID)
	if err != nil {
		return fmt.Errorf("failed to load PD for accrual: %w", err)
	}
	entry, err := earnings.NewAccrual(pd.ID, completed.CaseID, pd.FeePerCase, h.currency, completed.TrackingCode)
	if err != nil {
		return err
	}

	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := h.ledger.Save(ctx, entry); err != nil {
			return err
		}
		return h.recorder.Record(ctx, shared.SystemActor(), audit.ActionEarningsAccrued, audit.EntityLedgerEntry, entry.ID,
			audit.After(map[string]any{
				"pd_id":   pd.ID.String(),
				"case_id": completed.CaseID.String(),
				"amount":  entry.Amount.String(),
			}))
	})
	if err != nil {
		return fmt.Errorf("failed to record accrual: %w", err)
	}
	entry.ClearDomainEvents()

	h.logger.Info("PD fee accrued",
		zap.String("tracking_code", completed.TrackingCode),
		zap.String("pd_code", pd.Code),
		zap.String("amount", entry.Amount.String()))
	return nil
}
