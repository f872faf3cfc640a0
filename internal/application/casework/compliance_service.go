package casework

import (
	"context"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ComplianceService manages compliance flags on cases
type ComplianceService struct {
	Deps
}

// NewComplianceService creates a new compliance service
func NewComplianceService(deps Deps) *ComplianceService {
	return &ComplianceService{Deps: deps}
}

// Raise opens a compliance flag. Without an explicit PD the flag is
// attributed to the case's current PD, if any.
func (s *ComplianceService) Raise(ctx context.Context, actor shared.Actor, caseID uuid.UUID, req RaiseFlagRequest) (*ComplianceFlagResponse, error) {
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	pdID := req.PDID
	if pdID == nil {
		pdID = c.PDID
	} else if _, err := s.Repos.PDs.FindByID(ctx, *pdID); err != nil {
		return nil, err
	}

	f, err := casework.NewComplianceFlag(c.ID, pdID, casework.FlagType(req.Type),
		casework.FlagSeverity(req.Severity), req.Description, actor.ID)
	if err != nil {
		return nil, err
	}
	changes := audit.After(map[string]any{
		"case_id":  c.ID.String(),
		"type":     f.Type,
		"severity": f.Severity,
	})
	if err := s.save(ctx, actor, f, audit.ActionFlagRaised, changes); err != nil {
		return nil, err
	}
	s.Metrics.ComplianceFlagEvent("raised", string(f.Severity))
	s.Logger.Info("Compliance flag raised",
		zap.String("tracking_code", c.TrackingCode),
		zap.String("type", string(f.Type)),
		zap.String("severity", string(f.Severity)))

	resp := ToComplianceFlagResponse(f)
	return &resp, nil
}

// Clear closes a flag with a clearance note
func (s *ComplianceService) Clear(ctx context.Context, actor shared.Actor, id uuid.UUID, req ClearFlagRequest) (*ComplianceFlagResponse, error) {
	by, err := actorID(actor)
	if err != nil {
		return nil, err
	}
	f, err := s.Repos.Flags.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := f.Clear(by, req.Note); err != nil {
		return nil, err
	}
	changes := &audit.Changes{
		Before: map[string]any{"status": casework.FlagStatusOpen},
		After:  map[string]any{"status": f.Status, "note": f.ClearanceNote},
	}
	if err := s.save(ctx, actor, f, audit.ActionFlagCleared, changes); err != nil {
		return nil, err
	}
	s.Metrics.ComplianceFlagEvent("cleared", string(f.Severity))

	resp := ToComplianceFlagResponse(f)
	return &resp, nil
}

// List retrieves compliance flags across all cases
func (s *ComplianceService) List(ctx context.Context, filter ListFlagsFilter) ([]ComplianceFlagResponse, int64, error) {
	f := filter.ToFilter()
	items, err := s.Repos.Flags.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repos.Flags.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ComplianceFlagResponse, len(items))
	for i := range items {
		out[i] = ToComplianceFlagResponse(&items[i])
	}
	return out, total, nil
}

// ListByCase retrieves every flag on a case
func (s *ComplianceService) ListByCase(ctx context.Context, caseID uuid.UUID) ([]ComplianceFlagResponse, error) {
	if _, err := s.loadCase(ctx, caseID); err != nil {
		return nil, err
	}
	items, err := s.Repos.Flags.FindByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	out := make([]ComplianceFlagResponse, len(items))
	for i := range items {
		out[i] = ToComplianceFlagResponse(&items[i])
	}
	return out, nil
}

func (s *ComplianceService) save(ctx context.Context, actor shared.Actor, f *casework.ComplianceFlag, action string, changes *audit.Changes) error {
	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Repos.Flags.Save(ctx, f); err != nil {
			return err
		}
		return s.Recorder.Record(ctx, actor, action, audit.EntityComplianceFlag, f.ID, changes)
	})
}
