package casework

import (
	"context"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EscalationService manages escalations raised against cases
type EscalationService struct {
	Deps
}

// NewEscalationService creates a new escalation service
func NewEscalationService(deps Deps) *EscalationService {
	return &EscalationService{Deps: deps}
}

// Raise opens an escalation on a case. A PD may only escalate its own cases.
func (s *EscalationService) Raise(ctx context.Context, actor shared.Actor, caseID uuid.UUID, req RaiseEscalationRequest) (*EscalationResponse, error) {
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if actor.Type == shared.ActorTypePD && !c.IsAssignedTo(actor.IDOrNil()) {
		return nil, shared.ErrNotFound
	}

	e, err := casework.NewEscalation(c.ID, actor, req.Reason, casework.EscalationPriority(req.Priority))
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, e, audit.ActionEscalationRaised,
		audit.After(map[string]any{"case_id": c.ID.String(), "priority": e.Priority, "reason": e.Reason})); err != nil {
		return nil, err
	}
	s.Metrics.EscalationEvent("raised", string(e.Priority))
	s.Logger.Info("Escalation raised",
		zap.String("tracking_code", c.TrackingCode),
		zap.String("priority", string(e.Priority)),
		zap.String("actor_type", string(actor.Type)))

	resp := ToEscalationResponse(e)
	return &resp, nil
}

// Acknowledge records that the acting admin has picked the escalation up
func (s *EscalationService) Acknowledge(ctx context.Context, actor shared.Actor, id uuid.UUID) (*EscalationResponse, error) {
	by, err := actorID(actor)
	if err != nil {
		return nil, err
	}
	e, err := s.Repos.Escalations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.Acknowledge(by); err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, e, audit.ActionEscalationAcked,
		audit.Diff("status", casework.EscalationStatusOpen, e.Status)); err != nil {
		return nil, err
	}
	s.Metrics.EscalationEvent("acknowledged", string(e.Priority))

	resp := ToEscalationResponse(e)
	return &resp, nil
}

// Resolve closes the escalation with a mandatory resolution note
func (s *EscalationService) Resolve(ctx context.Context, actor shared.Actor, id uuid.UUID, req ResolveEscalationRequest) (*EscalationResponse, error) {
	by, err := actorID(actor)
	if err != nil {
		return nil, err
	}
	e, err := s.Repos.Escalations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := e.Status
	if err := e.Resolve(by, req.Note); err != nil {
		return nil, err
	}
	changes := &audit.Changes{
		Before: map[string]any{"status": from},
		After:  map[string]any{"status": e.Status, "note": e.ResolutionNote},
	}
	if err := s.save(ctx, actor, e, audit.ActionEscalationResolved, changes); err != nil {
		return nil, err
	}
	s.Metrics.EscalationEvent("resolved", string(e.Priority))
	s.Logger.Info("Escalation resolved", zap.String("escalation_id", e.ID.String()))

	resp := ToEscalationResponse(e)
	return &resp, nil
}

// List retrieves escalations across all cases
func (s *EscalationService) List(ctx context.Context, filter ListEscalationsFilter) ([]EscalationResponse, int64, error) {
	f := filter.ToFilter()
	items, err := s.Repos.Escalations.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repos.Escalations.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]EscalationResponse, len(items))
	for i := range items {
		out[i] = ToEscalationResponse(&items[i])
	}
	return out, total, nil
}

// ListByCase retrieves every escalation on a case
func (s *EscalationService) ListByCase(ctx context.Context, caseID uuid.UUID) ([]EscalationResponse, error) {
	if _, err := s.loadCase(ctx, caseID); err != nil {
		return nil, err
	}
	items, err := s.Repos.Escalations.FindByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	out := make([]EscalationResponse, len(items))
	for i := range items {
		out[i] = ToEscalationResponse(&items[i])
	}
	return out, nil
}

func (s *EscalationService) save(ctx context.Context, actor shared.Actor, e *casework.Escalation, action string, changes *audit.Changes) error {
	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Repos.Escalations.Save(ctx, e); err != nil {
			return err
		}
		return s.Recorder.Record(ctx, actor, action, audit.EntityEscalation, e.ID, changes)
	})
}
