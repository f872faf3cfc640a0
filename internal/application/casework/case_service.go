package casework

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/export"
	"github.com/pathway/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CaseService handles case queries and state changes
type CaseService struct {
	Deps
}

// NewCaseService creates a new case service
func NewCaseService(deps Deps) *CaseService {
	return &CaseService{Deps: deps}
}

// List retrieves a page of cases. PII is masked unless the actor holds
// pii:unmask.
func (s *CaseService) List(ctx context.Context, actor shared.Actor, filter ListCasesFilter) ([]CaseResponse, int64, error) {
	filter.SearchPII = actor.HasPermission(identity.PermPIIUnmask)
	f := filter.ToFilter()
	cases, err := s.Repos.Cases.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repos.Cases.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return ToCaseResponses(cases, actor.HasPermission(identity.PermPIIUnmask)), total, nil
}

// Get retrieves a case with its escalations, flags and contacts. Viewing
// unmasked PII is itself audited.
func (s *CaseService) Get(ctx context.Context, actor shared.Actor, id uuid.UUID) (*CaseDetailResponse, error) {
	c, err := s.loadCase(ctx, id)
	if err != nil {
		return nil, err
	}

	canUnmask := actor.HasPermission(identity.PermPIIUnmask)
	detail, err := s.detail(ctx, c, canUnmask)
	if err != nil {
		return nil, err
	}

	if canUnmask {
		if err := s.Recorder.Record(ctx, actor, audit.ActionCasePIIViewed, audit.EntityCase, c.ID, nil); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

func (s *CaseService) detail(ctx context.Context, c *casework.Case, canUnmask bool) (*CaseDetailResponse, error) {
	escalations, err := s.Repos.Escalations.FindByCase(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	flags, err := s.Repos.Flags.FindByCase(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	contacts, err := s.Repos.Contacts.FindByCase(ctx, c.ID, shared.Filter{PageSize: 100})
	if err != nil {
		return nil, err
	}

	detail := &CaseDetailResponse{
		CaseResponse:    ToCaseResponse(c, canUnmask),
		Escalations:     make([]EscalationResponse, len(escalations)),
		ComplianceFlags: make([]ComplianceFlagResponse, len(flags)),
		Contacts:        make([]ContactResponse, len(contacts)),
	}
	for i := range escalations {
		detail.Escalations[i] = ToEscalationResponse(&escalations[i])
	}
	for i := range flags {
		detail.ComplianceFlags[i] = ToComplianceFlagResponse(&flags[i])
	}
	for i := range contacts {
		detail.Contacts[i] = ToContactResponse(&contacts[i], canUnmask)
	}
	return detail, nil
}

// ChangeStatus applies an admin status change using the transition table.
// Completion is refused while a blocking compliance flag is open.
func (s *CaseService) ChangeStatus(ctx context.Context, actor shared.Actor, id uuid.UUID, req ChangeStatusRequest) (*CaseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "casework", "change_status",
		telemetry.SpanAttrCaseID, id.String(), telemetry.SpanAttrActorType, string(actor.Type))
	defer span.End()

	c, err := s.loadCase(ctx, id)
	if err != nil {
		return nil, err
	}
	target := casework.CaseStatus(req.Status)
	if target == casework.CaseStatusCompleted {
		if err := s.ensureNoBlockingFlag(ctx, c.ID); err != nil {
			return nil, err
		}
	}

	resp, err := s.transition(ctx, actor, c, func() error { return c.TransitionTo(target, req.Reason) })
	telemetry.RecordError(span, err)
	return resp, err
}

// ChangeStatusByPD applies a status change requested by the case's own PD
func (s *CaseService) ChangeStatusByPD(ctx context.Context, actor shared.Actor, id uuid.UUID, req ChangeStatusRequest) (*CaseResponse, error) {
	pdID, err := actorID(actor)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "casework", "change_status_by_pd",
		telemetry.SpanAttrCaseID, id.String(), telemetry.SpanAttrPDID, pdID.String())
	defer span.End()

	c, err := s.loadOwnCase(ctx, pdID, id)
	if err != nil {
		return nil, err
	}
	resp, err := s.transition(ctx, actor, c, func() error {
		return c.TransitionByPD(pdID, casework.CaseStatus(req.Status), req.Reason)
	})
	telemetry.RecordError(span, err)
	return resp, err
}

func (s *CaseService) transition(ctx context.Context, actor shared.Actor, c *casework.Case, apply func() error) (*CaseResponse, error) {
	from := c.Status
	if err := apply(); err != nil {
		return nil, err
	}
	if err := s.saveCase(ctx, actor, c, audit.ActionCaseStatusChanged, audit.Diff("status", from, c.Status)); err != nil {
		return nil, err
	}
	s.Metrics.CaseTransitioned(string(from), string(c.Status))
	s.Logger.Info("Case status changed",
		zap.String("tracking_code", c.TrackingCode),
		zap.String("from", string(from)),
		zap.String("to", string(c.Status)),
		zap.String("actor_type", string(actor.Type)))

	resp := ToCaseResponse(c, actor.Type == shared.ActorTypePD || actor.HasPermission(identity.PermPIIUnmask))
	return &resp, nil
}

func (s *CaseService) ensureNoBlockingFlag(ctx context.Context, caseID uuid.UUID) error {
	blocked, err := s.Repos.Flags.HasBlockingFlag(ctx, caseID)
	if err != nil {
		return err
	}
	if blocked {
		return ErrComplianceHold
	}
	return nil
}

// Assign assigns or reassigns the case to an active PD on behalf of an admin
func (s *CaseService) Assign(ctx context.Context, actor shared.Actor, id uuid.UUID, req AssignRequest) (*CaseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "casework", "assign",
		telemetry.SpanAttrCaseID, id.String(), telemetry.SpanAttrPDID, req.PDID.String())
	defer span.End()

	c, err := s.loadCase(ctx, id)
	if err != nil {
		return nil, err
	}
	pd, err := s.Repos.PDs.FindByID(ctx, req.PDID)
	if err != nil {
		return nil, err
	}
	if err := pd.EnsureActive(); err != nil {
		return nil, err
	}

	previous := c.PDID
	if err := c.AssignManually(pd.ID); err != nil {
		return nil, err
	}
	if err := s.saveCase(ctx, actor, c, audit.ActionCaseAssigned, audit.Diff("pd_id", uuidString(previous), pd.ID.String())); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.Metrics.CaseAssigned(string(casework.AssignmentModeManualAdmin))
	s.Logger.Info("Case assigned",
		zap.String("tracking_code", c.TrackingCode),
		zap.String("pd_id", pd.ID.String()),
		zap.String("mode", string(c.AssignmentMode)))

	resp := ToCaseResponse(c, actor.HasPermission(identity.PermPIIUnmask))
	return &resp, nil
}

// Unassign releases the case from its PD, back to its pool or to triage
func (s *CaseService) Unassign(ctx context.Context, actor shared.Actor, id uuid.UUID, req UnassignRequest) (*CaseResponse, error) {
	c, err := s.loadCase(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := c.PDID
	from := c.Status
	if err := c.Unassign(req.Reason); err != nil {
		return nil, err
	}
	changes := &audit.Changes{
		Before: map[string]any{"pd_id": uuidString(previous), "status": from},
		After:  map[string]any{"pd_id": nil, "status": c.Status, "reason": req.Reason},
	}
	if err := s.saveCase(ctx, actor, c, audit.ActionCaseUnassigned, changes); err != nil {
		return nil, err
	}
	s.Metrics.CaseTransitioned(string(from), string(c.Status))

	resp := ToCaseResponse(c, actor.HasPermission(identity.PermPIIUnmask))
	return &resp, nil
}

// RouteToPool places the case in a pool. Without an explicit pool the
// active pool of the patient's city is used.
func (s *CaseService) RouteToPool(ctx context.Context, actor shared.Actor, id uuid.UUID, req RouteToPoolRequest) (*CaseResponse, error) {
	c, err := s.loadCase(ctx, id)
	if err != nil {
		return nil, err
	}

	var pool *casework.Pool
	if req.PoolID != nil {
		pool, err = s.Repos.Pools.FindByID(ctx, *req.PoolID)
	} else {
		pool, err = s.Repos.Pools.FindByCity(ctx, c.Patient.City)
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError("NO_POOL_FOR_CITY", "No pool serves the case's city")
		}
	}
	if err != nil {
		return nil, err
	}

	from := c.Status
	if err := c.RouteToPool(pool); err != nil {
		return nil, err
	}
	changes := &audit.Changes{
		Before: map[string]any{"status": from},
		After:  map[string]any{"status": c.Status, "pool_id": pool.ID.String()},
	}
	if err := s.saveCase(ctx, actor, c, audit.ActionCasePooled, changes); err != nil {
		return nil, err
	}
	s.Metrics.CaseTransitioned(string(from), string(c.Status))
	s.Logger.Info("Case routed to pool",
		zap.String("tracking_code", c.TrackingCode),
		zap.String("pool_id", pool.ID.String()))

	resp := ToCaseResponse(c, actor.HasPermission(identity.PermPIIUnmask))
	return &resp, nil
}

// SetRouting sets the clinical channel and provider of the case. A provider
// must be active and belong to the chosen channel.
func (s *CaseService) SetRouting(ctx context.Context, actor shared.Actor, id uuid.UUID, req RoutingRequest) (*CaseResponse, error) {
	c, err := s.loadCase(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ChannelID != nil {
		channel, err := s.Repos.Channels.FindByID(ctx, *req.ChannelID)
		if err != nil {
			return nil, err
		}
		if !channel.Active {
			return nil, shared.NewDomainError("CHANNEL_INACTIVE", "Clinical channel is not active")
		}
	}
	if req.ProviderID != nil {
		provider, err := s.Repos.Providers.FindByID(ctx, *req.ProviderID)
		if err != nil {
			return nil, err
		}
		if err := provider.CanServe(req.ChannelID); err != nil {
			return nil, err
		}
	}

	changes := &audit.Changes{
		Before: map[string]any{"channel_id": uuidString(c.ChannelID), "provider_id": uuidString(c.ProviderID)},
		After:  map[string]any{"channel_id": uuidString(req.ChannelID), "provider_id": uuidString(req.ProviderID)},
	}
	if err := c.SetRouting(req.ChannelID, req.ProviderID); err != nil {
		return nil, err
	}
	if err := s.saveCase(ctx, actor, c, audit.ActionCaseRoutingChanged, changes); err != nil {
		return nil, err
	}

	resp := ToCaseResponse(c, actor.HasPermission(identity.PermPIIUnmask))
	return &resp, nil
}

// Export streams the matching cases to w as CSV, masked unless the actor
// holds pii:unmask.
func (s *CaseService) Export(ctx context.Context, actor shared.Actor, w io.Writer, filter ListCasesFilter) (int, error) {
	if !actor.HasPermission(identity.PermCasesExport) {
		return 0, shared.ErrForbidden
	}
	canUnmask := actor.HasPermission(identity.PermPIIUnmask)
	filter.SearchPII = canUnmask

	writer := export.NewWriter(w, export.CaseColumns(canUnmask), export.WithBOM())
	rows, err := export.Stream(ctx, writer, filter.ToFilter(), s.Repos.Cases.FindAll)
	if err != nil {
		s.Logger.Error("Case export failed", zap.Int("rows", rows), zap.Error(err))
		return rows, err
	}

	if err := s.Recorder.Record(ctx, actor, audit.ActionCaseExported, audit.EntityCase, uuid.Nil,
		audit.After(map[string]any{"rows": rows, "unmasked": canUnmask})); err != nil {
		s.Logger.Error("Failed to audit case export", zap.Error(err))
	}
	return rows, nil
}

// =============================================================================
// PD portal
// =============================================================================

// ListForPD retrieves the PD's own cases
func (s *CaseService) ListForPD(ctx context.Context, actor shared.Actor, filter ListCasesFilter) ([]CaseResponse, int64, error) {
	pdID, err := actorID(actor)
	if err != nil {
		return nil, 0, err
	}
	filter.PDID = pdID.String()
	filter.PoolID = ""
	filter.SearchPII = true
	f := filter.ToFilter()

	cases, err := s.Repos.Cases.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repos.Cases.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return ToCaseResponses(cases, true), total, nil
}

// GetForPD retrieves one of the PD's own cases, unmasked, with its contacts.
// Cases owned by someone else are reported as not found.
func (s *CaseService) GetForPD(ctx context.Context, actor shared.Actor, id uuid.UUID) (*CaseDetailResponse, error) {
	pdID, err := actorID(actor)
	if err != nil {
		return nil, err
	}
	c, err := s.loadOwnCase(ctx, pdID, id)
	if err != nil {
		return nil, err
	}
	contacts, err := s.Repos.Contacts.FindByCase(ctx, c.ID, shared.Filter{PageSize: 100})
	if err != nil {
		return nil, err
	}

	detail := &CaseDetailResponse{
		CaseResponse:    ToCaseResponse(c, true),
		Escalations:     []EscalationResponse{},
		ComplianceFlags: []ComplianceFlagResponse{},
		Contacts:        make([]ContactResponse, len(contacts)),
	}
	for i := range contacts {
		detail.Contacts[i] = ToContactResponse(&contacts[i], true)
	}
	return detail, nil
}

func (s *CaseService) loadOwnCase(ctx context.Context, pdID, id uuid.UUID) (*casework.Case, error) {
	c, err := s.loadCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsAssignedTo(pdID) {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

// ListPool retrieves the pooled cases open for claim in the PD's city.
// Patient details stay masked until the case is claimed.
func (s *CaseService) ListPool(ctx context.Context, actor shared.Actor, page, pageSize int) ([]CaseResponse, int64, error) {
	pdID, err := actorID(actor)
	if err != nil {
		return nil, 0, err
	}
	pd, err := s.Repos.PDs.FindByID(ctx, pdID)
	if err != nil {
		return nil, 0, err
	}
	if err := pd.EnsureActive(); err != nil {
		return nil, 0, err
	}

	pool, err := s.Repos.Pools.FindByCity(ctx, pd.City)
	if shared.IsNotFound(err) {
		return []CaseResponse{}, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	f := ListCasesFilter{
		Status:   string(casework.CaseStatusPooled),
		PoolID:   pool.ID.String(),
		Page:     page,
		PageSize: pageSize,
		OrderBy:  "created_at",
		OrderDir: "asc",
	}.ToFilter()
	cases, err := s.Repos.Cases.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repos.Cases.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return ToCaseResponses(cases, false), total, nil
}

// Claim assigns a pooled case to the requesting PD. The PD must be active
// and work in the pool's city. When two PDs race for the same case the
// optimistic lock lets one win and the other gets CONCURRENT_MODIFICATION.
func (s *CaseService) Claim(ctx context.Context, actor shared.Actor, caseID uuid.UUID) (*CaseResponse, error) {
	pdID, err := actorID(actor)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "casework", "claim",
		telemetry.SpanAttrCaseID, caseID.String(), telemetry.SpanAttrPDID, pdID.String())
	defer span.End()

	pd, err := s.Repos.PDs.FindByID(ctx, pdID)
	if err != nil {
		return nil, err
	}
	if err := pd.EnsureActive(); err != nil {
		return nil, err
	}
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status != casework.CaseStatusPooled || c.PoolID == nil {
		return nil, shared.NewDomainError("CASE_NOT_IN_POOL", "Case is not available in this pool")
	}
	pool, err := s.Repos.Pools.FindByID(ctx, *c.PoolID)
	if err != nil {
		return nil, err
	}
	if !pd.CanClaimIn(pool.City) {
		return nil, shared.NewDomainError("POOL_CITY_MISMATCH", "PD does not work in the pool's city")
	}
	if err := c.ClaimFromPool(pd.ID, pool.ID); err != nil {
		return nil, err
	}

	changes := audit.After(map[string]any{"pd_id": pd.ID.String(), "pool_id": pool.ID.String()})
	if err := s.saveCase(ctx, actor, c, audit.ActionCaseClaimed, changes); err != nil {
		telemetry.RecordError(span, err)
		if shared.IsConcurrencyConflict(err) {
			s.Logger.Info("Pool claim lost race",
				zap.String("tracking_code", c.TrackingCode),
				zap.String("pd_id", pd.ID.String()))
		}
		return nil, err
	}
	s.Metrics.CaseAssigned(string(casework.AssignmentModePoolClaim))
	s.Logger.Info("Case claimed from pool",
		zap.String("tracking_code", c.TrackingCode),
		zap.String("pd_id", pd.ID.String()),
		zap.String("pool_id", pool.ID.String()))

	resp := ToCaseResponse(c, true)
	return &resp, nil
}
