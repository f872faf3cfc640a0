// Package intake implements public case submission and tracking.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	auditapp "github.com/pathway/backend/internal/application/audit"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Intake errors
var (
	ErrRequestInFlight = shared.NewDomainError("IDEMPOTENCY_IN_PROGRESS", "A request with this idempotency key is still being processed")
	ErrInvalidKey      = shared.NewDomainError("INVALID_IDEMPOTENCY_KEY", "Idempotency key must be 8 to 128 characters")
)

const (
	maxTrackingCodeAttempts = 5
	idempotencyPrefix       = "intake:"
)

// Config holds intake behaviour switches
type Config struct {
	// AutoPool routes unassigned cases to the pool of the patient's city
	AutoPool       bool
	IdempotencyTTL time.Duration
}

// Service handles public intake submissions and tracking lookups
type Service struct {
	cases       casework.CaseRepository
	pools       casework.PoolRepository
	pds         partner.PDRepository
	txm         shared.TxManager
	events      shared.EventPublisher
	recorder    *auditapp.Recorder
	idempotency shared.IdempotencyStore
	metrics     *telemetry.Metrics
	logger      *zap.Logger
	config      Config
}

// NewService creates a new intake service
func NewService(
	cases casework.CaseRepository,
	pools casework.PoolRepository,
	pds partner.PDRepository,
	txm shared.TxManager,
	events shared.EventPublisher,
	recorder *auditapp.Recorder,
	idempotency shared.IdempotencyStore,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
	config Config,
) *Service {
	if config.IdempotencyTTL <= 0 {
		config.IdempotencyTTL = 24 * time.Hour
	}
	return &Service{
		cases:       cases,
		pools:       pools,
		pds:         pds,
		txm:         txm,
		events:      events,
		recorder:    recorder,
		idempotency: idempotency,
		metrics:     metrics,
		logger:      logger,
		config:      config,
	}
}

// Submit opens a case from the public intake form. A non-empty
// idempotencyKey makes retries return the first response.
func (s *Service) Submit(ctx context.Context, actor shared.Actor, idempotencyKey string, req SubmitRequest) (*SubmitResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "intake", "submit", telemetry.SpanAttrActorType, string(actor.Type))
	defer span.End()

	if idempotencyKey == "" {
		resp, err := s.submit(ctx, actor, req)
		telemetry.RecordError(span, err)
		return resp, err
	}

	key, err := s.reserve(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return s.replay(ctx, idempotencyKey)
	}

	resp, err := s.submit(ctx, actor, req)
	if err != nil {
		telemetry.RecordError(span, err)
		if rerr := s.idempotency.Release(context.WithoutCancel(ctx), key); rerr != nil {
			s.logger.Warn("Failed to release idempotency key", zap.Error(rerr))
		}
		return nil, err
	}

	payload, err := json.Marshal(resp)
	if err == nil {
		err = s.idempotency.Complete(context.WithoutCancel(ctx), key, payload, s.config.IdempotencyTTL)
	}
	if err != nil {
		s.logger.Warn("Failed to store idempotent intake response",
			zap.String("tracking_code", resp.TrackingCode), zap.Error(err))
	}
	return resp, nil
}

// reserve claims the key. It returns "" when the key was already used.
func (s *Service) reserve(ctx context.Context, idempotencyKey string) (string, error) {
	if n := len(idempotencyKey); n < 8 || n > 128 {
		return "", ErrInvalidKey
	}
	key := idempotencyPrefix + idempotencyKey
	ok, err := s.idempotency.Reserve(ctx, key, s.config.IdempotencyTTL)
	if err != nil {
		return "", fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if !ok {
		return "", nil
	}
	return key, nil
}

func (s *Service) replay(ctx context.Context, idempotencyKey string) (*SubmitResponse, error) {
	payload, found, err := s.idempotency.Lookup(ctx, idempotencyPrefix+idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if !found || payload == nil {
		return nil, ErrRequestInFlight
	}
	var resp SubmitResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode stored intake response: %w", err)
	}
	resp.Replayed = true
	return &resp, nil
}

func (s *Service) submit(ctx context.Context, actor shared.Actor, req SubmitRequest) (*SubmitResponse, error) {
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_DATE_OF_BIRTH", "Date of birth must be YYYY-MM-DD")
	}
	patient, err := casework.NewPatient(req.FirstName, req.LastName, req.Email, req.Phone, dob, req.City, req.Postcode)
	if err != nil {
		return nil, err
	}
	code, err := s.newTrackingCode(ctx)
	if err != nil {
		return nil, err
	}
	c, err := casework.NewCase(code, patient, req.Pathway, casework.Urgency(req.Urgency),
		req.SymptomsSummary, req.Consent, req.ReferralCode)
	if err != nil {
		return nil, err
	}
	if err := s.route(ctx, c); err != nil {
		return nil, err
	}

	changes := audit.After(map[string]any{
		"tracking_code":   c.TrackingCode,
		"pathway":         c.Pathway,
		"urgency":         c.Urgency,
		"status":          c.Status,
		"assignment_mode": c.AssignmentMode,
	})
	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.cases.Save(ctx, c); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, actor, audit.ActionCaseSubmitted, audit.EntityCase, c.ID, changes); err != nil {
			return err
		}
		return s.events.Publish(ctx, c.GetDomainEvents()...)
	})
	if err != nil {
		return nil, err
	}
	c.ClearDomainEvents()

	s.metrics.CaseSubmitted(c.Pathway, string(c.Urgency))
	if c.AssignmentMode != casework.AssignmentModeNone {
		s.metrics.CaseAssigned(string(c.AssignmentMode))
	}
	s.logger.Info("Case submitted",
		zap.String("tracking_code", c.TrackingCode),
		zap.String("status", string(c.Status)),
		zap.String("pathway", c.Pathway))

	return &SubmitResponse{
		TrackingCode: c.TrackingCode,
		Status:       string(c.Status),
		SubmittedAt:  c.CreatedAt,
	}, nil
}

// route assigns the case directly through a referral code, or places it in
// the pool of the patient's city when auto pooling is on. Otherwise the case
// stays new for triage.
func (s *Service) route(ctx context.Context, c *casework.Case) error {
	if c.ReferralCode != "" {
		pd, err := s.pds.FindByCode(ctx, c.ReferralCode)
		switch {
		case err == nil && pd.IsActive():
			return c.AssignDirect(pd.ID)
		case err == nil:
			s.logger.Info("Referral code belongs to an inactive PD",
				zap.String("tracking_code", c.TrackingCode), zap.String("pd_code", pd.Code))
		case shared.IsNotFound(err):
			s.logger.Info("Unknown referral code", zap.String("tracking_code", c.TrackingCode))
		default:
			return err
		}
	}

	if !s.config.AutoPool {
		return nil
	}
	pool, err := s.pools.FindByCity(ctx, c.Patient.City)
	if shared.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !pool.Active {
		return nil
	}
	return c.RouteToPool(pool)
}

func (s *Service) newTrackingCode(ctx context.Context) (string, error) {
	for i := 0; i < maxTrackingCodeAttempts; i++ {
		code, err := casework.NewTrackingCode()
		if err != nil {
			return "", err
		}
		exists, err := s.cases.ExistsByTrackingCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to allocate a unique tracking code after %d attempts", maxTrackingCodeAttempts)
}

// Track returns the public status of a case. The email must match the
// patient's; any mismatch is reported as not found.
func (s *Service) Track(ctx context.Context, code, email string) (*TrackResponse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !casework.IsTrackingCode(code) {
		return nil, shared.ErrNotFound
	}
	c, err := s.cases.FindByTrackingCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(email), c.Patient.Email) {
		return nil, shared.ErrNotFound
	}
	return &TrackResponse{
		TrackingCode: c.TrackingCode,
		Status:       string(c.Status),
		Pathway:      c.Pathway,
		LastUpdated:  c.UpdatedAt,
	}, nil
}
