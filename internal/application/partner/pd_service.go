package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrEmailTaken is returned when another PD already signs in with the email
var ErrEmailTaken = shared.NewDomainError("EMAIL_TAKEN", "Another PD already uses this email")

// PDService manages PD records on behalf of admins
type PDService struct {
	Deps
	sessions   SessionRevoker
	sessionTTL time.Duration
}

// NewPDService creates a new PD service. Suspending, offboarding or
// resetting a PD revokes its sessions for sessionTTL.
func NewPDService(deps Deps, sessions SessionRevoker, sessionTTL time.Duration) *PDService {
	return &PDService{Deps: deps, sessions: sessions, sessionTTL: sessionTTL}
}

// List retrieves a page of PDs
func (s *PDService) List(ctx context.Context, filter ListPDsFilter) ([]PDResponse, int64, error) {
	f := filter.ToFilter()
	pds, err := s.PDs.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.PDs.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PDResponse, len(pds))
	for i := range pds {
		out[i] = ToPDResponse(&pds[i])
	}
	return out, total, nil
}

// Get retrieves a PD by ID
func (s *PDService) Get(ctx context.Context, id uuid.UUID) (*PDResponse, error) {
	pd, err := s.PDs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPDResponse(pd)
	return &resp, nil
}

// Update replaces a PD's profile and optionally its fee
func (s *PDService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdatePDRequest) (*PDResponse, error) {
	pd, err := s.PDs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := pdSnapshot(pd)
	previousEmail := pd.Email

	if err := pd.UpdateProfile(req.FirstName, req.LastName, req.Email, req.Phone, req.City); err != nil {
		return nil, err
	}
	if req.FeePerCase != nil {
		if err := pd.SetFee(*req.FeePerCase); err != nil {
			return nil, err
		}
	}
	if pd.Email != previousEmail {
		taken, err := s.PDs.ExistsByEmail(ctx, pd.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
	}

	if err := s.save(ctx, actor, pd, audit.ActionPDUpdated, &audit.Changes{Before: before, After: pdSnapshot(pd)}); err != nil {
		return nil, err
	}
	resp := ToPDResponse(pd)
	return &resp, nil
}

func pdSnapshot(pd *partner.PD) map[string]any {
	return map[string]any{
		"first_name":   pd.FirstName,
		"last_name":    pd.LastName,
		"email":        pd.Email,
		"phone":        pd.Phone,
		"city":         pd.City,
		"fee_per_case": pd.FeePerCase.String(),
	}
}

// Suspend stops a PD taking new work and ends its sessions
func (s *PDService) Suspend(ctx context.Context, actor shared.Actor, id uuid.UUID, req StatusReasonRequest) (*PDResponse, error) {
	return s.changeStatus(ctx, actor, id, true, func(pd *partner.PD) error { return pd.Suspend(req.Reason) })
}

// Reactivate returns a suspended PD to active
func (s *PDService) Reactivate(ctx context.Context, actor shared.Actor, id uuid.UUID) (*PDResponse, error) {
	return s.changeStatus(ctx, actor, id, false, func(pd *partner.PD) error { return pd.Reactivate() })
}

// Offboard ends the partnership and the PD's sessions
func (s *PDService) Offboard(ctx context.Context, actor shared.Actor, id uuid.UUID, req StatusReasonRequest) (*PDResponse, error) {
	return s.changeStatus(ctx, actor, id, true, func(pd *partner.PD) error { return pd.Offboard(req.Reason) })
}

func (s *PDService) changeStatus(ctx context.Context, actor shared.Actor, id uuid.UUID, revoke bool, apply func(*partner.PD) error) (*PDResponse, error) {
	pd, err := s.PDs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := pd.Status
	if err := apply(pd); err != nil {
		return nil, err
	}
	changes := &audit.Changes{
		Before: map[string]any{"status": from},
		After:  map[string]any{"status": pd.Status, "reason": pd.StatusReason},
	}
	if err := s.save(ctx, actor, pd, audit.ActionPDStatusChanged, changes); err != nil {
		return nil, err
	}
	if revoke {
		s.revoke(ctx, pd)
	}
	s.Logger.Info("PD status changed",
		zap.String("pd_code", pd.Code),
		zap.String("from", string(from)),
		zap.String("to", string(pd.Status)))

	resp := ToPDResponse(pd)
	return &resp, nil
}

// ResetPassword issues a one-time password for the PD portal and ends the
// PD's current sessions.
func (s *PDService) ResetPassword(ctx context.Context, actor shared.Actor, id uuid.UUID) (*PasswordResetResponse, error) {
	pd, err := s.PDs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	temp, err := pd.ResetPassword()
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, pd, audit.ActionPDPasswordReset, nil); err != nil {
		return nil, err
	}
	s.revoke(ctx, pd)
	return &PasswordResetResponse{TemporaryPassword: temp}, nil
}

// revoke ends the PD's sessions. The status change is already committed, so
// a failure is logged rather than returned.
func (s *PDService) revoke(ctx context.Context, pd *partner.PD) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.RevokeSubject(ctx, pd.ID.String(), s.sessionTTL); err != nil {
		s.Logger.Error("Failed to revoke PD sessions", zap.String("pd_code", pd.Code), zap.Error(err))
	}
}

func (s *PDService) save(ctx context.Context, actor shared.Actor, pd *partner.PD, action string, changes *audit.Changes) error {
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.PDs.Save(ctx, pd); err != nil {
			return err
		}
		if err := s.Recorder.Record(ctx, actor, action, audit.EntityPD, pd.ID, changes); err != nil {
			return err
		}
		return s.Events.Publish(ctx, pd.GetDomainEvents()...)
	})
	if err != nil {
		return err
	}
	pd.ClearDomainEvents()
	return nil
}
