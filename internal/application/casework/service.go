// Package casework implements the case management use cases shared by the
// admin dashboard and the PD portal.
package casework

import (
	"context"

	"github.com/google/uuid"
	auditapp "github.com/pathway/backend/internal/application/audit"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/pathway/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrComplianceHold is returned when an open high-severity compliance flag
// prevents a case from being completed.
var ErrComplianceHold = shared.NewDomainError("COMPLIANCE_HOLD", "The case has an open high-severity compliance flag")

// Repositories groups the stores the casework services use
type Repositories struct {
	Cases       casework.CaseRepository
	Escalations casework.EscalationRepository
	Flags       casework.ComplianceFlagRepository
	Contacts    casework.ContactLogRepository
	Pools       casework.PoolRepository
	PDs         partner.PDRepository
	Channels    partner.ChannelRepository
	Providers   partner.ProviderRepository
}

// Deps carries the collaborators every casework service needs
type Deps struct {
	Repos    Repositories
	Tx       shared.TxManager
	Events   shared.EventPublisher
	Recorder *auditapp.Recorder
	Metrics  *telemetry.Metrics
	Logger   *zap.Logger
}

// saveCase persists c, its audit entry and its pending events in one
// transaction.
func (d Deps) saveCase(ctx context.Context, actor shared.Actor, c *casework.Case, action string, changes *audit.Changes) error {
	err := d.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := d.Repos.Cases.SaveWithLock(ctx, c); err != nil {
			return err
		}
		if err := d.Recorder.Record(ctx, actor, action, audit.EntityCase, c.ID, changes); err != nil {
			return err
		}
		return d.Events.Publish(ctx, c.GetDomainEvents()...)
	})
	if err != nil {
		return err
	}
	c.ClearDomainEvents()
	return nil
}

func (d Deps) loadCase(ctx context.Context, id uuid.UUID) (*casework.Case, error) {
	c, err := d.Repos.Cases.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// actorID returns the acting admin or PD. System actors have none.
func actorID(actor shared.Actor) (uuid.UUID, error) {
	if actor.ID == nil {
		return uuid.Nil, shared.ErrUnauthorized
	}
	return *actor.ID, nil
}

func uuidString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
