package partner

import (
	"context"
	"time"

	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ApplicationExpiryJobName identifies the stale draft sweep in the scheduler
const ApplicationExpiryJobName = "application_expiry"

// ApplicationExpiryJob withdraws drafts nobody has touched within the window
type ApplicationExpiryJob struct {
	Deps
	window    time.Duration
	batchSize int
	now       func() time.Time
}

// NewApplicationExpiryJob creates the sweep
func NewApplicationExpiryJob(deps Deps, window time.Duration, batchSize int) *ApplicationExpiryJob {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ApplicationExpiryJob{Deps: deps, window: window, batchSize: batchSize, now: time.Now}
}

// Name implements scheduler.Job
func (j *ApplicationExpiryJob) Name() string {
	return ApplicationExpiryJobName
}

// Run implements scheduler.Job. It returns the number of drafts withdrawn.
func (j *ApplicationExpiryJob) Run(ctx context.Context) (int, error) {
	if j.window <= 0 {
		return 0, nil
	}
	now := j.now()
	drafts, err := j.Applications.FindStaleDrafts(ctx, now.Add(-j.window), j.batchSize)
	if err != nil {
		return 0, err
	}

	actor := shared.SystemActor()
	withdrawn := 0
	for i := range drafts {
		app := &drafts[i]
		if !app.IsStale(j.window, now) {
			continue
		}
		if err := app.Withdraw(); err != nil {
			j.Logger.Warn("Skipping stale application", zap.String("application_id", app.ID.String()), zap.Error(err))
			continue
		}
		err := j.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := j.Applications.Save(ctx, app); err != nil {
				return err
			}
			if err := j.Recorder.Record(ctx, actor, audit.ActionApplicationWithdrawn, audit.EntityApplication, app.ID,
				audit.After(map[string]any{"status": app.Status, "reason": "expired"})); err != nil {
				return err
			}
			return j.Events.Publish(ctx, app.GetDomainEvents()...)
		})
		if err != nil {
			return withdrawn, err
		}
		app.ClearDomainEvents()
		withdrawn++
	}
	return withdrawn, nil
}
