package casework

import (
	"context"
	"time"

	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PoolSLAJobName identifies the pool SLA sweep in the scheduler
const PoolSLAJobName = "pool_sla_sweep"

const poolPageSize = 100

// PoolSLAJob escalates cases that have waited in a pool longer than the
// pool's SLA. A case never has more than one open system escalation.
type PoolSLAJob struct {
	Deps
	batchSize int
	now       func() time.Time
}

// NewPoolSLAJob creates the sweep. batchSize bounds the cases loaded per
// query; a run keeps querying until the pool has nothing left to escalate.
func NewPoolSLAJob(deps Deps, batchSize int) *PoolSLAJob {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &PoolSLAJob{Deps: deps, batchSize: batchSize, now: time.Now}
}

// Name implements scheduler.Job
func (j *PoolSLAJob) Name() string {
	return PoolSLAJobName
}

// Run implements scheduler.Job. It returns the number of escalations raised.
func (j *PoolSLAJob) Run(ctx context.Context) (int, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = poolPageSize
	filter.OrderBy = "city"
	filter.OrderDir = "asc"
	filter.Filters["active"] = true

	raised := 0
	now := j.now()
	for {
		pools, err := j.Repos.Pools.FindAll(ctx, filter)
		if err != nil {
			return raised, err
		}
		for i := range pools {
			n, err := j.sweepPool(ctx, &pools[i], now)
			raised += n
			if err != nil {
				return raised, err
			}
		}
		if len(pools) < filter.PageSize {
			return raised, nil
		}
		filter.Page++
	}
}

// sweepPool drains the pool's overdue cases batch by batch. The repository
// leaves out cases that already carry an open system escalation, so each
// batch holds only cases still to escalate.
func (j *PoolSLAJob) sweepPool(ctx context.Context, pool *casework.Pool, now time.Time) (int, error) {
	cutoff := now.Add(-pool.SLA())
	raised := 0
	for {
		cases, err := j.Repos.Cases.FindPooledBefore(ctx, pool.ID, cutoff, j.batchSize)
		if err != nil {
			return raised, err
		}

		batchRaised := 0
		for i := range cases {
			c := &cases[i]
			if !c.IsPoolOverdue(pool.SLA(), now) {
				continue
			}
			open, err := j.Repos.Escalations.HasOpenSystemEscalation(ctx, c.ID)
			if err != nil {
				return raised, err
			}
			if open {
				continue
			}
			if err := j.escalate(ctx, c, pool); err != nil {
				return raised, err
			}
			batchRaised++
		}
		raised += batchRaised

		// A short batch is the last one. A full batch that raised nothing
		// would come back identical, so stop there as well.
		if len(cases) < j.batchSize || batchRaised == 0 {
			return raised, nil
		}
	}
}

func (j *PoolSLAJob) escalate(ctx context.Context, c *casework.Case, pool *casework.Pool) error {
	actor := shared.SystemActor()
	e, err := casework.NewEscalation(c.ID, actor,
		"Case unclaimed in the "+pool.City+" pool beyond its SLA", casework.EscalationPriorityMedium)
	if err != nil {
		return err
	}
	err = j.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := j.Repos.Escalations.Save(ctx, e); err != nil {
			return err
		}
		return j.Recorder.Record(ctx, actor, audit.ActionEscalationRaised, audit.EntityEscalation, e.ID,
			audit.After(map[string]any{
				"case_id":   c.ID.String(),
				"pool_id":   pool.ID.String(),
				"priority":  e.Priority,
				"sla_hours": pool.SLAHours,
			}))
	})
	if err != nil {
		return err
	}
	j.Metrics.EscalationEvent("sla_breach", string(e.Priority))
	j.Logger.Info("Pool SLA breached",
		zap.String("tracking_code", c.TrackingCode),
		zap.String("pool_id", pool.ID.String()),
		zap.Int("sla_hours", pool.SLAHours))
	return nil
}
