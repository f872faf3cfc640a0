package casework

import (
	"context"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/audit"
	"github.com/pathway/backend/internal/domain/casework"
	"github.com/pathway/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrPoolCityTaken is returned when another pool already serves the city
var ErrPoolCityTaken = shared.NewDomainError("POOL_CITY_EXISTS", "A pool already exists for this city")

// PoolService manages city pools
type PoolService struct {
	Deps
}

// NewPoolService creates a new pool service
func NewPoolService(deps Deps) *PoolService {
	return &PoolService{Deps: deps}
}

// Create adds an active pool for a city that has none
func (s *PoolService) Create(ctx context.Context, actor shared.Actor, req CreatePoolRequest) (*PoolResponse, error) {
	p, err := casework.NewPool(req.Name, req.City, req.SLAHours)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCityFree(ctx, p.City, nil); err != nil {
		return nil, err
	}
	changes := audit.After(map[string]any{"name": p.Name, "city": p.City, "sla_hours": p.SLAHours})
	if err := s.save(ctx, actor, p, audit.ActionPoolCreated, changes); err != nil {
		return nil, err
	}
	s.Logger.Info("Pool created", zap.String("pool_id", p.ID.String()), zap.String("city", p.City))

	resp := ToPoolResponse(p)
	return &resp, nil
}

// Update changes a pool's name, city and SLA
func (s *PoolService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdatePoolRequest) (*PoolResponse, error) {
	p, err := s.Repos.Pools.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := map[string]any{"name": p.Name, "city": p.City, "sla_hours": p.SLAHours}
	if err := p.Update(req.Name, req.City, req.SLAHours); err != nil {
		return nil, err
	}
	if err := s.ensureCityFree(ctx, p.City, &p.ID); err != nil {
		return nil, err
	}
	changes := &audit.Changes{
		Before: before,
		After:  map[string]any{"name": p.Name, "city": p.City, "sla_hours": p.SLAHours},
	}
	if err := s.save(ctx, actor, p, audit.ActionPoolUpdated, changes); err != nil {
		return nil, err
	}

	resp := ToPoolResponse(p)
	return &resp, nil
}

// Activate opens a pool for routing
func (s *PoolService) Activate(ctx context.Context, actor shared.Actor, id uuid.UUID) (*PoolResponse, error) {
	return s.toggle(ctx, actor, id, true)
}

// Deactivate closes a pool to new routing
func (s *PoolService) Deactivate(ctx context.Context, actor shared.Actor, id uuid.UUID) (*PoolResponse, error) {
	return s.toggle(ctx, actor, id, false)
}

func (s *PoolService) toggle(ctx context.Context, actor shared.Actor, id uuid.UUID, active bool) (*PoolResponse, error) {
	p, err := s.Repos.Pools.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	action := audit.ActionPoolActivated
	if active {
		err = p.Activate()
	} else {
		action = audit.ActionPoolDeactivated
		err = p.Deactivate()
	}
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, actor, p, action, audit.Diff("active", !active, active)); err != nil {
		return nil, err
	}

	resp := ToPoolResponse(p)
	return &resp, nil
}

// Get retrieves a pool by ID
func (s *PoolService) Get(ctx context.Context, id uuid.UUID) (*PoolResponse, error) {
	p, err := s.Repos.Pools.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPoolResponse(p)
	return &resp, nil
}

// List retrieves pools ordered by city
func (s *PoolService) List(ctx context.Context, filter ListPoolsFilter) ([]PoolResponse, int64, error) {
	f := filter.ToFilter()
	pools, err := s.Repos.Pools.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repos.Pools.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PoolResponse, len(pools))
	for i := range pools {
		out[i] = ToPoolResponse(&pools[i])
	}
	return out, total, nil
}

func (s *PoolService) ensureCityFree(ctx context.Context, city string, excludeID *uuid.UUID) error {
	exists, err := s.Repos.Pools.ExistsByCity(ctx, city, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return ErrPoolCityTaken
	}
	return nil
}

func (s *PoolService) save(ctx context.Context, actor shared.Actor, p *casework.Pool, action string, changes *audit.Changes) error {
	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Repos.Pools.Save(ctx, p); err != nil {
			return err
		}
		return s.Recorder.Record(ctx, actor, action, audit.EntityPool, p.ID, changes)
	})
}
