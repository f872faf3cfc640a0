package casework

import (
	"strings"
	"time"

	"github.com/pathway/backend/internal/domain/shared"
)

// DefaultPoolSLAHours is how long a case may wait in a pool before it is
// escalated, when the pool does not set its own value.
const DefaultPoolSLAHours = 48

// Pool is a city-scoped queue of unassigned cases open for PD claim
type Pool struct {
	shared.BaseEntity
	Name     string
	City     string
	Active   bool
	SLAHours int
}

// NewPool creates an active pool for a city
func NewPool(name, city string, slaHours int) (*Pool, error) {
	p := &Pool{
		BaseEntity: shared.NewBaseEntity(),
		Active:     true,
	}
	if err := p.Update(name, city, slaHours); err != nil {
		return nil, err
	}
	return p, nil
}

// Update changes the pool's name, city and SLA
func (p *Pool) Update(name, city string, slaHours int) error {
	name = strings.TrimSpace(name)
	city = shared.NormalizeCity(city)
	if city == "" {
		return shared.NewDomainError("INVALID_CITY", "Pool city is required")
	}
	if name == "" {
		name = city
	}
	if slaHours < 0 {
		return shared.NewDomainError("INVALID_SLA", "SLA hours cannot be negative")
	}
	if slaHours == 0 {
		slaHours = DefaultPoolSLAHours
	}
	p.Name = name
	p.City = city
	p.SLAHours = slaHours
	p.Touch()
	return nil
}

// Activate opens the pool for routing
func (p *Pool) Activate() error {
	if p.Active {
		return shared.NewDomainError("INVALID_STATE", "Pool is already active")
	}
	p.Active = true
	p.Touch()
	return nil
}

// Deactivate closes the pool to new routing. Cases already pooled stay claimable.
func (p *Pool) Deactivate() error {
	if !p.Active {
		return shared.NewDomainError("INVALID_STATE", "Pool is already inactive")
	}
	p.Active = false
	p.Touch()
	return nil
}

// SLA returns the pool SLA as a duration
func (p *Pool) SLA() time.Duration {
	return time.Duration(p.SLAHours) * time.Hour
}
