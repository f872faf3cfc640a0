package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
)

// PDRepository defines the interface for PD persistence
type PDRepository interface {
	// FindByID finds a PD by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*PD, error)

	// FindByCode finds a PD by referral code
	FindByCode(ctx context.Context, code string) (*PD, error)

	// FindByEmail finds a PD by login email
	FindByEmail(ctx context.Context, email string) (*PD, error)

	// FindAll finds PDs matching the filter.
	// Supported filter keys: status, city
	FindAll(ctx context.Context, filter shared.Filter) ([]PD, error)

	// FindByIDs loads several PDs at once
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]PD, error)

	// Count counts PDs matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByStatus counts PDs in a status
	CountByStatus(ctx context.Context, status PDStatus) (int64, error)

	// ExistsByCode checks for a code collision
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// ExistsByEmail checks whether the email is already taken
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Save creates or updates a PD
	Save(ctx context.Context, pd *PD) error
}

// ApplicationRepository defines the interface for PD application persistence
type ApplicationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PDApplication, error)

	// FindAll finds applications matching the filter.
	// Supported filter keys: status, city
	FindAll(ctx context.Context, filter shared.Filter) ([]PDApplication, error)

	Count(ctx context.Context, filter shared.Filter) (int64, error)

	CountByStatus(ctx context.Context, status ApplicationStatus) (int64, error)

	// ExistsOpenByEmail reports whether a draft or submitted application
	// exists for email
	ExistsOpenByEmail(ctx context.Context, email string) (bool, error)

	// FindStaleDrafts lists drafts not updated since cutoff
	FindStaleDrafts(ctx context.Context, cutoff time.Time, limit int) ([]PDApplication, error)

	Save(ctx context.Context, app *PDApplication) error
}

// ChannelRepository defines the interface for clinical channel persistence
type ChannelRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ClinicalChannel, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]ClinicalChannel, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, channel *ClinicalChannel) error
}

// ProviderRepository defines the interface for provider persistence
type ProviderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Provider, error)

	// FindAll finds providers matching the filter.
	// Supported filter keys: channel_id, city, active
	FindAll(ctx context.Context, filter shared.Filter) ([]Provider, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, provider *Provider) error
}
