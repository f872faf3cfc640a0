package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/partner"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPD(t *testing.T, email, city string) *partner.PD {
	t.Helper()
	code, err := partner.NewPDCode()
	require.NoError(t, err)
	pd, err := partner.NewPD(code, "Sam", "Carter", email, "07700900456", city, decimal.NewFromInt(150))
	require.NoError(t, err)
	return pd
}

func TestGormPDRepository_SaveCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewGormPDRepository(newTestDB(t))

	pd := newTestPD(t, "Sam@Example.com", "Manchester")
	require.NoError(t, repo.Save(ctx, pd))
	assert.Equal(t, 1, pd.Version)

	stale, err := repo.FindByID(ctx, pd.ID)
	require.NoError(t, err)

	require.NoError(t, pd.Suspend("Missing DBS renewal"))
	require.NoError(t, repo.Save(ctx, pd))
	assert.Equal(t, 2, pd.Version)

	stored, err := repo.FindByEmail(ctx, " SAM@example.com ")
	require.NoError(t, err)
	assert.Equal(t, partner.PDStatusSuspended, stored.Status)
	assert.True(t, decimal.NewFromInt(150).Equal(stored.FeePerCase))

	require.NoError(t, stale.SetFee(decimal.NewFromInt(200)))
	err = repo.Save(ctx, stale)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONCURRENT_MODIFICATION", domainErr.Code)
}

func TestGormPDRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repo := NewGormPDRepository(newTestDB(t))

	a := newTestPD(t, "a@example.com", "Leeds")
	b := newTestPD(t, "b@example.com", "York")
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))

	byCode, err := repo.FindByCode(ctx, a.Code)
	require.NoError(t, err)
	assert.Equal(t, a.ID, byCode.ID)

	exists, err := repo.ExistsByCode(ctx, b.Code)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	pds, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, pds, 2)

	pds, err = repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, pds)

	inYork, err := repo.FindAll(ctx, shared.Filter{Filters: map[string]any{"city": "york"}})
	require.NoError(t, err)
	require.Len(t, inYork, 1)
	assert.Equal(t, b.ID, inYork[0].ID)

	active, err := repo.CountByStatus(ctx, partner.PDStatusActive)
	require.NoError(t, err)
	assert.Equal(t, int64(2), active)

	_, err = repo.FindByCode(ctx, "PD-ZZZZZZ")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormApplicationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormApplicationRepository(newTestDB(t))

	app, _, err := partner.NewPDApplication("applicant@example.com")
	require.NoError(t, err)
	require.NoError(t, app.SavePersonal("Ada", "Lovelace", "07700900789", "Bath"))
	require.NoError(t, repo.Save(ctx, app))

	open, err := repo.ExistsOpenByEmail(ctx, "Applicant@Example.com")
	require.NoError(t, err)
	assert.True(t, open)

	stored, err := repo.FindByID(ctx, app.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsStepComplete(partner.StepPersonal))
	assert.Equal(t, "Bath", stored.City)
	assert.Equal(t, app.ResumeTokenHash, stored.ResumeTokenHash)

	stale, _, err := partner.NewPDApplication("stale@example.com")
	require.NoError(t, err)
	stale.UpdatedAt = time.Now().AddDate(0, 0, -30)
	require.NoError(t, repo.Save(ctx, stale))

	drafts, err := repo.FindStaleDrafts(ctx, time.Now().AddDate(0, 0, -14), 10)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, stale.ID, drafts[0].ID)

	require.NoError(t, drafts[0].Withdraw())
	require.NoError(t, repo.Save(ctx, &drafts[0]))

	open, err = repo.ExistsOpenByEmail(ctx, "stale@example.com")
	require.NoError(t, err)
	assert.False(t, open)

	withdrawn, err := repo.CountByStatus(ctx, partner.ApplicationStatusWithdrawn)
	require.NoError(t, err)
	assert.Equal(t, int64(1), withdrawn)
}

func TestGormChannelAndProviderRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	channels := NewGormChannelRepository(db)
	providers := NewGormProviderRepository(db)

	channel, err := partner.NewClinicalChannel("NHS-NORTH", "NHS North", partner.ChannelKindNHS, "")
	require.NoError(t, err)
	require.NoError(t, channels.Save(ctx, channel))

	exists, err := channels.ExistsByCode(ctx, "nhs-north")
	require.NoError(t, err)
	assert.True(t, exists)

	found, err := channels.FindAll(ctx, shared.Filter{Search: "north"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, channel.ID, found[0].ID)

	provider, err := partner.NewProvider(channel.ID, "St Mary's", "leeds", "desk@stmarys.example", "")
	require.NoError(t, err)
	require.NoError(t, providers.Save(ctx, provider))

	list, err := providers.FindAll(ctx, shared.Filter{Filters: map[string]any{
		"channel_id": channel.ID.String(),
		"city":       "Leeds",
	}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "desk@stmarys.example", list[0].Email)

	count, err := providers.Count(ctx, shared.Filter{Filters: map[string]any{"active": "false"}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
