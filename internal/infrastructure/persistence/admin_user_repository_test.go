package persistence

import (
	"context"
	"testing"

	"github.com/pathway/backend/internal/domain/identity"
	"github.com/pathway/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormAdminUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAdminUserRepository(newTestDB(t))

	user, err := identity.NewAdminUser("Ops@Example.com", "Ops Lead", identity.RoleCaseManager, "changeme123")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, user))

	found, err := repo.FindByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, identity.RoleCaseManager, found.Role)
	assert.True(t, found.VerifyPassword("changeme123"))

	require.NoError(t, found.ChangeRole(identity.RoleFinance))
	require.NoError(t, repo.Save(ctx, found))
	assert.Equal(t, 2, found.Version)

	count, err := repo.Count(ctx, shared.Filter{Filters: map[string]any{"role": "finance"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	exists, err := repo.ExistsByEmail(ctx, "OPS@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	users, err := repo.FindAll(ctx, shared.Filter{Search: "lead"})
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
