package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_Reserve(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("reserves a new key", func(t *testing.T) {
		ok, err := store.Reserve(ctx, "key-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects a reserved key", func(t *testing.T) {
		ok, err := store.Reserve(ctx, "key-2", time.Hour)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = store.Reserve(ctx, "key-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired key can be reserved again", func(t *testing.T) {
		ok, err := store.Reserve(ctx, "key-3", time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)
		time.Sleep(5 * time.Millisecond)

		ok, err = store.Reserve(ctx, "key-3", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestInMemoryIdempotencyStore_Lifecycle(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	payload, found, err := store.Lookup(ctx, "intake:abc")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, payload)

	ok, err := store.Reserve(ctx, "intake:abc", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	payload, found, err = store.Lookup(ctx, "intake:abc")
	require.NoError(t, err)
	assert.True(t, found, "reserved key is found while in flight")
	assert.Nil(t, payload)

	require.NoError(t, store.Complete(ctx, "intake:abc", []byte(`{"tracking_code":"TRK-ABCDEFGH"}`), time.Hour))
	payload, found, err = store.Lookup(ctx, "intake:abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"tracking_code":"TRK-ABCDEFGH"}`, string(payload))

	require.NoError(t, store.Release(ctx, "intake:abc"))
	_, found, err = store.Lookup(ctx, "intake:abc")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }
	_, _ = store.Reserve(ctx, "short", time.Minute)
	_, _ = store.Reserve(ctx, "long", time.Hour)
	assert.Equal(t, 2, store.Size())

	store.now = func() time.Time { return now.Add(10 * time.Minute) }
	store.cleanup()
	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_CloseTwice(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
