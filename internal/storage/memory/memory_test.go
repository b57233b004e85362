package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/storage"
)

func record(id string, state domain.InstanceState) *domain.InstanceRecord {
	now := time.Now().UTC()
	return &domain.InstanceRecord{
		ID:        domain.InstanceID(id),
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPutGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("a", domain.StateInitializing)))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.InstanceID("a"), got.ID)
	assert.Equal(t, domain.StateInitializing, got.State)
}

func TestPutUpserts(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("a", domain.StateInitializing)))
	require.NoError(t, store.Put(ctx, record("a", domain.StateReady)))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.StateReady, got.State)

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestGetMissing(t *testing.T) {
	store := NewStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("a", domain.StateInitializing)))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	got.State = domain.StateDisconnected

	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.StateInitializing, again.State, "mutating a returned record must not affect the store")
}

func TestDelete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("a", domain.StateReady)))
	require.NoError(t, store.Delete(ctx, "a"))

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting a missing record is not an error.
	assert.NoError(t, store.Delete(ctx, "a"))
}

func TestList(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, record("a", domain.StateReady)))
	require.NoError(t, store.Put(ctx, record("b", domain.StateAwaitingScan)))

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestPing(t *testing.T) {
	store := NewStore()
	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, store.Close())
}
