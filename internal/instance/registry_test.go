package instance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/provider"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/provider/simulated"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/storage"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/storage/memory"
)

func newTestRegistry(t *testing.T) (*Registry, *simulated.Factory, *memory.Store) {
	t.Helper()
	factory := simulated.NewFactory(zap.NewNop())
	store := memory.NewStore()
	return NewRegistry(factory, store, zap.NewNop()), factory, store
}

// waitFor polls until the condition holds, failing the test on timeout.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRegistryCreate(t *testing.T) {
	registry, _, store := newTestRegistry(t)
	ctx := context.Background()

	ctrl, err := registry.Create(ctx, "alpha")
	require.NoError(t, err)
	require.NotNil(t, ctrl)
	assert.Equal(t, 1, registry.Count())

	// Initialization is fire-and-forget; the QR arrives shortly after.
	waitFor(t, func() bool { return ctrl.Status().HasQR })

	record, err := store.Get(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, domain.InstanceID("alpha"), record.ID)
}

func TestRegistryCreateConflict(t *testing.T) {
	registry, factory, _ := newTestRegistry(t)
	ctx := context.Background()

	first, err := registry.Create(ctx, "dup")
	require.NoError(t, err)

	waitFor(t, func() bool { return first.Status().HasQR })
	sess, ok := factory.SessionFor("dup")
	require.True(t, ok)
	sess.Authenticate("")

	_, err = registry.Create(ctx, "dup")
	assert.ErrorIs(t, err, ErrConflict)

	// The original controller is untouched.
	got, err := registry.Get("dup")
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.True(t, got.Status().IsReady)
}

func TestRegistryCreateInvalidID(t *testing.T) {
	registry, _, _ := newTestRegistry(t)

	for _, id := range []string{"", "a/b"} {
		_, err := registry.Create(context.Background(), domain.InstanceID(id))
		assert.ErrorIs(t, err, ErrInvalidArgument, "id %q", id)
	}
	assert.Zero(t, registry.Count())
}

func TestRegistryGetUnknown(t *testing.T) {
	registry, _, _ := newTestRegistry(t)

	_, err := registry.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryRemove(t *testing.T) {
	registry, _, store := newTestRegistry(t)
	ctx := context.Background()

	ctrl, err := registry.Create(ctx, "gone")
	require.NoError(t, err)
	waitFor(t, func() bool { return ctrl.Status().HasQR })

	require.NoError(t, registry.Remove(ctx, "gone"))
	assert.Zero(t, registry.Count())

	_, err = registry.Get("gone")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, "gone")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegistryRemoveUnknown(t *testing.T) {
	registry, _, _ := newTestRegistry(t)

	err := registry.Remove(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistryStatuses(t *testing.T) {
	registry, factory, _ := newTestRegistry(t)
	ctx := context.Background()

	a, err := registry.Create(ctx, "a")
	require.NoError(t, err)
	b, err := registry.Create(ctx, "b")
	require.NoError(t, err)
	waitFor(t, func() bool { return a.Status().HasQR && b.Status().HasQR })

	sess, ok := factory.SessionFor("a")
	require.True(t, ok)
	sess.Authenticate("")

	statuses := registry.Statuses()
	require.Len(t, statuses, 2)

	byID := make(map[domain.InstanceID]domain.InstanceStatus, len(statuses))
	for _, s := range statuses {
		byID[s.InstanceID] = s
	}
	assert.True(t, byID["a"].IsReady)
	assert.False(t, byID["b"].IsReady)
	assert.True(t, byID["b"].HasQR)
}

func TestRegistryPersistsLifecycle(t *testing.T) {
	registry, factory, store := newTestRegistry(t)
	ctx := context.Background()

	ctrl, err := registry.Create(ctx, "tracked")
	require.NoError(t, err)
	waitFor(t, func() bool { return ctrl.Status().HasQR })

	sess, ok := factory.SessionFor("tracked")
	require.True(t, ok)
	sess.Authenticate("15550009999")

	waitFor(t, func() bool {
		record, err := store.Get(ctx, "tracked")
		return err == nil && record.State == domain.StateReady
	})

	record, err := store.Get(ctx, "tracked")
	require.NoError(t, err)
	assert.Equal(t, "15550009999", record.Phone)
	assert.NotNil(t, record.ConnectedAt)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestRegistrySubscribe(t *testing.T) {
	registry, factory, _ := newTestRegistry(t)
	ctx := context.Background()

	var mu sync.Mutex
	var events []provider.EventType
	registry.Subscribe(func(id domain.InstanceID, evt provider.Event) {
		mu.Lock()
		events = append(events, evt.Type)
		mu.Unlock()
	})

	ctrl, err := registry.Create(ctx, "observed")
	require.NoError(t, err)
	waitFor(t, func() bool { return ctrl.Status().HasQR })

	sess, ok := factory.SessionFor("observed")
	require.True(t, ok)
	sess.Authenticate("")

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == provider.EventReady {
				return true
			}
		}
		return false
	})
}

func TestRegistryDisconnectAll(t *testing.T) {
	registry, factory, _ := newTestRegistry(t)
	ctx := context.Background()

	a, err := registry.Create(ctx, "x")
	require.NoError(t, err)
	b, err := registry.Create(ctx, "y")
	require.NoError(t, err)
	waitFor(t, func() bool { return a.Status().HasQR && b.Status().HasQR })

	for _, id := range []domain.InstanceID{"x", "y"} {
		sess, ok := factory.SessionFor(id)
		require.True(t, ok)
		sess.Authenticate("")
	}

	registry.DisconnectAll()

	waitFor(t, func() bool {
		return !a.Status().IsReady && !b.Status().IsReady
	})
}
