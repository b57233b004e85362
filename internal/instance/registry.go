package instance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/provider"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/storage"
)

// Registry owns every instance controller, keyed by instance ID. It is the
// only shared structure between request handlers; all map access is guarded.
type Registry struct {
	factory provider.Factory
	store   storage.InstanceStore
	logger  *zap.Logger

	mu        sync.RWMutex
	instances map[domain.InstanceID]*Controller

	sinkMu sync.RWMutex
	sink   EventSink
}

// NewRegistry creates an empty registry.
func NewRegistry(factory provider.Factory, store storage.InstanceStore, logger *zap.Logger) *Registry {
	return &Registry{
		factory:   factory,
		store:     store,
		logger:    logger.Named("registry"),
		instances: make(map[domain.InstanceID]*Controller),
	}
}

// Subscribe sets the sink that receives every instance's lifecycle events,
// after the registry has persisted the resulting state.
func (r *Registry) Subscribe(sink EventSink) {
	r.sinkMu.Lock()
	r.sink = sink
	r.sinkMu.Unlock()
}

// Create registers a new instance and starts its session asynchronously.
// The instance stays registered even if the start attempt fails; callers
// poll status until the session becomes ready.
func (r *Registry) Create(ctx context.Context, id domain.InstanceID) (*Controller, error) {
	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	r.mu.Lock()
	if _, exists := r.instances[id]; exists {
		r.mu.Unlock()
		return nil, ErrConflict
	}
	// Reserve the slot before the provider call so a concurrent create for
	// the same id fails fast.
	r.instances[id] = nil
	r.mu.Unlock()

	session, err := r.factory.NewSession(ctx, id)
	if err != nil {
		r.mu.Lock()
		delete(r.instances, id)
		r.mu.Unlock()
		r.logger.Error("Session construction failed",
			zap.String("instance_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("create session: %w", err)
	}

	ctrl := NewController(id, session, r.logger, r.onEvent)
	r.mu.Lock()
	r.instances[id] = ctrl
	r.mu.Unlock()

	now := time.Now().UTC()
	r.persist(ctx, &domain.InstanceRecord{
		ID:        id,
		State:     domain.StateInitializing,
		CreatedAt: now,
		UpdatedAt: now,
	})

	r.logger.Info("Instance created", zap.String("instance_id", id.String()))

	// Fire-and-forget: the HTTP request that triggered creation must not
	// wait for pairing.
	go func() {
		if err := ctrl.Initialize(context.Background()); err != nil {
			r.logger.Error("Instance initialization failed, instance remains registered",
				zap.String("instance_id", id.String()), zap.Error(err))
		}
	}()

	return ctrl, nil
}

// Get returns the controller for an instance.
func (r *Registry) Get(id domain.InstanceID) (*Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctrl, ok := r.instances[id]
	if !ok || ctrl == nil {
		return nil, fmt.Errorf("%w: instance %s", ErrNotFound, id)
	}
	return ctrl, nil
}

// Remove disconnects an instance, purges its credentials, and deletes it
// from the registry. Disconnect and purge failures are logged; removal
// always proceeds.
func (r *Registry) Remove(ctx context.Context, id domain.InstanceID) error {
	ctrl, err := r.Get(id)
	if err != nil {
		return err
	}

	if err := ctrl.Logout(ctx); err != nil {
		r.logger.Warn("Logout failed during removal",
			zap.String("instance_id", id.String()), zap.Error(err))
		if err := ctrl.Disconnect(); err != nil {
			r.logger.Warn("Disconnect failed during removal",
				zap.String("instance_id", id.String()), zap.Error(err))
		}
	}

	r.mu.Lock()
	delete(r.instances, id)
	r.mu.Unlock()

	if err := r.factory.DeleteCredentials(ctx, id); err != nil {
		r.logger.Warn("Credential cleanup failed",
			zap.String("instance_id", id.String()), zap.Error(err))
	}
	if err := r.store.Delete(ctx, id); err != nil {
		r.logger.Warn("Record deletion failed",
			zap.String("instance_id", id.String()), zap.Error(err))
	}

	r.logger.Info("Instance removed", zap.String("instance_id", id.String()))
	return nil
}

// Statuses returns the live status of every registered instance.
func (r *Registry) Statuses() []domain.InstanceStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.InstanceStatus, 0, len(r.instances))
	for _, ctrl := range r.instances {
		if ctrl != nil {
			out = append(out, ctrl.Status())
		}
	}
	return out
}

// Records lists the persisted instance records.
func (r *Registry) Records(ctx context.Context) ([]*domain.InstanceRecord, error) {
	return r.store.List(ctx)
}

// Count returns the number of registered instances.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// DisconnectAll disconnects every instance sequentially. Used at shutdown; a
// failure for one instance never prevents attempting the rest.
func (r *Registry) DisconnectAll() {
	r.mu.RLock()
	ids := make([]domain.InstanceID, 0, len(r.instances))
	ctrls := make([]*Controller, 0, len(r.instances))
	for id, ctrl := range r.instances {
		if ctrl != nil {
			ids = append(ids, id)
			ctrls = append(ctrls, ctrl)
		}
	}
	r.mu.RUnlock()

	for i, ctrl := range ctrls {
		if err := ctrl.Disconnect(); err != nil {
			r.logger.Error("Shutdown disconnect failed",
				zap.String("instance_id", ids[i].String()), zap.Error(err))
		}
	}
	r.logger.Info("All instances disconnected", zap.Int("count", len(ctrls)))
}

// onEvent persists the state change implied by a lifecycle event, then
// forwards it to the subscriber.
func (r *Registry) onEvent(id domain.InstanceID, evt provider.Event) {
	ctrl, err := r.Get(id)
	if err == nil {
		status := ctrl.Status()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		record := &domain.InstanceRecord{
			ID:          id,
			State:       status.State,
			Phone:       ctrl.Phone(),
			ConnectedAt: ctrl.ConnectedAt(),
			UpdatedAt:   time.Now().UTC(),
		}
		if existing, gerr := r.store.Get(ctx, id); gerr == nil {
			record.CreatedAt = existing.CreatedAt
		} else {
			record.CreatedAt = record.UpdatedAt
		}
		r.persist(ctx, record)
		cancel()
	}

	r.sinkMu.RLock()
	sink := r.sink
	r.sinkMu.RUnlock()
	if sink != nil {
		sink(id, evt)
	}
}

func (r *Registry) persist(ctx context.Context, record *domain.InstanceRecord) {
	if err := r.store.Put(ctx, record); err != nil {
		r.logger.Warn("Record persistence failed",
			zap.String("instance_id", record.ID.String()), zap.Error(err))
	}
}
