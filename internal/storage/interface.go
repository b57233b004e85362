// Package storage persists instance records. Session credentials are owned
// by the provider; this layer only tracks registry-level metadata so
// deployments can list instances and inspect them after restarts.
package storage

import (
	"context"
	"errors"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
)

// InstanceStore defines the interface for instance record storage.
// Implementations must be safe for concurrent use.
type InstanceStore interface {
	// Put upserts an instance record.
	Put(ctx context.Context, record *domain.InstanceRecord) error

	// Get retrieves a record by instance ID.
	Get(ctx context.Context, id domain.InstanceID) (*domain.InstanceRecord, error)

	// List returns all instance records.
	List(ctx context.Context) ([]*domain.InstanceRecord, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id domain.InstanceID) error

	// Ping checks if the storage is alive.
	Ping(ctx context.Context) error

	// Close closes the storage connection.
	Close() error
}
