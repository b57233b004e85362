// Package memory provides an in-memory instance store for development and
// testing.
package memory

import (
	"context"
	"sync"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/storage"
)

// Store is an in-memory implementation of storage.InstanceStore.
type Store struct {
	mu      sync.RWMutex
	records map[domain.InstanceID]*domain.InstanceRecord
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		records: make(map[domain.InstanceID]*domain.InstanceRecord),
	}
}

func (s *Store) Put(ctx context.Context, record *domain.InstanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	s.records[record.ID] = &copied
	return nil
}

func (s *Store) Get(ctx context.Context, id domain.InstanceID) (*domain.InstanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *Store) List(ctx context.Context) ([]*domain.InstanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.InstanceRecord, 0, len(s.records))
	for _, record := range s.records {
		copied := *record
		result = append(result, &copied)
	}
	return result, nil
}

func (s *Store) Delete(ctx context.Context, id domain.InstanceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}
