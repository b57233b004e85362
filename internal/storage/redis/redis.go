// Package redis provides a Redis-backed instance store. Records are stored
// as JSON under a configurable key prefix, with a set index for listing.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/storage"
)

// Config contains Redis connection configuration.
type Config struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// Store is a Redis implementation of storage.InstanceStore.
type Store struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "wa:instance:"
	}

	return &Store{
		client:    client,
		keyPrefix: prefix,
		logger:    logger.Named("redis"),
	}, nil
}

func (s *Store) recordKey(id domain.InstanceID) string {
	return s.keyPrefix + id.String()
}

func (s *Store) indexKey() string {
	return s.keyPrefix + "index"
}

func (s *Store) Put(ctx context.Context, record *domain.InstanceRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.recordKey(record.ID), data, 0)
	pipe.SAdd(ctx, s.indexKey(), record.ID.String())
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) Get(ctx context.Context, id domain.InstanceID) (*domain.InstanceRecord, error) {
	data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if err == redis.Nil {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var record domain.InstanceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Store) List(ctx context.Context) ([]*domain.InstanceRecord, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, err
	}

	var records []*domain.InstanceRecord
	for _, id := range ids {
		record, err := s.Get(ctx, domain.InstanceID(id))
		if err == storage.ErrNotFound {
			// Stale index entry, clean it up.
			s.client.SRem(ctx, s.indexKey(), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Store) Delete(ctx context.Context, id domain.InstanceID) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.recordKey(id))
	pipe.SRem(ctx, s.indexKey(), id.String())
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
