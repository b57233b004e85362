// Package mongodb provides a MongoDB-backed instance store.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/domain"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/storage"
)

const collectionName = "instances"

// Config contains MongoDB connection configuration.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Store is a MongoDB implementation of storage.InstanceStore.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
	logger     *zap.Logger
}

// NewStore connects to MongoDB and returns a store backed by the instances
// collection.
func NewStore(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &Store{
		client:     client,
		collection: client.Database(cfg.Database).Collection(collectionName),
		timeout:    cfg.Timeout,
		logger:     logger.Named("mongodb"),
	}, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) Put(ctx context.Context, record *domain.InstanceRecord) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": record.ID},
		record,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert instance record: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id domain.InstanceID) (*domain.InstanceRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var record domain.InstanceRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find instance record: %w", err)
	}
	return &record, nil
}

func (s *Store) List(ctx context.Context) ([]*domain.InstanceRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list instance records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.InstanceRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode instance records: %w", err)
	}
	return records, nil
}

func (s *Store) Delete(ctx context.Context, id domain.InstanceID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete instance record: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
