package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const documentKeyPrefix = "preview:" // preview:{documentID}

// NewRedisClient creates a Redis client from a redis:// URL and checks the connection.
func NewRedisClient(redisURL string, logger logrus.FieldLogger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 10
	opts.PoolTimeout = 30 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"addr": opts.Addr,
		"db":   opts.DB,
	}).Info("Connected to Redis")
	return client, nil
}

// RedisDocumentStore implements DocumentStore with one Redis string per document.
type RedisDocumentStore struct {
	client *redis.Client
	log    logrus.FieldLogger
}

// NewRedisDocumentStore wraps a connected client.
func NewRedisDocumentStore(client *redis.Client, logger logrus.FieldLogger) *RedisDocumentStore {
	return &RedisDocumentStore{
		client: client,
		log:    logger.WithField("component", "document_store"),
	}
}

// Get returns the document or ErrNotFound.
func (s *RedisDocumentStore) Get(ctx context.Context, id string) ([]byte, error) {
	doc, err := s.client.Get(ctx, documentKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return doc, nil
}

// Set writes the document without expiry.
func (s *RedisDocumentStore) Set(ctx context.Context, id string, doc []byte) error {
	if err := s.client.Set(ctx, documentKeyPrefix+id, doc, 0).Err(); err != nil {
		return fmt.Errorf("failed to set document %s: %w", id, err)
	}
	s.log.WithField("document_id", id).Debug("Document written")
	return nil
}

// Delete removes the document. Deleting a missing document is not an error.
func (s *RedisDocumentStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, documentKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return nil
}
