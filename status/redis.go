package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "chronos:status:"

// RedisStore is the Redis-backed Store implementation, used when multiple
// instances serve the polling surface. TTL eviction is delegated to Redis
// key expiry on completed entries.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore creates a Redis-backed status store and verifies
// connectivity
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	logger.Info("connected to redis status store",
		zap.String("component", "status-store"),
		zap.String("addr", addr))

	return &RedisStore{client: client, ttl: ttl, logger: logger}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*ProcessingStatus, bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read status: %w", err)
	}

	var processingStatus ProcessingStatus
	if err := json.Unmarshal(raw, &processingStatus); err != nil {
		return nil, false, fmt.Errorf("failed to decode status: %w", err)
	}
	return &processingStatus, true, nil
}

func (s *RedisStore) Advance(ctx context.Context, key string, stage Stage, message string) error {
	redisKey := redisKeyPrefix + key

	// Watch serializes concurrent writers for the same key; writers for
	// different keys proceed independently
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		var current *ProcessingStatus
		raw, err := tx.Get(ctx, redisKey).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read status: %w", err)
		}
		if err == nil {
			var existing ProcessingStatus
			if err := json.Unmarshal(raw, &existing); err != nil {
				return fmt.Errorf("failed to decode status: %w", err)
			}
			current = &existing
		}

		if err := advanceFrom(current, stage); err != nil {
			return err
		}

		next, err := json.Marshal(ProcessingStatus{
			Stage:     stage,
			Message:   message,
			UpdatedAt: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			// Expiry guards against a writer crashing mid-pipeline and
			// stranding the key; terminal writes shorten it to the TTL
			pipe.Set(ctx, redisKey, next, inflightTTL(s.ttl))
			return nil
		})
		return err
	}, redisKey)
}

func (s *RedisStore) Complete(ctx context.Context, key string, response any) error {
	return s.writeTerminal(ctx, key, ProcessingStatus{
		Stage:     StageDone,
		Message:   "request complete",
		Complete:  true,
		Response:  response,
		UpdatedAt: time.Now(),
	})
}

func (s *RedisStore) Fail(ctx context.Context, key string, message string) error {
	redisKey := redisKeyPrefix + key

	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		var current *ProcessingStatus
		raw, err := tx.Get(ctx, redisKey).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read status: %w", err)
		}
		if err == nil {
			var existing ProcessingStatus
			if err := json.Unmarshal(raw, &existing); err != nil {
				return fmt.Errorf("failed to decode status: %w", err)
			}
			current = &existing
		}

		next, err := json.Marshal(ProcessingStatus{
			Stage:     failureStage(current),
			Message:   message,
			Complete:  true,
			Error:     message,
			UpdatedAt: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisKey, next, s.ttl)
			return nil
		})
		return err
	}, redisKey)
}

func (s *RedisStore) writeTerminal(ctx context.Context, key string, processingStatus ProcessingStatus) error {
	raw, err := json.Marshal(processingStatus)
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
