package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hostelops/bunkhouse/internal/domain"
	"github.com/hostelops/bunkhouse/internal/infrastructure/redis"
)

// RedisHoldRepository implements domain.HoldRepository over Redis. Hold keys
// carry no Redis TTL: the record must outlive its deadline so the reaper can
// still read the room list and release the beds.
type RedisHoldRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewRedisHoldRepository creates a new Redis-backed hold repository.
func NewRedisHoldRepository(redisClient *redis.Client, logger *slog.Logger) *RedisHoldRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisHoldRepository{redis: redisClient, logger: logger}
}

func holdKey(id string) string {
	return fmt.Sprintf("hold:%s", id)
}

// Create stores a hold.
func (r *RedisHoldRepository) Create(ctx context.Context, hold *domain.Hold) error {
	data, err := json.Marshal(hold)
	if err != nil {
		return fmt.Errorf("failed to marshal hold: %w", err)
	}
	if err := r.redis.Set(ctx, holdKey(hold.ID), string(data), 0); err != nil {
		return fmt.Errorf("failed to store hold: %w", err)
	}
	r.logger.Debug("hold created", slog.String("hold_id", hold.ID))
	return nil
}

// Get retrieves a hold by id.
func (r *RedisHoldRepository) Get(ctx context.Context, id string) (*domain.Hold, error) {
	data, err := r.redis.Get(ctx, holdKey(id))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, &domain.HoldNotFoundError{HoldID: id}
		}
		return nil, fmt.Errorf("failed to get hold: %w", err)
	}
	var hold domain.Hold
	if err := json.Unmarshal([]byte(data), &hold); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hold: %w", err)
	}
	return &hold, nil
}

// List returns all holds.
func (r *RedisHoldRepository) List(ctx context.Context) ([]*domain.Hold, error) {
	keys, err := r.redis.Keys(ctx, "hold:*")
	if err != nil {
		return nil, fmt.Errorf("failed to list holds: %w", err)
	}

	var holds []*domain.Hold
	for _, key := range keys {
		data, err := r.redis.Get(ctx, key)
		if err != nil {
			r.logger.Error("failed to get hold", slog.String("key", key), slog.String("error", err.Error()))
			continue
		}
		var hold domain.Hold
		if err := json.Unmarshal([]byte(data), &hold); err != nil {
			r.logger.Error("failed to unmarshal hold", slog.String("key", key), slog.String("error", err.Error()))
			continue
		}
		holds = append(holds, &hold)
	}
	return holds, nil
}

// Delete removes a hold.
func (r *RedisHoldRepository) Delete(ctx context.Context, id string) error {
	if err := r.redis.Delete(ctx, holdKey(id)); err != nil {
		return fmt.Errorf("failed to delete hold: %w", err)
	}
	return nil
}
