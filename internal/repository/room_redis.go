package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hostelops/bunkhouse/internal/domain"
	"github.com/hostelops/bunkhouse/internal/infrastructure/redis"
)

// putRoomScript performs the version check and the overwrite atomically.
// Returns -1 when the key is missing, 0 on a version mismatch, 1 on success.
const putRoomScript = `
local cur = redis.call('GET', KEYS[1])
if not cur then
  return -1
end
local obj = cjson.decode(cur)
if tonumber(obj['version']) ~= tonumber(ARGV[1]) then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2])
return 1
`

// RedisRoomRepository implements domain.RoomRepository over Redis, one JSON
// record per room keyed room:{id}, with the version token checked server-side
// by a Lua script.
type RedisRoomRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewRedisRoomRepository creates a new Redis-backed room repository.
func NewRedisRoomRepository(redisClient *redis.Client, logger *slog.Logger) *RedisRoomRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRoomRepository{redis: redisClient, logger: logger}
}

func roomKey(id string) string {
	return fmt.Sprintf("room:%s", id)
}

// Create stores a new room at version 1. An existing id is an error.
func (r *RedisRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	room.Version = 1
	room.UpdatedAt = time.Now()

	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}
	ok, err := r.redis.SetNX(ctx, roomKey(room.ID), string(data))
	if err != nil {
		return fmt.Errorf("failed to store room: %w", err)
	}
	if !ok {
		return fmt.Errorf("room %s already exists", room.ID)
	}

	r.logger.Debug("room created", slog.String("room_id", room.ID))
	return nil
}

// Get retrieves a room by id.
func (r *RedisRoomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	data, err := r.redis.Get(ctx, roomKey(id))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, &domain.RoomNotFoundError{RoomID: id}
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	var room domain.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}
	return &room, nil
}

// GetMany retrieves rooms preserving the requested order. Any read failure
// surfaces as RoomNotFoundError carrying the offending id.
func (r *RedisRoomRepository) GetMany(ctx context.Context, ids []string) ([]*domain.Room, error) {
	rooms := make([]*domain.Room, 0, len(ids))
	for _, id := range ids {
		room, err := r.Get(ctx, id)
		if err != nil {
			var notFound *domain.RoomNotFoundError
			if errors.As(err, &notFound) {
				return nil, err
			}
			r.logger.Error("room read failed", slog.String("room_id", id), slog.String("error", err.Error()))
			return nil, &domain.RoomNotFoundError{RoomID: id}
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// List returns all rooms.
func (r *RedisRoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	keys, err := r.redis.Keys(ctx, "room:*")
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	var rooms []*domain.Room
	for _, key := range keys {
		data, err := r.redis.Get(ctx, key)
		if err != nil {
			r.logger.Error("failed to get room", slog.String("key", key), slog.String("error", err.Error()))
			continue
		}
		var room domain.Room
		if err := json.Unmarshal([]byte(data), &room); err != nil {
			r.logger.Error("failed to unmarshal room", slog.String("key", key), slog.String("error", err.Error()))
			continue
		}
		rooms = append(rooms, &room)
	}
	return rooms, nil
}

// Put writes the room conditional on the stored version still matching
// expectedVersion, bumping room.Version on success.
func (r *RedisRoomRepository) Put(ctx context.Context, room *domain.Room, expectedVersion int64) error {
	room.Version = expectedVersion + 1
	room.UpdatedAt = time.Now()

	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	res, err := r.redis.Eval(ctx, putRoomScript, []string{roomKey(room.ID)}, expectedVersion, string(data))
	if err != nil {
		room.Version = expectedVersion
		return fmt.Errorf("failed to write room: %w", err)
	}
	switch res {
	case int64(1):
		return nil
	case int64(0):
		room.Version = expectedVersion
		return &domain.ConcurrentModificationError{RoomID: room.ID}
	default:
		room.Version = expectedVersion
		return &domain.RoomNotFoundError{RoomID: room.ID}
	}
}

// Delete removes a room.
func (r *RedisRoomRepository) Delete(ctx context.Context, id string) error {
	if err := r.redis.Delete(ctx, roomKey(id)); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	r.logger.Debug("room deleted", slog.String("room_id", id))
	return nil
}
