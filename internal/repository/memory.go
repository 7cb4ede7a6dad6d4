package repository

import (
	"context"
	"sync"

	"github.com/hostelops/bunkhouse/internal/domain"
)

// MemoryRoomRepository is an in-memory RoomRepository with the same
// version-check semantics as the durable stores. It backs tests and
// single-binary deployments without Redis or Postgres.
type MemoryRoomRepository struct {
	mu    sync.Mutex
	rooms map[string]*domain.Room
}

// NewMemoryRoomRepository creates an empty in-memory room store.
func NewMemoryRoomRepository() *MemoryRoomRepository {
	return &MemoryRoomRepository{rooms: map[string]*domain.Room{}}
}

// Create stores a new room at version 1.
func (m *MemoryRoomRepository) Create(_ context.Context, room *domain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room.Version = 1
	m.rooms[room.ID] = cloneRoom(room)
	return nil
}

// Get returns a copy of the stored room.
func (m *MemoryRoomRepository) Get(_ context.Context, id string) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, &domain.RoomNotFoundError{RoomID: id}
	}
	return cloneRoom(room), nil
}

// GetMany returns copies of the rooms in the order requested.
func (m *MemoryRoomRepository) GetMany(ctx context.Context, ids []string) ([]*domain.Room, error) {
	out := make([]*domain.Room, 0, len(ids))
	for _, id := range ids {
		room, err := m.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, nil
}

// List returns copies of all rooms.
func (m *MemoryRoomRepository) List(_ context.Context) ([]*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		out = append(out, cloneRoom(room))
	}
	return out, nil
}

// Put writes the room only if the stored version still matches
// expectedVersion, then bumps the version.
func (m *MemoryRoomRepository) Put(_ context.Context, room *domain.Room, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.rooms[room.ID]
	if !ok {
		return &domain.RoomNotFoundError{RoomID: room.ID}
	}
	if current.Version != expectedVersion {
		return &domain.ConcurrentModificationError{RoomID: room.ID}
	}
	room.Version = expectedVersion + 1
	m.rooms[room.ID] = cloneRoom(room)
	return nil
}

// Delete removes a room.
func (m *MemoryRoomRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return &domain.RoomNotFoundError{RoomID: id}
	}
	delete(m.rooms, id)
	return nil
}

func cloneRoom(room *domain.Room) *domain.Room {
	out := *room
	out.Beds = append([]domain.Bed(nil), room.Beds...)
	return &out
}

// MemoryHoldRepository is the in-memory HoldRepository counterpart.
type MemoryHoldRepository struct {
	mu    sync.Mutex
	holds map[string]*domain.Hold
}

// NewMemoryHoldRepository creates an empty in-memory hold store.
func NewMemoryHoldRepository() *MemoryHoldRepository {
	return &MemoryHoldRepository{holds: map[string]*domain.Hold{}}
}

// Create stores a hold.
func (m *MemoryHoldRepository) Create(_ context.Context, hold *domain.Hold) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holds[hold.ID] = cloneHold(hold)
	return nil
}

// Get returns a copy of the stored hold.
func (m *MemoryHoldRepository) Get(_ context.Context, id string) (*domain.Hold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hold, ok := m.holds[id]
	if !ok {
		return nil, &domain.HoldNotFoundError{HoldID: id}
	}
	return cloneHold(hold), nil
}

// List returns copies of all holds.
func (m *MemoryHoldRepository) List(_ context.Context) ([]*domain.Hold, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Hold, 0, len(m.holds))
	for _, hold := range m.holds {
		out = append(out, cloneHold(hold))
	}
	return out, nil
}

// Delete removes a hold.
func (m *MemoryHoldRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holds[id]; !ok {
		return &domain.HoldNotFoundError{HoldID: id}
	}
	delete(m.holds, id)
	return nil
}

func cloneHold(hold *domain.Hold) *domain.Hold {
	out := *hold
	out.RoomIDs = append([]string(nil), hold.RoomIDs...)
	return &out
}
