package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hostelops/bunkhouse/internal/domain"
)

// RoomSpec captures a room creation request.
type RoomSpec struct {
	RoomNumber string
	Floor      int
	Type       string
	Capacity   int
}

// RoomService handles the room CRUD surface around the allocation engine.
type RoomService struct {
	rooms  domain.RoomRepository
	logger *slog.Logger
}

// NewRoomService creates a new room service.
func NewRoomService(rooms domain.RoomRepository, logger *slog.Logger) *RoomService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomService{rooms: rooms, logger: logger}
}

// CreateRoom provisions a room with one bed per unit of capacity. Bed labels
// run <roomNumber>-A, <roomNumber>-B and so on.
func (s *RoomService) CreateRoom(ctx context.Context, spec RoomSpec) (*domain.Room, error) {
	if spec.RoomNumber == "" {
		return nil, fmt.Errorf("room number required")
	}
	if spec.Capacity < 1 {
		return nil, fmt.Errorf("capacity must be at least 1")
	}

	now := time.Now()
	room := &domain.Room{
		ID:         uuid.NewString(),
		RoomNumber: spec.RoomNumber,
		Floor:      spec.Floor,
		Type:       spec.Type,
		Capacity:   spec.Capacity,
		Status:     domain.StatusAvailable,
		Beds:       make([]domain.Bed, 0, spec.Capacity),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for i := 0; i < spec.Capacity; i++ {
		room.Beds = append(room.Beds, domain.Bed{
			ID:        uuid.NewString(),
			BedNumber: fmt.Sprintf("%s-%s", spec.RoomNumber, bedLabel(i)),
		})
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	s.logger.Info("room created",
		slog.String("room_id", room.ID),
		slog.String("room_number", room.RoomNumber),
		slog.Int("capacity", room.Capacity),
	)
	return room, nil
}

// GetRoom fetches one room.
func (s *RoomService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	return s.rooms.Get(ctx, id)
}

// ListRooms returns all rooms ordered by room number.
func (s *RoomService) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].RoomNumber < rooms[j].RoomNumber
	})
	return rooms, nil
}

// DeleteRoom removes a room. Rooms with occupied beds cannot be deleted.
func (s *RoomService) DeleteRoom(ctx context.Context, id string) error {
	room, err := s.rooms.Get(ctx, id)
	if err != nil {
		return err
	}
	if room.CurrentOccupancy > 0 {
		return &domain.RoomOccupiedError{RoomID: id}
	}
	if err := s.rooms.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	s.logger.Info("room deleted", slog.String("room_id", id))
	return nil
}

// bedLabel yields A..Z then A2, B2 and so on for oversized rooms.
func bedLabel(i int) string {
	letter := string(rune('A' + i%26))
	if round := i / 26; round > 0 {
		return fmt.Sprintf("%s%d", letter, round+1)
	}
	return letter
}
