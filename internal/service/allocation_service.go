package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hostelops/bunkhouse/internal/domain"
	"github.com/hostelops/bunkhouse/internal/observability/metrics"
)

// rollbackAttempts bounds the retries of one compensating release before the
// room is reported as unrecovered.
const rollbackAttempts = 3

// AllocationService coordinates atomic room assignments. It holds no state
// between calls: every transaction re-reads its rooms from the repository
// and commits through version-checked writes.
type AllocationService struct {
	rooms     domain.RoomRepository
	holds     domain.HoldRepository
	directory domain.ResidentDirectory
	events    domain.EventPublisher
	logger    *slog.Logger
}

// NewAllocationService creates a new allocation service. The hold repository,
// directory and publisher may be nil, which disables holds, resident checks
// and event fan-out respectively.
func NewAllocationService(
	rooms domain.RoomRepository,
	holds domain.HoldRepository,
	directory domain.ResidentDirectory,
	events domain.EventPublisher,
	logger *slog.Logger,
) *AllocationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AllocationService{
		rooms:     rooms,
		holds:     holds,
		directory: directory,
		events:    events,
		logger:    logger,
	}
}

// Assign places the resident in the next free bed of one room. It is the
// one-element case of AssignBulk and shares its validation and error
// semantics.
func (s *AllocationService) Assign(ctx context.Context, roomID, residentID string) (*domain.Room, error) {
	rooms, err := s.AssignBulk(ctx, []string{roomID}, residentID)
	if err != nil {
		return nil, err
	}
	return rooms[0], nil
}

// AssignBulk atomically assigns the resident one bed in every listed room.
// Either every room commits or none does; on a mid-batch write failure the
// already-committed rooms are compensated and a PartialCommitError reports
// anything that could not be rolled back.
func (s *AllocationService) AssignBulk(ctx context.Context, roomIDs []string, residentID string) ([]*domain.Room, error) {
	start := time.Now()
	rooms, err := s.assignBulk(ctx, roomIDs, residentID)
	metrics.ObserveAssignment("assign_bulk", resultLabel(err), time.Since(start))
	return rooms, err
}

// AssignBulkWithHold is AssignBulk plus a reservation hold: the beds commit
// immediately and the hold reaper releases every room not confirmed before
// the hold expires.
func (s *AllocationService) AssignBulkWithHold(ctx context.Context, roomIDs []string, residentID string, holdFor time.Duration) ([]*domain.Room, *domain.Hold, error) {
	if s.holds == nil {
		return nil, nil, fmt.Errorf("reservation holds are not enabled")
	}
	if holdFor <= 0 {
		return nil, nil, fmt.Errorf("hold duration must be positive")
	}

	rooms, err := s.AssignBulk(ctx, roomIDs, residentID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	hold := &domain.Hold{
		ID:         uuid.NewString(),
		ResidentID: residentID,
		RoomIDs:    append([]string(nil), roomIDs...),
		CreatedAt:  now,
		ExpiresAt:  now.Add(holdFor),
	}
	if err := s.holds.Create(ctx, hold); err != nil {
		// The beds are committed; without a hold record they would never be
		// reaped, so undo the whole assignment.
		rolledBack, unrecovered := s.compensate(context.WithoutCancel(ctx), rooms, residentID)
		if len(unrecovered) > 0 {
			return nil, nil, &domain.PartialCommitError{
				ResidentID:  residentID,
				RolledBack:  rolledBack,
				Unrecovered: unrecovered,
				Cause:       fmt.Errorf("failed to store hold: %w", err),
			}
		}
		return nil, nil, fmt.Errorf("failed to store hold: %w", err)
	}

	s.logger.Info("hold created",
		slog.String("hold_id", hold.ID),
		slog.String("resident_id", residentID),
		slog.Int("rooms", len(roomIDs)),
		slog.Time("expires_at", hold.ExpiresAt),
	)
	return rooms, hold, nil
}

func (s *AllocationService) assignBulk(ctx context.Context, roomIDs []string, residentID string) ([]*domain.Room, error) {
	if len(roomIDs) == 0 {
		return nil, fmt.Errorf("no rooms requested")
	}
	if residentID == "" {
		return nil, fmt.Errorf("resident id required")
	}

	if s.directory != nil {
		if _, err := s.directory.Lookup(ctx, residentID); err != nil {
			var notFound *domain.ResidentNotFoundError
			if errors.As(err, &notFound) {
				return nil, err
			}
			return nil, fmt.Errorf("resident lookup failed: %w", err)
		}
	}

	// Loads preserve the caller's order so errors and rollback reports are
	// reproducible across retries. Any per-id read failure surfaces as
	// RoomNotFoundError from the repository.
	rooms, err := s.rooms.GetMany(ctx, roomIDs)
	if err != nil {
		var notFound *domain.RoomNotFoundError
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, fmt.Errorf("room load failed: %w", err)
	}

	if err := ValidateAssignment(rooms, residentID); err != nil {
		return nil, err
	}

	// Deadline check: once the write phase starts the transaction runs to
	// completion or explicit rollback, so abort here while nothing has moved.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	committed := make([]*domain.Room, 0, len(rooms))
	for _, room := range rooms {
		expected := room.Version
		bed, err := room.OccupyNextFreeBed(residentID)
		if err != nil {
			return nil, s.abortCommit(ctx, committed, residentID, err)
		}
		if err := s.rooms.Put(ctx, room, expected); err != nil {
			return nil, s.abortCommit(ctx, committed, residentID, err)
		}
		committed = append(committed, room)

		s.publish(domain.OccupancyEvent{
			Type:       domain.EventBedAssigned,
			RoomID:     room.ID,
			RoomNumber: room.RoomNumber,
			BedID:      bed.ID,
			ResidentID: residentID,
			Occupancy:  room.CurrentOccupancy,
			FreeBeds:   room.FreeBeds(),
			Status:     room.Status,
			At:         time.Now(),
		})
	}

	metrics.AddOccupiedBeds(len(committed))
	s.logger.Info("assignment committed",
		slog.String("resident_id", residentID),
		slog.Int("rooms", len(committed)),
	)
	return rooms, nil
}

// abortCommit rolls back every already-committed room after a mid-batch
// failure. A clean rollback of a version conflict surfaces as the conflict
// itself; anything the compensation could not undo becomes a
// PartialCommitError that must reach an operator.
func (s *AllocationService) abortCommit(ctx context.Context, committed []*domain.Room, residentID string, cause error) error {
	var cme *domain.ConcurrentModificationError
	isConflict := errors.As(cause, &cme)
	if isConflict {
		metrics.ObserveVersionConflict()
	}

	if len(committed) == 0 {
		if isConflict {
			return cme
		}
		return fmt.Errorf("assignment write failed: %w", cause)
	}

	// Compensation must proceed even if the caller's deadline has passed.
	rolledBack, unrecovered := s.compensate(context.WithoutCancel(ctx), committed, residentID)

	if len(unrecovered) == 0 {
		if isConflict {
			return cme
		}
		return &domain.PartialCommitError{
			ResidentID: residentID,
			RolledBack: rolledBack,
			Cause:      cause,
		}
	}

	metrics.AddOccupiedBeds(len(unrecovered))
	s.logger.Error("bulk assignment left rooms unrecovered",
		slog.String("resident_id", residentID),
		slog.Any("unrecovered", unrecovered),
		slog.String("cause", cause.Error()),
	)
	return &domain.PartialCommitError{
		ResidentID:  residentID,
		RolledBack:  rolledBack,
		Unrecovered: unrecovered,
		Cause:       cause,
	}
}

// compensate releases the resident's bed in each committed room, reloading
// and re-writing under the version check. Rooms are undone in reverse commit
// order.
func (s *AllocationService) compensate(ctx context.Context, committed []*domain.Room, residentID string) (rolledBack, unrecovered []string) {
	for i := len(committed) - 1; i >= 0; i-- {
		id := committed[i].ID
		if err := s.releaseResidentCAS(ctx, id, residentID); err != nil {
			s.logger.Error("compensating release failed",
				slog.String("room_id", id),
				slog.String("resident_id", residentID),
				slog.String("error", err.Error()),
			)
			metrics.ObserveRollback("failed")
			unrecovered = append(unrecovered, id)
			continue
		}
		metrics.ObserveRollback("ok")
		rolledBack = append(rolledBack, id)
	}
	return rolledBack, unrecovered
}

// releaseResidentCAS reloads the room and releases the resident's bed,
// retrying a bounded number of times on version conflicts.
func (s *AllocationService) releaseResidentCAS(ctx context.Context, roomID, residentID string) error {
	var lastErr error
	for attempt := 0; attempt < rollbackAttempts; attempt++ {
		room, err := s.rooms.Get(ctx, roomID)
		if err != nil {
			return err
		}
		expected := room.Version
		if _, err := room.ReleaseResident(residentID); err != nil {
			return err
		}
		if err := s.rooms.Put(ctx, room, expected); err != nil {
			var cme *domain.ConcurrentModificationError
			if errors.As(err, &cme) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return lastErr
}

// Release frees one named bed and persists the room. Releasing a free bed
// fails with BedNotOccupiedError and changes nothing.
func (s *AllocationService) Release(ctx context.Context, roomID, bedID string) (*domain.Room, error) {
	start := time.Now()
	room, err := s.release(ctx, roomID, bedID)
	metrics.ObserveAssignment("release", resultLabel(err), time.Since(start))
	return room, err
}

func (s *AllocationService) release(ctx context.Context, roomID, bedID string) (*domain.Room, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	expected := room.Version

	bed, err := room.ReleaseBed(bedID)
	if err != nil {
		return nil, err
	}
	if err := s.rooms.Put(ctx, room, expected); err != nil {
		var cme *domain.ConcurrentModificationError
		if errors.As(err, &cme) {
			metrics.ObserveVersionConflict()
			return nil, cme
		}
		return nil, fmt.Errorf("release write failed: %w", err)
	}

	metrics.AddOccupiedBeds(-1)
	s.publish(domain.OccupancyEvent{
		Type:       domain.EventBedReleased,
		RoomID:     room.ID,
		RoomNumber: room.RoomNumber,
		BedID:      bed.ID,
		Occupancy:  room.CurrentOccupancy,
		FreeBeds:   room.FreeBeds(),
		Status:     room.Status,
		At:         time.Now(),
	})
	return room, nil
}

// ReleaseResident frees whichever bed the resident occupies in the room.
// Used at checkout and by the hold reaper.
func (s *AllocationService) ReleaseResident(ctx context.Context, roomID, residentID string) (*domain.Room, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	expected := room.Version

	bed, err := room.ReleaseResident(residentID)
	if err != nil {
		return nil, err
	}
	if err := s.rooms.Put(ctx, room, expected); err != nil {
		var cme *domain.ConcurrentModificationError
		if errors.As(err, &cme) {
			metrics.ObserveVersionConflict()
			return nil, cme
		}
		return nil, fmt.Errorf("release write failed: %w", err)
	}

	metrics.AddOccupiedBeds(-1)
	s.publish(domain.OccupancyEvent{
		Type:       domain.EventBedReleased,
		RoomID:     room.ID,
		RoomNumber: room.RoomNumber,
		BedID:      bed.ID,
		ResidentID: residentID,
		Occupancy:  room.CurrentOccupancy,
		FreeBeds:   room.FreeBeds(),
		Status:     room.Status,
		At:         time.Now(),
	})
	return room, nil
}

// SetStatus applies an administrative status override and persists it.
func (s *AllocationService) SetStatus(ctx context.Context, roomID string, status domain.RoomStatus) (*domain.Room, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	expected := room.Version

	room.SetStatus(status)
	if err := s.rooms.Put(ctx, room, expected); err != nil {
		var cme *domain.ConcurrentModificationError
		if errors.As(err, &cme) {
			metrics.ObserveVersionConflict()
			return nil, cme
		}
		return nil, fmt.Errorf("status write failed: %w", err)
	}

	s.publish(domain.OccupancyEvent{
		Type:       domain.EventStatusChanged,
		RoomID:     room.ID,
		RoomNumber: room.RoomNumber,
		Occupancy:  room.CurrentOccupancy,
		FreeBeds:   room.FreeBeds(),
		Status:     room.Status,
		At:         time.Now(),
	})
	return room, nil
}

// ListHolds returns all pending reservation holds.
func (s *AllocationService) ListHolds(ctx context.Context) ([]*domain.Hold, error) {
	if s.holds == nil {
		return nil, fmt.Errorf("reservation holds are not enabled")
	}
	holds, err := s.holds.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list holds: %w", err)
	}
	sort.Slice(holds, func(i, j int) bool { return holds[i].CreatedAt.Before(holds[j].CreatedAt) })
	return holds, nil
}

// ConfirmHold keeps the resident's bed in the chosen room and releases every
// other room of the hold.
func (s *AllocationService) ConfirmHold(ctx context.Context, holdID, keepRoomID string) (*domain.Hold, error) {
	if s.holds == nil {
		return nil, fmt.Errorf("reservation holds are not enabled")
	}
	hold, err := s.holds.Get(ctx, holdID)
	if err != nil {
		return nil, err
	}

	keep := false
	for _, id := range hold.RoomIDs {
		if id == keepRoomID {
			keep = true
			break
		}
	}
	if !keep {
		return nil, fmt.Errorf("room %s is not part of hold %s", keepRoomID, holdID)
	}

	for _, id := range hold.RoomIDs {
		if id == keepRoomID {
			continue
		}
		if err := s.releaseResidentCAS(ctx, id, hold.ResidentID); err != nil {
			return nil, fmt.Errorf("failed to release room %s: %w", id, err)
		}
		metrics.AddOccupiedBeds(-1)
	}

	if err := s.holds.Delete(ctx, holdID); err != nil {
		return nil, fmt.Errorf("failed to delete hold: %w", err)
	}

	s.publish(domain.OccupancyEvent{
		Type:       domain.EventHoldConfirmed,
		RoomID:     keepRoomID,
		ResidentID: hold.ResidentID,
		At:         time.Now(),
	})
	s.logger.Info("hold confirmed",
		slog.String("hold_id", holdID),
		slog.String("room_id", keepRoomID),
		slog.String("resident_id", hold.ResidentID),
	)
	return hold, nil
}

// ReapExpiredHolds releases every room of every expired hold and deletes the
// hold records. It returns the number of holds processed.
func (s *AllocationService) ReapExpiredHolds(ctx context.Context, now time.Time) (int, error) {
	if s.holds == nil {
		return 0, nil
	}
	holds, err := s.holds.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list holds: %w", err)
	}

	reaped := 0
	for _, hold := range holds {
		if !hold.Expired(now) {
			continue
		}
		failed := false
		for _, roomID := range hold.RoomIDs {
			if err := s.releaseResidentCAS(ctx, roomID, hold.ResidentID); err != nil {
				if domain.IsNotFound(err) {
					continue // already released, or the room itself was deleted
				}
				s.logger.Error("failed to release expired hold room",
					slog.String("hold_id", hold.ID),
					slog.String("room_id", roomID),
					slog.String("error", err.Error()),
				)
				failed = true
				continue
			}
			metrics.AddOccupiedBeds(-1)
		}
		if failed {
			metrics.ObserveHoldReaped("error")
			continue // retried on the next reaper tick
		}
		if err := s.holds.Delete(ctx, hold.ID); err != nil {
			s.logger.Error("failed to delete expired hold", slog.String("hold_id", hold.ID), slog.String("error", err.Error()))
			metrics.ObserveHoldReaped("error")
			continue
		}
		metrics.ObserveHoldReaped("ok")
		s.publish(domain.OccupancyEvent{
			Type:       domain.EventHoldExpired,
			ResidentID: hold.ResidentID,
			At:         time.Now(),
		})
		reaped++
	}
	return reaped, nil
}

func (s *AllocationService) publish(event domain.OccupancyEvent) {
	if s.events != nil {
		s.events.Publish(event)
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
