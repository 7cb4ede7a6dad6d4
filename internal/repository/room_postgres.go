package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hostelops/bunkhouse/internal/domain"
)

// PostgresRoomRepository implements domain.RoomRepository over Postgres.
// Beds are stored as a JSONB column; the version column carries the
// optimistic concurrency token, checked in the UPDATE's WHERE clause.
type PostgresRoomRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRoomRepository creates a new Postgres-backed room repository.
func NewPostgresRoomRepository(db *sql.DB, logger *slog.Logger) *PostgresRoomRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRoomRepository{db: db, logger: logger}
}

const roomColumns = `id, room_number, floor, type, capacity, current_occupancy, status, beds, version, created_at, updated_at`

// Create inserts a new room at version 1.
func (r *PostgresRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	room.Version = 1
	room.UpdatedAt = time.Now()

	beds, err := json.Marshal(room.Beds)
	if err != nil {
		return fmt.Errorf("failed to marshal beds: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		room.ID, room.RoomNumber, room.Floor, room.Type, room.Capacity,
		room.CurrentOccupancy, string(room.Status), beds, room.Version,
		room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert room: %w", err)
	}
	r.logger.Debug("room created", slog.String("room_id", room.ID))
	return nil
}

// Get retrieves a room by id.
func (r *PostgresRoomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.RoomNotFoundError{RoomID: id}
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

// GetMany retrieves rooms preserving the requested order. Any read failure
// surfaces as RoomNotFoundError carrying the offending id.
func (r *PostgresRoomRepository) GetMany(ctx context.Context, ids []string) ([]*domain.Room, error) {
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

// List returns all rooms ordered by room number.
func (r *PostgresRoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY room_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

// Put updates the room only while the stored version matches expectedVersion,
// bumping room.Version on success.
func (r *PostgresRoomRepository) Put(ctx context.Context, room *domain.Room, expectedVersion int64) error {
	beds, err := json.Marshal(room.Beds)
	if err != nil {
		return fmt.Errorf("failed to marshal beds: %w", err)
	}
	updatedAt := time.Now()

	res, err := r.db.ExecContext(ctx,
		`UPDATE rooms
		 SET current_occupancy = $1, status = $2, beds = $3, version = version + 1, updated_at = $4
		 WHERE id = $5 AND version = $6`,
		room.CurrentOccupancy, string(room.Status), beds, updatedAt,
		room.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, room.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check room existence: %w", err)
		}
		if !exists {
			return &domain.RoomNotFoundError{RoomID: room.ID}
		}
		return &domain.ConcurrentModificationError{RoomID: room.ID}
	}

	room.Version = expectedVersion + 1
	room.UpdatedAt = updatedAt
	return nil
}

// Delete removes a room.
func (r *PostgresRoomRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return &domain.RoomNotFoundError{RoomID: id}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRoom(row rowScanner) (*domain.Room, error) {
	var room domain.Room
	var status string
	var beds []byte
	err := row.Scan(
		&room.ID, &room.RoomNumber, &room.Floor, &room.Type, &room.Capacity,
		&room.CurrentOccupancy, &status, &beds, &room.Version,
		&room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	room.Status = domain.RoomStatus(status)
	if len(beds) > 0 {
		if err := json.Unmarshal(beds, &room.Beds); err != nil {
			return nil, fmt.Errorf("failed to unmarshal beds: %w", err)
		}
	}
	return &room, nil
}
