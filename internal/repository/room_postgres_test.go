package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hostelops/bunkhouse/internal/domain"
)

func pgTestRoom() *domain.Room {
	return &domain.Room{
		ID:         "room-1",
		RoomNumber: "101",
		Floor:      1,
		Type:       "dorm",
		Capacity:   2,
		Status:     domain.StatusAvailable,
		Beds: []domain.Bed{
			{ID: "bed-1", BedNumber: "101-A"},
			{ID: "bed-2", BedNumber: "101-B"},
		},
		Version:   3,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestPostgresGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRoomRepository(db, nil)

	room := pgTestRoom()
	beds, _ := json.Marshal(room.Beds)
	rows := sqlmock.NewRows([]string{
		"id", "room_number", "floor", "type", "capacity",
		"current_occupancy", "status", "beds", "version", "created_at", "updated_at",
	}).AddRow(room.ID, room.RoomNumber, room.Floor, room.Type, room.Capacity,
		0, string(room.Status), beds, room.Version, room.CreatedAt, room.UpdatedAt)

	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE id = \$1`).
		WithArgs("room-1").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RoomNumber != "101" || len(got.Beds) != 2 || got.Version != 3 {
		t.Fatalf("unexpected room: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRoomRepository(db, nil)

	mock.ExpectQuery(`SELECT .+ FROM rooms WHERE id = \$1`).
		WithArgs("room-404").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.Get(context.Background(), "room-404")
	var notFound *domain.RoomNotFoundError
	if !errors.As(err, &notFound) || notFound.RoomID != "room-404" {
		t.Fatalf("expected RoomNotFoundError(room-404), got %v", err)
	}
}

func TestPostgresPutBumpsVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRoomRepository(db, nil)

	room := pgTestRoom()
	mock.ExpectExec(`UPDATE rooms`).
		WithArgs(room.CurrentOccupancy, string(room.Status), sqlmock.AnyArg(), sqlmock.AnyArg(), room.ID, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Put(context.Background(), room, 3); err != nil {
		t.Fatalf("put: %v", err)
	}
	if room.Version != 4 {
		t.Fatalf("expected version bump to 4, got %d", room.Version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresPutVersionConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRoomRepository(db, nil)

	room := pgTestRoom()
	mock.ExpectExec(`UPDATE rooms`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(room.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err = repo.Put(context.Background(), room, 3)
	var cme *domain.ConcurrentModificationError
	if !errors.As(err, &cme) || cme.RoomID != room.ID {
		t.Fatalf("expected ConcurrentModificationError, got %v", err)
	}
}

func TestPostgresPutMissingRoom(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRoomRepository(db, nil)

	room := pgTestRoom()
	mock.ExpectExec(`UPDATE rooms`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(room.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err = repo.Put(context.Background(), room, 3)
	var notFound *domain.RoomNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected RoomNotFoundError, got %v", err)
	}
}
