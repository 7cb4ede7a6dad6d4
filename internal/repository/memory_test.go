package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/hostelops/bunkhouse/internal/domain"
)

func memTestRoom(id string) *domain.Room {
	return &domain.Room{
		ID:       id,
		Capacity: 2,
		Status:   domain.StatusAvailable,
		Beds: []domain.Bed{
			{ID: id + "-bed-1", BedNumber: "A"},
			{ID: id + "-bed-2", BedNumber: "B"},
		},
	}
}

func TestMemoryPutVersionCheck(t *testing.T) {
	repo := NewMemoryRoomRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, memTestRoom("r1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, _ := repo.Get(ctx, "r1")
	second, _ := repo.Get(ctx, "r1")

	first.OccupyNextFreeBed("resident-1")
	if err := repo.Put(ctx, first, first.Version); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("expected version 2 after put, got %d", first.Version)
	}

	second.OccupyNextFreeBed("resident-2")
	err := repo.Put(ctx, second, second.Version)
	var cme *domain.ConcurrentModificationError
	if !errors.As(err, &cme) {
		t.Fatalf("expected ConcurrentModificationError for stale write, got %v", err)
	}

	stored, _ := repo.Get(ctx, "r1")
	if stored.Beds[0].ResidentID != "resident-1" || stored.CurrentOccupancy != 1 {
		t.Fatalf("stale write must not land: %+v", stored)
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	repo := NewMemoryRoomRepository()
	ctx := context.Background()
	repo.Create(ctx, memTestRoom("r1"))

	a, _ := repo.Get(ctx, "r1")
	a.OccupyNextFreeBed("resident-1")

	b, _ := repo.Get(ctx, "r1")
	if b.CurrentOccupancy != 0 || b.Beds[0].IsOccupied {
		t.Fatal("mutating a loaded room leaked into the store")
	}
}

func TestMemoryGetManyPreservesOrder(t *testing.T) {
	repo := NewMemoryRoomRepository()
	ctx := context.Background()
	for _, id := range []string{"r1", "r2", "r3"} {
		repo.Create(ctx, memTestRoom(id))
	}

	rooms, err := repo.GetMany(ctx, []string{"r3", "r1", "r2"})
	if err != nil {
		t.Fatalf("getMany: %v", err)
	}
	for i, want := range []string{"r3", "r1", "r2"} {
		if rooms[i].ID != want {
			t.Fatalf("position %d: got %s, want %s", i, rooms[i].ID, want)
		}
	}

	_, err = repo.GetMany(ctx, []string{"r1", "r404"})
	var notFound *domain.RoomNotFoundError
	if !errors.As(err, &notFound) || notFound.RoomID != "r404" {
		t.Fatalf("expected RoomNotFoundError(r404), got %v", err)
	}
}

func TestMemoryHoldRepository(t *testing.T) {
	repo := NewMemoryHoldRepository()
	ctx := context.Background()

	hold := &domain.Hold{ID: "h1", ResidentID: "resident-1", RoomIDs: []string{"r1", "r2"}}
	if err := repo.Create(ctx, hold); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.Get(ctx, "h1")
	if err != nil || len(got.RoomIDs) != 2 {
		t.Fatalf("get: %v %+v", err, got)
	}
	if err := repo.Delete(ctx, "h1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = repo.Get(ctx, "h1")
	var notFound *domain.HoldNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected HoldNotFoundError, got %v", err)
	}
}
