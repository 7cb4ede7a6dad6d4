package service

import (
	"context"
	"errors"
	"testing"

	"github.com/hostelops/bunkhouse/internal/domain"
	"github.com/hostelops/bunkhouse/internal/repository"
)

func TestCreateRoomProvisionsBeds(t *testing.T) {
	rooms := repository.NewMemoryRoomRepository()
	svc := NewRoomService(rooms, nil)

	room, err := svc.CreateRoom(context.Background(), RoomSpec{
		RoomNumber: "204",
		Floor:      2,
		Type:       "dorm",
		Capacity:   3,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(room.Beds) != 3 {
		t.Fatalf("expected 3 beds, got %d", len(room.Beds))
	}
	for i, want := range []string{"204-A", "204-B", "204-C"} {
		if room.Beds[i].BedNumber != want {
			t.Fatalf("bed %d label %s, want %s", i, room.Beds[i].BedNumber, want)
		}
		if room.Beds[i].ID == "" {
			t.Fatalf("bed %d missing id", i)
		}
	}
	if room.Status != domain.StatusAvailable || room.CurrentOccupancy != 0 {
		t.Fatalf("new room must be empty and available: %+v", room)
	}
	if err := room.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestCreateRoomRejectsBadSpec(t *testing.T) {
	svc := NewRoomService(repository.NewMemoryRoomRepository(), nil)
	if _, err := svc.CreateRoom(context.Background(), RoomSpec{RoomNumber: "1", Capacity: 0}); err == nil {
		t.Fatal("expected error for zero capacity")
	}
	if _, err := svc.CreateRoom(context.Background(), RoomSpec{Capacity: 2}); err == nil {
		t.Fatal("expected error for missing room number")
	}
}

func TestListRoomsOrdered(t *testing.T) {
	rooms := repository.NewMemoryRoomRepository()
	svc := NewRoomService(rooms, nil)
	ctx := context.Background()

	for _, n := range []string{"301", "101", "201"} {
		if _, err := svc.CreateRoom(ctx, RoomSpec{RoomNumber: n, Capacity: 1}); err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
	}
	listed, err := svc.ListRooms(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, want := range []string{"101", "201", "301"} {
		if listed[i].RoomNumber != want {
			t.Fatalf("position %d: got %s, want %s", i, listed[i].RoomNumber, want)
		}
	}
}

func TestDeleteOccupiedRoomRejected(t *testing.T) {
	rooms := repository.NewMemoryRoomRepository()
	roomSvc := NewRoomService(rooms, nil)
	allocSvc := NewAllocationService(rooms, nil, nil, nil, nil)
	ctx := context.Background()

	room, err := roomSvc.CreateRoom(ctx, RoomSpec{RoomNumber: "101", Capacity: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := allocSvc.Assign(ctx, room.ID, "resident-7"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	err = roomSvc.DeleteRoom(ctx, room.ID)
	var occupied *domain.RoomOccupiedError
	if !errors.As(err, &occupied) {
		t.Fatalf("expected RoomOccupiedError, got %v", err)
	}

	bed := room.Beds[0]
	if _, err := allocSvc.Release(ctx, room.ID, bed.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := roomSvc.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("delete after release: %v", err)
	}
}
