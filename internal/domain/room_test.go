package domain

import (
	"errors"
	"testing"
)

func twoBedRoom() *Room {
	return &Room{
		ID:         "room-101",
		RoomNumber: "101",
		Floor:      1,
		Type:       "double",
		Capacity:   2,
		Status:     StatusAvailable,
		Beds: []Bed{
			{ID: "bed-1", BedNumber: "101-A"},
			{ID: "bed-2", BedNumber: "101-B"},
		},
	}
}

func TestOccupyNextFreeBedFillsInOrder(t *testing.T) {
	room := twoBedRoom()

	bed, err := room.OccupyNextFreeBed("resident-7")
	if err != nil {
		t.Fatalf("first occupy failed: %v", err)
	}
	if bed.BedNumber != "101-A" {
		t.Fatalf("expected bed 101-A first, got %s", bed.BedNumber)
	}
	if room.CurrentOccupancy != 1 || room.Status != StatusAvailable {
		t.Fatalf("expected occupancy=1 available, got %d %s", room.CurrentOccupancy, room.Status)
	}

	bed, err = room.OccupyNextFreeBed("resident-8")
	if err != nil {
		t.Fatalf("second occupy failed: %v", err)
	}
	if bed.BedNumber != "101-B" {
		t.Fatalf("expected bed 101-B second, got %s", bed.BedNumber)
	}
	if room.CurrentOccupancy != 2 || room.Status != StatusOccupied {
		t.Fatalf("expected occupancy=2 occupied, got %d %s", room.CurrentOccupancy, room.Status)
	}

	if _, err := room.OccupyNextFreeBed("resident-9"); err == nil {
		t.Fatal("expected RoomFullError on full room")
	} else {
		var full *RoomFullError
		if !errors.As(err, &full) {
			t.Fatalf("expected RoomFullError, got %T", err)
		}
	}
	if err := room.CheckInvariants(); err != nil {
		t.Fatalf("invariants violated: %v", err)
	}
}

func TestReleaseBedRederivesStatus(t *testing.T) {
	room := twoBedRoom()
	room.OccupyNextFreeBed("resident-7")
	room.OccupyNextFreeBed("resident-8")

	if _, err := room.ReleaseBed("bed-1"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if room.CurrentOccupancy != 1 || room.Status != StatusAvailable {
		t.Fatalf("expected occupancy=1 available after release, got %d %s", room.CurrentOccupancy, room.Status)
	}
	if err := room.CheckInvariants(); err != nil {
		t.Fatalf("invariants violated: %v", err)
	}
}

func TestReleaseFreeBedFails(t *testing.T) {
	room := twoBedRoom()

	_, err := room.ReleaseBed("bed-1")
	var notOccupied *BedNotOccupiedError
	if !errors.As(err, &notOccupied) {
		t.Fatalf("expected BedNotOccupiedError, got %v", err)
	}
	if room.CurrentOccupancy != 0 {
		t.Fatalf("failed release must not change state, occupancy=%d", room.CurrentOccupancy)
	}

	_, err = room.ReleaseBed("no-such-bed")
	var notFound *BedNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected BedNotFoundError, got %v", err)
	}
}

func TestMaintenanceIsSticky(t *testing.T) {
	room := twoBedRoom()
	room.SetStatus(StatusMaintenance)

	room.OccupyNextFreeBed("resident-7")
	room.OccupyNextFreeBed("resident-8")
	if room.Status != StatusMaintenance {
		t.Fatalf("maintenance must survive bed mutations, got %s", room.Status)
	}

	// Leaving maintenance re-derives from occupancy, it does not force available.
	room.SetStatus(StatusAvailable)
	if room.Status != StatusOccupied {
		t.Fatalf("expected derived occupied after clearing maintenance, got %s", room.Status)
	}
}

func TestReleaseResident(t *testing.T) {
	room := twoBedRoom()
	room.OccupyNextFreeBed("resident-7")

	bed, err := room.ReleaseResident("resident-7")
	if err != nil {
		t.Fatalf("release by resident failed: %v", err)
	}
	if bed.IsOccupied || bed.ResidentID != "" {
		t.Fatalf("bed not cleared: %+v", bed)
	}

	if _, err := room.ReleaseResident("resident-7"); err == nil {
		t.Fatal("expected error releasing absent resident")
	}
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		capacity, occupancy int
		override            RoomStatus
		want                RoomStatus
	}{
		{2, 0, "", StatusAvailable},
		{2, 1, "", StatusAvailable},
		{2, 2, "", StatusOccupied},
		{2, 3, "", StatusOccupied},
		{2, 0, StatusMaintenance, StatusMaintenance},
		{2, 2, StatusMaintenance, StatusMaintenance},
	}
	for _, c := range cases {
		if got := DeriveStatus(c.capacity, c.occupancy, c.override); got != c.want {
			t.Errorf("DeriveStatus(%d, %d, %q) = %s, want %s", c.capacity, c.occupancy, c.override, got, c.want)
		}
	}
}

func TestCheckInvariantsDetectsCorruption(t *testing.T) {
	room := twoBedRoom()
	room.Beds[0].IsOccupied = true // residentId missing
	if err := room.CheckInvariants(); err == nil {
		t.Fatal("expected invariant failure for occupied bed without resident")
	}

	room = twoBedRoom()
	room.OccupyNextFreeBed("resident-7")
	room.CurrentOccupancy = 2 // counter drifted
	if err := room.CheckInvariants(); err == nil {
		t.Fatal("expected invariant failure for drifted occupancy counter")
	}

	room = twoBedRoom()
	room.Beds[0] = Bed{ID: "bed-1", BedNumber: "101-A", IsOccupied: true, ResidentID: "resident-7"}
	room.Beds[1] = Bed{ID: "bed-2", BedNumber: "101-B", IsOccupied: true, ResidentID: "resident-7"}
	room.CurrentOccupancy = 2
	room.Status = StatusOccupied
	if err := room.CheckInvariants(); err == nil {
		t.Fatal("expected invariant failure for duplicate resident")
	}
}
