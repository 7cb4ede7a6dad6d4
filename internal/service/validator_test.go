package service

import (
	"errors"
	"testing"

	"github.com/hostelops/bunkhouse/internal/domain"
)

func validatorRoom(id string, capacity, occupancy int, status domain.RoomStatus) *domain.Room {
	room := &domain.Room{
		ID:       id,
		Capacity: capacity,
		Status:   status,
	}
	for i := 0; i < capacity; i++ {
		bed := domain.Bed{ID: id + "-bed"}
		if i < occupancy {
			bed.IsOccupied = true
			bed.ResidentID = "other"
		}
		room.Beds = append(room.Beds, bed)
	}
	room.CurrentOccupancy = occupancy
	return room
}

func TestValidateAssignmentPasses(t *testing.T) {
	rooms := []*domain.Room{
		validatorRoom("a", 2, 0, domain.StatusAvailable),
		validatorRoom("b", 4, 3, domain.StatusAvailable),
	}
	if err := ValidateAssignment(rooms, "resident-1"); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
}

func TestValidateAssignmentUnavailable(t *testing.T) {
	rooms := []*domain.Room{
		validatorRoom("a", 2, 0, domain.StatusAvailable),
		validatorRoom("b", 2, 0, domain.StatusMaintenance),
	}
	err := ValidateAssignment(rooms, "resident-1")
	var unavailable *domain.RoomUnavailableError
	if !errors.As(err, &unavailable) || unavailable.RoomID != "b" {
		t.Fatalf("expected RoomUnavailableError(b), got %v", err)
	}
}

func TestValidateAssignmentStaleOccupiedStatus(t *testing.T) {
	// Status occupied with free capacity (stale read): still not eligible.
	room := validatorRoom("a", 2, 1, domain.StatusOccupied)
	err := ValidateAssignment([]*domain.Room{room}, "resident-1")
	var unavailable *domain.RoomUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected RoomUnavailableError, got %v", err)
	}
}

func TestValidateAssignmentFull(t *testing.T) {
	// Available status but no free capacity (counter drift): caught by the
	// explicit capacity check.
	room := validatorRoom("a", 2, 2, domain.StatusAvailable)
	err := ValidateAssignment([]*domain.Room{room}, "resident-1")
	var full *domain.RoomFullError
	if !errors.As(err, &full) || full.RoomID != "a" {
		t.Fatalf("expected RoomFullError(a), got %v", err)
	}
}

func TestValidateAssignmentFullOccupiedRoom(t *testing.T) {
	// A genuinely full room reports the capacity problem, not its occupied
	// status. This is what the loser of a last-bed race sees on retry.
	room := validatorRoom("a", 2, 2, domain.StatusOccupied)
	err := ValidateAssignment([]*domain.Room{room}, "resident-1")
	var full *domain.RoomFullError
	if !errors.As(err, &full) || full.RoomID != "a" {
		t.Fatalf("expected RoomFullError(a), got %v", err)
	}
}

func TestValidateAssignmentDuplicateResident(t *testing.T) {
	room := validatorRoom("a", 2, 0, domain.StatusAvailable)
	room.Beds[0].IsOccupied = true
	room.Beds[0].ResidentID = "resident-1"
	room.CurrentOccupancy = 1

	err := ValidateAssignment([]*domain.Room{room}, "resident-1")
	var dup *domain.DuplicateAssignmentError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateAssignmentError, got %v", err)
	}
}

func TestValidateAssignmentIsPure(t *testing.T) {
	room := validatorRoom("a", 2, 1, domain.StatusAvailable)
	before := *room
	beds := append([]domain.Bed(nil), room.Beds...)

	ValidateAssignment([]*domain.Room{room}, "resident-1")

	if room.CurrentOccupancy != before.CurrentOccupancy || room.Status != before.Status {
		t.Fatal("validator mutated room state")
	}
	for i := range beds {
		if room.Beds[i] != beds[i] {
			t.Fatalf("validator mutated bed %d", i)
		}
	}
}
