package service

import (
	"github.com/hostelops/bunkhouse/internal/domain"
)

// ValidateAssignment checks a proposed assignment of one resident against
// every candidate room. It is pure: no side effects, no repository access.
// Validation is all-or-nothing; the first failing room aborts the whole set.
func ValidateAssignment(rooms []*domain.Room, residentID string) error {
	seen := make(map[string]bool, len(rooms))
	for _, room := range rooms {
		// The same room twice in one request would put the resident in two
		// beds of that room, which the per-room duplicate check below cannot
		// see before the first commit.
		if seen[room.ID] {
			return &domain.DuplicateAssignmentError{RoomID: room.ID, ResidentID: residentID}
		}
		seen[room.ID] = true

		if room.Status == domain.StatusMaintenance {
			return &domain.RoomUnavailableError{RoomID: room.ID, Status: room.Status}
		}
		// A genuinely full room reports RoomFullError; an occupied status over
		// free beds means the loser of a write race re-read the room, and that
		// stale shape reports RoomUnavailableError.
		if room.CurrentOccupancy >= room.Capacity {
			return &domain.RoomFullError{RoomID: room.ID}
		}
		if room.Status != domain.StatusAvailable {
			return &domain.RoomUnavailableError{RoomID: room.ID, Status: room.Status}
		}
		if room.HasResident(residentID) {
			return &domain.DuplicateAssignmentError{RoomID: room.ID, ResidentID: residentID}
		}
	}
	return nil
}
