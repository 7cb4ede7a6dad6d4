package domain

import "fmt"

// RoomStatus is the closed set of room availability states.
type RoomStatus string

const (
	StatusAvailable   RoomStatus = "available"
	StatusOccupied    RoomStatus = "occupied"
	StatusMaintenance RoomStatus = "maintenance"
)

// ParseRoomStatus converts a wire string into a RoomStatus
func ParseRoomStatus(s string) (RoomStatus, error) {
	switch RoomStatus(s) {
	case StatusAvailable, StatusOccupied, StatusMaintenance:
		return RoomStatus(s), nil
	}
	return "", fmt.Errorf("unknown room status %q", s)
}

// DeriveStatus is the single place room status is computed from occupancy.
// A maintenance override wins; otherwise a room is occupied exactly when
// occupancy has reached capacity.
func DeriveStatus(capacity, currentOccupancy int, override RoomStatus) RoomStatus {
	if override == StatusMaintenance {
		return StatusMaintenance
	}
	if currentOccupancy >= capacity {
		return StatusOccupied
	}
	return StatusAvailable
}
