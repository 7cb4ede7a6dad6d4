package domain

import "time"

// OccupancyEventType labels the allocation events published after a commit.
type OccupancyEventType string

const (
	EventBedAssigned   OccupancyEventType = "bed_assigned"
	EventBedReleased   OccupancyEventType = "bed_released"
	EventStatusChanged OccupancyEventType = "status_changed"
	EventHoldExpired   OccupancyEventType = "hold_expired"
	EventHoldConfirmed OccupancyEventType = "hold_confirmed"
)

// OccupancyEvent describes one committed occupancy change.
type OccupancyEvent struct {
	Type       OccupancyEventType `json:"type"`
	RoomID     string             `json:"roomId"`
	RoomNumber string             `json:"roomNumber"`
	BedID      string             `json:"bedId,omitempty"`
	ResidentID string             `json:"residentId,omitempty"`
	Occupancy  int                `json:"occupancy"`
	FreeBeds   int                `json:"freeBeds"`
	Status     RoomStatus         `json:"status"`
	At         time.Time          `json:"at"`
}

// EventPublisher receives events after state has been persisted. Delivery is
// fire-and-forget; publishers must not block the allocation path.
type EventPublisher interface {
	Publish(event OccupancyEvent)
}
