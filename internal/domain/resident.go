package domain

import "context"

// Resident is owned by the resident directory; the engine only reads it.
// RoomID is an informational back-reference, never the source of truth for
// occupancy.
type Resident struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	RoomID   string `json:"roomId,omitempty"`
}

// ResidentDirectory resolves resident ids before assignment.
type ResidentDirectory interface {
	Lookup(ctx context.Context, id string) (*Resident, error)
}
