package domain

import (
	"context"
	"time"
)

// Hold is a pending multi-room reservation created by a bulk assignment.
// The beds are occupied immediately; if the hold is not confirmed before
// ExpiresAt, the reaper releases every held room.
type Hold struct {
	ID         string    `json:"id"`
	ResidentID string    `json:"residentId"`
	RoomIDs    []string  `json:"roomIds"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expired reports whether the hold has passed its deadline.
func (h *Hold) Expired(now time.Time) bool {
	return now.After(h.ExpiresAt)
}

// HoldRepository defines data access for reservation holds.
type HoldRepository interface {
	Create(ctx context.Context, hold *Hold) error
	Get(ctx context.Context, id string) (*Hold, error)
	List(ctx context.Context) ([]*Hold, error)
	Delete(ctx context.Context, id string) error
}
