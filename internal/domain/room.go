package domain

import (
	"context"
	"fmt"
	"time"
)

// Bed is the smallest allocatable unit. Beds are created with their room and
// never deleted independently of it.
type Bed struct {
	ID         string `json:"id"`
	BedNumber  string `json:"bedNumber"` // display label, unique within the room
	IsOccupied bool   `json:"isOccupied"`
	ResidentID string `json:"residentId,omitempty"` // set iff IsOccupied
}

// Room is the aggregate owning a room's beds. CurrentOccupancy and Status are
// derived from bed state and recomputed after every mutation; Version is the
// repository's optimistic concurrency token.
type Room struct {
	ID               string     `json:"id"`
	RoomNumber       string     `json:"roomNumber"`
	Floor            int        `json:"floor"`
	Type             string     `json:"type"`
	Capacity         int        `json:"capacity"`
	CurrentOccupancy int        `json:"currentOccupancy"`
	Status           RoomStatus `json:"status"`
	Beds             []Bed      `json:"beds"`
	Version          int64      `json:"version"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// OccupyNextFreeBed places the resident in the first free bed in index order
// and recomputes derived state. The capacity check belongs to the validator;
// this is the defensive backstop.
func (r *Room) OccupyNextFreeBed(residentID string) (*Bed, error) {
	for i := range r.Beds {
		if r.Beds[i].IsOccupied {
			continue
		}
		r.Beds[i].IsOccupied = true
		r.Beds[i].ResidentID = residentID
		r.CurrentOccupancy++
		r.recomputeStatus()
		return &r.Beds[i], nil
	}
	return nil, &RoomFullError{RoomID: r.ID}
}

// ReleaseBed frees the named bed. Releasing an already-free bed is an error,
// not a no-op.
func (r *Room) ReleaseBed(bedID string) (*Bed, error) {
	for i := range r.Beds {
		if r.Beds[i].ID != bedID {
			continue
		}
		if !r.Beds[i].IsOccupied {
			return nil, &BedNotOccupiedError{RoomID: r.ID, BedID: bedID}
		}
		r.Beds[i].IsOccupied = false
		r.Beds[i].ResidentID = ""
		r.CurrentOccupancy--
		r.recomputeStatus()
		return &r.Beds[i], nil
	}
	return nil, &BedNotFoundError{RoomID: r.ID, BedID: bedID}
}

// ReleaseResident frees the bed occupied by the resident, if any. Used by
// rollback compensation and hold expiry, where the caller knows the resident
// but not the bed.
func (r *Room) ReleaseResident(residentID string) (*Bed, error) {
	for i := range r.Beds {
		if r.Beds[i].IsOccupied && r.Beds[i].ResidentID == residentID {
			return r.ReleaseBed(r.Beds[i].ID)
		}
	}
	return nil, &BedNotFoundError{RoomID: r.ID, BedID: "resident:" + residentID}
}

// SetStatus applies an administrative status override. Maintenance is sticky
// until explicitly cleared; any other requested status re-derives from
// current occupancy instead of being forced.
func (r *Room) SetStatus(next RoomStatus) {
	if next == StatusMaintenance {
		r.Status = StatusMaintenance
		return
	}
	r.Status = DeriveStatus(r.Capacity, r.CurrentOccupancy, "")
}

// HasResident reports whether the resident currently occupies a bed here.
func (r *Room) HasResident(residentID string) bool {
	for i := range r.Beds {
		if r.Beds[i].IsOccupied && r.Beds[i].ResidentID == residentID {
			return true
		}
	}
	return false
}

// FreeBeds returns the number of unoccupied beds.
func (r *Room) FreeBeds() int {
	n := 0
	for i := range r.Beds {
		if !r.Beds[i].IsOccupied {
			n++
		}
	}
	return n
}

func (r *Room) recomputeStatus() {
	if r.Status == StatusMaintenance {
		return
	}
	r.Status = DeriveStatus(r.Capacity, r.CurrentOccupancy, "")
}

// CheckInvariants verifies the aggregate's internal consistency: occupancy
// matches bed state, occupancy never exceeds capacity, resident ids are set
// exactly on occupied beds and are unique within the room, and status agrees
// with occupancy unless overridden.
func (r *Room) CheckInvariants() error {
	occupied := 0
	seen := make(map[string]string, len(r.Beds))
	for i := range r.Beds {
		b := &r.Beds[i]
		if b.IsOccupied != (b.ResidentID != "") {
			return fmt.Errorf("room %s bed %s: occupied=%v but residentId=%q", r.ID, b.ID, b.IsOccupied, b.ResidentID)
		}
		if b.IsOccupied {
			occupied++
			if prev, ok := seen[b.ResidentID]; ok {
				return fmt.Errorf("room %s: resident %s occupies beds %s and %s", r.ID, b.ResidentID, prev, b.ID)
			}
			seen[b.ResidentID] = b.ID
		}
	}
	if occupied != r.CurrentOccupancy {
		return fmt.Errorf("room %s: currentOccupancy=%d but %d beds occupied", r.ID, r.CurrentOccupancy, occupied)
	}
	if r.CurrentOccupancy > r.Capacity {
		return fmt.Errorf("room %s: occupancy %d exceeds capacity %d", r.ID, r.CurrentOccupancy, r.Capacity)
	}
	if want := DeriveStatus(r.Capacity, r.CurrentOccupancy, r.Status); r.Status != want {
		return fmt.Errorf("room %s: status %s, derived %s", r.ID, r.Status, want)
	}
	return nil
}

// RoomRepository defines data access for rooms. Put is a conditional write:
// it must fail with ConcurrentModificationError when the stored version no
// longer matches expectedVersion, and bump room.Version on success.
type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	Get(ctx context.Context, id string) (*Room, error)
	GetMany(ctx context.Context, ids []string) ([]*Room, error)
	List(ctx context.Context) ([]*Room, error)
	Put(ctx context.Context, room *Room, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
}
