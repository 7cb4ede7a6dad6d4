package domain

import (
	"errors"
	"fmt"
	"strings"
)

// RoomNotFoundError reports a room id that did not resolve in the repository.
type RoomNotFoundError struct {
	RoomID string
}

func (e *RoomNotFoundError) Error() string {
	return fmt.Sprintf("room %s not found", e.RoomID)
}

// ResidentNotFoundError reports a resident id unknown to the directory.
type ResidentNotFoundError struct {
	ResidentID string
}

func (e *ResidentNotFoundError) Error() string {
	return fmt.Sprintf("resident %s not found", e.ResidentID)
}

// BedNotFoundError reports a bed id that does not exist in the room.
type BedNotFoundError struct {
	RoomID string
	BedID  string
}

func (e *BedNotFoundError) Error() string {
	return fmt.Sprintf("bed %s not found in room %s", e.BedID, e.RoomID)
}

// BedNotOccupiedError reports a release against a bed that is already free.
type BedNotOccupiedError struct {
	RoomID string
	BedID  string
}

func (e *BedNotOccupiedError) Error() string {
	return fmt.Sprintf("bed %s in room %s is not occupied", e.BedID, e.RoomID)
}

// RoomUnavailableError reports an assignment against a room whose status is
// not available.
type RoomUnavailableError struct {
	RoomID string
	Status RoomStatus
}

func (e *RoomUnavailableError) Error() string {
	return fmt.Sprintf("room %s is %s, not available", e.RoomID, e.Status)
}

// RoomFullError reports a room with no free bed.
type RoomFullError struct {
	RoomID string
}

func (e *RoomFullError) Error() string {
	return fmt.Sprintf("room %s has no free bed", e.RoomID)
}

// DuplicateAssignmentError reports a resident who already occupies a bed in
// the target room.
type DuplicateAssignmentError struct {
	RoomID     string
	ResidentID string
}

func (e *DuplicateAssignmentError) Error() string {
	return fmt.Sprintf("resident %s already occupies a bed in room %s", e.ResidentID, e.RoomID)
}

// RoomOccupiedError reports a destructive room operation attempted while
// beds are still occupied.
type RoomOccupiedError struct {
	RoomID string
}

func (e *RoomOccupiedError) Error() string {
	return fmt.Sprintf("room %s still has occupied beds", e.RoomID)
}

// ConcurrentModificationError reports a version-checked write that lost a
// race. The whole transaction is safe to retry from the read phase.
type ConcurrentModificationError struct {
	RoomID string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("room %s was modified concurrently", e.RoomID)
}

// HoldNotFoundError reports a reservation hold id that did not resolve.
type HoldNotFoundError struct {
	HoldID string
}

func (e *HoldNotFoundError) Error() string {
	return fmt.Sprintf("hold %s not found", e.HoldID)
}

// PartialCommitError reports a bulk assignment that failed after some writes
// had already landed. RolledBack lists rooms the coordinator compensated;
// Unrecovered lists rooms left inconsistent and needing operator attention.
type PartialCommitError struct {
	ResidentID  string
	RolledBack  []string
	Unrecovered []string
	Cause       error
}

func (e *PartialCommitError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bulk assignment for resident %s aborted mid-commit", e.ResidentID)
	if len(e.RolledBack) > 0 {
		fmt.Fprintf(&b, "; rolled back rooms %s", strings.Join(e.RolledBack, ","))
	}
	if len(e.Unrecovered) > 0 {
		fmt.Fprintf(&b, "; rooms %s could not be rolled back", strings.Join(e.Unrecovered, ","))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *PartialCommitError) Unwrap() error { return e.Cause }

// IsRetryable reports whether an error is transient and the operation can be
// retried from scratch. Only concurrency conflicts qualify; validation and
// partial-commit errors never do.
func IsRetryable(err error) bool {
	var cme *ConcurrentModificationError
	return errors.As(err, &cme)
}

// IsNotFound reports whether an error is one of the not-found kinds.
func IsNotFound(err error) bool {
	var room *RoomNotFoundError
	var resident *ResidentNotFoundError
	var bed *BedNotFoundError
	var hold *HoldNotFoundError
	return errors.As(err, &room) || errors.As(err, &resident) ||
		errors.As(err, &bed) || errors.As(err, &hold)
}
