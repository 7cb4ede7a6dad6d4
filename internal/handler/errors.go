package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hostelops/bunkhouse/internal/domain"
)

// apiError is the structured error body: a kind plus the offending ids, so
// clients can render a precise message without parsing strings.
type apiError struct {
	Kind        string   `json:"kind"`
	Message     string   `json:"message"`
	RoomID      string   `json:"roomId,omitempty"`
	BedID       string   `json:"bedId,omitempty"`
	ResidentID  string   `json:"residentId,omitempty"`
	HoldID      string   `json:"holdId,omitempty"`
	RolledBack  []string `json:"rolledBack,omitempty"`
	Unrecovered []string `json:"unrecovered,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps a domain error onto an HTTP status and structured body.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, body := classifyError(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", slog.String("kind", body.Kind), slog.String("error", err.Error()))
	}
	writeJSON(w, status, errorEnvelope{Error: body})
}

func classifyError(err error) (int, apiError) {
	var (
		roomNotFound     *domain.RoomNotFoundError
		residentNotFound *domain.ResidentNotFoundError
		bedNotFound      *domain.BedNotFoundError
		holdNotFound     *domain.HoldNotFoundError
		bedNotOccupied   *domain.BedNotOccupiedError
		unavailable      *domain.RoomUnavailableError
		full             *domain.RoomFullError
		duplicate        *domain.DuplicateAssignmentError
		occupied         *domain.RoomOccupiedError
		conflict         *domain.ConcurrentModificationError
		partial          *domain.PartialCommitError
	)

	switch {
	case errors.As(err, &roomNotFound):
		return http.StatusNotFound, apiError{Kind: "room_not_found", Message: err.Error(), RoomID: roomNotFound.RoomID}
	case errors.As(err, &residentNotFound):
		return http.StatusNotFound, apiError{Kind: "resident_not_found", Message: err.Error(), ResidentID: residentNotFound.ResidentID}
	case errors.As(err, &bedNotFound):
		return http.StatusNotFound, apiError{Kind: "bed_not_found", Message: err.Error(), RoomID: bedNotFound.RoomID, BedID: bedNotFound.BedID}
	case errors.As(err, &holdNotFound):
		return http.StatusNotFound, apiError{Kind: "hold_not_found", Message: err.Error(), HoldID: holdNotFound.HoldID}
	case errors.As(err, &bedNotOccupied):
		return http.StatusConflict, apiError{Kind: "bed_not_occupied", Message: err.Error(), RoomID: bedNotOccupied.RoomID, BedID: bedNotOccupied.BedID}
	case errors.As(err, &unavailable):
		return http.StatusConflict, apiError{Kind: "room_unavailable", Message: err.Error(), RoomID: unavailable.RoomID}
	case errors.As(err, &full):
		return http.StatusConflict, apiError{Kind: "room_full", Message: err.Error(), RoomID: full.RoomID}
	case errors.As(err, &duplicate):
		return http.StatusConflict, apiError{Kind: "duplicate_assignment", Message: err.Error(), RoomID: duplicate.RoomID, ResidentID: duplicate.ResidentID}
	case errors.As(err, &occupied):
		return http.StatusConflict, apiError{Kind: "room_occupied", Message: err.Error(), RoomID: occupied.RoomID}
	case errors.As(err, &conflict):
		return http.StatusConflict, apiError{Kind: "concurrent_modification", Message: err.Error(), RoomID: conflict.RoomID}
	case errors.As(err, &partial):
		// An unresolved partial commit requires operator attention; never
		// dressed up as a client error.
		return http.StatusInternalServerError, apiError{
			Kind:        "partial_commit",
			Message:     err.Error(),
			ResidentID:  partial.ResidentID,
			RolledBack:  partial.RolledBack,
			Unrecovered: partial.Unrecovered,
		}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, apiError{Kind: "deadline_exceeded", Message: err.Error()}
	case errors.Is(err, context.Canceled):
		return 499, apiError{Kind: "request_cancelled", Message: err.Error()}
	}
	return http.StatusInternalServerError, apiError{Kind: "internal", Message: err.Error()}
}
