package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hostelops/bunkhouse/internal/domain"
	"github.com/hostelops/bunkhouse/internal/reliability/retry"
	"github.com/hostelops/bunkhouse/internal/service"
)

// BulkAssignRequest represents an atomic multi-room assignment request.
// HoldMinutes > 0 turns the assignment into a reservation hold.
type BulkAssignRequest struct {
	RoomIDs     []string `json:"roomIds"`
	ResidentID  string   `json:"residentId"`
	HoldMinutes int      `json:"holdMinutes,omitempty"`
}

// BulkAssignResponse carries the updated rooms and, for held assignments,
// the hold record.
type BulkAssignResponse struct {
	Rooms []*domain.Room `json:"rooms"`
	Hold  *domain.Hold   `json:"hold,omitempty"`
}

// BulkAssignHandler handles POST /api/assignments
type BulkAssignHandler struct {
	allocations *service.AllocationService
	retryCfg    *retry.Config
	maxHold     time.Duration
	logger      *slog.Logger
}

// NewBulkAssignHandler creates a new bulk assignment handler
func NewBulkAssignHandler(allocations *service.AllocationService, retryCfg *retry.Config, maxHold time.Duration, logger *slog.Logger) *BulkAssignHandler {
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	cfg := *retryCfg
	cfg.ShouldRetry = domain.IsRetryable
	return &BulkAssignHandler{allocations: allocations, retryCfg: &cfg, maxHold: maxHold, logger: logger}
}

// ServeHTTP handles the bulk assignment request
func (h *BulkAssignHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req BulkAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if len(req.RoomIDs) == 0 {
		http.Error(w, "roomIds is required", http.StatusBadRequest)
		return
	}
	if req.ResidentID == "" {
		http.Error(w, "residentId is required", http.StatusBadRequest)
		return
	}
	if req.HoldMinutes < 0 {
		http.Error(w, "holdMinutes must not be negative", http.StatusBadRequest)
		return
	}
	holdFor := time.Duration(req.HoldMinutes) * time.Minute
	if h.maxHold > 0 && holdFor > h.maxHold {
		http.Error(w, "holdMinutes exceeds the configured maximum", http.StatusBadRequest)
		return
	}

	resp, err := retry.Do(r.Context(), h.retryCfg, h.logger, "assign_bulk",
		func(ctx context.Context) (*BulkAssignResponse, error) {
			if holdFor > 0 {
				rooms, hold, err := h.allocations.AssignBulkWithHold(ctx, req.RoomIDs, req.ResidentID, holdFor)
				if err != nil {
					return nil, err
				}
				return &BulkAssignResponse{Rooms: rooms, Hold: hold}, nil
			}
			rooms, err := h.allocations.AssignBulk(ctx, req.RoomIDs, req.ResidentID)
			if err != nil {
				return nil, err
			}
			return &BulkAssignResponse{Rooms: rooms}, nil
		})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
