package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hostelops/bunkhouse/internal/domain"
	"github.com/hostelops/bunkhouse/internal/reliability/retry"
	"github.com/hostelops/bunkhouse/internal/service"
)

// AssignRequest represents a single-room assignment request
type AssignRequest struct {
	ResidentID string `json:"residentId"`
}

// AssignHandler handles POST /api/rooms/{id}/assign
type AssignHandler struct {
	allocations *service.AllocationService
	retryCfg    *retry.Config
	logger      *slog.Logger
}

// NewAssignHandler creates a new assignment handler. Version conflicts are
// retried here, transparently to the caller, up to the configured attempts.
func NewAssignHandler(allocations *service.AllocationService, retryCfg *retry.Config, logger *slog.Logger) *AssignHandler {
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	cfg := *retryCfg
	cfg.ShouldRetry = domain.IsRetryable
	return &AssignHandler{allocations: allocations, retryCfg: &cfg, logger: logger}
}

// ServeHTTP handles the assignment request
func (h *AssignHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.ResidentID == "" {
		http.Error(w, "residentId is required", http.StatusBadRequest)
		return
	}

	room, err := retry.Do(r.Context(), h.retryCfg, h.logger, "assign",
		func(ctx context.Context) (*domain.Room, error) {
			return h.allocations.Assign(ctx, roomID, req.ResidentID)
		})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}
