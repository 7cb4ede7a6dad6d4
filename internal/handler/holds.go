package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hostelops/bunkhouse/internal/service"
)

// ConfirmHoldRequest names the room the resident keeps
type ConfirmHoldRequest struct {
	RoomID string `json:"roomId"`
}

// HoldsHandler handles reservation hold endpoints
type HoldsHandler struct {
	allocations *service.AllocationService
	logger      *slog.Logger
}

// NewHoldsHandler creates a new holds handler
func NewHoldsHandler(allocations *service.AllocationService, logger *slog.Logger) *HoldsHandler {
	return &HoldsHandler{allocations: allocations, logger: logger}
}

// List handles GET /api/holds
func (h *HoldsHandler) List(w http.ResponseWriter, r *http.Request) {
	holds, err := h.allocations.ListHolds(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, holds)
}

// Confirm handles POST /api/holds/{id}/confirm
func (h *HoldsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	holdID := r.PathValue("id")

	var req ConfirmHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.RoomID == "" {
		http.Error(w, "roomId is required", http.StatusBadRequest)
		return
	}

	hold, err := h.allocations.ConfirmHold(r.Context(), holdID, req.RoomID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, hold)
}
