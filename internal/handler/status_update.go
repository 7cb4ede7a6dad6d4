package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hostelops/bunkhouse/internal/domain"
	"github.com/hostelops/bunkhouse/internal/service"
)

// StatusUpdateRequest represents an administrative status override
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// StatusUpdateHandler handles PATCH /api/rooms/{id}/status
type StatusUpdateHandler struct {
	allocations *service.AllocationService
	logger      *slog.Logger
}

// NewStatusUpdateHandler creates a new status update handler
func NewStatusUpdateHandler(allocations *service.AllocationService, logger *slog.Logger) *StatusUpdateHandler {
	return &StatusUpdateHandler{allocations: allocations, logger: logger}
}

// ServeHTTP handles the status update request
func (h *StatusUpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	status, err := domain.ParseRoomStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	room, err := h.allocations.SetStatus(r.Context(), roomID, status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}
