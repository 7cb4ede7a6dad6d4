package handler

import (
	"log/slog"
	"net/http"

	"github.com/hostelops/bunkhouse/internal/service"
)

// ReleaseHandler handles POST /api/rooms/{id}/beds/{bedId}/release
type ReleaseHandler struct {
	allocations *service.AllocationService
	logger      *slog.Logger
}

// NewReleaseHandler creates a new release handler
func NewReleaseHandler(allocations *service.AllocationService, logger *slog.Logger) *ReleaseHandler {
	return &ReleaseHandler{allocations: allocations, logger: logger}
}

// ServeHTTP handles the release request
func (h *ReleaseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	bedID := r.PathValue("bedId")
	if roomID == "" || bedID == "" {
		http.Error(w, "room id and bed id are required", http.StatusBadRequest)
		return
	}

	room, err := h.allocations.Release(r.Context(), roomID, bedID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}
