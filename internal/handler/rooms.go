package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hostelops/bunkhouse/internal/service"
)

// CreateRoomRequest represents the request to create a room
type CreateRoomRequest struct {
	RoomNumber string `json:"roomNumber"`
	Floor      int    `json:"floor"`
	Type       string `json:"type"`
	Capacity   int    `json:"capacity"`
}

// RoomsHandler handles the room CRUD endpoints
type RoomsHandler struct {
	roomService *service.RoomService
	logger      *slog.Logger
}

// NewRoomsHandler creates a new rooms handler
func NewRoomsHandler(roomService *service.RoomService, logger *slog.Logger) *RoomsHandler {
	return &RoomsHandler{roomService: roomService, logger: logger}
}

// List handles GET /api/rooms
func (h *RoomsHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomService.ListRooms(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// Get handles GET /api/rooms/{id}
func (h *RoomsHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomService.GetRoom(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// Create handles POST /api/rooms
func (h *RoomsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", slog.String("error", err.Error()))
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if req.RoomNumber == "" {
		http.Error(w, "roomNumber is required", http.StatusBadRequest)
		return
	}
	if req.Capacity < 1 {
		http.Error(w, "capacity must be at least 1", http.StatusBadRequest)
		return
	}

	room, err := h.roomService.CreateRoom(r.Context(), service.RoomSpec{
		RoomNumber: req.RoomNumber,
		Floor:      req.Floor,
		Type:       req.Type,
		Capacity:   req.Capacity,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// Delete handles DELETE /api/rooms/{id}
func (h *RoomsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.roomService.DeleteRoom(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
