package test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hostelops/bunkhouse/internal/directory"
	"github.com/hostelops/bunkhouse/internal/domain"
	"github.com/hostelops/bunkhouse/internal/events"
	"github.com/hostelops/bunkhouse/internal/handler"
	"github.com/hostelops/bunkhouse/internal/infrastructure/logger"
	"github.com/hostelops/bunkhouse/internal/reliability/retry"
	"github.com/hostelops/bunkhouse/internal/repository"
	"github.com/hostelops/bunkhouse/internal/service"
)

// TestServerHelper wires the full API against in-memory stores so tests run
// without Redis or Postgres.
type TestServerHelper struct {
	Server      *httptest.Server
	Logger      *slog.Logger
	Mux         *http.ServeMux
	Rooms       *repository.MemoryRoomRepository
	Holds       *repository.MemoryHoldRepository
	Directory   *directory.MemoryDirectory
	Hub         *events.Hub
	Allocations *service.AllocationService
	RoomService *service.RoomService
}

func NewTestServer(t *testing.T) *TestServerHelper {
	log := logger.NewLogger("debug")

	roomRepo := repository.NewMemoryRoomRepository()
	holdRepo := repository.NewMemoryHoldRepository()
	dir := directory.NewMemoryDirectory(
		&domain.Resident{ID: "res-1", FullName: "Janne Kallio"},
		&domain.Resident{ID: "res-2", FullName: "Omar Said"},
	)
	hub := events.NewHub(log)
	allocations := service.NewAllocationService(roomRepo, holdRepo, dir, hub, log)
	roomService := service.NewRoomService(roomRepo, log)

	retryCfg := &retry.Config{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}

	roomsHandler := handler.NewRoomsHandler(roomService, log)
	assignHandler := handler.NewAssignHandler(allocations, retryCfg, log)
	bulkHandler := handler.NewBulkAssignHandler(allocations, retryCfg, time.Hour, log)
	releaseHandler := handler.NewReleaseHandler(allocations, log)
	statusHandler := handler.NewStatusUpdateHandler(allocations, log)
	holdsHandler := handler.NewHoldsHandler(allocations, log)
	healthHandler := handler.NewHealthHandler(log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rooms", roomsHandler.List)
	mux.HandleFunc("POST /api/rooms", roomsHandler.Create)
	mux.HandleFunc("GET /api/rooms/{id}", roomsHandler.Get)
	mux.HandleFunc("DELETE /api/rooms/{id}", roomsHandler.Delete)
	mux.Handle("POST /api/rooms/{id}/assign", assignHandler)
	mux.Handle("POST /api/assignments", bulkHandler)
	mux.Handle("POST /api/rooms/{id}/beds/{bedId}/release", releaseHandler)
	mux.Handle("PATCH /api/rooms/{id}/status", statusHandler)
	mux.HandleFunc("GET /api/holds", holdsHandler.List)
	mux.HandleFunc("POST /api/holds/{id}/confirm", holdsHandler.Confirm)
	mux.HandleFunc("/healthz", healthHandler.Health)
	mux.HandleFunc("/readyz", healthHandler.Ready)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &TestServerHelper{
		Server:      server,
		Logger:      log,
		Mux:         mux,
		Rooms:       roomRepo,
		Holds:       holdRepo,
		Directory:   dir,
		Hub:         hub,
		Allocations: allocations,
		RoomService: roomService,
	}
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// PostJSON sends a JSON body and decodes the JSON response into out (when
// out is non-nil).
func (h *TestServerHelper) PostJSON(t *testing.T, path string, body, out interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(h.URL()+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response of POST %s: %v", path, err)
		}
	}
	return resp
}

// GetJSON fetches a path and decodes the JSON response into out.
func (h *TestServerHelper) GetJSON(t *testing.T, path string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(h.URL() + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response of GET %s: %v", path, err)
		}
	}
	return resp
}

// CreateRoom provisions a room through the API and returns it.
func (h *TestServerHelper) CreateRoom(t *testing.T, number string, capacity int) *domain.Room {
	t.Helper()
	var room domain.Room
	resp := h.PostJSON(t, "/api/rooms", map[string]interface{}{
		"roomNumber": number,
		"floor":      2,
		"type":       "standard",
		"capacity":   capacity,
	}, &room)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create room %s: status %d", number, resp.StatusCode)
	}
	return &room
}

// AssertStatusCode helper function
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}

// ErrorKind extracts the error kind from a structured error response.
func ErrorKind(t *testing.T, resp *http.Response) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Kind
}
