package test

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/hostelops/bunkhouse/internal/domain"
)

// TestHealthEndpoint verifies health check endpoint
func TestHealthEndpoint(t *testing.T) {
	server := NewTestServer(t)

	resp, err := http.Get(server.URL() + "/healthz")
	if err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
	defer resp.Body.Close()

	AssertStatusCode(t, resp, http.StatusOK)

	body, _ := io.ReadAll(resp.Body)
	if string(body) == "" {
		t.Errorf("Expected a health body, got empty response")
	}
}

// TestReadinessEndpoint verifies readiness check endpoint
func TestReadinessEndpoint(t *testing.T) {
	server := NewTestServer(t)

	var ready struct {
		Status string `json:"status"`
	}
	resp := server.GetJSON(t, "/readyz", &ready)
	AssertStatusCode(t, resp, http.StatusOK)
	if ready.Status != "ready" {
		t.Errorf("Expected status ready, got %q", ready.Status)
	}
}

// TestRoomLifecycle walks a room through create, list, assign to capacity,
// overflow rejection, release and delete.
func TestRoomLifecycle(t *testing.T) {
	server := NewTestServer(t)

	room := server.CreateRoom(t, "204", 2)
	if len(room.Beds) != 2 {
		t.Fatalf("expected 2 beds, got %d", len(room.Beds))
	}
	if room.Status != domain.StatusAvailable {
		t.Fatalf("expected available, got %s", room.Status)
	}

	var rooms []*domain.Room
	server.GetJSON(t, "/api/rooms", &rooms)
	if len(rooms) != 1 || rooms[0].ID != room.ID {
		t.Fatalf("expected listing with the created room, got %+v", rooms)
	}

	// First resident: room stays available with one bed left.
	var updated domain.Room
	resp := server.PostJSON(t, "/api/rooms/"+room.ID+"/assign", map[string]string{"residentId": "res-1"}, &updated)
	AssertStatusCode(t, resp, http.StatusOK)
	if updated.CurrentOccupancy != 1 || updated.Status != domain.StatusAvailable {
		t.Fatalf("after first assign: occupancy=%d status=%s", updated.CurrentOccupancy, updated.Status)
	}
	if updated.Beds[0].ResidentID != "res-1" {
		t.Fatalf("expected first bed in index order, got %+v", updated.Beds)
	}

	// Second resident fills the room.
	resp = server.PostJSON(t, "/api/rooms/"+room.ID+"/assign", map[string]string{"residentId": "res-2"}, &updated)
	AssertStatusCode(t, resp, http.StatusOK)
	if updated.CurrentOccupancy != 2 || updated.Status != domain.StatusOccupied {
		t.Fatalf("after second assign: occupancy=%d status=%s", updated.CurrentOccupancy, updated.Status)
	}

	// Room is full now, a third assignment is rejected.
	server.Directory.Add(&domain.Resident{ID: "res-3"})
	resp = server.PostJSON(t, "/api/rooms/"+room.ID+"/assign", map[string]string{"residentId": "res-3"}, nil)
	AssertStatusCode(t, resp, http.StatusConflict)
	if kind := ErrorKind(t, resp); kind != "room_full" {
		t.Errorf("expected room_full, got %q", kind)
	}

	// Deleting an occupied room is rejected.
	req, _ := http.NewRequest(http.MethodDelete, server.URL()+"/api/rooms/"+room.ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE room: %v", err)
	}
	defer delResp.Body.Close()
	AssertStatusCode(t, delResp, http.StatusConflict)

	// Release both beds; status re-derives to available.
	for _, bed := range updated.Beds {
		path := fmt.Sprintf("/api/rooms/%s/beds/%s/release", room.ID, bed.ID)
		resp = server.PostJSON(t, path, map[string]string{}, &updated)
		AssertStatusCode(t, resp, http.StatusOK)
	}
	if updated.CurrentOccupancy != 0 || updated.Status != domain.StatusAvailable {
		t.Fatalf("after releases: occupancy=%d status=%s", updated.CurrentOccupancy, updated.Status)
	}

	// Now the empty room can be deleted.
	req, _ = http.NewRequest(http.MethodDelete, server.URL()+"/api/rooms/"+room.ID, nil)
	delResp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE room: %v", err)
	}
	defer delResp.Body.Close()
	AssertStatusCode(t, delResp, http.StatusNoContent)
}

// TestAssignUnknownResident verifies the directory gate on assignment.
func TestAssignUnknownResident(t *testing.T) {
	server := NewTestServer(t)
	room := server.CreateRoom(t, "101", 2)

	resp := server.PostJSON(t, "/api/rooms/"+room.ID+"/assign", map[string]string{"residentId": "res-ghost"}, nil)
	AssertStatusCode(t, resp, http.StatusNotFound)
	if kind := ErrorKind(t, resp); kind != "resident_not_found" {
		t.Errorf("expected resident_not_found, got %q", kind)
	}
}

// TestMaintenanceBlocksAssignment verifies the status override path.
func TestMaintenanceBlocksAssignment(t *testing.T) {
	server := NewTestServer(t)
	room := server.CreateRoom(t, "305", 2)

	req, _ := http.NewRequest(http.MethodPatch, server.URL()+"/api/rooms/"+room.ID+"/status",
		strings.NewReader(`{"status":"maintenance"}`))
	req.Header.Set("Content-Type", "application/json")
	patchResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH status: %v", err)
	}
	defer patchResp.Body.Close()
	AssertStatusCode(t, patchResp, http.StatusOK)

	resp := server.PostJSON(t, "/api/rooms/"+room.ID+"/assign", map[string]string{"residentId": "res-1"}, nil)
	AssertStatusCode(t, resp, http.StatusConflict)
	if kind := ErrorKind(t, resp); kind != "room_unavailable" {
		t.Errorf("expected room_unavailable, got %q", kind)
	}
}

// TestBulkAssignmentAtomicity verifies that one invalid room fails the whole
// batch and no bed is left assigned.
func TestBulkAssignmentAtomicity(t *testing.T) {
	server := NewTestServer(t)
	roomA := server.CreateRoom(t, "401", 1)
	roomB := server.CreateRoom(t, "402", 1)

	// Fill roomB so the batch cannot commit.
	resp := server.PostJSON(t, "/api/rooms/"+roomB.ID+"/assign", map[string]string{"residentId": "res-2"}, nil)
	AssertStatusCode(t, resp, http.StatusOK)

	resp = server.PostJSON(t, "/api/assignments", map[string]interface{}{
		"roomIds":    []string{roomA.ID, roomB.ID},
		"residentId": "res-1",
	}, nil)
	AssertStatusCode(t, resp, http.StatusConflict)

	var check domain.Room
	server.GetJSON(t, "/api/rooms/"+roomA.ID, &check)
	if check.CurrentOccupancy != 0 {
		t.Fatalf("roomA was modified by a failed batch: occupancy=%d", check.CurrentOccupancy)
	}
}

// TestHoldFlow exercises bulk assignment with a hold and its confirmation.
func TestHoldFlow(t *testing.T) {
	server := NewTestServer(t)
	roomA := server.CreateRoom(t, "501", 1)
	roomB := server.CreateRoom(t, "502", 1)

	var bulk struct {
		Rooms []*domain.Room `json:"rooms"`
		Hold  *domain.Hold   `json:"hold"`
	}
	resp := server.PostJSON(t, "/api/assignments", map[string]interface{}{
		"roomIds":     []string{roomA.ID, roomB.ID},
		"residentId":  "res-1",
		"holdMinutes": 15,
	}, &bulk)
	AssertStatusCode(t, resp, http.StatusOK)
	if bulk.Hold == nil || len(bulk.Hold.RoomIDs) != 2 {
		t.Fatalf("expected a hold covering 2 rooms, got %+v", bulk.Hold)
	}

	var holds []*domain.Hold
	server.GetJSON(t, "/api/holds", &holds)
	if len(holds) != 1 || holds[0].ID != bulk.Hold.ID {
		t.Fatalf("expected the hold in the listing, got %+v", holds)
	}

	// Confirm keeps roomA and frees roomB.
	resp = server.PostJSON(t, "/api/holds/"+bulk.Hold.ID+"/confirm", map[string]string{"roomId": roomA.ID}, nil)
	AssertStatusCode(t, resp, http.StatusOK)

	var checkA, checkB domain.Room
	server.GetJSON(t, "/api/rooms/"+roomA.ID, &checkA)
	server.GetJSON(t, "/api/rooms/"+roomB.ID, &checkB)
	if checkA.CurrentOccupancy != 1 {
		t.Errorf("confirmed room lost its bed: %+v", checkA)
	}
	if checkB.CurrentOccupancy != 0 || checkB.Status != domain.StatusAvailable {
		t.Errorf("unconfirmed room was not released: %+v", checkB)
	}

	server.GetJSON(t, "/api/holds", &holds)
	if len(holds) != 0 {
		t.Errorf("expected no holds after confirmation, got %d", len(holds))
	}
}
