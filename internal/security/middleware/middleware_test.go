package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hostelops/bunkhouse/internal/security/audit"
	"github.com/hostelops/bunkhouse/internal/security/auth"
	"github.com/hostelops/bunkhouse/internal/security/ratelimit"
)

// newTestChain builds the server's middleware chain (JWT outermost, then
// rate limit, then audit) around the given inner handler, with audit records
// captured in buf.
func newTestChain(t *testing.T, buf *bytes.Buffer, limiter *ratelimit.Limiter, inner http.Handler) (http.Handler, string) {
	t.Helper()
	log := slog.New(slog.NewJSONHandler(buf, nil))
	tm := auth.NewTokenManager("test-secret", "bunkhouse")
	auditLog := audit.NewLogger(log)

	token, err := tm.GenerateToken("operator-1", "maija", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	chain := JWTMiddleware(tm, auditLog, log)(
		RateLimitMiddleware(limiter, log)(
			AuditMiddleware(auditLog)(inner),
		),
	)
	return chain, token
}

func TestChainAuditRecordCarriesOperatorAndRoom(t *testing.T) {
	var buf bytes.Buffer
	limiter := ratelimit.NewLimiter(100, time.Minute)
	defer limiter.Stop()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if op := GetOperatorFromContext(r.Context()); op != "operator-1" {
			t.Errorf("operator in context = %q, want operator-1", op)
		}
		claims := GetClaimsFromContext(r.Context())
		if claims == nil || claims.Username != "maija" {
			t.Errorf("claims in context = %+v, want username maija", claims)
		}
		w.WriteHeader(http.StatusOK)
	})
	chain, token := newTestChain(t, &buf, limiter, inner)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/room-42/assign", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	logged := buf.String()
	if !strings.Contains(logged, `"operator_id":"operator-1"`) {
		t.Errorf("audit record missing operator id: %s", logged)
	}
	if !strings.Contains(logged, `"resource_id":"room-42"`) {
		t.Errorf("audit record missing room id: %s", logged)
	}
	if !strings.Contains(logged, `"action":"assign"`) {
		t.Errorf("audit record missing action: %s", logged)
	}
}

func TestChainRejectsAndAuditsMissingToken(t *testing.T) {
	var buf bytes.Buffer
	limiter := ratelimit.NewLimiter(100, time.Minute)
	defer limiter.Stop()

	reached := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true })
	chain, _ := newTestChain(t, &buf, limiter, inner)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms/room-42/assign", nil)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if reached {
		t.Error("unauthenticated request must not reach the handler")
	}
	if !strings.Contains(buf.String(), `"action":"access_denied"`) {
		t.Errorf("denied request not audited: %s", buf.String())
	}
}

func TestChainRateLimitsPerOperator(t *testing.T) {
	var buf bytes.Buffer
	limiter := ratelimit.NewLimiter(1, time.Minute)
	defer limiter.Stop()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	chain, token := newTestChain(t, &buf, limiter, inner)

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/rooms/room-42/assign", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: status = %d, want %d", i+1, rec.Code, want)
		}
	}
}

func TestPublicRoomListingSkipsAuth(t *testing.T) {
	var buf bytes.Buffer
	limiter := ratelimit.NewLimiter(100, time.Minute)
	defer limiter.Stop()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	chain, _ := newTestChain(t, &buf, limiter, inner)

	for _, path := range []string{"/api/rooms", "/api/rooms/room-42"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s without token: status = %d, want 200", path, rec.Code)
		}
	}

	// Mutations on the same paths still require a token.
	req := httptest.NewRequest(http.MethodDelete, "/api/rooms/room-42", nil)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("DELETE without token: status = %d, want 401", rec.Code)
	}
}
