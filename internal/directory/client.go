// Package directory resolves resident ids against the resident directory
// service. The engine only ever reads residents; occupancy truth stays on
// the room side.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hostelops/bunkhouse/internal/domain"
	"github.com/hostelops/bunkhouse/internal/reliability/circuitbreaker"
	"github.com/hostelops/bunkhouse/pkg/cache"
)

const lookupCacheTTL = 30 * time.Second

// HTTPDirectory is a domain.ResidentDirectory backed by the resident
// directory's HTTP API. Lookups are cached briefly and guarded by a circuit
// breaker so a directory outage fails fast instead of stalling allocations.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	cache   *cache.Cache
	logger  *slog.Logger
}

// NewHTTPDirectory creates a directory client for the given base URL.
func NewHTTPDirectory(baseURL string, logger *slog.Logger) *HTTPDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		breaker: circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second),
		cache:   cache.New(),
		logger:  logger,
	}
}

// Lookup resolves a resident id. A 404 from the directory surfaces as
// ResidentNotFoundError; transport failures count against the breaker.
func (d *HTTPDirectory) Lookup(ctx context.Context, id string) (*domain.Resident, error) {
	if cached, ok := d.cache.Get(id); ok {
		return cached.(*domain.Resident), nil
	}

	if !d.breaker.AllowRequest() {
		return nil, fmt.Errorf("resident directory circuit open")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/residents/%s", d.baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		d.breaker.RecordFailure()
		return nil, fmt.Errorf("resident directory unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		d.breaker.RecordSuccess()
	case http.StatusNotFound:
		d.breaker.RecordSuccess()
		return nil, &domain.ResidentNotFoundError{ResidentID: id}
	default:
		d.breaker.RecordFailure()
		return nil, fmt.Errorf("resident directory returned status %d", resp.StatusCode)
	}

	var resident domain.Resident
	if err := json.NewDecoder(resp.Body).Decode(&resident); err != nil {
		return nil, fmt.Errorf("failed to decode resident: %w", err)
	}

	d.cache.Set(id, &resident, lookupCacheTTL)
	return &resident, nil
}

// MemoryDirectory is an in-process ResidentDirectory for tests and
// single-binary deployments.
type MemoryDirectory struct {
	residents map[string]*domain.Resident
}

// NewMemoryDirectory creates a directory preloaded with the given residents.
func NewMemoryDirectory(residents ...*domain.Resident) *MemoryDirectory {
	d := &MemoryDirectory{residents: map[string]*domain.Resident{}}
	for _, r := range residents {
		d.residents[r.ID] = r
	}
	return d
}

// Add registers a resident.
func (d *MemoryDirectory) Add(r *domain.Resident) {
	d.residents[r.ID] = r
}

// Lookup resolves a resident id.
func (d *MemoryDirectory) Lookup(_ context.Context, id string) (*domain.Resident, error) {
	if r, ok := d.residents[id]; ok {
		return r, nil
	}
	return nil, &domain.ResidentNotFoundError{ResidentID: id}
}

// OpenDirectory accepts every non-empty resident id. Deployments without a
// directory service run with this and rely on the caller to vet ids.
type OpenDirectory struct{}

// Lookup resolves every non-empty id to a bare resident record.
func (OpenDirectory) Lookup(_ context.Context, id string) (*domain.Resident, error) {
	if id == "" {
		return nil, &domain.ResidentNotFoundError{ResidentID: id}
	}
	return &domain.Resident{ID: id}, nil
}
