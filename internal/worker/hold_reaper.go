package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hostelops/bunkhouse/internal/service"
)

// HoldReaper periodically releases the rooms of reservation holds that were
// never confirmed before their deadline.
type HoldReaper struct {
	allocations *service.AllocationService
	logger      *slog.Logger
	interval    time.Duration
}

// NewHoldReaper creates a new hold reaper.
func NewHoldReaper(allocations *service.AllocationService, logger *slog.Logger, interval time.Duration) *HoldReaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &HoldReaper{
		allocations: allocations,
		logger:      logger,
		interval:    interval,
	}
}

// Start runs the reaper loop until the context is cancelled.
func (w *HoldReaper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("hold reaper started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("hold reaper stopped")
			return
		case <-ticker.C:
			w.reap(ctx)
		}
	}
}

func (w *HoldReaper) reap(ctx context.Context) {
	reaped, err := w.allocations.ReapExpiredHolds(ctx, time.Now())
	if err != nil {
		w.logger.Error("hold reap failed", slog.String("error", err.Error()))
		return
	}
	if reaped > 0 {
		w.logger.Info("expired holds released", slog.Int("count", reaped))
	}
}
