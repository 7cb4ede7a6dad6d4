package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hostelops/bunkhouse/internal/directory"
	"github.com/hostelops/bunkhouse/internal/domain"
	"github.com/hostelops/bunkhouse/internal/events"
	"github.com/hostelops/bunkhouse/internal/featureflags"
	"github.com/hostelops/bunkhouse/internal/handler"
	"github.com/hostelops/bunkhouse/internal/infrastructure/logger"
	"github.com/hostelops/bunkhouse/internal/infrastructure/redis"
	"github.com/hostelops/bunkhouse/internal/observability/metrics"
	"github.com/hostelops/bunkhouse/internal/observability/tracing"
	"github.com/hostelops/bunkhouse/internal/reliability/retry"
	"github.com/hostelops/bunkhouse/internal/repository"
	"github.com/hostelops/bunkhouse/internal/security/audit"
	"github.com/hostelops/bunkhouse/internal/security/auth"
	"github.com/hostelops/bunkhouse/internal/security/middleware"
	"github.com/hostelops/bunkhouse/internal/security/ratelimit"
	"github.com/hostelops/bunkhouse/internal/service"
	"github.com/hostelops/bunkhouse/internal/worker"
	"github.com/hostelops/bunkhouse/pkg/config"
	"github.com/hostelops/bunkhouse/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting bunkhouse server",
		slog.String("environment", cfg.Environment),
		slog.String("store", cfg.StoreBackend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, "bunkhouse", cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Initialize the room and hold stores for the configured backend
	var (
		roomRepo  domain.RoomRepository
		holdRepo  domain.HoldRepository
		depChecks []handler.DependencyCheck
	)
	switch cfg.StoreBackend {
	case "redis":
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		roomRepo = repository.NewRedisRoomRepository(redisClient, log)
		holdRepo = repository.NewRedisHoldRepository(redisClient, log)
		depChecks = append(depChecks, handler.DependencyCheck{Name: "redis", Check: redisClient.Ping})
	case "postgres":
		pool, err := database.NewConnectionPool(ctx, &database.Config{DSN: cfg.PostgresDSN}, log)
		if err != nil {
			log.Error("failed to connect to Postgres", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
		roomRepo = repository.NewPostgresRoomRepository(pool.GetDB(), log)
		// Holds are short-lived and rebuilt by operators after a restart,
		// so the Postgres backend keeps them in memory.
		holdRepo = repository.NewMemoryHoldRepository()
		depChecks = append(depChecks, handler.DependencyCheck{Name: "postgres", Check: pool.Health})
	default:
		roomRepo = repository.NewMemoryRoomRepository()
		holdRepo = repository.NewMemoryHoldRepository()
	}

	// 5. Resident directory
	var residentDir domain.ResidentDirectory
	if cfg.DirectoryBaseURL != "" {
		residentDir = directory.NewHTTPDirectory(cfg.DirectoryBaseURL, log)
	} else {
		log.Warn("no resident directory configured, accepting all resident ids")
		residentDir = directory.OpenDirectory{}
	}

	// 6. Event hub and services
	hub := events.NewHub(log)
	allocationService := service.NewAllocationService(roomRepo, holdRepo, residentDir, hub, log)
	roomService := service.NewRoomService(roomRepo, log)

	retryCfg := &retry.Config{
		MaxAttempts:       cfg.RetryMaxAttempts,
		InitialBackoff:    time.Duration(cfg.RetryInitialDelayMs) * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}

	// 7. Initialize handlers
	roomsHandler := handler.NewRoomsHandler(roomService, log)
	assignHandler := handler.NewAssignHandler(allocationService, retryCfg, log)
	bulkHandler := handler.NewBulkAssignHandler(allocationService, retryCfg, time.Duration(cfg.HoldMaxMinutes)*time.Minute, log)
	releaseHandler := handler.NewReleaseHandler(allocationService, log)
	statusHandler := handler.NewStatusUpdateHandler(allocationService, log)
	holdsHandler := handler.NewHoldsHandler(allocationService, log)
	eventsHandler := handler.NewEventsHandler(hub, log, cfg.CORSAllowedOrigins)
	healthHandler := handler.NewHealthHandler(log, depChecks...)

	// 7a. Initialize security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "bunkhouse")
	operatorStore := auth.NewOperatorStore()
	if cfg.OperatorUsername != "" && cfg.OperatorPasswordHash != "" {
		operatorStore.AddOperator(cfg.OperatorUsername, cfg.OperatorPasswordHash, "operator-1")
	} else {
		log.Warn("no operator configured, registering development default admin/admin123")
		if err := operatorStore.AddOperatorWithPassword("admin", "admin123", "operator-dev-1"); err != nil {
			log.Error("failed to register default operator", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	loginHandler := handler.NewLoginHandler(tokenManager, operatorStore, log)
	rateLimiter := ratelimit.NewLimiter(100, time.Minute) // 100 requests per minute per operator
	auditLogger := audit.NewLogger(log)

	// 8. Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("POST /api/login", loginHandler)
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
	mux.Handle("GET /ws/occupancy", eventsHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", healthHandler.Health)
	mux.HandleFunc("/readyz", healthHandler.Ready)

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> JWT -> rate limit -> audit -> content
	// type -> CORS. JWT runs first of the three so rate limiting and audit
	// records see the authenticated operator.
	var inner http.Handler = middleware.ValidateJSONContentType(log)(handlerWithCORS)
	if featureflags.Enabled("strict_input_sanitize") {
		inner = middleware.SanitizeInputs(log)(inner)
	}
	rootHandler := withRequestID(
		middleware.JWTMiddleware(tokenManager, auditLogger, log)(
			middleware.RateLimitMiddleware(rateLimiter, log)(
				middleware.AuditMiddleware(auditLogger)(inner),
			),
		),
		log,
	)
	rootHandler = metrics.HTTPMetricsMiddleware(rootHandler)
	rootHandler = otelhttp.NewHandler(rootHandler, "bunkhouse")

	// 9. Start the hold reaper in background
	holdReaper := worker.NewHoldReaper(
		allocationService,
		log,
		time.Duration(cfg.HoldReaperIntervalS)*time.Second,
	)
	go holdReaper.Start(ctx)

	// 10. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", 100),
		slog.String("rate_limit_window", "1m"),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop hold reaper
	rateLimiter.Stop()
	hub.Close()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
