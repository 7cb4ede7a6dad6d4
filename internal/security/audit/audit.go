package audit

import (
	"context"
	"log/slog"
	"time"
)

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, operatorID, action, resource, resourceID, status, details string) {
	requestID := ""
	if reqID := ctx.Value("request_id"); reqID != nil {
		requestID = reqID.(string)
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("operator_id", operatorID),
		slog.String("status", status),
		slog.String("details", details),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogAssignment(ctx context.Context, operatorID, roomID, status, details string) {
	al.LogAction(ctx, operatorID, "assign", "room", roomID, status, details)
}

func (al *Logger) LogRelease(ctx context.Context, operatorID, roomID, status, details string) {
	al.LogAction(ctx, operatorID, "release", "room", roomID, status, details)
}

func (al *Logger) LogStatusOverride(ctx context.Context, operatorID, roomID, status, details string) {
	al.LogAction(ctx, operatorID, "status_override", "room", roomID, status, details)
}

func (al *Logger) LogDenied(ctx context.Context, operatorID, reason string) {
	al.LogAction(ctx, operatorID, "access_denied", "api", "", "denied", reason)
}
