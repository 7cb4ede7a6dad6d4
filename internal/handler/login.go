package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hostelops/bunkhouse/internal/security/auth"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse contains the JWT token
type LoginResponse struct {
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
	OperatorID string    `json:"operatorId"`
}

// LoginHandler handles operator authentication
type LoginHandler struct {
	tokenManager *auth.TokenManager
	operators    *auth.OperatorStore
	logger       *slog.Logger
}

// NewLoginHandler creates a new login handler
func NewLoginHandler(tm *auth.TokenManager, ops *auth.OperatorStore, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{
		tokenManager: tm,
		operators:    ops,
		logger:       logger,
	}
}

// ServeHTTP handles POST /api/login requests
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode login request", slog.String("error", err.Error()))
		http.Error(w, `{"error":"invalid request"}`, http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, `{"error":"username and password required"}`, http.StatusBadRequest)
		return
	}

	op, err := h.operators.Authenticate(req.Username, req.Password)
	if err != nil {
		h.logger.Warn("authentication failed",
			slog.String("username", req.Username),
			slog.String("error", err.Error()),
		)
		// Generic error to prevent account enumeration
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	expiresIn := 24 * time.Hour
	token, err := h.tokenManager.GenerateToken(op.ID, op.Username, expiresIn)
	if err != nil {
		h.logger.Error("failed to generate token",
			slog.String("operator_id", op.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, `{"error":"token generation failed"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("operator logged in",
		slog.String("operator_id", op.ID),
		slog.String("username", op.Username),
	)

	response := LoginResponse{
		Token:      token,
		ExpiresAt:  time.Now().Add(expiresIn),
		OperatorID: op.ID,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
