package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vibelab/backend/internal/apperror"
	"github.com/vibelab/backend/internal/auth"
	"github.com/vibelab/backend/internal/logging"
)

// TokenHandler issues and rotates JWT sessions.
type TokenHandler struct {
	Users    UserService
	Sessions SessionManager
	Limiter  RateLimiter
}

type obtainRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type obtainResponse struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Obtain handles POST /api/token/.
func (h TokenHandler) Obtain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		logger.Warn("login rate limited", "ip", clientIP(r))
		respondDetail(ctx, w, http.StatusTooManyRequests, apperror.KindValidation, "too many login attempts, try again later")
		return
	}

	var req obtainRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, obtainResponse{
		Access:   tokens.AccessToken,
		Refresh:  tokens.RefreshToken,
		UserID:   user.ID,
		Username: user.Username,
	})
}

// Refresh handles POST /api/token/refresh/.
func (h TokenHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.Refresh = strings.TrimSpace(req.Refresh)
	if req.Refresh == "" {
		respondError(ctx, w, apperror.Validation("refresh token is required"))
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.Refresh)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			respondError(ctx, w, apperror.Unauthenticated("Token is invalid or expired"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondJSON(ctx, w, http.StatusOK, refreshResponse{Access: tokens.AccessToken, Refresh: tokens.RefreshToken})
}
