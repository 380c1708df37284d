package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vibelab/backend/internal/apperror"
	"github.com/vibelab/backend/internal/logging"
	"github.com/vibelab/backend/internal/sharing"
)

// ShareHandler implements share link generation and the two step resolution.
type ShareHandler struct {
	Engine  ShareEngine
	Limiter RateLimiter
}

type generateShareRequest struct {
	AccessCode *string `json:"accessCode"`
}

type generateShareResponse struct {
	ShareURL   string `json:"share_url"`
	ShareToken string `json:"share_token"`
}

type validateShareRequest struct {
	ShareToken string `json:"share_token"`
	AccessCode string `json:"accessCode"`
}

// Generate handles POST /playlists/{id}/generate-share-link/.
func (h ShareHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body generateShareRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(ctx, w, err)
		return
	}

	link, err := h.Engine.GenerateShareLink(ctx, chi.URLParam(r, "id"), requester(r), body.AccessCode)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, generateShareResponse{ShareURL: link.URL, ShareToken: link.Token})
}

// Resolve handles GET /share/{token}/ and reveals only preview metadata.
func (h ShareHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	preview, err := h.Engine.ResolveShareToken(ctx, chi.URLParam(r, "token"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, preview)
}

// Validate handles POST /share/validate/. Attempts are rate limited per client IP.
func (h ShareHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "share-validate") {
		logging.FromContext(ctx).Warn("access code validation rate limited", "ip", clientIP(r))
		respondDetail(ctx, w, http.StatusTooManyRequests, apperror.KindForbidden, "too many attempts, try again later")
		return
	}

	var body validateShareRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(ctx, w, err)
		return
	}

	p, err := h.Engine.ValidateAccessCode(ctx, strings.TrimSpace(body.ShareToken), body.AccessCode)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newPlaylistView(p, sharing.Anonymous()))
}
