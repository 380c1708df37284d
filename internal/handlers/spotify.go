package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vibelab/backend/internal/apperror"
	"github.com/vibelab/backend/internal/auth"
)

// SpotifyHandler implements the account linking flow and catalog lookups.
type SpotifyHandler struct {
	Spotify SpotifyLinker
	Tracks  TrackProvider
}

type connectedResponse struct {
	Status         string `json:"status"`
	SpotifyUserID  string `json:"spotify_user_id"`
	Scopes         string `json:"scopes"`
	TokenExpiresAt string `json:"token_expires_at"`
}

// Begin handles GET /spotify/login/. Browsers are redirected; clients asking
// for JSON receive the URL instead.
func (h SpotifyHandler) Begin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Spotify == nil {
		respondDetail(ctx, w, http.StatusServiceUnavailable, apperror.KindUnavailable, "spotify integration is not configured")
		return
	}
	userID, _ := auth.UserIDFromContext(ctx)

	authorizeURL, _, err := h.Spotify.BeginAuthorization(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		respondJSON(ctx, w, http.StatusOK, map[string]string{"authorize_url": authorizeURL})
		return
	}
	http.Redirect(w, r, authorizeURL, http.StatusFound)
}

// Callback handles GET /spotify/callback/.
func (h SpotifyHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Spotify == nil {
		respondDetail(ctx, w, http.StatusServiceUnavailable, apperror.KindUnavailable, "spotify integration is not configured")
		return
	}
	userID, _ := auth.UserIDFromContext(ctx)
	q := r.URL.Query()

	account, err := h.Spotify.HandleCallback(ctx, userID, q.Get("state"), q.Get("code"), q.Get("error"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, connectedResponse{
		Status:         "connected",
		SpotifyUserID:  account.SpotifyUserID,
		Scopes:         account.Scope,
		TokenExpiresAt: account.TokenExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Track handles GET /api/spotify/tracks/{id}.
func (h SpotifyHandler) Track(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Tracks == nil {
		respondDetail(ctx, w, http.StatusServiceUnavailable, apperror.KindUnavailable, "spotify integration is not configured")
		return
	}
	userID, _ := auth.UserIDFromContext(ctx)

	track, err := h.Tracks.Track(ctx, userID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, track)
}
