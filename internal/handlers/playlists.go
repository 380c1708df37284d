package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vibelab/backend/internal/apperror"
	"github.com/vibelab/backend/internal/playlists"
	"github.com/vibelab/backend/internal/sharing"
)

// PlaylistHandler implements playlist and playlist item endpoints.
type PlaylistHandler struct {
	Playlists PlaylistService
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Vibe        string `json:"vibe"`
	IsOpen      bool   `json:"is_open"`
	AccessCode  string `json:"accessCode"`
}

type updatePlaylistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Vibe        *string `json:"vibe"`
	IsOpen      *bool   `json:"is_open"`
}

type addItemRequest struct {
	PlaylistID string `json:"playlist_id"`
	SpotifyID  string `json:"spotify_id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	AccessCode string `json:"accessCode"`
}

type accessCodeRequest struct {
	AccessCode string `json:"accessCode"`
}

// ListAll handles GET /api/playlists/playlists/. Listing every playlist is never allowed.
func (h PlaylistHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	respondDetail(r.Context(), w, http.StatusForbidden, apperror.KindForbidden, "Listing all playlists is not allowed.")
}

// Mine handles GET /api/playlists/mine/.
func (h PlaylistHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := requester(r)

	list, err := h.Playlists.ListMine(ctx, req)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	views := make([]playlistView, 0, len(list))
	for _, p := range list {
		views = append(views, newPlaylistView(p, req))
	}
	respondJSON(ctx, w, http.StatusOK, views)
}

// Create handles POST /api/playlists/playlists/.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body createPlaylistRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(ctx, w, err)
		return
	}

	req := requester(r)
	p, err := h.Playlists.Create(ctx, req, playlists.CreateInput{
		Name:        body.Name,
		Description: body.Description,
		Vibe:        body.Vibe,
		IsOpen:      body.IsOpen,
		AccessCode:  body.AccessCode,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, newPlaylistView(p, req))
}

// Get handles GET /api/playlists/playlists/{id}/.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := requester(r)

	p, err := h.Playlists.Get(ctx, chi.URLParam(r, "id"), req, sharing.SuppliedCode(r, ""))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newPlaylistView(p, req))
}

// Update handles PUT and PATCH /api/playlists/playlists/{id}/. PUT requires a name.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body updatePlaylistRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(ctx, w, err)
		return
	}
	if r.Method == http.MethodPut && body.Name == nil {
		respondError(ctx, w, apperror.Validation("name is required"))
		return
	}

	req := requester(r)
	p, err := h.Playlists.Update(ctx, chi.URLParam(r, "id"), req, playlists.UpdateInput{
		Name:        body.Name,
		Description: body.Description,
		Vibe:        body.Vibe,
		IsOpen:      body.IsOpen,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newPlaylistView(p, req))
}

// Delete handles DELETE /api/playlists/playlists/{id}/.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Playlists.Delete(ctx, chi.URLParam(r, "id"), requester(r)); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /api/playlists/playlist-items/add/.
func (h PlaylistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body addItemRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(ctx, w, err)
		return
	}

	res, err := h.Playlists.AddItem(ctx, requester(r), sharing.SuppliedCode(r, body.AccessCode), playlists.AddItemInput{
		PlaylistID: body.PlaylistID,
		SpotifyID:  body.SpotifyID,
		Title:      body.Title,
		Artist:     body.Artist,
		Album:      body.Album,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, newItemView(res.Item))
}

// RemoveItem handles DELETE /api/playlists/playlist-items/{id}/delete/.
func (h PlaylistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Playlists.RemoveItem(ctx, chi.URLParam(r, "id"), requester(r)); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
