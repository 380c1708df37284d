// Package catalog looks up track metadata on Spotify.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vibelab/backend/internal/apperror"
	"github.com/vibelab/backend/internal/models"
)

// ErrProviderUnavailable indicates no catalog backend is configured.
var ErrProviderUnavailable = errors.New("catalog provider unavailable")

// Track is the metadata needed to add a song to a playlist.
type Track struct {
	SpotifyID string `json:"spotify_id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
}

// Provider resolves a Spotify track id on behalf of a user with a linked account.
type Provider interface {
	Track(ctx context.Context, userID, spotifyID string) (Track, error)
}

// AccountSource hands out accounts whose access token is valid.
type AccountSource interface {
	AccessTokenForUser(ctx context.Context, userID string) (models.SpotifyAccount, error)
}

// SpotifyProvider reads tracks from the Web API.
type SpotifyProvider struct {
	accounts AccountSource
	apiBase  string
	client   *http.Client
}

// NewSpotifyProvider builds a provider. A nil client gets a 10 second timeout.
func NewSpotifyProvider(accounts AccountSource, apiBase string, client *http.Client) *SpotifyProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &SpotifyProvider{
		accounts: accounts,
		apiBase:  strings.TrimRight(apiBase, "/"),
		client:   client,
	}
}

type trackResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
}

// Track implements Provider.
func (p *SpotifyProvider) Track(ctx context.Context, userID, spotifyID string) (Track, error) {
	if p == nil || p.accounts == nil {
		return Track{}, ErrProviderUnavailable
	}
	spotifyID = strings.TrimSpace(spotifyID)
	if spotifyID == "" {
		return Track{}, apperror.Validation("spotify_id is required")
	}

	account, err := p.accounts.AccessTokenForUser(ctx, userID)
	if err != nil {
		return Track{}, err
	}

	endpoint := p.apiBase + "/tracks/" + url.PathEscape(spotifyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Track{}, apperror.Internal(fmt.Errorf("build track request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+account.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Track{}, apperror.Wrap(apperror.KindUnavailable, "spotify catalog unavailable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		return Track{}, apperror.NotFound("track not found")
	case resp.StatusCode == http.StatusUnauthorized:
		return Track{}, apperror.UpstreamAuth("spotify rejected the access token", nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Track{}, apperror.Wrap(apperror.KindUnavailable, "spotify catalog unavailable",
			fmt.Errorf("track lookup status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var payload trackResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Track{}, apperror.Wrap(apperror.KindUnavailable, "spotify catalog unavailable", fmt.Errorf("decode track: %w", err))
	}

	artists := make([]string, 0, len(payload.Artists))
	for _, a := range payload.Artists {
		if a.Name != "" {
			artists = append(artists, a.Name)
		}
	}

	id := payload.ID
	if id == "" {
		id = spotifyID
	}
	return Track{
		SpotifyID: id,
		Title:     payload.Name,
		Artist:    strings.Join(artists, ", "),
		Album:     payload.Album.Name,
	}, nil
}

var _ Provider = (*SpotifyProvider)(nil)
