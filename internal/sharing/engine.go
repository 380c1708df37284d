package sharing

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/vibelab/backend/internal/apperror"
	"github.com/vibelab/backend/internal/logging"
	"github.com/vibelab/backend/internal/models"
	"github.com/vibelab/backend/internal/repositories"
)

// DefaultShareBaseURL is the frontend origin share links point at.
const DefaultShareBaseURL = "https://vibelab.netlify.app"

const (
	shareTokenBytes  = 16
	maxTokenAttempts = 5
)

// PlaylistStore is the persistence the engine needs.
type PlaylistStore interface {
	Get(ctx context.Context, id string) (models.Playlist, error)
	FindByShareToken(ctx context.Context, token string) (models.Playlist, error)
	SetShareToken(ctx context.Context, id, token, accessCode string) error
	Items(ctx context.Context, playlistID string) ([]models.PlaylistItem, error)
}

// ShareLink is the result of publishing a playlist.
type ShareLink struct {
	URL   string
	Token string
}

// SharePreview is the minimal metadata exposed before the access code is checked.
type SharePreview struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Creator          string `json:"creator"`
	RequiresPassword bool   `json:"requires_password"`
}

// Engine issues share tokens and resolves them in two steps.
type Engine struct {
	store    PlaylistStore
	baseURL  string
	newToken func() (string, error)
}

// NewEngine builds an engine that renders links under baseURL.
func NewEngine(store PlaylistStore, baseURL string) *Engine {
	if store == nil {
		panic("sharing: playlist store must not be nil")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultShareBaseURL
	}
	return &Engine{store: store, baseURL: baseURL, newToken: randomShareToken}
}

// GenerateShareLink publishes a fresh token for the playlist, replacing any
// previous one. A non-empty newAccessCode replaces the stored code.
func (e *Engine) GenerateShareLink(ctx context.Context, playlistID string, r Requester, newAccessCode *string) (ShareLink, error) {
	if !r.Authenticated {
		return ShareLink{}, apperror.Unauthenticated("authentication required")
	}

	if _, err := uuid.Parse(playlistID); err != nil {
		return ShareLink{}, apperror.NotFound("playlist not found")
	}
	p, err := e.store.Get(ctx, playlistID)
	if err != nil {
		return ShareLink{}, storeError(err, "playlist not found")
	}
	if !CheckOwnership(p, r).Allowed() {
		return ShareLink{}, apperror.Forbidden("only the playlist owner can share it")
	}

	code := p.AccessCode
	if newAccessCode != nil && strings.TrimSpace(*newAccessCode) != "" {
		code = strings.TrimSpace(*newAccessCode)
	}

	logger := logging.FromContext(ctx)
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token, err := e.newToken()
		if err != nil {
			return ShareLink{}, apperror.Internal(fmt.Errorf("generate share token: %w", err))
		}

		err = e.store.SetShareToken(ctx, p.ID, token, code)
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("share token collision", slog.String("playlistId", p.ID), slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return ShareLink{}, storeError(err, "playlist not found")
		}

		logger.Info("share link generated", slog.String("playlistId", p.ID), slog.Bool("accessCodeSet", code != ""))
		return ShareLink{URL: e.shareURL(token), Token: token}, nil
	}

	return ShareLink{}, apperror.Internal(fmt.Errorf("no unique share token after %d attempts", maxTokenAttempts))
}

// ResolveShareToken confirms a share link exists without revealing contents.
func (e *Engine) ResolveShareToken(ctx context.Context, token string) (SharePreview, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return SharePreview{}, apperror.NotFound("share link not found")
	}

	p, err := e.store.FindByShareToken(ctx, token)
	if err != nil {
		return SharePreview{}, storeError(err, "share link not found")
	}

	return SharePreview{
		ID:               p.ID,
		Title:            p.Name,
		Creator:          p.OwnerUsername,
		RequiresPassword: true,
	}, nil
}

// ValidateAccessCode returns the full playlist when code matches the stored
// access code. Playlists without a code cannot be opened this way.
func (e *Engine) ValidateAccessCode(ctx context.Context, token, code string) (models.Playlist, error) {
	token, code = strings.TrimSpace(token), strings.TrimSpace(code)
	if token == "" || code == "" {
		return models.Playlist{}, apperror.Validation("share_token and accessCode required")
	}

	p, err := e.store.FindByShareToken(ctx, token)
	if err != nil {
		return models.Playlist{}, storeError(err, "share link not found")
	}
	if !codeMatches(p.AccessCode, code) {
		return models.Playlist{}, apperror.Forbidden("invalid access code")
	}

	items, err := e.store.Items(ctx, p.ID)
	if err != nil {
		return models.Playlist{}, apperror.Internal(err)
	}
	p.Items = items
	return p, nil
}

func (e *Engine) shareURL(token string) string {
	return e.baseURL + "/share/" + url.PathEscape(token)
}

func randomShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func storeError(err error, notFound string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.NotFound(notFound)
	}
	return apperror.Internal(err)
}
