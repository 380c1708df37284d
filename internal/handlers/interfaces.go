package handlers

import (
	"context"
	"io"

	"github.com/vibelab/backend/internal/catalog"
	"github.com/vibelab/backend/internal/models"
	"github.com/vibelab/backend/internal/playlists"
	"github.com/vibelab/backend/internal/sharing"
	"github.com/vibelab/backend/internal/users"
)

// UserService captures the account operations used by the user and token handlers.
type UserService interface {
	Register(ctx context.Context, in users.RegisterInput) (models.User, error)
	Authenticate(ctx context.Context, username, password string) (models.User, error)
	Profile(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, userID string, in users.ProfileUpdate) (models.User, error)
	UploadPhoto(ctx context.Context, userID, contentType string, size int64, r io.Reader) (models.User, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	MaxPhotoBytes() int64
}

// SessionManager issues and refreshes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Verify(token string) (string, error)
}

// PlaylistService captures playlist and item operations.
type PlaylistService interface {
	Create(ctx context.Context, r sharing.Requester, in playlists.CreateInput) (models.Playlist, error)
	Get(ctx context.Context, id string, r sharing.Requester, code string) (models.Playlist, error)
	ListMine(ctx context.Context, r sharing.Requester) ([]models.Playlist, error)
	Update(ctx context.Context, id string, r sharing.Requester, in playlists.UpdateInput) (models.Playlist, error)
	Delete(ctx context.Context, id string, r sharing.Requester) error
	AddItem(ctx context.Context, r sharing.Requester, code string, in playlists.AddItemInput) (playlists.AddItemResult, error)
	RemoveItem(ctx context.Context, itemID string, r sharing.Requester) error
}

// ShareEngine publishes and resolves share links.
type ShareEngine interface {
	GenerateShareLink(ctx context.Context, playlistID string, r sharing.Requester, newAccessCode *string) (sharing.ShareLink, error)
	ResolveShareToken(ctx context.Context, token string) (sharing.SharePreview, error)
	ValidateAccessCode(ctx context.Context, token, code string) (models.Playlist, error)
}

// SpotifyLinker drives the Spotify authorization code flow.
type SpotifyLinker interface {
	BeginAuthorization(ctx context.Context, userID string) (string, string, error)
	HandleCallback(ctx context.Context, userID, state, code, providerError string) (models.SpotifyAccount, error)
}

// TrackProvider resolves Spotify track metadata.
type TrackProvider interface {
	Track(ctx context.Context, userID, spotifyID string) (catalog.Track, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
