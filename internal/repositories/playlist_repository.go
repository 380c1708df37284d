package repositories

import (
	"context"

	"github.com/vibelab/backend/internal/models"
)

// PlaylistRepository persists playlists, the song catalog and playlist membership.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	Get(ctx context.Context, id string) (models.Playlist, error)
	FindByShareToken(ctx context.Context, token string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id string) error
	SetShareToken(ctx context.Context, id, token, accessCode string) error

	Items(ctx context.Context, playlistID string) ([]models.PlaylistItem, error)
	GetOrCreateSong(ctx context.Context, song models.Song) (models.Song, error)
	AddItem(ctx context.Context, item models.PlaylistItem) (models.PlaylistItem, bool, error)
	GetItem(ctx context.Context, itemID string) (models.PlaylistItem, error)
	DeleteItem(ctx context.Context, itemID string) error
}
