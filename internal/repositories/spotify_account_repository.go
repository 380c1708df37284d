package repositories

import (
	"context"
	"time"

	"github.com/vibelab/backend/internal/models"
)

// SpotifyAccountRepository persists linked Spotify credentials.
type SpotifyAccountRepository interface {
	Upsert(ctx context.Context, account models.SpotifyAccount) (models.SpotifyAccount, error)
	FindByUser(ctx context.Context, userID string) (models.SpotifyAccount, error)
	UpdateTokens(ctx context.Context, id string, tokens models.SpotifyTokens, updatedAt time.Time) error
}
