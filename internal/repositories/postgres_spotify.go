package repositories

import (
	"context"
	"time"

	"github.com/vibelab/backend/internal/db"
	"github.com/vibelab/backend/internal/models"
)

// PostgresSpotifyAccountRepository persists linked Spotify credentials in PostgreSQL.
type PostgresSpotifyAccountRepository struct {
	db db.DB
}

// NewPostgresSpotifyAccountRepository constructs the repository.
func NewPostgresSpotifyAccountRepository(conn db.DB) *PostgresSpotifyAccountRepository {
	return &PostgresSpotifyAccountRepository{db: conn}
}

// Upsert inserts the account or, when the Spotify identity is already linked,
// overwrites its owner and credentials.
func (r *PostgresSpotifyAccountRepository) Upsert(ctx context.Context, a models.SpotifyAccount) (models.SpotifyAccount, error) {
	err := r.db.QueryRow(ctx, `
        INSERT INTO spotify_accounts (id, user_id, spotify_user_id, access_token, refresh_token, token_expires_at, scope, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
        ON CONFLICT (spotify_user_id)
        DO UPDATE SET user_id = EXCLUDED.user_id,
                      access_token = EXCLUDED.access_token,
                      refresh_token = EXCLUDED.refresh_token,
                      token_expires_at = EXCLUDED.token_expires_at,
                      scope = EXCLUDED.scope,
                      updated_at = EXCLUDED.updated_at
        RETURNING id, created_at, updated_at
    `, a.ID, a.UserID, a.SpotifyUserID, a.AccessToken, a.RefreshToken, a.TokenExpiresAt.UTC(), a.Scope, a.UpdatedAt).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return models.SpotifyAccount{}, translate(err, "upsert spotify account")
	}
	return a, nil
}

// FindByUser returns the most recently linked account of a user.
func (r *PostgresSpotifyAccountRepository) FindByUser(ctx context.Context, userID string) (models.SpotifyAccount, error) {
	var a models.SpotifyAccount
	err := r.db.QueryRow(ctx, `
        SELECT id, user_id, spotify_user_id, access_token, refresh_token, token_expires_at, scope, created_at, updated_at
        FROM spotify_accounts
        WHERE user_id = $1
        ORDER BY updated_at DESC
        LIMIT 1
    `, userID).Scan(&a.ID, &a.UserID, &a.SpotifyUserID, &a.AccessToken, &a.RefreshToken, &a.TokenExpiresAt, &a.Scope, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return models.SpotifyAccount{}, translate(err, "select spotify account")
	}
	a.TokenExpiresAt = a.TokenExpiresAt.UTC()
	return a, nil
}

// UpdateTokens writes refreshed credentials in a single statement. An empty
// RefreshToken keeps the stored one.
func (r *PostgresSpotifyAccountRepository) UpdateTokens(ctx context.Context, id string, t models.SpotifyTokens, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE spotify_accounts
        SET access_token = $2,
            refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
            token_expires_at = $4,
            scope = $5,
            updated_at = $6
        WHERE id = $1
    `, id, t.AccessToken, t.RefreshToken, t.ExpiresAt.UTC(), t.Scope, updatedAt)
	if err != nil {
		return translate(err, "update spotify tokens")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ SpotifyAccountRepository = (*PostgresSpotifyAccountRepository)(nil)
