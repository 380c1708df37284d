package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/vibelab/backend/internal/db"
	"github.com/vibelab/backend/internal/models"
)

const playlistSelect = `
        SELECT p.id, p.name, p.description, p.vibe, p.is_open,
               COALESCE(p.access_code, ''), COALESCE(p.share_token, ''),
               p.owner_id, u.username, p.date_created
        FROM playlists p
        JOIN users u ON u.id = p.owner_id`

const itemSelect = `
        SELECT i.id, i.playlist_id, i.likes, i.added_at,
               s.id, s.title, s.artist, s.album, s.spotify_id, s.added_at
        FROM playlist_items i
        JOIN songs s ON s.id = i.song_id`

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists and their items.
type PostgresPlaylistRepository struct {
	db db.DB
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(conn db.DB) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{db: conn}
}

// Create persists a new playlist. A missing owner yields ErrNotFound.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, p models.Playlist) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO playlists (id, name, description, vibe, is_open, access_code, owner_id, date_created)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
    `, p.ID, p.Name, p.Description, string(p.Vibe), p.IsOpen, p.AccessCode, p.OwnerID, p.DateCreated)
	return translate(err, "insert playlist")
}

// Get fetches a playlist by identifier, without items.
func (r *PostgresPlaylistRepository) Get(ctx context.Context, id string) (models.Playlist, error) {
	p, err := scanPlaylist(r.db.QueryRow(ctx, playlistSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return models.Playlist{}, translate(err, "select playlist")
	}
	return p, nil
}

// FindByShareToken fetches the playlist currently published under token.
func (r *PostgresPlaylistRepository) FindByShareToken(ctx context.Context, token string) (models.Playlist, error) {
	p, err := scanPlaylist(r.db.QueryRow(ctx, playlistSelect+` WHERE p.share_token = $1`, token))
	if err != nil {
		return models.Playlist{}, translate(err, "select playlist by share token")
	}
	return p, nil
}

// ListByOwner returns the playlists owned by ownerID, newest first.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	rows, err := r.db.Query(ctx, playlistSelect+` WHERE p.owner_id = $1 ORDER BY p.date_created DESC`, ownerID)
	if err != nil {
		return nil, translate(err, "list playlists")
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, translate(err, "scan playlist")
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate playlists")
	}
	return playlists, nil
}

// Update rewrites the editable attributes of a playlist.
func (r *PostgresPlaylistRepository) Update(ctx context.Context, p models.Playlist) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE playlists
        SET name = $2, description = $3, vibe = $4, is_open = $5
        WHERE id = $1
    `, p.ID, p.Name, p.Description, string(p.Vibe), p.IsOpen)
	if err != nil {
		return translate(err, "update playlist")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a playlist; items go with it through the cascade.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete playlist")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetShareToken publishes token for the playlist and stores accessCode in the same statement.
// A token already held by another playlist yields ErrConflict.
func (r *PostgresPlaylistRepository) SetShareToken(ctx context.Context, id, token, accessCode string) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE playlists
        SET share_token = $2, access_code = NULLIF($3, '')
        WHERE id = $1
    `, id, token, accessCode)
	if err != nil {
		return translate(err, "update share token")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Items lists the songs of a playlist in insertion order.
func (r *PostgresPlaylistRepository) Items(ctx context.Context, playlistID string) ([]models.PlaylistItem, error) {
	rows, err := r.db.Query(ctx, itemSelect+` WHERE i.playlist_id = $1 ORDER BY i.added_at, i.id`, playlistID)
	if err != nil {
		return nil, translate(err, "list playlist items")
	}
	defer rows.Close()

	items := []models.PlaylistItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, translate(err, "scan playlist item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate playlist items")
	}
	return items, nil
}

// GetOrCreateSong returns the song stored under song.SpotifyID, inserting it when absent.
func (r *PostgresPlaylistRepository) GetOrCreateSong(ctx context.Context, song models.Song) (models.Song, error) {
	row := r.db.QueryRow(ctx, `
        INSERT INTO songs (id, title, artist, album, spotify_id, added_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (spotify_id) DO NOTHING
        RETURNING id, title, artist, album, spotify_id, added_at
    `, song.ID, song.Title, song.Artist, song.Album, song.SpotifyID, song.AddedAt)

	created, err := scanSong(row)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) && !isUniqueViolation(err) {
		return models.Song{}, translate(err, "insert song")
	}

	existing, err := scanSong(r.db.QueryRow(ctx, `
        SELECT id, title, artist, album, spotify_id, added_at
        FROM songs
        WHERE spotify_id = $1
    `, song.SpotifyID))
	if err != nil {
		return models.Song{}, translate(err, "select song")
	}
	return existing, nil
}

// AddItem inserts the (playlist, song) membership. When it already exists the stored
// item is returned and the second result is false.
func (r *PostgresPlaylistRepository) AddItem(ctx context.Context, item models.PlaylistItem) (models.PlaylistItem, bool, error) {
	row := r.db.QueryRow(ctx, `
        INSERT INTO playlist_items (id, playlist_id, song_id, likes, added_at)
        VALUES ($1, $2, $3, 0, $4)
        ON CONFLICT (playlist_id, song_id) DO NOTHING
        RETURNING id, likes, added_at
    `, item.ID, item.PlaylistID, item.Song.ID, item.AddedAt)

	err := row.Scan(&item.ID, &item.Likes, &item.AddedAt)
	if err == nil {
		return item, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) && !isUniqueViolation(err) {
		return models.PlaylistItem{}, false, translate(err, "insert playlist item")
	}

	err = r.db.QueryRow(ctx, `
        SELECT id, likes, added_at
        FROM playlist_items
        WHERE playlist_id = $1 AND song_id = $2
    `, item.PlaylistID, item.Song.ID).Scan(&item.ID, &item.Likes, &item.AddedAt)
	if err != nil {
		return models.PlaylistItem{}, false, translate(err, "select playlist item")
	}
	return item, false, nil
}

// GetItem fetches a playlist item with its song.
func (r *PostgresPlaylistRepository) GetItem(ctx context.Context, itemID string) (models.PlaylistItem, error) {
	item, err := scanItem(r.db.QueryRow(ctx, itemSelect+` WHERE i.id = $1`, itemID))
	if err != nil {
		return models.PlaylistItem{}, translate(err, "select playlist item")
	}
	return item, nil
}

// DeleteItem removes a playlist item.
func (r *PostgresPlaylistRepository) DeleteItem(ctx context.Context, itemID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM playlist_items WHERE id = $1`, itemID)
	if err != nil {
		return translate(err, "delete playlist item")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPlaylist(row pgx.Row) (models.Playlist, error) {
	var (
		p    models.Playlist
		vibe string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &vibe, &p.IsOpen, &p.AccessCode, &p.ShareToken, &p.OwnerID, &p.OwnerUsername, &p.DateCreated)
	p.Vibe = models.Vibe(vibe)
	return p, err
}

func scanSong(row pgx.Row) (models.Song, error) {
	var s models.Song
	err := row.Scan(&s.ID, &s.Title, &s.Artist, &s.Album, &s.SpotifyID, &s.AddedAt)
	return s, err
}

func scanItem(row pgx.Row) (models.PlaylistItem, error) {
	var item models.PlaylistItem
	err := row.Scan(&item.ID, &item.PlaylistID, &item.Likes, &item.AddedAt,
		&item.Song.ID, &item.Song.Title, &item.Song.Artist, &item.Song.Album, &item.Song.SpotifyID, &item.Song.AddedAt)
	return item, err
}

var _ PlaylistRepository = (*PostgresPlaylistRepository)(nil)
