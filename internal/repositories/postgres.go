package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/vibelab/backend/internal/db"
	"github.com/vibelab/backend/internal/models"
)

const userColumns = `id, username, first_name, last_name, profile_photo, password_hash, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	db db.DB
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(conn db.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: conn}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, username, first_name, last_name, profile_photo, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, user.ID, user.Username, user.FirstName, user.LastName, user.ProfilePhoto, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return translate(err, "insert user")
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, translate(err, "select user by id")
	}
	return user, nil
}

// FindByUsername fetches a user by their unique username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	user, err := scanUser(row)
	if err != nil {
		return models.User{}, translate(err, "select user by username")
	}
	return user, nil
}

// UsernameExists reports whether the username is already taken.
func (r *PostgresUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists); err != nil {
		return false, translate(err, "check username")
	}
	return exists, nil
}

// Update rewrites the mutable profile fields of a user.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE users
        SET first_name = $2, last_name = $3, profile_photo = $4, password_hash = $5, updated_at = $6
        WHERE id = $1
    `, user.ID, user.FirstName, user.LastName, user.ProfilePhoto, user.PasswordHash, user.UpdatedAt)
	if err != nil {
		return translate(err, "update user")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.FirstName, &user.LastName, &user.ProfilePhoto, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

var _ UserRepository = (*PostgresUserRepository)(nil)
