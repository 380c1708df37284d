// Package users manages accounts, credentials and profiles.
package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vibelab/backend/internal/apperror"
	"github.com/vibelab/backend/internal/logging"
	"github.com/vibelab/backend/internal/models"
	"github.com/vibelab/backend/internal/repositories"
	"github.com/vibelab/backend/internal/storage"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 150
	minPasswordLength = 8
	maxNameLength     = 150

	// DefaultMaxPhotoBytes bounds profile photo uploads.
	DefaultMaxPhotoBytes = 5 << 20
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// ErrInvalidCredentials is returned when a username and password do not match.
var ErrInvalidCredentials = apperror.Unauthenticated("No active account found with the given credentials")

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, user models.User) error
}

// PhotoStore uploads profile photos and returns their public URL.
type PhotoStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username     string
	FirstName    string
	LastName     string
	ProfilePhoto string
	Password     string
	Password2    string
}

// ProfileUpdate changes the non-nil fields of a profile.
type ProfileUpdate struct {
	FirstName    *string
	LastName     *string
	ProfilePhoto *string
	Password     *string
	Password2    *string
}

// Service implements account operations.
type Service struct {
	store    Store
	photos   PhotoStore
	maxPhoto int64
	hashCost int
	now      func() time.Time
}

// NewService builds a Service. photos may be nil when no object store is configured.
func NewService(store Store, photos PhotoStore, maxPhotoBytes int64) *Service {
	if store == nil {
		panic("users: store must not be nil")
	}
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = DefaultMaxPhotoBytes
	}
	return &Service{
		store:    store,
		photos:   photos,
		maxPhoto: maxPhotoBytes,
		hashCost: bcrypt.DefaultCost,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account with a hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	username, err := validUsername(in.Username)
	if err != nil {
		return models.User{}, err
	}
	if err := validPassword(in.Password, in.Password2); err != nil {
		return models.User{}, err
	}
	first, err := validName("first_name", in.FirstName)
	if err != nil {
		return models.User{}, err
	}
	last, err := validName("last_name", in.LastName)
	if err != nil {
		return models.User{}, err
	}

	exists, err := s.store.UsernameExists(ctx, username)
	if err != nil {
		return models.User{}, apperror.Internal(err)
	}
	if exists {
		return models.User{}, apperror.Validation("A user with that username already exists.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return models.User{}, apperror.Internal(fmt.Errorf("hash password: %w", err))
	}

	now := s.now()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		FirstName:    first,
		LastName:     last,
		ProfilePhoto: strings.TrimSpace(in.ProfilePhoto),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperror.Validation("A user with that username already exists.")
		}
		return models.User{}, apperror.Internal(err)
	}

	logging.FromContext(ctx).Info("user registered", slog.String("userId", user.ID))
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, apperror.Validation("username and password are required")
	}

	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, apperror.Internal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logging.FromContext(ctx).Warn("login password mismatch", slog.String("userId", user.ID))
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Profile returns the user's account.
func (s *Service) Profile(ctx context.Context, userID string) (models.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperror.NotFound("user not found")
		}
		return models.User{}, apperror.Internal(err)
	}
	return user, nil
}

// UpdateProfile applies a partial profile change.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (models.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if in.FirstName != nil {
		if user.FirstName, err = validName("first_name", *in.FirstName); err != nil {
			return models.User{}, err
		}
	}
	if in.LastName != nil {
		if user.LastName, err = validName("last_name", *in.LastName); err != nil {
			return models.User{}, err
		}
	}
	if in.ProfilePhoto != nil {
		user.ProfilePhoto = strings.TrimSpace(*in.ProfilePhoto)
	}
	if in.Password != nil {
		confirm := ""
		if in.Password2 != nil {
			confirm = *in.Password2
		}
		if err := validPassword(*in.Password, confirm); err != nil {
			return models.User{}, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.hashCost)
		if err != nil {
			return models.User{}, apperror.Internal(fmt.Errorf("hash password: %w", err))
		}
		user.PasswordHash = string(hash)
	}

	return s.save(ctx, user)
}

// UploadPhoto stores an image and points the profile at it.
func (s *Service) UploadPhoto(ctx context.Context, userID, contentType string, size int64, r io.Reader) (models.User, error) {
	if s.photos == nil {
		return models.User{}, apperror.New(apperror.KindUnavailable, "photo storage is not configured")
	}
	if size > s.maxPhoto {
		return models.User{}, apperror.Validation(fmt.Sprintf("photo must be at most %d bytes", s.maxPhoto))
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	key, err := storage.PhotoKey(user.ID, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return models.User{}, apperror.Validation("photo must be a JPEG, PNG, GIF or WebP image")
		}
		return models.User{}, apperror.Internal(err)
	}

	location, err := s.photos.Save(ctx, key, contentType, io.LimitReader(r, s.maxPhoto))
	if err != nil {
		return models.User{}, apperror.Wrap(apperror.KindUnavailable, "photo upload failed", err)
	}

	user.ProfilePhoto = location
	logging.FromContext(ctx).Info("profile photo uploaded", slog.String("userId", user.ID), slog.String("key", key))
	return s.save(ctx, user)
}

// UsernameAvailable reports whether username can still be registered.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, apperror.Validation("username is required")
	}
	exists, err := s.store.UsernameExists(ctx, username)
	if err != nil {
		return false, apperror.Internal(err)
	}
	return !exists, nil
}

// MaxPhotoBytes is the upload size limit.
func (s *Service) MaxPhotoBytes() int64 { return s.maxPhoto }

func (s *Service) save(ctx context.Context, user models.User) (models.User, error) {
	user.UpdatedAt = s.now()
	if err := s.store.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperror.NotFound("user not found")
		}
		return models.User{}, apperror.Internal(err)
	}
	return user, nil
}

func validUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(username)
	if n < minUsernameLength || n > maxUsernameLength {
		return "", apperror.Validation("username must be between 3 and 150 characters")
	}
	if !usernamePattern.MatchString(username) {
		return "", apperror.Validation("username may contain only letters, numbers and @/./+/-/_ characters")
	}
	return username, nil
}

func validPassword(password, confirm string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return apperror.Validation("password must be at least 8 characters")
	}
	if password != confirm {
		return apperror.Validation("Password fields didn't match.")
	}
	return nil
}

func validName(field, raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", apperror.Validation(field + " must be at most 150 characters")
	}
	return name, nil
}
