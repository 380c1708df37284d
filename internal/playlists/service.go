// Package playlists implements playlist and item operations gated by the
// sharing rules.
package playlists

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vibelab/backend/internal/apperror"
	"github.com/vibelab/backend/internal/catalog"
	"github.com/vibelab/backend/internal/events"
	"github.com/vibelab/backend/internal/logging"
	"github.com/vibelab/backend/internal/models"
	"github.com/vibelab/backend/internal/repositories"
	"github.com/vibelab/backend/internal/sharing"
)

const (
	maxNameLength       = 200
	maxAccessCodeLength = 20
)

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, playlist models.Playlist) error
	Get(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id string) error

	Items(ctx context.Context, playlistID string) ([]models.PlaylistItem, error)
	GetOrCreateSong(ctx context.Context, song models.Song) (models.Song, error)
	AddItem(ctx context.Context, item models.PlaylistItem) (models.PlaylistItem, bool, error)
	GetItem(ctx context.Context, itemID string) (models.PlaylistItem, error)
	DeleteItem(ctx context.Context, itemID string) error
}

// CreateInput describes a new playlist.
type CreateInput struct {
	Name        string
	Description string
	Vibe        string
	IsOpen      bool
	AccessCode  string
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Vibe        *string
	IsOpen      *bool
}

// AddItemInput identifies the song to add and any metadata the caller knows.
type AddItemInput struct {
	PlaylistID string
	SpotifyID  string
	Title      string
	Artist     string
	Album      string
}

// AddItemResult reports the item and whether this call created it.
type AddItemResult struct {
	Item    models.PlaylistItem
	Created bool
}

// Option customises a Service.
type Option func(*Service)

// WithCatalog fills missing song metadata from provider.
func WithCatalog(provider catalog.Provider) Option {
	return func(s *Service) { s.catalog = provider }
}

// WithPublisher announces changes through publisher.
func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.events = publisher
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service coordinates playlist persistence with access decisions.
type Service struct {
	store   Store
	catalog catalog.Provider
	events  events.Publisher
	now     func() time.Time
}

// NewService constructs a Service backed by store.
func NewService(store Store, opts ...Option) *Service {
	if store == nil {
		panic("playlists: store must not be nil")
	}
	s := &Service{
		store:  store,
		events: events.NopPublisher{},
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a playlist owned by the requester.
func (s *Service) Create(ctx context.Context, r sharing.Requester, in CreateInput) (models.Playlist, error) {
	if !r.Authenticated {
		return models.Playlist{}, apperror.Unauthenticated("authentication required")
	}

	name, err := validName(in.Name)
	if err != nil {
		return models.Playlist{}, err
	}
	vibe, err := models.ParseVibe(in.Vibe)
	if err != nil {
		return models.Playlist{}, apperror.Validation(err.Error())
	}
	code, err := validAccessCode(in.AccessCode)
	if err != nil {
		return models.Playlist{}, err
	}

	playlist := models.Playlist{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Vibe:        vibe,
		IsOpen:      in.IsOpen,
		AccessCode:  code,
		OwnerID:     r.UserID,
		DateCreated: s.now(),
	}
	if err := s.store.Create(ctx, playlist); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Playlist{}, apperror.Unauthenticated("owner account no longer exists")
		}
		return models.Playlist{}, apperror.Internal(err)
	}

	created, err := s.store.Get(ctx, playlist.ID)
	if err != nil {
		return models.Playlist{}, apperror.Internal(err)
	}
	created.Items = []models.PlaylistItem{}

	logging.FromContext(ctx).Info("playlist created", slog.String("playlistId", created.ID), slog.String("ownerId", r.UserID))
	s.publish(ctx, events.Event{Type: events.PlaylistCreated, PlaylistID: created.ID, ActorID: r.UserID})
	return created, nil
}

// Get returns the playlist with its items when the requester may read it.
func (s *Service) Get(ctx context.Context, id string, r sharing.Requester, code string) (models.Playlist, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return models.Playlist{}, err
	}
	if !sharing.CheckAccess(p, r, code).Allowed() {
		return models.Playlist{}, apperror.Forbidden("you do not have access to this playlist")
	}

	items, err := s.store.Items(ctx, p.ID)
	if err != nil {
		return models.Playlist{}, apperror.Internal(err)
	}
	p.Items = items
	return p, nil
}

// ListMine returns the requester's own playlists, newest first.
func (s *Service) ListMine(ctx context.Context, r sharing.Requester) ([]models.Playlist, error) {
	if !r.Authenticated {
		return nil, apperror.Unauthenticated("authentication required")
	}
	playlists, err := s.store.ListByOwner(ctx, r.UserID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return playlists, nil
}

// Update applies a partial change. Only the owner may update.
func (s *Service) Update(ctx context.Context, id string, r sharing.Requester, in UpdateInput) (models.Playlist, error) {
	p, err := s.owned(ctx, id, r)
	if err != nil {
		return models.Playlist{}, err
	}

	if in.Name != nil {
		if p.Name, err = validName(*in.Name); err != nil {
			return models.Playlist{}, err
		}
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Vibe != nil {
		vibe, err := models.ParseVibe(*in.Vibe)
		if err != nil {
			return models.Playlist{}, apperror.Validation(err.Error())
		}
		p.Vibe = vibe
	}
	if in.IsOpen != nil {
		p.IsOpen = *in.IsOpen
	}
	if err := s.store.Update(ctx, p); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Playlist{}, apperror.NotFound("playlist not found")
		}
		return models.Playlist{}, apperror.Internal(err)
	}

	items, err := s.store.Items(ctx, p.ID)
	if err != nil {
		return models.Playlist{}, apperror.Internal(err)
	}
	p.Items = items

	s.publish(ctx, events.Event{Type: events.PlaylistUpdated, PlaylistID: p.ID, ActorID: r.UserID})
	return p, nil
}

// Delete removes the playlist and, by cascade, its items.
func (s *Service) Delete(ctx context.Context, id string, r sharing.Requester) error {
	p, err := s.owned(ctx, id, r)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, p.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.NotFound("playlist not found")
		}
		return apperror.Internal(err)
	}

	logging.FromContext(ctx).Info("playlist deleted", slog.String("playlistId", p.ID))
	s.publish(ctx, events.Event{Type: events.PlaylistDeleted, PlaylistID: p.ID, ActorID: r.UserID})
	return nil
}

// AddItem adds a song to a playlist. Repeating the call returns the same item.
func (s *Service) AddItem(ctx context.Context, r sharing.Requester, code string, in AddItemInput) (AddItemResult, error) {
	in.PlaylistID = strings.TrimSpace(in.PlaylistID)
	in.SpotifyID = strings.TrimSpace(in.SpotifyID)
	if in.PlaylistID == "" || in.SpotifyID == "" {
		return AddItemResult{}, apperror.Validation("playlist_id and spotify_id are required")
	}

	p, err := s.load(ctx, in.PlaylistID)
	if err != nil {
		return AddItemResult{}, err
	}
	if !sharing.CheckAccess(p, r, code).Allowed() {
		return AddItemResult{}, apperror.Forbidden("you do not have access to this playlist")
	}

	song := models.Song{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(in.Title),
		Artist:    strings.TrimSpace(in.Artist),
		Album:     strings.TrimSpace(in.Album),
		SpotifyID: in.SpotifyID,
		AddedAt:   s.now(),
	}
	if song.Title == "" || song.Artist == "" || song.Album == "" {
		s.fillFromCatalog(ctx, p.OwnerID, &song)
	}
	if song.Title == "" || song.Artist == "" || song.Album == "" {
		return AddItemResult{}, apperror.Validation("title, artist and album are required")
	}

	stored, err := s.store.GetOrCreateSong(ctx, song)
	if err != nil {
		return AddItemResult{}, apperror.Internal(err)
	}

	item, created, err := s.store.AddItem(ctx, models.PlaylistItem{
		ID:         uuid.NewString(),
		PlaylistID: p.ID,
		Song:       stored,
		AddedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return AddItemResult{}, apperror.NotFound("playlist not found")
		}
		return AddItemResult{}, apperror.Internal(err)
	}

	if created {
		s.publish(ctx, events.Event{Type: events.ItemAdded, PlaylistID: p.ID, ItemID: item.ID, ActorID: r.UserID})
	}
	return AddItemResult{Item: item, Created: created}, nil
}

// RemoveItem deletes an item from a playlist the requester owns.
func (s *Service) RemoveItem(ctx context.Context, itemID string, r sharing.Requester) error {
	if _, err := uuid.Parse(itemID); err != nil {
		return apperror.NotFound("playlist item not found")
	}
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.NotFound("playlist item not found")
		}
		return apperror.Internal(err)
	}

	p, err := s.load(ctx, item.PlaylistID)
	if err != nil {
		return err
	}
	if !sharing.CheckOwnership(p, r).Allowed() {
		return apperror.Forbidden("only the playlist owner can remove songs")
	}

	if err := s.store.DeleteItem(ctx, item.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.NotFound("playlist item not found")
		}
		return apperror.Internal(err)
	}

	s.publish(ctx, events.Event{Type: events.ItemRemoved, PlaylistID: p.ID, ItemID: item.ID, ActorID: r.UserID})
	return nil
}

func (s *Service) load(ctx context.Context, id string) (models.Playlist, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Playlist{}, apperror.NotFound("playlist not found")
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Playlist{}, apperror.NotFound("playlist not found")
		}
		return models.Playlist{}, apperror.Internal(err)
	}
	return p, nil
}

func (s *Service) owned(ctx context.Context, id string, r sharing.Requester) (models.Playlist, error) {
	if !r.Authenticated {
		return models.Playlist{}, apperror.Unauthenticated("authentication required")
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return models.Playlist{}, err
	}
	if !sharing.CheckOwnership(p, r).Allowed() {
		return models.Playlist{}, apperror.Forbidden("only the playlist owner can change it")
	}
	return p, nil
}

func (s *Service) fillFromCatalog(ctx context.Context, ownerID string, song *models.Song) {
	if s.catalog == nil {
		return
	}
	track, err := s.catalog.Track(ctx, ownerID, song.SpotifyID)
	if err != nil {
		logging.FromContext(ctx).Warn("catalog lookup failed",
			slog.String("spotifyId", song.SpotifyID),
			slog.Any("error", err),
		)
		return
	}
	if song.Title == "" {
		song.Title = track.Title
	}
	if song.Artist == "" {
		song.Artist = track.Artist
	}
	if song.Album == "" {
		song.Album = track.Album
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if event.At.IsZero() {
		event.At = s.now()
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("publish playlist event",
			slog.String("type", string(event.Type)),
			slog.String("playlistId", event.PlaylistID),
			slog.Any("error", err),
		)
	}
}

func validName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperror.Validation("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", apperror.Validation("name must be at most 200 characters")
	}
	return name, nil
}

func validAccessCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if utf8.RuneCountInString(code) > maxAccessCodeLength {
		return "", apperror.Validation("accessCode must be at most 20 characters")
	}
	return code, nil
}
