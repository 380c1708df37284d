package handlers

import (
	"context"
	"sync"

	"github.com/vibelab/backend/internal/models"
	"github.com/vibelab/backend/internal/repositories"
)

// memoryDB backs the user and playlist services for router tests.
type memoryDB struct {
	mu        sync.Mutex
	users     map[string]models.User
	playlists map[string]models.Playlist
	songs     map[string]models.Song
	items     map[string]models.PlaylistItem
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		users:     map[string]models.User{},
		playlists: map[string]models.Playlist{},
		songs:     map[string]models.Song{},
		items:     map[string]models.PlaylistItem{},
	}
}

type memoryUsers struct{ db *memoryDB }

func (s memoryUsers) Create(_ context.Context, u models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.users {
		if existing.Username == u.Username {
			return repositories.ErrConflict
		}
	}
	s.db.users[u.ID] = u
	return nil
}

func (s memoryUsers) FindByID(_ context.Context, id string) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return u, nil
}

func (s memoryUsers) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s memoryUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := s.FindByUsername(ctx, username)
	return err == nil, nil
}

func (s memoryUsers) Update(_ context.Context, u models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[u.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.db.users[u.ID] = u
	return nil
}

type memoryPlaylists struct{ db *memoryDB }

func (s memoryPlaylists) withOwner(p models.Playlist) models.Playlist {
	p.OwnerUsername = s.db.users[p.OwnerID].Username
	return p
}

func (s memoryPlaylists) Create(_ context.Context, p models.Playlist) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[p.OwnerID]; !ok {
		return repositories.ErrNotFound
	}
	s.db.playlists[p.ID] = p
	return nil
}

func (s memoryPlaylists) Get(_ context.Context, id string) (models.Playlist, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return s.withOwner(p), nil
}

func (s memoryPlaylists) FindByShareToken(_ context.Context, token string) (models.Playlist, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, p := range s.db.playlists {
		if token != "" && p.ShareToken == token {
			return s.withOwner(p), nil
		}
	}
	return models.Playlist{}, repositories.ErrNotFound
}

func (s memoryPlaylists) ListByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Playlist{}
	for _, p := range s.db.playlists {
		if p.OwnerID == ownerID {
			out = append(out, s.withOwner(p))
		}
	}
	return out, nil
}

func (s memoryPlaylists) Update(_ context.Context, p models.Playlist) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	existing, ok := s.db.playlists[p.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	existing.Name = p.Name
	existing.Description = p.Description
	existing.Vibe = p.Vibe
	existing.IsOpen = p.IsOpen
	s.db.playlists[p.ID] = existing
	return nil
}

func (s memoryPlaylists) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.db.playlists, id)
	for itemID, item := range s.db.items {
		if item.PlaylistID == id {
			delete(s.db.items, itemID)
		}
	}
	return nil
}

func (s memoryPlaylists) SetShareToken(_ context.Context, id, token, accessCode string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.playlists[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.ShareToken = token
	p.AccessCode = accessCode
	s.db.playlists[id] = p
	return nil
}

func (s memoryPlaylists) Items(_ context.Context, playlistID string) ([]models.PlaylistItem, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.PlaylistItem{}
	for _, item := range s.db.items {
		if item.PlaylistID == playlistID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s memoryPlaylists) GetOrCreateSong(_ context.Context, song models.Song) (models.Song, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if existing, ok := s.db.songs[song.SpotifyID]; ok {
		return existing, nil
	}
	s.db.songs[song.SpotifyID] = song
	return song, nil
}

func (s memoryPlaylists) AddItem(_ context.Context, item models.PlaylistItem) (models.PlaylistItem, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.items {
		if existing.PlaylistID == item.PlaylistID && existing.Song.ID == item.Song.ID {
			return existing, false, nil
		}
	}
	s.db.items[item.ID] = item
	return item, true, nil
}

func (s memoryPlaylists) GetItem(_ context.Context, itemID string) (models.PlaylistItem, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	item, ok := s.db.items[itemID]
	if !ok {
		return models.PlaylistItem{}, repositories.ErrNotFound
	}
	return item, nil
}

func (s memoryPlaylists) DeleteItem(_ context.Context, itemID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.items[itemID]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.db.items, itemID)
	return nil
}
