package playlists

import (
	"context"
	"sort"
	"sync"

	"github.com/vibelab/backend/internal/models"
	"github.com/vibelab/backend/internal/repositories"
)

// memoryStore mirrors the Postgres constraints the service relies on.
type memoryStore struct {
	mu        sync.Mutex
	usernames map[string]string
	playlists map[string]models.Playlist
	songs     map[string]models.Song
	items     map[string]models.PlaylistItem
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		usernames: map[string]string{},
		playlists: map[string]models.Playlist{},
		songs:     map[string]models.Song{},
		items:     map[string]models.PlaylistItem{},
	}
}

func (s *memoryStore) addUser(id, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usernames[id] = username
}

func (s *memoryStore) Create(_ context.Context, p models.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usernames[p.OwnerID]; !ok {
		return repositories.ErrNotFound
	}
	if _, ok := s.playlists[p.ID]; ok {
		return repositories.ErrConflict
	}
	s.playlists[p.ID] = p
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	p.OwnerUsername = s.usernames[p.OwnerID]
	return p, nil
}

func (s *memoryStore) FindByShareToken(ctx context.Context, token string) (models.Playlist, error) {
	s.mu.Lock()
	var id string
	for _, p := range s.playlists {
		if token != "" && p.ShareToken == token {
			id = p.ID
		}
	}
	s.mu.Unlock()
	if id == "" {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *memoryStore) ListByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Playlist{}
	for _, p := range s.playlists {
		if p.OwnerID == ownerID {
			p.OwnerUsername = s.usernames[p.OwnerID]
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateCreated.After(out[j].DateCreated) })
	return out, nil
}

func (s *memoryStore) Update(_ context.Context, p models.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.playlists[p.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	existing.Name = p.Name
	existing.Description = p.Description
	existing.Vibe = p.Vibe
	existing.IsOpen = p.IsOpen
	s.playlists[p.ID] = existing
	return nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	for itemID, item := range s.items {
		if item.PlaylistID == id {
			delete(s.items, itemID)
		}
	}
	return nil
}

func (s *memoryStore) SetShareToken(_ context.Context, id, token, accessCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for otherID, other := range s.playlists {
		if otherID != id && other.ShareToken == token {
			return repositories.ErrConflict
		}
	}
	p, ok := s.playlists[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.ShareToken = token
	p.AccessCode = accessCode
	s.playlists[id] = p
	return nil
}

func (s *memoryStore) Items(_ context.Context, playlistID string) ([]models.PlaylistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.PlaylistItem{}
	for _, item := range s.items {
		if item.PlaylistID == playlistID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}

func (s *memoryStore) GetOrCreateSong(_ context.Context, song models.Song) (models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.songs[song.SpotifyID]; ok {
		return existing, nil
	}
	s.songs[song.SpotifyID] = song
	return song, nil
}

func (s *memoryStore) AddItem(_ context.Context, item models.PlaylistItem) (models.PlaylistItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.playlists[item.PlaylistID]; !ok {
		return models.PlaylistItem{}, false, repositories.ErrNotFound
	}
	for _, existing := range s.items {
		if existing.PlaylistID == item.PlaylistID && existing.Song.ID == item.Song.ID {
			return existing, false, nil
		}
	}
	s.items[item.ID] = item
	return item, true, nil
}

func (s *memoryStore) GetItem(_ context.Context, itemID string) (models.PlaylistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return models.PlaylistItem{}, repositories.ErrNotFound
	}
	return item, nil
}

func (s *memoryStore) DeleteItem(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[itemID]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.items, itemID)
	return nil
}
