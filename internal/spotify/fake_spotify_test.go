package spotify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/vibelab/backend/internal/config"
	"github.com/vibelab/backend/internal/models"
	"github.com/vibelab/backend/internal/repositories"
)

// fakeSpotify serves the accounts token endpoint and the /me profile.
type fakeSpotify struct {
	t      *testing.T
	server *httptest.Server

	mu            sync.Mutex
	tokenRequests []url.Values
	tokenStatus   int
	tokenBody     map[string]any
	profileStatus int
	profileID     string
}

func newFakeSpotify(t *testing.T) *fakeSpotify {
	t.Helper()
	f := &fakeSpotify{
		t:             t,
		tokenStatus:   http.StatusOK,
		profileStatus: http.StatusOK,
		profileID:     "spotify-user-1",
		tokenBody: map[string]any{
			"access_token":  "access-1",
			"token_type":    "Bearer",
			"refresh_token": "refresh-1",
			"expires_in":    3600,
			"scope":         "playlist-modify-public",
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", f.handleToken)
	mux.HandleFunc("/v1/me", f.handleProfile)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSpotify) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		f.t.Errorf("parse token form: %v", err)
	}
	f.mu.Lock()
	f.tokenRequests = append(f.tokenRequests, r.PostForm)
	status, body := f.tokenStatus, f.tokenBody
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status != http.StatusOK {
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Refresh token revoked"}`))
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeSpotify) handleProfile(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	status, id := f.profileStatus, f.profileID
	f.mu.Unlock()

	if r.Header.Get("Authorization") == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	if status != http.StatusOK {
		http.Error(w, "nope", status)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "display_name": "Ana"})
}

func (f *fakeSpotify) requests() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.tokenRequests...)
}

func (f *fakeSpotify) config() config.SpotifyConfig {
	return config.SpotifyConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://vibelab.example/spotify/callback/",
		Scopes:       []string{"playlist-modify-public", "playlist-modify-private"},
		AuthURL:      f.server.URL + "/authorize",
		TokenURL:     f.server.URL + "/api/token",
		APIBase:      f.server.URL + "/v1",
		HTTPTimeout:  2 * time.Second,
	}
}

// memoryAccounts records writes so tests can assert on them.
type memoryAccounts struct {
	mu       sync.Mutex
	accounts map[string]models.SpotifyAccount
	updates  int
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{accounts: map[string]models.SpotifyAccount{}}
}

func (s *memoryAccounts) Upsert(_ context.Context, a models.SpotifyAccount) (models.SpotifyAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.accounts[a.SpotifyUserID]; ok {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
	} else {
		a.ID = "account-" + a.SpotifyUserID
	}
	s.accounts[a.SpotifyUserID] = a
	return a, nil
}

func (s *memoryAccounts) FindByUser(_ context.Context, userID string) (models.SpotifyAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.UserID == userID {
			return a, nil
		}
	}
	return models.SpotifyAccount{}, repositories.ErrNotFound
}

func (s *memoryAccounts) UpdateTokens(_ context.Context, id string, tokens models.SpotifyTokens, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, a := range s.accounts {
		if a.ID != id {
			continue
		}
		a.AccessToken = tokens.AccessToken
		if tokens.RefreshToken != "" {
			a.RefreshToken = tokens.RefreshToken
		}
		a.TokenExpiresAt = tokens.ExpiresAt
		a.Scope = tokens.Scope
		a.UpdatedAt = updatedAt
		s.accounts[key] = a
		s.updates++
		return nil
	}
	return repositories.ErrNotFound
}

func (s *memoryAccounts) get(spotifyUserID string) models.SpotifyAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[spotifyUserID]
}
