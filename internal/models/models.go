package models

import "time"

// User represents a VibeLab account.
type User struct {
	ID           string
	Username     string
	FirstName    string
	LastName     string
	ProfilePhoto string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Playlist is a named, owned collection of songs.
// AccessCode and ShareToken are empty when unset.
type Playlist struct {
	ID            string
	Name          string
	Description   string
	Vibe          Vibe
	IsOpen        bool
	AccessCode    string
	ShareToken    string
	OwnerID       string
	OwnerUsername string
	DateCreated   time.Time
	Items         []PlaylistItem
}

// Song is a catalog track referenced by playlists, unique per SpotifyID.
type Song struct {
	ID        string
	Title     string
	Artist    string
	Album     string
	SpotifyID string
	AddedAt   time.Time
}

// PlaylistItem is the membership of a song in a playlist.
type PlaylistItem struct {
	ID         string
	PlaylistID string
	Song       Song
	Likes      int
	AddedAt    time.Time
}

// SpotifyAccount links a local user to a Spotify identity and stores its OAuth credentials.
type SpotifyAccount struct {
	ID             string
	UserID         string
	SpotifyUserID  string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time
	Scope          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SpotifyTokens is the set of credential fields rewritten by a token refresh.
type SpotifyTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scope        string
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
