package handlers

import (
	"time"

	"github.com/vibelab/backend/internal/models"
	"github.com/vibelab/backend/internal/sharing"
)

type userView struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	ProfilePhoto string    `json:"profile_photo"`
	DateJoined   time.Time `json:"date_joined"`
}

func newUserView(u models.User) userView {
	return userView{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		ProfilePhoto: u.ProfilePhoto,
		DateJoined:   u.CreatedAt,
	}
}

type ownerView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type songView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album"`
	SpotifyID string    `json:"spotify_id"`
	AddedAt   time.Time `json:"added_at"`
}

type itemView struct {
	ID      string    `json:"id"`
	Song    songView  `json:"song"`
	Likes   int       `json:"likes"`
	AddedAt time.Time `json:"added_at"`
}

func newItemView(item models.PlaylistItem) itemView {
	return itemView{
		ID: item.ID,
		Song: songView{
			ID:        item.Song.ID,
			Title:     item.Song.Title,
			Artist:    item.Song.Artist,
			Album:     item.Song.Album,
			SpotifyID: item.Song.SpotifyID,
			AddedAt:   item.Song.AddedAt,
		},
		Likes:   item.Likes,
		AddedAt: item.AddedAt,
	}
}

// playlistView omits accessCode unless rendered for the owner.
type playlistView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Vibe        string     `json:"vibe"`
	VibeLabel   string     `json:"vibe_label"`
	IsOpen      bool       `json:"is_open"`
	AccessCode  *string    `json:"accessCode,omitempty"`
	Owner       ownerView  `json:"owner"`
	DateCreated time.Time  `json:"date_created"`
	Items       []itemView `json:"items"`
}

func newPlaylistView(p models.Playlist, r sharing.Requester) playlistView {
	view := playlistView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Vibe:        string(p.Vibe),
		VibeLabel:   p.Vibe.Label(),
		IsOpen:      p.IsOpen,
		Owner:       ownerView{ID: p.OwnerID, Username: p.OwnerUsername},
		DateCreated: p.DateCreated,
		Items:       make([]itemView, 0, len(p.Items)),
	}
	if r.IsOwner(p) {
		code := p.AccessCode
		view.AccessCode = &code
	}
	for _, item := range p.Items {
		view.Items = append(view.Items, newItemView(item))
	}
	return view
}
