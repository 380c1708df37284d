package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/vibelab/backend/internal/apperror"
	"github.com/vibelab/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Logger       *slog.Logger
	DB           Pinger
	Users        UserService
	Sessions     SessionManager
	Playlists    PlaylistService
	Sharing      ShareEngine
	Spotify      SpotifyLinker
	Tracks       TrackProvider
	LoginLimiter RateLimiter
	ShareLimiter RateLimiter

	// TrustProxyHeaders enables chi's RealIP middleware.
	TrustProxyHeaders bool
}

// NewRouter wires every route onto a chi router.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	health := HealthHandler{DB: deps.DB}
	users := UserHandler{Users: deps.Users}
	tokens := TokenHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.LoginLimiter}
	playlists := PlaylistHandler{Playlists: deps.Playlists}
	share := ShareHandler{Engine: deps.Sharing, Limiter: deps.ShareLimiter}
	spotify := SpotifyHandler{Spotify: deps.Spotify, Tracks: deps.Tracks}

	r := chi.NewRouter()
	if deps.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(logger))
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondDetail(req.Context(), w, http.StatusNotFound, apperror.KindNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondDetail(req.Context(), w, http.StatusMethodNotAllowed, apperror.KindValidation, "method not allowed")
	})

	r.Get("/health", health.Handle)

	var verifier middleware.TokenVerifier = deps.Sessions
	if deps.Sessions == nil {
		verifier = rejectAll{}
	}
	required := middleware.Authenticate(verifier, true)
	optional := middleware.Authenticate(verifier, false)

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/register/", users.Register)
		r.Get("/users/check-username/", users.CheckUsername)
		r.Post("/token/", tokens.Obtain)
		r.Post("/token/refresh/", tokens.Refresh)
		r.Post("/share/validate/", share.Validate)

		r.Group(func(r chi.Router) {
			r.Use(required)
			r.Get("/users/profile/", users.Profile)
			r.Patch("/users/profile/", users.UpdateProfile)
			r.Put("/users/profile/photo", users.UploadPhoto)
			r.Get("/playlists/mine/", playlists.Mine)
			r.Post("/playlists/playlists/", playlists.Create)
			r.Delete("/playlists/playlist-items/{id}/delete/", playlists.RemoveItem)
			r.Get("/spotify/tracks/{id}", spotify.Track)
		})

		r.Group(func(r chi.Router) {
			r.Use(optional)
			r.Get("/playlists/playlists/", playlists.ListAll)
			r.Get("/playlists/playlists/{id}/", playlists.Get)
			r.Put("/playlists/playlists/{id}/", playlists.Update)
			r.Patch("/playlists/playlists/{id}/", playlists.Update)
			r.Delete("/playlists/playlists/{id}/", playlists.Delete)
			r.Post("/playlists/playlist-items/add/", playlists.AddItem)
		})
	})

	r.Get("/share/{token}/", share.Resolve)
	r.Post("/share/validate/", share.Validate)

	r.Group(func(r chi.Router) {
		r.Use(required)
		r.Post("/playlists/{id}/generate-share-link/", share.Generate)
		r.Get("/token/spotify/", spotify.Begin)
		r.Get("/spotify/login/", spotify.Begin)
		r.Get("/spotify/callback/", spotify.Callback)
	})

	return r
}

type rejectAll struct{}

func (rejectAll) Verify(string) (string, error) {
	return "", apperror.Unauthenticated("authentication unavailable")
}
