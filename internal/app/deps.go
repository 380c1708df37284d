package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vibelab/backend/internal/auth"
	"github.com/vibelab/backend/internal/catalog"
	"github.com/vibelab/backend/internal/config"
	"github.com/vibelab/backend/internal/db"
	"github.com/vibelab/backend/internal/events"
	"github.com/vibelab/backend/internal/handlers"
	"github.com/vibelab/backend/internal/middleware"
	"github.com/vibelab/backend/internal/playlists"
	"github.com/vibelab/backend/internal/repositories"
	"github.com/vibelab/backend/internal/sharing"
	"github.com/vibelab/backend/internal/spotify"
	"github.com/vibelab/backend/internal/storage"
	"github.com/vibelab/backend/internal/users"
)

const limiterIdleTTL = 10 * time.Minute

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup releases optional clients.
func buildDependencies(ctx context.Context, conn db.DB, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(), error) {
	cleanup := func() {}

	var publisher events.Publisher = events.NopPublisher{}
	var states spotify.StateStore = spotify.NewMemoryStateStore()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		cleanup = func() { _ = client.Close() }

		redisPublisher, err := events.NewRedisPublisher(client, cfg.EventsChannel)
		if err != nil {
			cleanup()
			return handlers.Dependencies{}, nil, err
		}
		publisher = redisPublisher
		states = spotify.NewRedisStateStore(client, "")
	} else {
		logger.Warn("redis not configured, using in-process oauth state and dropping playlist events")
	}

	var photos users.PhotoStore
	if cfg.ObjectStore.Enabled() {
		s3, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			cleanup()
			return handlers.Dependencies{}, nil, err
		}
		photos = s3
	}

	playlistRepo := repositories.NewPostgresPlaylistRepository(conn)
	playlistOpts := []playlists.Option{playlists.WithPublisher(publisher)}

	deps := handlers.Dependencies{
		Logger:       logger,
		DB:           conn,
		Users:        users.NewService(repositories.NewPostgresUserRepository(conn), photos, int64(cfg.MaxPhotoBytes)),
		Sessions:     auth.NewManager([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL, repositories.NewPostgresSessionStore(conn)),
		Sharing:      sharing.NewEngine(playlistRepo, cfg.ShareBaseURL),
		LoginLimiter: middleware.NewKeyedRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst, limiterIdleTTL),
		ShareLimiter: middleware.NewKeyedRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst, limiterIdleTTL),

		TrustProxyHeaders: cfg.TrustProxyHeaders,
	}

	if cfg.Spotify.Enabled() {
		manager, err := spotify.NewManager(cfg.Spotify, repositories.NewPostgresSpotifyAccountRepository(conn), states, cfg.OAuthStateTTL)
		if err != nil {
			cleanup()
			return handlers.Dependencies{}, nil, err
		}
		tracks := catalog.NewCachingProvider(
			catalog.NewSpotifyProvider(manager, manager.APIBase(), manager.HTTPClient()),
			cfg.CatalogCacheTTL,
		)
		deps.Spotify = manager
		deps.Tracks = tracks
		playlistOpts = append(playlistOpts, playlists.WithCatalog(tracks))
	} else {
		logger.Warn("spotify client not configured, account linking disabled")
	}

	deps.Playlists = playlists.NewService(playlistRepo, playlistOpts...)
	return deps, cleanup, nil
}
