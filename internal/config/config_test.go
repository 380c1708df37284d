package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, "https://vibelab.netlify.app", cfg.ShareBaseURL)
	assert.Equal(t, []string{"playlist-modify-public", "playlist-modify-private"}, cfg.Spotify.Scopes)
	assert.Equal(t, "https://accounts.spotify.com/api/token", cfg.Spotify.TokenURL)
	assert.Equal(t, 10*time.Second, cfg.Spotify.HTTPTimeout)
	assert.False(t, cfg.Spotify.Enabled())
	assert.False(t, cfg.ObjectStore.Enabled())
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestTrustProxyHeadersFromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vibelab.toml")
	require.NoError(t, os.WriteFile(path, []byte("trust_proxy_headers = true\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.TrustProxyHeaders)

	t.Setenv("VIBELAB_TRUST_PROXY_HEADERS", "false")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vibelab.toml")
	contents := `
port = 9000
share_base_url = "https://share.example.com"
oauth_state_ttl = "5m"

[spotify]
client_id = "file-client"
client_secret = "file-secret"
redirect_uri = "https://app.example.com/callback"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	t.Setenv("VIBELAB_PORT", "9100")
	t.Setenv("SPOTIFY_SCOPES", "user-read-email  playlist-read-private")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.AppPort)
	assert.Equal(t, "https://share.example.com", cfg.ShareBaseURL)
	assert.Equal(t, 5*time.Minute, cfg.OAuthStateTTL)
	assert.Equal(t, "file-client", cfg.Spotify.ClientID)
	assert.True(t, cfg.Spotify.Enabled())
	assert.Equal(t, []string{"user-read-email", "playlist-read-private"}, cfg.Spotify.Scopes)
	assert.Equal(t, "https://api.spotify.com/v1", cfg.Spotify.APIBase)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("VIBELAB_PORT", "not-a-number")
	t.Setenv("VIBELAB_ACCESS_TOKEN_TTL", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, cfg.Validate())

	cfg.Spotify.ClientID = "id"
	cfg.Spotify.ClientSecret = "secret"
	assert.Error(t, cfg.Validate())

	cfg.Spotify.RedirectURI = "https://example.com/spotify/callback/"
	assert.NoError(t, cfg.Validate())
}
