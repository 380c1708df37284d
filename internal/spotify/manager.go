// Package spotify links user accounts to Spotify and keeps their access
// tokens fresh.
package spotify

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/vibelab/backend/internal/apperror"
	"github.com/vibelab/backend/internal/config"
	"github.com/vibelab/backend/internal/logging"
	"github.com/vibelab/backend/internal/models"
	"github.com/vibelab/backend/internal/repositories"
)

const (
	stateLength     = 32
	stateAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	refreshMargin   = 30 * time.Second
	defaultLifetime = 3600 * time.Second
	defaultStateTTL = 10 * time.Minute
)

// AccountStore persists linked Spotify credentials.
type AccountStore interface {
	Upsert(ctx context.Context, account models.SpotifyAccount) (models.SpotifyAccount, error)
	FindByUser(ctx context.Context, userID string) (models.SpotifyAccount, error)
	UpdateTokens(ctx context.Context, id string, tokens models.SpotifyTokens, updatedAt time.Time) error
}

// Manager drives the authorization code flow and token refresh.
type Manager struct {
	oauth    *oauth2.Config
	apiBase  string
	client   *http.Client
	accounts AccountStore
	states   StateStore
	stateTTL time.Duration
	now      func() time.Time
}

// NewManager builds a manager from the Spotify client registration.
func NewManager(cfg config.SpotifyConfig, accounts AccountStore, states StateStore, stateTTL time.Duration) (*Manager, error) {
	if accounts == nil {
		return nil, errors.New("spotify: account store is required")
	}
	if states == nil {
		return nil, errors.New("spotify: state store is required")
	}
	if !cfg.Enabled() {
		return nil, errors.New("spotify: client id and secret are required")
	}
	if stateTTL <= 0 {
		stateTTL = defaultStateTTL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Manager{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase:  strings.TrimRight(cfg.APIBase, "/"),
		client:   &http.Client{Timeout: timeout},
		accounts: accounts,
		states:   states,
		stateTTL: stateTTL,
		now:      time.Now,
	}, nil
}

// BeginAuthorization records a fresh state for userID and returns the URL the
// user should be sent to.
func (m *Manager) BeginAuthorization(ctx context.Context, userID string) (string, string, error) {
	if userID == "" {
		return "", "", apperror.Unauthenticated("authentication required")
	}

	state, err := randomState(stateLength)
	if err != nil {
		return "", "", apperror.Internal(fmt.Errorf("generate oauth state: %w", err))
	}
	if err := m.states.Save(ctx, userID, state, m.stateTTL); err != nil {
		return "", "", apperror.Internal(err)
	}

	authorizeURL := m.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "false"))
	logging.FromContext(ctx).Info("spotify authorization started", slog.String("userId", userID))
	return authorizeURL, state, nil
}

// HandleCallback completes the flow: it consumes the pending state, exchanges
// the code, identifies the Spotify user and stores the credentials. A state is
// spent by the first callback that presents it, whether or not that callback
// succeeds.
func (m *Manager) HandleCallback(ctx context.Context, userID, receivedState, code, providerError string) (account models.SpotifyAccount, err error) {
	ctx, span := logging.StartSpan(ctx, "spotify.callback", slog.String("userId", userID))
	defer func() { span.End(err) }()

	if providerError != "" {
		return models.SpotifyAccount{}, apperror.UpstreamAuth("spotify auth error: "+providerError, nil)
	}

	expected, err := m.states.Take(ctx, userID)
	if err != nil && !errors.Is(err, ErrStateNotFound) {
		return models.SpotifyAccount{}, apperror.Internal(err)
	}
	if expected == "" || code == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(receivedState)) != 1 {
		return models.SpotifyAccount{}, apperror.StateMismatch("invalid state or missing code")
	}

	token, err := m.oauth.Exchange(m.clientContext(ctx), code)
	if err != nil {
		return models.SpotifyAccount{}, apperror.UpstreamAuth("spotify token exchange failed", err)
	}

	spotifyUserID, err := m.fetchProfileID(ctx, token.AccessToken)
	if err != nil {
		return models.SpotifyAccount{}, err
	}

	now := m.now().UTC()
	account, err = m.accounts.Upsert(ctx, models.SpotifyAccount{
		UserID:         userID,
		SpotifyUserID:  spotifyUserID,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenExpiresAt: now.Add(tokenLifetime(token)),
		Scope:          m.grantedScope(token, ""),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return models.SpotifyAccount{}, apperror.Internal(err)
	}

	logging.FromContext(ctx).Info("spotify account linked", slog.String("spotifyUserId", account.SpotifyUserID))
	return account, nil
}

// EnsureValidAccessToken refreshes the account's token when it expires within
// 30 seconds. Failed refreshes leave the stored credentials untouched.
func (m *Manager) EnsureValidAccessToken(ctx context.Context, account models.SpotifyAccount) (_ models.SpotifyAccount, err error) {
	now := m.now().UTC()
	if account.TokenExpiresAt.After(now.Add(refreshMargin)) {
		return account, nil
	}

	ctx, span := logging.StartSpan(ctx, "spotify.refresh", slog.String("accountId", account.ID))
	defer func() { span.End(err) }()

	if account.RefreshToken == "" {
		return models.SpotifyAccount{}, apperror.UpstreamAuth("spotify refresh token missing", nil)
	}

	source := m.oauth.TokenSource(m.clientContext(ctx), &oauth2.Token{RefreshToken: account.RefreshToken})
	token, err := source.Token()
	if err != nil {
		return models.SpotifyAccount{}, apperror.UpstreamAuth("spotify token refresh failed", err)
	}

	tokens := models.SpotifyTokens{
		AccessToken:  token.AccessToken,
		RefreshToken: account.RefreshToken,
		ExpiresAt:    now.Add(tokenLifetime(token)),
		Scope:        m.grantedScope(token, account.Scope),
	}
	if token.RefreshToken != "" {
		tokens.RefreshToken = token.RefreshToken
	}

	if err := m.accounts.UpdateTokens(ctx, account.ID, tokens, now); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SpotifyAccount{}, apperror.NotFound("spotify account not linked")
		}
		return models.SpotifyAccount{}, apperror.Internal(err)
	}

	account.AccessToken = tokens.AccessToken
	account.RefreshToken = tokens.RefreshToken
	account.TokenExpiresAt = tokens.ExpiresAt
	account.Scope = tokens.Scope
	account.UpdatedAt = now
	return account, nil
}

// AccessTokenForUser loads the user's linked account with a usable token.
func (m *Manager) AccessTokenForUser(ctx context.Context, userID string) (models.SpotifyAccount, error) {
	account, err := m.accounts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SpotifyAccount{}, apperror.NotFound("spotify account not linked")
		}
		return models.SpotifyAccount{}, apperror.Internal(err)
	}
	return m.EnsureValidAccessToken(ctx, account)
}

// APIBase returns the Web API root used for profile and catalog calls.
func (m *Manager) APIBase() string { return m.apiBase }

// HTTPClient returns the client used for every outbound call.
func (m *Manager) HTTPClient() *http.Client { return m.client }

func (m *Manager) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.client)
}

func (m *Manager) fetchProfileID(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.apiBase+"/me", nil)
	if err != nil {
		return "", apperror.Internal(fmt.Errorf("build profile request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", apperror.UpstreamAuth("failed to fetch spotify profile", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", apperror.UpstreamAuth("failed to fetch spotify profile",
			fmt.Errorf("profile status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var profile struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", apperror.UpstreamAuth("failed to fetch spotify profile", fmt.Errorf("decode profile: %w", err))
	}
	if profile.ID == "" {
		return "", apperror.UpstreamAuth("failed to fetch spotify profile", errors.New("profile has no id"))
	}
	return profile.ID, nil
}

// grantedScope prefers the scope echoed by the token endpoint, then fallback,
// then the requested scopes.
func (m *Manager) grantedScope(token *oauth2.Token, fallback string) string {
	if scope, ok := token.Extra("scope").(string); ok && scope != "" {
		return scope
	}
	if fallback != "" {
		return fallback
	}
	return strings.Join(m.oauth.Scopes, " ")
}

// tokenLifetime reads expires_in from the raw response. A missing value means one hour.
func tokenLifetime(token *oauth2.Token) time.Duration {
	var seconds int64
	switch v := token.Extra("expires_in").(type) {
	case float64:
		seconds = int64(v)
	case int64:
		seconds = v
	case int:
		seconds = int64(v)
	case json.Number:
		seconds, _ = v.Int64()
	case string:
		seconds, _ = strconv.ParseInt(v, 10, 64)
	}
	if seconds <= 0 {
		return defaultLifetime
	}
	return time.Duration(seconds) * time.Second
}

func randomState(n int) (string, error) {
	limit := big.NewInt(int64(len(stateAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = stateAlphabet[idx.Int64()]
	}
	return string(out), nil
}
