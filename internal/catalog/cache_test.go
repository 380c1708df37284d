package catalog

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubProvider struct {
	track Track
	err   error
	calls int
}

func (s *stubProvider) Track(context.Context, string, string) (Track, error) {
	s.calls++
	if s.err != nil {
		return Track{}, s.err
	}
	return s.track, nil
}

func TestCachingProviderTrack(t *testing.T) {
	base := &stubProvider{track: Track{SpotifyID: "abc", Title: "Dreams"}}
	cache := NewCachingProvider(base, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	ctx := context.Background()

	track, err := cache.Track(ctx, "user-1", "abc")
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if track.Title != "Dreams" {
		t.Fatalf("unexpected track: %+v", track)
	}

	if _, err := cache.Track(ctx, "user-2", "abc"); err != nil {
		t.Fatalf("track: %v", err)
	}
	if base.calls != 1 {
		t.Fatalf("expected cached result got %d calls", base.calls)
	}

	now = now.Add(2 * time.Minute)
	if _, err := cache.Track(ctx, "user-1", "abc"); err != nil {
		t.Fatalf("track: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected expired entry to be refetched, got %d calls", base.calls)
	}
}

func TestCachingProviderErrors(t *testing.T) {
	cache := NewCachingProvider(nil, time.Minute)
	if _, err := cache.Track(context.Background(), "u", "abc"); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable got %v", err)
	}

	base := &stubProvider{err: errors.New("boom")}
	cache = NewCachingProvider(base, time.Minute)
	for i := 0; i < 2; i++ {
		if _, err := cache.Track(context.Background(), "u", "abc"); err == nil {
			t.Fatal("expected error")
		}
	}
	if base.calls != 2 {
		t.Fatalf("errors must not be cached, got %d calls", base.calls)
	}
}

func TestNewCachingProviderDefaultsTTL(t *testing.T) {
	cache := NewCachingProvider(&stubProvider{}, 0)
	if cache.ttl != DefaultCacheTTL {
		t.Fatalf("expected default ttl, got %s", cache.ttl)
	}
}
