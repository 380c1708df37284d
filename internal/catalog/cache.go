package catalog

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a resolved track stays cached.
const DefaultCacheTTL = time.Hour

type cacheEntry struct {
	track   Track
	expires time.Time
}

// CachingProvider wraps another Provider with a TTL cache keyed by track id.
// Track metadata does not depend on the user, so entries are shared.
type CachingProvider struct {
	base Provider
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingProvider returns a Provider that caches successful lookups for ttl.
func NewCachingProvider(base Provider, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachingProvider{
		base:  base,
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheEntry),
	}
}

// Track returns the cached track when fresh, otherwise it asks the underlying
// provider. Errors are not cached.
func (c *CachingProvider) Track(ctx context.Context, userID, spotifyID string) (Track, error) {
	if c == nil || c.base == nil {
		return Track{}, ErrProviderUnavailable
	}

	now := c.now()

	c.mu.RLock()
	entry, ok := c.items[spotifyID]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.track, nil
	}

	track, err := c.base.Track(ctx, userID, spotifyID)
	if err != nil {
		return Track{}, err
	}

	c.mu.Lock()
	for key, stale := range c.items {
		if !now.Before(stale.expires) {
			delete(c.items, key)
		}
	}
	c.items[spotifyID] = cacheEntry{track: track, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return track, nil
}

var _ Provider = (*CachingProvider)(nil)
