package spotify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStateNotFound is returned when no authorization is pending for a user.
var ErrStateNotFound = errors.New("oauth state not found")

// StateStore keeps the pending authorization state for each user.
// Saving a new state replaces the previous one. Take returns the state and
// removes it in one step, so each state is accepted at most once.
type StateStore interface {
	Save(ctx context.Context, userID, state string, ttl time.Duration) error
	Take(ctx context.Context, userID string) (string, error)
}

type pendingState struct {
	value   string
	expires time.Time
}

// MemoryStateStore holds states in process memory.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]pendingState
	now    func() time.Time
}

// NewMemoryStateStore returns an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]pendingState), now: time.Now}
}

// Save implements StateStore.
func (s *MemoryStateStore) Save(_ context.Context, userID, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, pending := range s.states {
		if !now.Before(pending.expires) {
			delete(s.states, id)
		}
	}
	s.states[userID] = pendingState{value: state, expires: now.Add(ttl)}
	return nil
}

// Take implements StateStore.
func (s *MemoryStateStore) Take(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.states[userID]
	if !ok {
		return "", ErrStateNotFound
	}
	delete(s.states, userID)
	if !s.now().Before(pending.expires) {
		return "", ErrStateNotFound
	}
	return pending.value, nil
}

// RedisStateStore keeps states in Redis with a key expiry.
type RedisStateStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStateStore builds a store whose keys start with prefix.
func NewRedisStateStore(client redis.UniversalClient, prefix string) *RedisStateStore {
	if prefix == "" {
		prefix = "vibelab:spotify:state:"
	}
	return &RedisStateStore{client: client, prefix: prefix}
}

// Save implements StateStore.
func (s *RedisStateStore) Save(ctx context.Context, userID, state string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+userID, state, ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// Take implements StateStore using GETDEL.
func (s *RedisStateStore) Take(ctx context.Context, userID string) (string, error) {
	state, err := s.client.GetDel(ctx, s.prefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("take oauth state: %w", err)
	}
	return state, nil
}

var (
	_ StateStore = (*MemoryStateStore)(nil)
	_ StateStore = (*RedisStateStore)(nil)
)
