// Package events announces playlist changes to other services.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel playlist events go to.
const DefaultChannel = "playlist-events"

// Type names a playlist change.
type Type string

const (
	PlaylistCreated Type = "playlist.created"
	PlaylistUpdated Type = "playlist.updated"
	PlaylistDeleted Type = "playlist.deleted"
	PlaylistShared  Type = "playlist.shared"
	ItemAdded       Type = "item.added"
	ItemRemoved     Type = "item.removed"
)

// Event is the JSON payload sent on the channel.
type Event struct {
	Type       Type      `json:"type"`
	PlaylistID string    `json:"playlistId"`
	ItemID     string    `json:"itemId,omitempty"`
	ActorID    string    `json:"actorId,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisPublisher publishes events with Redis PUBLISH.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher returns a publisher writing to channel, or DefaultChannel when empty.
func NewRedisPublisher(client redis.UniversalClient, channel string) (*RedisPublisher, error) {
	if client == nil {
		return nil, errors.New("events: redis client is required")
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}, nil
}

// Publish encodes event and sends it. A zero At is stamped with the current time.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Channel returns the channel events are published to.
func (p *RedisPublisher) Channel() string { return p.channel }

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

var (
	_ Publisher = (*RedisPublisher)(nil)
	_ Publisher = NopPublisher{}
)
