package redis

import (
	"context"
	"time"
)

// EventCache remembers processed webhook event ids so redeliveries can be
// short-circuited before touching the database. It is a fast path only: the
// payment row's conditional update stays the correctness guard, so losing a
// cache entry is harmless.
type EventCache struct {
	client *Client
	ttl    time.Duration
}

func NewEventCache(client *Client, ttl time.Duration) *EventCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EventCache{client: client, ttl: ttl}
}

func eventKey(eventID string) string { return "webhook:event:" + eventID }

// Seen reports whether the event id was already marked as handled. It never
// marks: a delivery that fails mid-handling must stay retryable, so the mark
// only happens through Mark after the handler succeeded. Redis errors degrade
// to "not seen" so the database path still runs.
func (c *EventCache) Seen(ctx context.Context, eventID string) bool {
	if eventID == "" {
		return false
	}
	present, err := c.client.Exists(ctx, eventKey(eventID))
	if err != nil {
		return false
	}
	return present
}

// Mark records the event id as handled. Called only after the use case
// returned without error; a failed Mark just means one extra idempotent
// replay on redelivery.
func (c *EventCache) Mark(ctx context.Context, eventID string) {
	if eventID == "" {
		return
	}
	_ = c.client.Set(ctx, eventKey(eventID), 1, c.ttl)
}
