// Package events broadcasts sync outcomes to external real-time
// subscribers over Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/pkg/logger"
)

// DefaultChannel is the pub/sub channel sync events are published on.
const DefaultChannel = "gemhub:inventory:events"

// Publisher broadcasts one sync outcome. Publishing is best-effort; a
// delivery failure never fails the sync.
type Publisher interface {
	PublishSyncResult(ctx context.Context, owner, source string, result model.SyncResult)
}

// SyncEvent is the published payload.
type SyncEvent struct {
	Owner     string           `json:"owner"`
	Source    string           `json:"source"`
	Result    model.SyncResult `json:"result"`
	Timestamp time.Time        `json:"timestamp"`
}

// RedisPublisher publishes sync events to a Redis channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
}

// NewRedisPublisher builds a publisher on an existing Redis client.
func NewRedisPublisher(client *redis.Client, channel string, log *logger.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel, log: log}
}

func (p *RedisPublisher) PublishSyncResult(ctx context.Context, owner, source string, result model.SyncResult) {
	event := SyncEvent{
		Owner:     owner,
		Source:    source,
		Result:    result,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Warn("failed to encode sync event", "owner", owner, "error", err)
		return
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.log.Warn("failed to publish sync event", "owner", owner, "error", err)
	}
}

// NopPublisher discards all events. Used when Redis is unavailable.
type NopPublisher struct{}

func (NopPublisher) PublishSyncResult(context.Context, string, string, model.SyncResult) {}
