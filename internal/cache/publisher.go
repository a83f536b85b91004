package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RecalcChannel is the Redis pub/sub channel for recalculation-
// completed events.
const RecalcChannel = "cpm:recalc_completed"

// RecalcEvent announces that a project's CPM computation finished.
type RecalcEvent struct {
	ProjectID     string    `json:"project_id"`
	TaskCount     int       `json:"task_count"`
	CriticalCount int       `json:"critical_count"`
	CalcTimeMs    float64   `json:"calc_time_ms"`
	CompletedAt   time.Time `json:"completed_at"`
}

// EventPublisher publishes recalculation-completed events.
type EventPublisher interface {
	Publish(event RecalcEvent) error
}

// NoOpPublisher discards every event; used in tests and single-node
// setups with no subscribers.
type NoOpPublisher struct{}

// Publish implements EventPublisher.
func (NoOpPublisher) Publish(RecalcEvent) error { return nil }

// RedisPublisher publishes recalculation events to a Redis channel.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a new Redis event publisher.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish publishes a recalculation-completed event to Redis.
func (p *RedisPublisher) Publish(event RecalcEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, RecalcChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}
	return nil
}

// Subscribe listens for recalculation-completed events until ctx is
// canceled.
func (p *RedisPublisher) Subscribe(ctx context.Context, handler func(RecalcEvent) error) error {
	pubsub := p.client.Subscribe(ctx, RecalcChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-ch:
			var event RecalcEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			if err := handler(event); err != nil {
				continue
			}
		}
	}
}

// MultiPublisher fans an event out to several publishers, e.g. Redis
// plus a DLQ-aware logger.
type MultiPublisher struct {
	publishers []EventPublisher
}

// NewMultiPublisher creates a publisher that publishes to multiple
// publishers.
func NewMultiPublisher(publishers ...EventPublisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers}
}

// Publish publishes to all configured publishers, continuing past any
// individual failure.
func (p *MultiPublisher) Publish(event RecalcEvent) error {
	for _, publisher := range p.publishers {
		if err := publisher.Publish(event); err != nil {
			continue
		}
	}
	return nil
}
