// Package recalc distributes CPM recalculation requests across
// worker processes using NATS JetStream, grounded on the teacher's
// internal/executor.DistributedExecutor: a work-queue stream for
// pending requests, a durable consumer per worker pool, and explicit
// ack/nak so a crashed worker's in-flight request is redelivered
// rather than lost.
package recalc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// RequestsStream is the JetStream stream holding pending
	// recalculation requests.
	RequestsStream = "PROJECT_RECALC"

	// RequestsSubject is the subject new requests are published to.
	RequestsSubject = "projects.recalc"

	// consumerName is the durable consumer name shared by every
	// worker process, so JetStream load-balances deliveries across
	// them instead of redelivering to each.
	consumerName = "recalc-workers"
)

// Request asks a worker to recompute the given project's schedule.
type Request struct {
	ProjectID  string    `json:"project_id"`
	Reason     string    `json:"reason"`
	Requested  time.Time `json:"requested_at"`
	Attempt    int       `json:"attempt"`
}

// Producer publishes recalculation requests onto the JetStream queue.
type Producer struct {
	js nats.JetStreamContext
}

// NewProducer connects to NATS and ensures the request stream exists.
func NewProducer(natsURL string) (*Producer, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("recalc: connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("recalc: create JetStream context: %w", err)
	}

	if err := ensureStream(js); err != nil {
		nc.Close()
		return nil, err
	}

	return &Producer{js: js}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      RequestsStream,
		Subjects:  []string{RequestsSubject},
		Retention: nats.WorkQueuePolicy,
		MaxAge:    24 * time.Hour,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		return fmt.Errorf("recalc: create requests stream: %w", err)
	}
	return nil
}

// Enqueue publishes a recalculation request for projectID.
func (p *Producer) Enqueue(ctx context.Context, projectID, reason string) error {
	req := Request{ProjectID: projectID, Reason: reason, Requested: time.Now(), Attempt: 1}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("recalc: marshal request: %w", err)
	}

	if _, err := p.js.Publish(RequestsSubject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("recalc: publish request: %w", err)
	}
	return nil
}

// Handler processes one recalculation request. Returning an error
// causes the message to be redelivered (up to maxDeliver times,
// configured on the consumer); returning nil acks it.
type Handler func(ctx context.Context, req Request) error

// Consumer pulls recalculation requests off the queue and runs them
// through a Handler.
type Consumer struct {
	js  nats.JetStreamContext
	sub *nats.Subscription
}

// NewConsumer connects to NATS, ensures the stream exists, and
// prepares (without yet starting) a durable pull consumer.
func NewConsumer(natsURL string) (*Consumer, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("recalc: connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("recalc: create JetStream context: %w", err)
	}

	if err := ensureStream(js); err != nil {
		nc.Close()
		return nil, err
	}

	return &Consumer{js: js}, nil
}

// Start begins pulling requests and dispatching them to handle,
// blocking until ctx is canceled.
func (c *Consumer) Start(ctx context.Context, handle Handler) error {
	sub, err := c.js.PullSubscribe(RequestsSubject, consumerName,
		nats.MaxDeliver(5),
		nats.AckWait(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("recalc: subscribe: %w", err)
	}
	c.sub = sub

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msgs, err := sub.Fetch(1, nats.MaxWait(2*time.Second))
		if err != nil {
			if err == nats.ErrTimeout {
				continue
			}
			return fmt.Errorf("recalc: fetch: %w", err)
		}

		for _, msg := range msgs {
			var req Request
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				msg.Term()
				continue
			}

			if err := handle(ctx, req); err != nil {
				msg.Nak()
				continue
			}
			msg.Ack()
		}
	}
}

// Stop unsubscribes the consumer.
func (c *Consumer) Stop() error {
	if c.sub == nil {
		return nil
	}
	return c.sub.Unsubscribe()
}
