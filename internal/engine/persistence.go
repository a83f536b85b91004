package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/prakash-iyer/cpm-engine/internal/cache"
	"github.com/prakash-iyer/cpm-engine/internal/circuitbreaker"
	"github.com/prakash-iyer/cpm-engine/internal/dlq"
	"github.com/prakash-iyer/cpm-engine/internal/retry"
	"github.com/prakash-iyer/cpm-engine/internal/storage"
	"github.com/prakash-iyer/cpm-engine/pkg/models"
)

// Persistor saves a recalculated project snapshot to durable storage
// and the Redis snapshot cache, guarded by a circuit breaker and a
// bounded retry so a flaky database or Redis node degrades the write
// path instead of taking the whole recalculation down with it. A
// repository write that keeps failing past the retry budget lands in
// the dead letter queue for later replay.
type Persistor struct {
	repo    storage.ProjectRepository
	cache   *cache.ProjectCache
	events  cache.EventPublisher
	dlq     *dlq.Manager
	breaker *circuitbreaker.CircuitBreaker
	retrier *retry.Executor
}

// NewPersistor builds a Persistor. cache, events, and dlqMgr may be
// nil to run storage-only (e.g. in tests).
func NewPersistor(repo storage.ProjectRepository, projectCache *cache.ProjectCache, events cache.EventPublisher, dlqMgr *dlq.Manager) *Persistor {
	if events == nil {
		events = cache.NoOpPublisher{}
	}

	return &Persistor{
		repo:    repo,
		cache:   projectCache,
		events:  events,
		dlq:     dlqMgr,
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
		retrier: retry.NewExecutor(retry.DefaultConfig()),
	}
}

// Save persists a recalculated snapshot: storage first, then a cache
// refresh with the new snapshot, then a recalc-completed event. A
// storage failure that survives retry and the circuit breaker is
// recorded in the DLQ and also returned to the caller; cache and event
// failures are ignored.
func (p *Persistor) Save(ctx context.Context, projectID string, tasks []*models.Task, cal *models.Calendar, stats models.ProjectStats) error {
	err := p.breaker.Execute(ctx, func() error {
		return p.retrier.Execute(ctx, func() error {
			return p.repo.Save(ctx, projectID, tasks, cal, stats)
		})
	})

	if err != nil {
		if p.dlq != nil {
			_ = p.dlq.AddFailedRecalculation(ctx, projectID, retry.DefaultConfig().MaxAttempts, err)
		}
		return fmt.Errorf("engine: persist project %s: %w", projectID, err)
	}

	if p.cache != nil {
		_ = p.cache.Set(ctx, projectID, &cache.Snapshot{Tasks: tasks, Calendar: cal, Stats: stats})
	}

	_ = p.events.Publish(cache.RecalcEvent{
		ProjectID:     projectID,
		TaskCount:     stats.TaskCount,
		CriticalCount: stats.CriticalCount,
		CalcTimeMs:    stats.CalcTimeMs,
		CompletedAt:   time.Now(),
	})

	return nil
}
