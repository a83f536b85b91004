// Package cache fronts internal/storage with a Redis-backed snapshot
// cache and publishes recalculation-completed events, grounded on the
// teacher's internal/state.RedisPublisher / MultiPublisher split:
// the cache itself is a plain key-value store, and event fan-out to
// other interested processes (the scheduler, websocket bridges) is a
// separate concern layered on top.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prakash-iyer/cpm-engine/pkg/models"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Minute

func snapshotKey(projectID string) string {
	return fmt.Sprintf("cpm:project:%s:snapshot", projectID)
}

// Snapshot is the cached task/calendar/stats state for one project.
type Snapshot struct {
	Tasks    []*models.Task       `json:"tasks"`
	Calendar *models.Calendar     `json:"calendar"`
	Stats    models.ProjectStats `json:"stats"`
}

// ProjectCache caches project snapshots in Redis. engine.Persistor
// writes a snapshot after each save; the API handlers and the worker
// load projects from storage and do not read from this cache.
type ProjectCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProjectCache creates a project snapshot cache.
func NewProjectCache(client *redis.Client) *ProjectCache {
	return &ProjectCache{client: client, ttl: defaultTTL}
}

// Get returns the cached snapshot for a project, or (nil, false) on a
// cache miss.
func (c *ProjectCache) Get(ctx context.Context, projectID string) (*Snapshot, bool, error) {
	data, err := c.client.Get(ctx, snapshotKey(projectID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("cache: decode snapshot: %w", err)
	}
	return &snap, true, nil
}

// Set stores a project snapshot with the cache's TTL.
func (c *ProjectCache) Set(ctx context.Context, projectID string, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cache: encode snapshot: %w", err)
	}

	if err := c.client.Set(ctx, snapshotKey(projectID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set snapshot: %w", err)
	}
	return nil
}

// Invalidate removes a cached snapshot, forcing the next read to go
// to storage.
func (c *ProjectCache) Invalidate(ctx context.Context, projectID string) error {
	if err := c.client.Del(ctx, snapshotKey(projectID)).Err(); err != nil {
		return fmt.Errorf("cache: invalidate: %w", err)
	}
	return nil
}
