// Package dlq holds recalculation requests that failed repeatedly, so
// an operator can inspect and replay them instead of losing them
// silently when a worker gives up.
package dlq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when a DLQ entry is not found.
	ErrNotFound = errors.New("dlq entry not found")

	// ErrAlreadyExists is returned when trying to add a duplicate entry.
	ErrAlreadyExists = errors.New("dlq entry already exists")
)

// Entry represents a project recalculation that exhausted its retries.
type Entry struct {
	ID              string                 `json:"id"`
	ProjectID       string                 `json:"project_id"`
	FailureReason   string                 `json:"failure_reason"`
	FailureTime     time.Time              `json:"failure_time"`
	Attempts        int                    `json:"attempts"`
	LastAttemptTime time.Time              `json:"last_attempt_time"`
	ErrorMessage    string                 `json:"error_message"`
	Metadata        map[string]interface{} `json:"metadata"`
	Replayed        bool                   `json:"replayed"`
	ReplayedAt      *time.Time             `json:"replayed_at,omitempty"`
}

// Queue represents a dead letter queue for failed recalculations.
type Queue interface {
	Add(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, filters *Filters) ([]*Entry, error)
	Replay(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Purge(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// Filters holds filtering options for listing DLQ entries.
type Filters struct {
	ProjectID string
	Replayed  *bool
	After     *time.Time
	Before    *time.Time
	Limit     int
	Offset    int
}

// MemoryQueue is an in-memory implementation of the DLQ, used in tests
// and for single-node deployments that don't need durability beyond
// the project snapshot itself.
type MemoryQueue struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryQueue creates a new in-memory DLQ.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		entries: make(map[string]*Entry),
	}
}

// Add adds an entry to the DLQ.
func (q *MemoryQueue) Add(ctx context.Context, entry *Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.entries[entry.ID]; exists {
		return ErrAlreadyExists
	}

	q.entries[entry.ID] = entry
	return nil
}

// Get retrieves an entry by ID.
func (q *MemoryQueue) Get(ctx context.Context, id string) (*Entry, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	entry, exists := q.entries[id]
	if !exists {
		return nil, ErrNotFound
	}

	return entry, nil
}

// List lists all entries matching the given filters.
func (q *MemoryQueue) List(ctx context.Context, filters *Filters) ([]*Entry, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var result []*Entry
	for _, entry := range q.entries {
		if filters != nil {
			if filters.ProjectID != "" && entry.ProjectID != filters.ProjectID {
				continue
			}
			if filters.Replayed != nil && entry.Replayed != *filters.Replayed {
				continue
			}
			if filters.After != nil && entry.FailureTime.Before(*filters.After) {
				continue
			}
			if filters.Before != nil && entry.FailureTime.After(*filters.Before) {
				continue
			}
		}

		result = append(result, entry)
	}

	if filters != nil {
		if filters.Offset > 0 && filters.Offset < len(result) {
			result = result[filters.Offset:]
		} else if filters.Offset >= len(result) {
			result = []*Entry{}
		}

		if filters.Limit > 0 && filters.Limit < len(result) {
			result = result[:filters.Limit]
		}
	}

	return result, nil
}

// Replay marks an entry as replayed.
func (q *MemoryQueue) Replay(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, exists := q.entries[id]
	if !exists {
		return ErrNotFound
	}

	now := time.Now()
	entry.Replayed = true
	entry.ReplayedAt = &now

	return nil
}

// Delete removes an entry from the DLQ.
func (q *MemoryQueue) Delete(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.entries[id]; !exists {
		return ErrNotFound
	}

	delete(q.entries, id)
	return nil
}

// Purge removes all entries from the DLQ.
func (q *MemoryQueue) Purge(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = make(map[string]*Entry)
	return nil
}

// Count returns the number of entries in the DLQ.
func (q *MemoryQueue) Count(ctx context.Context) (int, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return len(q.entries), nil
}

// Manager wraps a Queue with failure-accounting callbacks, so callers
// can alert on a growing backlog without polling Count themselves.
type Manager struct {
	queue              Queue
	onEntryAdded       func(*Entry)
	onThresholdReached func(count int)
	threshold          int
}

// NewManager creates a new DLQ manager.
func NewManager(queue Queue, threshold int) *Manager {
	return &Manager{
		queue:     queue,
		threshold: threshold,
	}
}

// AddFailedRecalculation records a project recalculation that could
// not complete after retry exhaustion.
func (m *Manager) AddFailedRecalculation(ctx context.Context, projectID string, attempts int, cause error) error {
	errorMessage := ""
	if cause != nil {
		errorMessage = cause.Error()
	}

	entry := &Entry{
		ID:              projectID,
		ProjectID:       projectID,
		FailureReason:   "max_retries_exceeded",
		FailureTime:     time.Now(),
		Attempts:        attempts,
		LastAttemptTime: time.Now(),
		ErrorMessage:    errorMessage,
		Metadata:        make(map[string]interface{}),
		Replayed:        false,
	}

	if err := m.queue.Add(ctx, entry); err != nil {
		return err
	}

	if m.onEntryAdded != nil {
		m.onEntryAdded(entry)
	}

	if m.threshold > 0 {
		count, err := m.queue.Count(ctx)
		if err == nil && count >= m.threshold {
			if m.onThresholdReached != nil {
				m.onThresholdReached(count)
			}
		}
	}

	return nil
}

// OnEntryAdded sets a callback for when an entry is added.
func (m *Manager) OnEntryAdded(callback func(*Entry)) {
	m.onEntryAdded = callback
}

// OnThresholdReached sets a callback for when the entry count crosses
// the configured threshold.
func (m *Manager) OnThresholdReached(callback func(count int)) {
	m.onThresholdReached = callback
}

// GetQueue returns the underlying queue.
func (m *Manager) GetQueue() Queue {
	return m.queue
}

// ToJSON converts an entry to JSON.
func (e *Entry) ToJSON() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FromJSON creates an entry from JSON.
func FromJSON(data string) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
