package dlq

import (
	"context"
	"testing"
	"time"
)

func TestMemoryQueue_AddAndGet(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	entry := &Entry{
		ID:            "entry1",
		ProjectID:     "proj1",
		FailureReason: "timeout",
		FailureTime:   time.Now(),
		Attempts:      3,
		ErrorMessage:  "recalculation timed out",
		Replayed:      false,
	}

	if err := q.Add(ctx, entry); err != nil {
		t.Fatalf("failed to add entry: %v", err)
	}

	retrieved, err := q.Get(ctx, "entry1")
	if err != nil {
		t.Fatalf("failed to get entry: %v", err)
	}
	if retrieved.ID != entry.ID {
		t.Errorf("expected ID %s, got %s", entry.ID, retrieved.ID)
	}
}

func TestMemoryQueue_AddDuplicate(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	entry := &Entry{ID: "entry1", ProjectID: "proj1", FailureTime: time.Now()}

	if err := q.Add(ctx, entry); err != nil {
		t.Fatalf("failed to add entry: %v", err)
	}
	if err := q.Add(ctx, entry); err != ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestMemoryQueue_GetNotFound(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	if _, err := q.Get(ctx, "nonexistent"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryQueue_List(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	entries := []*Entry{
		{ID: "entry1", ProjectID: "proj1", FailureTime: time.Now()},
		{ID: "entry2", ProjectID: "proj1", FailureTime: time.Now()},
		{ID: "entry3", ProjectID: "proj2", FailureTime: time.Now()},
	}
	for _, e := range entries {
		q.Add(ctx, e)
	}

	all, err := q.List(ctx, nil)
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 entries, got %d", len(all))
	}
}

func TestMemoryQueue_ListWithFilters(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	entries := []*Entry{
		{ID: "entry1", ProjectID: "proj1", FailureTime: time.Now(), Replayed: false},
		{ID: "entry2", ProjectID: "proj1", FailureTime: time.Now(), Replayed: false},
		{ID: "entry3", ProjectID: "proj2", FailureTime: time.Now(), Replayed: true},
	}
	for _, e := range entries {
		q.Add(ctx, e)
	}

	filtered, err := q.List(ctx, &Filters{ProjectID: "proj1"})
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("expected 2 entries for proj1, got %d", len(filtered))
	}

	replayed := false
	filtered, err = q.List(ctx, &Filters{Replayed: &replayed})
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("expected 2 non-replayed entries, got %d", len(filtered))
	}
}

func TestMemoryQueue_ListWithPagination(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		q.Add(ctx, &Entry{ID: string(rune('a' + i)), ProjectID: "proj1", FailureTime: time.Now()})
	}

	limited, err := q.List(ctx, &Filters{Limit: 5})
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	if len(limited) != 5 {
		t.Errorf("expected 5 entries with limit, got %d", len(limited))
	}

	offset, err := q.List(ctx, &Filters{Offset: 5})
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	if len(offset) != 5 {
		t.Errorf("expected 5 entries with offset, got %d", len(offset))
	}

	page, err := q.List(ctx, &Filters{Offset: 5, Limit: 3})
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	if len(page) != 3 {
		t.Errorf("expected 3 entries with offset and limit, got %d", len(page))
	}
}

func TestMemoryQueue_Replay(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	entry := &Entry{ID: "entry1", ProjectID: "proj1", FailureTime: time.Now(), Replayed: false}
	q.Add(ctx, entry)

	if err := q.Replay(ctx, "entry1"); err != nil {
		t.Fatalf("failed to replay entry: %v", err)
	}

	retrieved, _ := q.Get(ctx, "entry1")
	if !retrieved.Replayed {
		t.Error("entry should be marked as replayed")
	}
	if retrieved.ReplayedAt == nil {
		t.Error("ReplayedAt should be set")
	}
}

func TestMemoryQueue_Delete(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	q.Add(ctx, &Entry{ID: "entry1", ProjectID: "proj1", FailureTime: time.Now()})

	if err := q.Delete(ctx, "entry1"); err != nil {
		t.Fatalf("failed to delete entry: %v", err)
	}
	if _, err := q.Get(ctx, "entry1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after deletion, got %v", err)
	}
}

func TestMemoryQueue_Purge(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		q.Add(ctx, &Entry{ID: string(rune('a' + i)), ProjectID: "proj1", FailureTime: time.Now()})
	}

	if err := q.Purge(ctx); err != nil {
		t.Fatalf("failed to purge entries: %v", err)
	}

	count, _ := q.Count(ctx)
	if count != 0 {
		t.Errorf("expected 0 entries after purge, got %d", count)
	}
}

func TestMemoryQueue_Count(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		q.Add(ctx, &Entry{ID: string(rune('a' + i)), ProjectID: "proj1", FailureTime: time.Now()})
	}

	count, err := q.Count(ctx)
	if err != nil {
		t.Fatalf("failed to count entries: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5 entries, got %d", count)
	}
}

func TestManager_AddFailedRecalculation(t *testing.T) {
	q := NewMemoryQueue()
	m := NewManager(q, 10)
	ctx := context.Background()

	if err := m.AddFailedRecalculation(ctx, "proj1", 3, nil); err != nil {
		t.Fatalf("failed to add failed recalculation: %v", err)
	}

	entry, err := q.Get(ctx, "proj1")
	if err != nil {
		t.Fatalf("failed to get entry: %v", err)
	}
	if entry.ProjectID != "proj1" {
		t.Errorf("expected ProjectID proj1, got %s", entry.ProjectID)
	}
}

func TestManager_OnEntryAdded(t *testing.T) {
	q := NewMemoryQueue()
	m := NewManager(q, 10)
	ctx := context.Background()

	callbackCalled := false
	m.OnEntryAdded(func(entry *Entry) {
		callbackCalled = true
	})

	m.AddFailedRecalculation(ctx, "proj1", 1, nil)

	if !callbackCalled {
		t.Error("OnEntryAdded callback was not called")
	}
}

func TestManager_OnThresholdReached(t *testing.T) {
	q := NewMemoryQueue()
	m := NewManager(q, 3)
	ctx := context.Background()

	thresholdReached := false
	m.OnThresholdReached(func(count int) {
		thresholdReached = true
	})

	for i := 0; i < 3; i++ {
		m.AddFailedRecalculation(ctx, string(rune('a'+i)), 1, nil)
	}

	if !thresholdReached {
		t.Error("OnThresholdReached callback was not called")
	}
}

func TestEntry_ToJSON(t *testing.T) {
	entry := &Entry{
		ID:            "entry1",
		ProjectID:     "proj1",
		FailureReason: "timeout",
		FailureTime:   time.Now(),
		Attempts:      3,
		ErrorMessage:  "recalculation timed out",
		Metadata:      map[string]interface{}{"key": "value"},
		Replayed:      false,
	}

	jsonStr, err := entry.ToJSON()
	if err != nil {
		t.Fatalf("failed to convert to JSON: %v", err)
	}
	if jsonStr == "" {
		t.Error("JSON string should not be empty")
	}
}

func TestFromJSON(t *testing.T) {
	jsonStr := `{
		"id": "entry1",
		"project_id": "proj1",
		"failure_reason": "timeout",
		"failure_time": "2024-01-01T00:00:00Z",
		"attempts": 3,
		"last_attempt_time": "2024-01-01T00:00:00Z",
		"error_message": "recalculation timed out",
		"metadata": {},
		"replayed": false
	}`

	entry, err := FromJSON(jsonStr)
	if err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if entry.ID != "entry1" {
		t.Errorf("expected ID entry1, got %s", entry.ID)
	}
	if entry.ProjectID != "proj1" {
		t.Errorf("expected ProjectID proj1, got %s", entry.ProjectID)
	}
}
