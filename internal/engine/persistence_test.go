package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/prakash-iyer/cpm-engine/internal/cache"
	"github.com/prakash-iyer/cpm-engine/internal/dlq"
	"github.com/prakash-iyer/cpm-engine/internal/storage"
	"github.com/prakash-iyer/cpm-engine/pkg/models"
)

type fakeRepo struct {
	saveErr error
	saved   int
}

func (f *fakeRepo) Create(ctx context.Context, name string, tasks []*models.Task, cal *models.Calendar) (string, error) {
	return "id", nil
}
func (f *fakeRepo) Get(ctx context.Context, id string) ([]*models.Task, *models.Calendar, error) {
	return nil, nil, nil
}
func (f *fakeRepo) GetByName(ctx context.Context, name string) (string, []*models.Task, *models.Calendar, error) {
	return "", nil, nil, nil
}
func (f *fakeRepo) List(ctx context.Context, filters storage.ProjectFilters) ([]storage.ProjectSummary, error) {
	return nil, nil
}
func (f *fakeRepo) Save(ctx context.Context, id string, tasks []*models.Task, cal *models.Calendar, stats models.ProjectStats) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved++
	return nil
}
func (f *fakeRepo) Delete(ctx context.Context, id string) error { return nil }

func TestPersistor_SaveSuccess(t *testing.T) {
	repo := &fakeRepo{}
	var published []cache.RecalcEvent
	eventRecorder := publisherFunc(func(e cache.RecalcEvent) error {
		published = append(published, e)
		return nil
	})

	p := NewPersistor(repo, nil, eventRecorder, nil)

	err := p.Save(context.Background(), "proj1", nil, nil, models.ProjectStats{TaskCount: 2})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if repo.saved != 1 {
		t.Errorf("expected 1 save, got %d", repo.saved)
	}
	if len(published) != 1 || published[0].ProjectID != "proj1" {
		t.Errorf("expected one recalc event for proj1, got %+v", published)
	}
}

func TestPersistor_SaveFailureGoesToDLQ(t *testing.T) {
	repo := &fakeRepo{saveErr: errors.New("connection refused")}
	queue := dlq.NewMemoryQueue()
	mgr := dlq.NewManager(queue, 10)

	p := NewPersistor(repo, nil, nil, mgr)

	err := p.Save(context.Background(), "proj1", nil, nil, models.ProjectStats{})
	if err == nil {
		t.Fatal("expected Save to return an error after retry exhaustion")
	}

	count, _ := queue.Count(context.Background())
	if count != 1 {
		t.Errorf("expected 1 DLQ entry, got %d", count)
	}
}

type publisherFunc func(cache.RecalcEvent) error

func (f publisherFunc) Publish(e cache.RecalcEvent) error { return f(e) }
