package storage

import (
	"context"

	"github.com/prakash-iyer/cpm-engine/pkg/models"
)

// ProjectRepository defines the interface for durable project
// persistence: the task list, calendar, and last computed statistics
// for a named project.
type ProjectRepository interface {
	Create(ctx context.Context, name string, tasks []*models.Task, cal *models.Calendar) (string, error)
	Get(ctx context.Context, id string) ([]*models.Task, *models.Calendar, error)
	GetByName(ctx context.Context, name string) (string, []*models.Task, *models.Calendar, error)
	List(ctx context.Context, filters ProjectFilters) ([]ProjectSummary, error)
	Save(ctx context.Context, id string, tasks []*models.Task, cal *models.Calendar, stats models.ProjectStats) error
	Delete(ctx context.Context, id string) error
}

// ProjectFilters defines filters for listing projects.
type ProjectFilters struct {
	NameLike string
	Limit    int
	Offset   int
}

// ProjectSummary is a lightweight listing row: metadata without the
// full task snapshot.
type ProjectSummary struct {
	ID        string
	Name      string
	TaskCount int
}
