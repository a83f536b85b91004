package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prakash-iyer/cpm-engine/pkg/models"
	"gorm.io/gorm"
)

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, name string, tasks []*models.Task, cal *models.Calendar) (string, error) {
	model, err := FromSnapshot(uuid.New().String(), name, tasks, cal, models.ProjectStats{})
	if err != nil {
		return "", fmt.Errorf("failed to build project model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return "", fmt.Errorf("failed to create project: %w", err)
	}

	return model.ID.String(), nil
}

func (r *projectRepository) Get(ctx context.Context, id string) ([]*models.Task, *models.Calendar, error) {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid project ID: %w", err)
	}

	var model ProjectModel
	if err := r.db.WithContext(ctx).Where("id = ?", projectID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, nil, fmt.Errorf("failed to get project: %w", err)
	}

	tasks, cal := model.ToSnapshot()
	return tasks, cal, nil
}

func (r *projectRepository) GetByName(ctx context.Context, name string) (string, []*models.Task, *models.Calendar, error) {
	var model ProjectModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", nil, nil, fmt.Errorf("failed to get project by name: %w", err)
	}

	tasks, cal := model.ToSnapshot()
	return model.ID.String(), tasks, cal, nil
}

func (r *projectRepository) List(ctx context.Context, filters ProjectFilters) ([]ProjectSummary, error) {
	query := r.db.WithContext(ctx).Model(&ProjectModel{})

	if filters.NameLike != "" {
		query = query.Where("name ILIKE ?", "%"+filters.NameLike+"%")
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var rows []ProjectModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	summaries := make([]ProjectSummary, len(rows))
	for i, row := range rows {
		summaries[i] = ProjectSummary{
			ID:        row.ID.String(),
			Name:      row.Name,
			TaskCount: len(row.Tasks),
		}
	}
	return summaries, nil
}

func (r *projectRepository) Save(ctx context.Context, id string, tasks []*models.Task, cal *models.Calendar, stats models.ProjectStats) error {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid project ID: %w", err)
	}

	model, err := FromSnapshot(id, "", tasks, cal, stats)
	if err != nil {
		return fmt.Errorf("failed to build project model: %w", err)
	}

	result := r.db.WithContext(ctx).Model(&ProjectModel{}).Where("id = ?", projectID).
		Updates(map[string]interface{}{
			"tasks":      model.Tasks,
			"calendar":   model.Calendar,
			"last_stats": model.LastStats,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	projectID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid project ID: %w", err)
	}

	if err := r.db.WithContext(ctx).Delete(&ProjectModel{}, "id = ?", projectID).Error; err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}
