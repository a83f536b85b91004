package storage

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prakash-iyer/cpm-engine/pkg/models"
)

// JSONB is a custom type for JSONB columns.
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface.
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface.
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, j)
}

// TaskSnapshot is a custom type that stores the full task list for a
// project as a single JSONB column, rather than one row per task. The
// engine always reads and writes the whole snapshot together (matching
// the source engine's load/save-as-one-document contract), so there is
// no need for a child table and the joins that come with it.
type TaskSnapshot []*models.Task

// Value implements the driver.Valuer interface.
func (s TaskSnapshot) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]*models.Task{})
	}
	return json.Marshal([]*models.Task(s))
}

// Scan implements the sql.Scanner interface.
func (s *TaskSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, s)
}

// CalendarSnapshot stores a project's working calendar as JSONB.
type CalendarSnapshot models.Calendar

// Value implements the driver.Valuer interface.
func (c CalendarSnapshot) Value() (driver.Value, error) {
	return json.Marshal(models.Calendar(c))
}

// Scan implements the sql.Scanner interface.
func (c *CalendarSnapshot) Scan(value interface{}) error {
	if value == nil {
		*c = CalendarSnapshot{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, c)
}

// ProjectModel is the database row for a stored project: its name, the
// full task snapshot, its calendar, and the statistics from the last
// calculation. One row per project; the task list lives inside it
// rather than in a child table, matching the engine's snapshot-in/
// snapshot-out contract.
type ProjectModel struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name          string           `gorm:"type:varchar(255);unique;not null;index:idx_projects_name"`
	Tasks         TaskSnapshot     `gorm:"type:jsonb;default:'[]'"`
	Calendar      CalendarSnapshot `gorm:"type:jsonb;default:'{}'"`
	LastStats     JSONB            `gorm:"type:jsonb;default:'{}'"`
	CreatedAt     time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName specifies the table name for ProjectModel.
func (ProjectModel) TableName() string {
	return "projects"
}

// ToSnapshot converts a ProjectModel into the task/calendar pair the
// engine's Service.Initialize expects.
func (p *ProjectModel) ToSnapshot() ([]*models.Task, *models.Calendar) {
	cal := models.Calendar(p.Calendar)
	return []*models.Task(p.Tasks), &cal
}

// FromSnapshot builds a ProjectModel row from a project name and its
// current task/calendar/stats state.
func FromSnapshot(id, name string, tasks []*models.Task, cal *models.Calendar, stats models.ProjectStats) (*ProjectModel, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		pid = uuid.New()
	}

	var calSnap CalendarSnapshot
	if cal != nil {
		calSnap = CalendarSnapshot(*cal)
	}

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	var lastStats JSONB
	if err := json.Unmarshal(statsJSON, &lastStats); err != nil {
		return nil, err
	}

	return &ProjectModel{
		ID:        pid,
		Name:      name,
		Tasks:     TaskSnapshot(tasks),
		Calendar:  calSnap,
		LastStats: lastStats,
	}, nil
}
