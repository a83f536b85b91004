package dto

import (
	"github.com/prakash-iyer/cpm-engine/pkg/models"
)

// DependencyDTO is the wire form of a task precedence link. The
// predecessor reference travels as "id" (spec.md §6: dependencies:
// [{id, type, lag}]), not "predecessorId".
type DependencyDTO struct {
	PredecessorID string `json:"id" validate:"required"`
	Type          string `json:"type,omitempty"`
	Lag           int    `json:"lag,omitempty"`
}

// TaskDTO is the wire form of a task, accepted on create/sync and
// returned on every read.
type TaskDTO struct {
	ID             string          `json:"id" validate:"required"`
	Name           string          `json:"name,omitempty"`
	ParentID       string          `json:"parentId,omitempty"`
	SortKey        string          `json:"sortKey,omitempty"`
	Level          int             `json:"level,omitempty"`
	Duration       int             `json:"duration" validate:"min=0"`
	Start          string          `json:"start,omitempty"`
	End            string          `json:"end,omitempty"`
	ConstraintType string          `json:"constraintType,omitempty"`
	ConstraintDate string          `json:"constraintDate,omitempty"`
	Dependencies   []DependencyDTO `json:"dependencies,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Progress       int             `json:"progress,omitempty"`

	LateStart      string `json:"lateStart,omitempty"`
	LateFinish     string `json:"lateFinish,omitempty"`
	TotalFloatDays int    `json:"totalFloat,omitempty"`
	FreeFloatDays  int    `json:"freeFloat,omitempty"`
	IsCritical     bool   `json:"_isCritical,omitempty"`
}

// ToTask converts a TaskDTO into a models.Task.
func (t TaskDTO) ToTask() *models.Task {
	deps := make([]models.Dependency, 0, len(t.Dependencies))
	for _, d := range t.Dependencies {
		deps = append(deps, models.Dependency{
			PredecessorID: d.PredecessorID,
			LinkType:      models.ParseLinkType(d.Type),
			Lag:           d.Lag,
		})
	}

	return &models.Task{
		ID:             t.ID,
		Name:           t.Name,
		ParentID:       t.ParentID,
		SortKey:        t.SortKey,
		Level:          t.Level,
		Duration:       t.Duration,
		Start:          t.Start,
		End:            t.End,
		ConstraintType: models.ParseConstraintType(t.ConstraintType),
		ConstraintDate: t.ConstraintDate,
		Dependencies:   deps,
		Notes:          t.Notes,
		Progress:       t.Progress,
	}
}

// ToTaskDTO converts a models.Task into its wire response form.
func ToTaskDTO(t *models.Task) TaskDTO {
	deps := make([]DependencyDTO, 0, len(t.Dependencies))
	for _, d := range t.Dependencies {
		deps = append(deps, DependencyDTO{
			PredecessorID: d.PredecessorID,
			Type:          string(d.LinkType),
			Lag:           d.Lag,
		})
	}

	return TaskDTO{
		ID:             t.ID,
		Name:           t.Name,
		ParentID:       t.ParentID,
		SortKey:        t.SortKey,
		Level:          t.Level,
		Duration:       t.Duration,
		Start:          t.Start,
		End:            t.End,
		ConstraintType: string(t.ConstraintType),
		ConstraintDate: t.ConstraintDate,
		Dependencies:   deps,
		Notes:          t.Notes,
		Progress:       t.Progress,
		LateStart:      t.LateStart,
		LateFinish:     t.LateFinish,
		TotalFloatDays: t.TotalFloatDays,
		FreeFloatDays:  t.FreeFloatDays,
		IsCritical:     t.IsCritical,
	}
}

// CalendarExceptionDTO is the wire form of a single calendar exception.
type CalendarExceptionDTO struct {
	Working bool `json:"working"`
}

// CalendarDTO is the wire form of a project calendar.
type CalendarDTO struct {
	WorkingDays []int                           `json:"workingDays"`
	Exceptions  map[string]CalendarExceptionDTO `json:"exceptions,omitempty"`
}

// ToCalendar converts a CalendarDTO into a models.Calendar.
func (c CalendarDTO) ToCalendar() *models.Calendar {
	exceptions := make(map[string]models.CalendarException, len(c.Exceptions))
	for date, e := range c.Exceptions {
		exceptions[date] = models.CalendarException{Working: e.Working}
	}
	return &models.Calendar{WorkingDays: c.WorkingDays, Exceptions: exceptions}
}

// ToCalendarDTO converts a models.Calendar into its wire response form.
func ToCalendarDTO(c *models.Calendar) CalendarDTO {
	if c == nil {
		return CalendarDTO{}
	}
	exceptions := make(map[string]CalendarExceptionDTO, len(c.Exceptions))
	for date, e := range c.Exceptions {
		exceptions[date] = CalendarExceptionDTO{Working: e.Working}
	}
	return CalendarDTO{WorkingDays: c.WorkingDays, Exceptions: exceptions}
}

// CreateProjectRequest initializes a new project with its full task
// list and calendar.
type CreateProjectRequest struct {
	Name     string      `json:"name" validate:"required"`
	Tasks    []TaskDTO   `json:"tasks" validate:"required,dive"`
	Calendar CalendarDTO `json:"calendar" validate:"required"`
}

// SyncTasksRequest replaces a project's entire task list.
type SyncTasksRequest struct {
	Tasks []TaskDTO `json:"tasks" validate:"required,dive"`
}

// UpdateCalendarRequest replaces a project's calendar.
type UpdateCalendarRequest struct {
	Calendar CalendarDTO `json:"calendar" validate:"required"`
}

// UpdateTaskRequest carries a partial set of task field updates,
// applied as-is to internal/engine.Service.UpdateTask.
type UpdateTaskRequest map[string]interface{}

// StatsDTO is the wire form of models.ProjectStats.
type StatsDTO struct {
	CalcTimeMs    float64 `json:"calcTime"`
	TaskCount     int     `json:"taskCount"`
	CriticalCount int     `json:"criticalCount"`
	ProjectStart  string  `json:"projectStart,omitempty"`
	ProjectEnd    string  `json:"projectEnd,omitempty"`
	Duration      int     `json:"duration"`
	Error         string  `json:"error,omitempty"`
}

// ToStatsDTO converts models.ProjectStats into its wire response form.
func ToStatsDTO(s models.ProjectStats) StatsDTO {
	return StatsDTO{
		CalcTimeMs:    s.CalcTimeMs,
		TaskCount:     s.TaskCount,
		CriticalCount: s.CriticalCount,
		ProjectStart:  s.ProjectStart,
		ProjectEnd:    s.ProjectEnd,
		Duration:      s.Duration,
		Error:         s.Error,
	}
}

// ProjectResponse is the full snapshot of a project: its tasks and
// calendar, returned on create/get/calculate.
type ProjectResponse struct {
	ID       string      `json:"id"`
	Name     string      `json:"name,omitempty"`
	Tasks    []TaskDTO   `json:"tasks"`
	Calendar CalendarDTO `json:"calendar"`
	Stats    *StatsDTO   `json:"stats,omitempty"`
}

// ProjectSummaryDTO is a single row of the project list response.
type ProjectSummaryDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TaskCount int    `json:"taskCount"`
}

// ProjectListResponse is a paginated list of project summaries.
type ProjectListResponse struct {
	Projects   []ProjectSummaryDTO `json:"projects"`
	Pagination PaginationMeta      `json:"pagination"`
}

// ToTaskDTOs converts a task slice into its wire response form.
func ToTaskDTOs(tasks []*models.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskDTO(t)
	}
	return out
}

// ToTasks converts a TaskDTO slice into models.Task pointers.
func ToTasks(dtos []TaskDTO) []*models.Task {
	out := make([]*models.Task, len(dtos))
	for i, dto := range dtos {
		out[i] = dto.ToTask()
	}
	return out
}
