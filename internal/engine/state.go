// Package engine is the stateful facade over the pure internal/cpm
// computation: it holds the authoritative task list and calendar for a
// project, accepts partial updates, and serializes all access behind a
// mutex — the host-integration behavior spec.md §1 and §5 describe as
// living outside the core. Modeled on the teacher's
// internal/scheduler.Scheduler (config + mutex) and on
// engine_state.rs's ProjectState/AppState split.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/prakash-iyer/cpm-engine/internal/cpm"
	"github.com/prakash-iyer/cpm-engine/pkg/models"
	"github.com/sirupsen/logrus"
)

// Now is the injected clock used for ASAP defaulting; overridable in
// tests.
type Now func() time.Time

// Service is a single project's scheduling state: task list (ordered),
// calendar, and initialization flag, all behind a mutex so concurrent
// callers serialize the way the source engine's Tauri AppState does.
type Service struct {
	mu sync.Mutex

	tasks       map[string]*models.Task
	taskOrder   []string
	calendar    *models.Calendar
	initialized bool

	now Now
	log *logrus.Logger
}

// NewService creates an empty, uninitialized engine facade.
func NewService(now Now, log *logrus.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		tasks: make(map[string]*models.Task),
		now:   now,
		log:   log,
	}
}

// Initialize loads a fresh task snapshot and calendar, replacing any
// prior state.
func (s *Service) Initialize(tasks []*models.Task, cal *models.Calendar) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadTasks(tasks)
	s.calendar = cal
	s.initialized = true
}

func (s *Service) loadTasks(tasks []*models.Task) {
	s.taskOrder = make([]string, 0, len(tasks))
	s.tasks = make(map[string]*models.Task, len(tasks))
	for _, t := range tasks {
		s.taskOrder = append(s.taskOrder, t.ID)
		s.tasks[t.ID] = t
	}
}

// IsInitialized reports whether Initialize has been called.
func (s *Service) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// TaskCount returns the number of tasks currently held.
func (s *Service) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// GetTasks returns the task snapshot in load/insertion order.
func (s *Service) GetTasks() ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return s.orderedLocked(), nil
}

// GetCalendar returns the project's calendar.
func (s *Service) GetCalendar() (*models.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return s.calendar, nil
}

func (s *Service) orderedLocked() []*models.Task {
	out := make([]*models.Task, 0, len(s.taskOrder))
	for _, id := range s.taskOrder {
		if t, ok := s.tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// AddTask appends a new task to the project.
func (s *Service) AddTask(t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	if _, exists := s.tasks[t.ID]; !exists {
		s.taskOrder = append(s.taskOrder, t.ID)
	}
	s.tasks[t.ID] = t
	return nil
}

// DeleteTask removes a task by id.
func (s *Service) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	delete(s.tasks, id)
	for i, tid := range s.taskOrder {
		if tid == id {
			s.taskOrder = append(s.taskOrder[:i], s.taskOrder[i+1:]...)
			break
		}
	}
	return nil
}

// SyncTasks replaces the entire task list in one call.
func (s *Service) SyncTasks(tasks []*models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	s.loadTasks(tasks)
	return nil
}

// UpdateCalendar replaces the project calendar.
func (s *Service) UpdateCalendar(cal *models.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	s.calendar = cal
	return nil
}

// UpdateTask applies a partial set of field updates to an existing
// task. Unknown keys are ignored for forward compatibility, matching
// ProjectState::update_task in the source engine. Supplements the
// original's field list with "dependencies", since a partial update
// that cannot touch precedence links is of limited use on the wire.
func (s *Service) UpdateTask(id string, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}

	applyTaskUpdate(t, updates)
	return nil
}

func applyTaskUpdate(t *models.Task, updates map[string]any) {
	if v, ok := updates["name"].(string); ok {
		t.Name = v
	}
	if v, ok := asInt(updates["duration"]); ok {
		t.Duration = v
	}
	if v, ok := updates["start"].(string); ok {
		t.Start = v
	}
	if v, ok := updates["end"].(string); ok {
		t.End = v
	}
	if v, ok := asInt(updates["progress"]); ok {
		t.Progress = v
	}
	if v, ok := updates["constraintType"].(string); ok {
		t.ConstraintType = models.ParseConstraintType(v)
	}
	if v, ok := updates["constraintDate"].(string); ok {
		t.ConstraintDate = v
	}
	if v, ok := updates["notes"].(string); ok {
		t.Notes = v
	}
	if v, ok := updates["parentId"].(string); ok {
		t.ParentID = v
	}
	if v, ok := asInt(updates["level"]); ok {
		t.Level = v
	}
	if v, ok := updates["sortKey"].(string); ok {
		t.SortKey = v
	}
	if raw, ok := updates["dependencies"].([]any); ok {
		t.Dependencies = parseDependencies(raw)
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func parseDependencies(raw []any) []models.Dependency {
	deps := make([]models.Dependency, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		d := models.Dependency{}
		if id, ok := m["id"].(string); ok {
			d.PredecessorID = id
		} else if id, ok := m["predecessorId"].(string); ok {
			d.PredecessorID = id
		}
		if lt, ok := m["type"].(string); ok {
			d.LinkType = models.ParseLinkType(lt)
		}
		if lag, ok := asInt(m["lag"]); ok {
			d.Lag = lag
		}
		deps = append(deps, d)
	}
	return deps
}

// Calculate runs the CPM computation over the held snapshot and
// returns the updated tasks plus project statistics.
func (s *Service) Calculate() ([]*models.Task, models.ProjectStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, models.ProjectStats{}, ErrNotInitialized
	}
	if s.calendar == nil {
		return nil, models.ProjectStats{}, ErrMissingCalendar
	}

	tasks := s.orderedLocked()
	tasks, stats := cpm.Calculate(tasks, s.calendar, s.now, s.log)
	s.loadTasks(tasks)
	return tasks, stats, nil
}

// Dispose clears all held state, matching ProjectState::clear.
func (s *Service) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make(map[string]*models.Task)
	s.taskOrder = nil
	s.calendar = nil
	s.initialized = false
}
