package cpm

import (
	"fmt"

	"github.com/prakash-iyer/cpm-engine/pkg/models"
)

// Validate checks the structural invariants of spec.md §3 before a
// snapshot is handed to the passes: unique ids, a parent forest, and
// dependencies that reference existing tasks. Modeled on the teacher's
// internal/dag.Validator.
func Validate(tasks []*models.Task) error {
	ids := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if ids[t.ID] {
			return fmt.Errorf("duplicate task id: %s", t.ID)
		}
		ids[t.ID] = true
	}

	for _, t := range tasks {
		if t.HasParent() {
			if t.ParentID == t.ID {
				return fmt.Errorf("task %s cannot be its own parent", t.ID)
			}
			if !ids[t.ParentID] {
				return fmt.Errorf("task %s references unknown parent: %s", t.ID, t.ParentID)
			}
		}
		for _, dep := range t.Dependencies {
			if !ids[dep.PredecessorID] {
				return fmt.Errorf("task %s depends on unknown task: %s", t.ID, dep.PredecessorID)
			}
		}
	}

	return forestCheck(tasks, ids)
}

// forestCheck ensures following parentId chains always terminates,
// i.e. the parent relation has no cycles.
func forestCheck(tasks []*models.Task, ids map[string]bool) error {
	byID := make(map[string]*models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	for _, t := range tasks {
		visited := make(map[string]bool)
		cur := t
		for cur.HasParent() {
			if visited[cur.ID] {
				return fmt.Errorf("cycle detected in parent chain at task: %s", t.ID)
			}
			visited[cur.ID] = true
			next, ok := byID[cur.ParentID]
			if !ok {
				break
			}
			cur = next
		}
	}
	return nil
}
