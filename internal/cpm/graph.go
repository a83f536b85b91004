package cpm

import "github.com/prakash-iyer/cpm-engine/pkg/models"

// successorEdge is one outgoing precedence edge from a predecessor to a
// successor, carrying the link type and lag declared on the successor's
// dependency entry.
type successorEdge struct {
	successorID string
	linkType    models.LinkType
	lag         int
}

// Index is the read-only graph built once per calculate() call: task
// lookup by id, the inverted successor adjacency, the parent set, and
// a memoised depth map. It is shared by all five passes and the
// project-statistics step.
type Index struct {
	byID       map[string]*models.Task
	successors map[string][]successorEdge
	parents    map[string]bool
	depth      map[string]int
	maxDepth   int
}

// BuildIndex constructs the graph index over a task snapshot. Mirrors
// build_successor_map / is_parent / get_depth from the source engine,
// precomputed once instead of recomputed inside every pass.
func BuildIndex(tasks []*models.Task) *Index {
	idx := &Index{
		byID:       make(map[string]*models.Task, len(tasks)),
		successors: make(map[string][]successorEdge, len(tasks)),
		parents:    make(map[string]bool),
		depth:      make(map[string]int, len(tasks)),
	}

	for _, t := range tasks {
		idx.byID[t.ID] = t
		if _, ok := idx.successors[t.ID]; !ok {
			idx.successors[t.ID] = nil
		}
		if t.HasParent() {
			idx.parents[t.ParentID] = true
		}
	}

	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			idx.successors[dep.PredecessorID] = append(idx.successors[dep.PredecessorID], successorEdge{
				successorID: t.ID,
				linkType:    dep.LinkType,
				lag:         dep.Lag,
			})
		}
	}

	for _, t := range tasks {
		d := idx.computeDepth(t.ID, make(map[string]bool))
		idx.depth[t.ID] = d
		if d > idx.maxDepth {
			idx.maxDepth = d
		}
	}

	return idx
}

// computeDepth follows parentId chains to the root. visiting guards
// against a malformed (cyclic) parent chain; it is not a substitute for
// the invariant that the parent relation forms a forest.
func (idx *Index) computeDepth(id string, visiting map[string]bool) int {
	if visiting[id] {
		return 0
	}
	visiting[id] = true

	task, ok := idx.byID[id]
	if !ok || !task.HasParent() {
		return 0
	}
	return 1 + idx.computeDepth(task.ParentID, visiting)
}

// IsParent reports whether id appears as some task's parentId.
func (idx *Index) IsParent(id string) bool { return idx.parents[id] }

// Depth returns id's memoised depth (0 for roots).
func (idx *Index) Depth(id string) int { return idx.depth[id] }

// MaxDepth is the deepest depth present in the index.
func (idx *Index) MaxDepth() int { return idx.maxDepth }

// Task looks up a task by id.
func (idx *Index) Task(id string) (*models.Task, bool) {
	t, ok := idx.byID[id]
	return t, ok
}

// Successors returns the successor edges leading out of id, in input
// order.
func (idx *Index) Successors(id string) []successorEdge {
	return idx.successors[id]
}

// childrenOf returns the direct children of a parent, in the index's
// build order (the task snapshot's order).
func childrenOf(tasks []*models.Task, parentID string) []*models.Task {
	var children []*models.Task
	for _, t := range tasks {
		if t.ParentID == parentID {
			children = append(children, t)
		}
	}
	return children
}
