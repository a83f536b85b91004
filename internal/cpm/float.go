package cpm

import (
	"github.com/prakash-iyer/cpm-engine/internal/calendar"
	"github.com/prakash-iyer/cpm-engine/pkg/models"
)

// CalculateFloat computes total and free float for every leaf, then
// rolls total float up to parents (deepest-first); parents never carry
// free float of their own.
func CalculateFloat(tasks []*models.Task, cal *models.Calendar, idx *Index) {
	for _, t := range tasks {
		if idx.IsParent(t.ID) {
			continue
		}
		t.TotalFloatDays = leafTotalFloat(t, cal)
		t.FreeFloatDays = leafFreeFloat(t, cal, idx)
	}

	for depth := idx.MaxDepth(); depth >= 0; depth-- {
		for _, parent := range tasks {
			if !idx.IsParent(parent.ID) || idx.Depth(parent.ID) != depth {
				continue
			}
			children := childrenOf(tasks, parent.ID)
			if len(children) == 0 {
				parent.TotalFloatDays = 0
				parent.FreeFloatDays = 0
				continue
			}
			min := children[0].TotalFloatDays
			for _, c := range children[1:] {
				if c.TotalFloatDays < min {
					min = c.TotalFloatDays
				}
			}
			parent.TotalFloatDays = min
			parent.FreeFloatDays = 0
		}
	}
}

func leafTotalFloat(t *models.Task, cal *models.Calendar) int {
	if t.LateStart == "" || !t.HasStart() {
		return 0
	}
	return calendar.WorkDaysSigned(t.Start, t.LateStart, cal)
}

func leafFreeFloat(t *models.Task, cal *models.Calendar, idx *Index) int {
	successors := idx.Successors(t.ID)
	if len(successors) == 0 {
		return t.TotalFloatDays
	}

	min := 0
	has := false
	for _, succ := range successors {
		s, ok := idx.Task(succ.successorID)
		if !ok || idx.IsParent(s.ID) || !s.HasStart() {
			continue
		}

		var candidate int
		switch succ.linkType {
		case models.LinkSS:
			candidate = calendar.WorkDaysSigned(t.Start, s.Start, cal) - succ.lag
		case models.LinkFF:
			candidate = calendar.WorkDaysSigned(t.End, s.End, cal) - succ.lag
		case models.LinkSF:
			candidate = calendar.WorkDaysSigned(t.Start, s.End, cal) - succ.lag
		default: // FS
			candidate = calendar.WorkDaysSigned(t.End, s.Start, cal) - 1 - succ.lag
		}

		if !has || candidate < min {
			min, has = candidate, true
		}
	}

	if !has {
		return t.TotalFloatDays
	}
	return clamp(min, 0, t.TotalFloatDays)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MarkCriticalPath marks every leaf critical when its total float is
// non-positive, then rolls criticality up to parents (any critical
// child makes the parent critical), deepest-first.
func MarkCriticalPath(tasks []*models.Task, idx *Index) {
	for _, t := range tasks {
		if !idx.IsParent(t.ID) {
			t.IsCritical = t.TotalFloatDays <= 0
		}
	}

	for depth := idx.MaxDepth(); depth >= 0; depth-- {
		for _, parent := range tasks {
			if !idx.IsParent(parent.ID) || idx.Depth(parent.ID) != depth {
				continue
			}
			critical := false
			for _, c := range childrenOf(tasks, parent.ID) {
				if c.IsCritical {
					critical = true
					break
				}
			}
			parent.IsCritical = critical
		}
	}
}
