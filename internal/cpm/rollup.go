package cpm

import (
	"github.com/prakash-iyer/cpm-engine/internal/calendar"
	"github.com/prakash-iyer/cpm-engine/pkg/models"
)

// RollupParentDates computes summary start/end/duration for every
// parent task from its children, processing depths deepest-first so a
// parent's own rollup can use children that are themselves parents
// whose rollup already completed this pass.
func RollupParentDates(tasks []*models.Task, cal *models.Calendar, idx *Index) {
	for depth := idx.MaxDepth(); depth >= 0; depth-- {
		for _, parent := range tasks {
			if !idx.IsParent(parent.ID) || idx.Depth(parent.ID) != depth {
				continue
			}

			var minStart, maxEnd string
			any := false
			for _, child := range childrenOf(tasks, parent.ID) {
				if !child.HasStart() || !child.HasEnd() {
					continue
				}
				if !any || child.Start < minStart {
					minStart = child.Start
				}
				if !any || child.End > maxEnd {
					maxEnd = child.End
				}
				any = true
			}

			if any {
				parent.Start = minStart
				parent.End = maxEnd
				parent.Duration = calendar.WorkDays(parent.Start, parent.End, cal)
			}
		}
	}
}
