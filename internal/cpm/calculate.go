// Package cpm implements the Critical Path Method computation: the
// graph index, forward pass, parent rollup, backward pass, float and
// criticality marking, and the calculate() driver that orchestrates
// them. This package is pure — it takes ownership of nothing beyond
// its arguments and never talks to storage or the network. "Today"
// comes only from the injected now func; the wall clock is read
// directly only to measure the call's own elapsed time for the stats.
package cpm

import (
	"time"

	"github.com/prakash-iyer/cpm-engine/internal/calendar"
	"github.com/prakash-iyer/cpm-engine/pkg/models"
	"github.com/sirupsen/logrus"
)

// Calculate runs the full CPM computation over tasks against cal and
// returns the mutated snapshot plus project statistics. tasks is
// mutated in place and also returned, matching the source engine's
// snapshot-in/snapshot-out contract. now supplies "today" for ASAP
// defaulting; a nil now defaults to time.Now. A nil log defaults to
// logrus.StandardLogger().
func Calculate(tasks []*models.Task, cal *models.Calendar, now func() time.Time, log *logrus.Logger) ([]*models.Task, models.ProjectStats) {
	start := time.Now()

	if len(tasks) == 0 {
		return tasks, models.ProjectStats{}
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	idx := BuildIndex(tasks)

	ForwardPass(tasks, cal, idx, now, log)
	RollupParentDates(tasks, cal, idx)
	BackwardPass(tasks, cal, idx, log)
	CalculateFloat(tasks, cal, idx)
	MarkCriticalPath(tasks, idx)

	stats := projectStats(tasks, cal, idx, time.Since(start))
	return tasks, stats
}

func projectStats(tasks []*models.Task, cal *models.Calendar, idx *Index, elapsed time.Duration) models.ProjectStats {
	projectStart, projectEnd := "", ""
	criticalCount := 0

	for _, t := range tasks {
		if idx.IsParent(t.ID) {
			continue
		}
		if t.HasStart() && (projectStart == "" || t.Start < projectStart) {
			projectStart = t.Start
		}
		if t.HasEnd() && (projectEnd == "" || t.End > projectEnd) {
			projectEnd = t.End
		}
		if t.IsCritical {
			criticalCount++
		}
	}

	duration := 0
	if projectStart != "" && projectEnd != "" {
		duration = calendar.WorkDays(projectStart, projectEnd, cal)
	}

	return models.ProjectStats{
		CalcTimeMs:    float64(elapsed) / float64(time.Millisecond),
		TaskCount:     len(tasks),
		CriticalCount: criticalCount,
		ProjectStart:  projectStart,
		ProjectEnd:    projectEnd,
		Duration:      duration,
	}
}
