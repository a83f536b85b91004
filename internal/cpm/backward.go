package cpm

import (
	"github.com/prakash-iyer/cpm-engine/internal/calendar"
	"github.com/prakash-iyer/cpm-engine/pkg/models"
	"github.com/sirupsen/logrus"
)

// BackwardPass computes each leaf's latest start/finish by relaxing to
// a fixed point against the project late finish. Parents are skipped;
// their criticality is derived separately in the float pass.
func BackwardPass(tasks []*models.Task, cal *models.Calendar, idx *Index, log *logrus.Logger) {
	projectLateFinish := ""
	for _, t := range tasks {
		if idx.IsParent(t.ID) || !t.HasEnd() {
			continue
		}
		if projectLateFinish == "" || t.End > projectLateFinish {
			projectLateFinish = t.End
		}
	}
	if projectLateFinish == "" {
		return
	}

	for _, t := range tasks {
		if idx.IsParent(t.ID) {
			t.LateStart, t.LateFinish = "", ""
		}
	}

	changed := true
	iterations := 0

	for changed && iterations < MaxIterations {
		changed = false
		iterations++

		for _, t := range tasks {
			if idx.IsParent(t.ID) {
				continue
			}
			if backwardStep(t, cal, idx, projectLateFinish) {
				changed = true
			}
		}
	}

	if iterations >= MaxIterations {
		log.Warn("cpm: backward pass reached max iterations, possible circular dependency")
	}
}

// backwardStep applies one iteration of the backward pass to a single
// leaf task and reports whether its late dates changed.
func backwardStep(t *models.Task, cal *models.Calendar, idx *Index, projectLateFinish string) bool {
	successors := idx.Successors(t.ID)

	lateFinish := ""
	hasLF := false

	if len(successors) == 0 {
		lateFinish, hasLF = projectLateFinish, true
	} else {
		for _, succ := range successors {
			s, ok := idx.Task(succ.successorID)
			if !ok || idx.IsParent(s.ID) || !s.HasStart() {
				continue
			}

			sLS := s.LateStart
			if sLS == "" {
				sLS = s.Start
			}

			var candidate string
			switch succ.linkType {
			case models.LinkSS:
				candidate = calendar.AddWorkDays(sLS, off(t.Duration)-succ.lag, cal)
			case models.LinkFF:
				candidate = calendar.AddWorkDays(sLS, off(s.Duration)-succ.lag, cal)
			case models.LinkSF:
				candidate = calendar.AddWorkDays(sLS, -succ.lag, cal)
			default: // FS
				candidate = calendar.AddWorkDays(sLS, -1-succ.lag, cal)
			}

			if !hasLF || candidate < lateFinish {
				lateFinish, hasLF = candidate, true
			}
		}
	}

	if models.ParseConstraintType(string(t.ConstraintType)) == models.ConstraintFNLT && t.ConstraintDate != "" {
		if !hasLF || t.ConstraintDate < lateFinish {
			lateFinish, hasLF = t.ConstraintDate, true
		}
	}

	if !hasLF {
		return false
	}

	newLateStart := calendar.AddWorkDays(lateFinish, -off(t.Duration), cal)
	if t.LateFinish == lateFinish && t.LateStart == newLateStart {
		return false
	}
	t.LateFinish = lateFinish
	t.LateStart = newLateStart
	return true
}
