package cpm

import (
	"time"

	"github.com/prakash-iyer/cpm-engine/internal/calendar"
	"github.com/prakash-iyer/cpm-engine/pkg/models"
	"github.com/sirupsen/logrus"
)

// MaxIterations bounds every fixed-point pass. Exceeding it is treated
// as a likely circular dependency: the pass logs a warning (§7
// IterationLimit) and returns whatever it converged to so far.
const MaxIterations = 50

// off is the duration offset used throughout the link-type tables:
// EF = ES + off(duration). Negative or zero duration collapses to 0,
// giving milestones ES == EF.
func off(duration int) int {
	if duration <= 0 {
		return 0
	}
	return duration - 1
}

// ForwardPass computes each leaf's earliest start/finish by relaxing to
// a fixed point. Parents are skipped; their dates come from the rollup
// pass. now supplies "today" for the ASAP default (step 2 of §4.3),
// injected so the pass is deterministic under test.
func ForwardPass(tasks []*models.Task, cal *models.Calendar, idx *Index, now func() time.Time, log *logrus.Logger) {
	changed := true
	iterations := 0

	for changed && iterations < MaxIterations {
		changed = false
		iterations++

		for _, t := range tasks {
			if idx.IsParent(t.ID) {
				continue
			}
			if forwardStep(t, cal, idx, now) {
				changed = true
			}
		}
	}

	if iterations >= MaxIterations {
		log.Warn("cpm: forward pass reached max iterations, possible circular dependency")
	}
}

// forwardStep applies one iteration of the forward pass to a single
// leaf task and reports whether any field changed.
func forwardStep(t *models.Task, cal *models.Calendar, idx *Index, now func() time.Time) bool {
	var candidate string
	hasCandidate := false

	consider := func(date string) {
		if date == "" {
			return
		}
		if !hasCandidate || date > candidate {
			candidate = date
			hasCandidate = true
		}
	}

	for _, dep := range t.Dependencies {
		pred, ok := idx.Task(dep.PredecessorID)
		if !ok || !pred.HasStart() || !pred.HasEnd() {
			continue
		}
		lag := dep.Lag
		switch models.ParseLinkType(string(dep.LinkType)) {
		case models.LinkSS:
			consider(calendar.AddWorkDays(pred.Start, lag, cal))
		case models.LinkFF:
			consider(calendar.AddWorkDays(pred.End, lag-off(t.Duration), cal))
		case models.LinkSF:
			consider(calendar.AddWorkDays(pred.Start, lag-off(t.Duration), cal))
		default: // FS
			consider(calendar.AddWorkDays(pred.End, 1+lag, cal))
		}
	}

	constraintType := models.ParseConstraintType(string(t.ConstraintType))
	cd := t.ConstraintDate

	switch constraintType {
	case models.ConstraintSNET:
		if cd != "" && (!hasCandidate || cd > candidate) {
			candidate, hasCandidate = cd, true
		}
	case models.ConstraintSNLT:
		if cd != "" && hasCandidate && candidate > cd {
			candidate = cd
		} else if cd != "" && !hasCandidate {
			candidate, hasCandidate = cd, true
		}
	case models.ConstraintFNET:
		if cd != "" {
			implied := calendar.AddWorkDays(cd, -off(t.Duration), cal)
			if !hasCandidate || implied > candidate {
				candidate, hasCandidate = implied, true
			}
		}
	case models.ConstraintFNLT:
		// No effect in the forward pass; applied in the backward pass.
	case models.ConstraintMFO:
		if cd != "" {
			// Matches the source engine: MFO assigns start/end directly
			// and skips the rest of this iteration's steps without
			// itself marking the pass "changed" — the assignment is
			// still visible to tasks processed later in this same
			// iteration.
			t.End = cd
			t.Start = calendar.AddWorkDays(cd, -off(t.Duration), cal)
			return false
		}
	default: // ASAP
		if !hasCandidate && t.Start == "" {
			candidate, hasCandidate = now().Format("2006-01-02"), true
		}
	}

	if !hasCandidate {
		if t.Start == "" {
			return false
		}
		candidate = t.Start
	}

	changed := false
	if t.Start != candidate {
		t.Start = candidate
		changed = true
	}

	if t.Start != "" && t.Duration >= 0 {
		newEnd := calendar.AddWorkDays(t.Start, off(t.Duration), cal)
		if t.End != newEnd {
			t.End = newEnd
			changed = true
		}
	}

	return changed
}
