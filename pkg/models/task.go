package models

import (
	"encoding/json"
	"strings"
)

// LinkType is the precedence relationship between a predecessor and a
// successor task.
type LinkType string

const (
	LinkFS LinkType = "FS" // finish-to-start
	LinkSS LinkType = "SS" // start-to-start
	LinkFF LinkType = "FF" // finish-to-finish
	LinkSF LinkType = "SF" // start-to-finish
)

// ParseLinkType normalizes a wire-form link type. An unrecognized value
// collapses to FS, matching the source engine's behavior.
func ParseLinkType(s string) LinkType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(LinkSS):
		return LinkSS
	case string(LinkFF):
		return LinkFF
	case string(LinkSF):
		return LinkSF
	default:
		return LinkFS
	}
}

// ConstraintType restricts when a task may start or finish.
type ConstraintType string

const (
	ConstraintASAP ConstraintType = "ASAP"
	ConstraintSNET ConstraintType = "SNET" // start no earlier than
	ConstraintSNLT ConstraintType = "SNLT" // start no later than
	ConstraintFNET ConstraintType = "FNET" // finish no earlier than
	ConstraintFNLT ConstraintType = "FNLT" // finish no later than
	ConstraintMFO  ConstraintType = "MFO"  // must finish on
)

// ParseConstraintType normalizes a wire-form constraint type. Empty or
// unrecognized values collapse to ASAP.
func ParseConstraintType(s string) ConstraintType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(ConstraintSNET):
		return ConstraintSNET
	case string(ConstraintSNLT):
		return ConstraintSNLT
	case string(ConstraintFNET):
		return ConstraintFNET
	case string(ConstraintFNLT):
		return ConstraintFNLT
	case string(ConstraintMFO):
		return ConstraintMFO
	default:
		return ConstraintASAP
	}
}

// UnmarshalJSON normalizes the wire-form link type on decode, so every
// consumer can trust dep.LinkType is one of FS/SS/FF/SF.
func (l *LinkType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = ParseLinkType(s)
	return nil
}

// UnmarshalJSON normalizes the wire-form constraint type on decode.
func (c *ConstraintType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = ParseConstraintType(s)
	return nil
}

// Dependency links a task to one of its predecessors. The wire field is
// "id" (spec.md §6, matching the original engine's Dependency.id), not
// "predecessorId".
type Dependency struct {
	PredecessorID string   `json:"id"`
	LinkType      LinkType `json:"type"`
	Lag           int      `json:"lag"`
}

// Task is the atomic scheduling record. Start/End/LateStart/LateFinish
// are empty strings, not pointers, to mirror the wire schema's "" means
// unknown convention; callers that need tri-state semantics check
// HasStart/HasEnd.
type Task struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
	SortKey  string `json:"sortKey"`
	Level    int    `json:"level"`

	Duration int    `json:"duration"`
	Start    string `json:"start"`
	End      string `json:"end"`

	ConstraintType ConstraintType `json:"constraintType"`
	ConstraintDate string         `json:"constraintDate,omitempty"`

	Dependencies []Dependency `json:"dependencies"`

	// Calculated outputs.
	LateStart      string `json:"lateStart,omitempty"`
	LateFinish     string `json:"lateFinish,omitempty"`
	TotalFloatDays int    `json:"totalFloat"`
	FreeFloatDays  int    `json:"freeFloat"`
	IsCritical     bool   `json:"_isCritical"`

	// Passthrough fields: carried verbatim, never read by the core.
	Progress           int    `json:"progress"`
	Notes              string `json:"notes"`
	Collapsed          bool   `json:"_collapsed,omitempty"`
	SchedulingMode     string `json:"schedulingMode,omitempty"`
	TradePartnerID     string `json:"tradePartnerId,omitempty"`
	ActualStart        string `json:"actualStart,omitempty"`
	ActualFinish       string `json:"actualFinish,omitempty"`
	RemainingDuration  int    `json:"remainingDuration,omitempty"`
	BaselineStart      string `json:"baselineStart,omitempty"`
	BaselineFinish     string `json:"baselineFinish,omitempty"`
	BaselineDuration   int    `json:"baselineDuration,omitempty"`
	WBS                string `json:"wbs,omitempty"`
}

// HasStart reports whether the task's start date is known.
func (t *Task) HasStart() bool { return t.Start != "" }

// HasEnd reports whether the task's end date is known.
func (t *Task) HasEnd() bool { return t.End != "" }

// HasParent reports whether the task declares a parent.
func (t *Task) HasParent() bool { return t.ParentID != "" }

// DurationOffset returns off(duration) = max(0, duration-1), the same
// offset the forward/backward passes compute with their own off().
// Negative or missing duration is treated as 0.
func (t *Task) DurationOffset() int {
	return durationOffset(t.Duration)
}

func durationOffset(duration int) int {
	if duration <= 0 {
		return 0
	}
	return duration - 1
}
