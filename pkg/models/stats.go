package models

// ProjectStats summarizes a completed calculate() pass.
type ProjectStats struct {
	CalcTimeMs     float64 `json:"calcTime"`
	TaskCount      int     `json:"taskCount"`
	CriticalCount  int     `json:"criticalCount"`
	ProjectStart   string  `json:"projectStart,omitempty"`
	ProjectEnd     string  `json:"projectEnd"`
	Duration       int     `json:"duration"`
	Error          string  `json:"error,omitempty"`
}
