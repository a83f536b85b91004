// Package importer parses project definition files (YAML or JSON)
// into the engine's task/calendar wire schema, grounded on the
// teacher's internal/dag.Parser: a plain-struct file representation
// with yaml/json tags, decoded then converted into the domain types
// rather than unmarshaled directly into them, so the file format can
// diverge from the wire schema without either one leaking into the
// other.
package importer

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/prakash-iyer/cpm-engine/pkg/models"
)

// projectFile represents the structure of a project definition file.
type projectFile struct {
	Name        string            `json:"name" yaml:"name"`
	WorkingDays []int             `json:"workingDays" yaml:"workingDays"`
	Exceptions  map[string]string `json:"exceptions,omitempty" yaml:"exceptions,omitempty"`
	Tasks       []taskFile        `json:"tasks" yaml:"tasks"`
}

// taskFile represents the structure of a task within a project file.
type taskFile struct {
	ID             string           `json:"id" yaml:"id"`
	Name           string           `json:"name" yaml:"name"`
	ParentID       string           `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Duration       int              `json:"duration" yaml:"duration"`
	Start          string           `json:"start,omitempty" yaml:"start,omitempty"`
	ConstraintType string           `json:"constraintType,omitempty" yaml:"constraintType,omitempty"`
	ConstraintDate string           `json:"constraintDate,omitempty" yaml:"constraintDate,omitempty"`
	Notes          string           `json:"notes,omitempty" yaml:"notes,omitempty"`
	Dependencies   []dependencyFile `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// dependencyFile represents a precedence link within a task file. The
// predecessor reference is "id" on the wire (spec.md §6), not
// "predecessorId".
type dependencyFile struct {
	PredecessorID string `json:"id" yaml:"id"`
	Type          string `json:"type,omitempty" yaml:"type,omitempty"`
	Lag           int    `json:"lag,omitempty" yaml:"lag,omitempty"`
}

// Result is a parsed project: its name, task list, and calendar.
type Result struct {
	Name     string
	Tasks    []*models.Task
	Calendar *models.Calendar
}

// Parser parses project definition files.
type Parser struct{}

// NewParser creates a new project file parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseYAMLFile parses a project definition from a YAML file.
func (p *Parser) ParseYAMLFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("importer: read file: %w", err)
	}
	return p.ParseYAML(data)
}

// ParseYAML parses a project definition from YAML bytes.
func (p *Parser) ParseYAML(data []byte) (*Result, error) {
	var pf projectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("importer: unmarshal YAML: %w", err)
	}
	return p.convert(&pf)
}

// ParseJSONFile parses a project definition from a JSON file.
func (p *Parser) ParseJSONFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("importer: read file: %w", err)
	}
	return p.ParseJSON(data)
}

// ParseJSON parses a project definition from JSON bytes.
func (p *Parser) ParseJSON(data []byte) (*Result, error) {
	var pf projectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("importer: unmarshal JSON: %w", err)
	}
	return p.convert(&pf)
}

func (p *Parser) convert(pf *projectFile) (*Result, error) {
	if pf.Name == "" {
		return nil, fmt.Errorf("importer: project name is required")
	}
	if len(pf.Tasks) == 0 {
		return nil, fmt.Errorf("importer: project %q has no tasks", pf.Name)
	}

	workingDays := pf.WorkingDays
	if len(workingDays) == 0 {
		workingDays = []int{1, 2, 3, 4, 5}
	}

	exceptions := make(map[string]models.CalendarException, len(pf.Exceptions))
	for date, kind := range pf.Exceptions {
		exceptions[date] = models.CalendarException{Working: kind == "working"}
	}

	cal := &models.Calendar{WorkingDays: workingDays, Exceptions: exceptions}

	tasks := make([]*models.Task, 0, len(pf.Tasks))
	for _, tf := range pf.Tasks {
		task, err := p.convertTask(&tf)
		if err != nil {
			return nil, fmt.Errorf("importer: task %q: %w", tf.ID, err)
		}
		tasks = append(tasks, task)
	}

	return &Result{Name: pf.Name, Tasks: tasks, Calendar: cal}, nil
}

func (p *Parser) convertTask(tf *taskFile) (*models.Task, error) {
	if tf.ID == "" {
		return nil, fmt.Errorf("task id is required")
	}

	deps := make([]models.Dependency, 0, len(tf.Dependencies))
	for _, df := range tf.Dependencies {
		if df.PredecessorID == "" {
			return nil, fmt.Errorf("dependency id is required")
		}
		deps = append(deps, models.Dependency{
			PredecessorID: df.PredecessorID,
			LinkType:      models.ParseLinkType(df.Type),
			Lag:           df.Lag,
		})
	}

	return &models.Task{
		ID:             tf.ID,
		Name:           tf.Name,
		ParentID:       tf.ParentID,
		Duration:       tf.Duration,
		Start:          tf.Start,
		ConstraintType: models.ParseConstraintType(tf.ConstraintType),
		ConstraintDate: tf.ConstraintDate,
		Notes:          tf.Notes,
		Dependencies:   deps,
	}, nil
}
