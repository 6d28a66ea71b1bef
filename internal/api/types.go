package api

import (
	"net/url"
	"strconv"
	"time"
)

// TaskStatus is the service-reported state of a task
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Terminal reports whether polling stops at this status
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Target is one requested transform of the task input
type Target struct {
	Model    string   `json:"model"`
	Formats  []string `json:"formats"`
	Language string   `json:"language,omitempty"`
}

// CreateTaskRequest is the request body for POST /tasks
type CreateTaskRequest struct {
	URL     string   `json:"url"`
	Targets []Target `json:"targets"`
}

// Result points at one produced output document
type Result struct {
	Model    string `json:"model,omitempty"`
	Format   string `json:"format,omitempty"`
	Language string `json:"language,omitempty"`
	URL      string `json:"url"`
}

// Task is a unit of work on the service
type Task struct {
	ID        string     `json:"id"`
	Status    TaskStatus `json:"status"`
	URL       string     `json:"url,omitempty"`
	Targets   []Target   `json:"targets,omitempty"`
	Results   []Result   `json:"results,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TaskList is the response from GET /tasks
type TaskList struct {
	Tasks []Task `json:"tasks"`
	Total int    `json:"total"`
}

// ListTasksParams filters GET /tasks. Zero values are omitted.
type ListTasksParams struct {
	Status TaskStatus
	Limit  int
	Offset int
	Since  time.Time
}

// Values encodes the params as a query string
func (p ListTasksParams) Values() url.Values {
	v := url.Values{}
	if p.Status != "" {
		v.Set("status", string(p.Status))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	if !p.Since.IsZero() {
		v.Set("since", p.Since.UTC().Format(time.RFC3339))
	}
	return v
}

// Stats is the aggregate statistics document returned by GET /stats/{name}.
// Its shape is defined by the service.
type Stats map[string]any
