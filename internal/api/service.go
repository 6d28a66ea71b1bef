package api

import (
	"context"
	"encoding/json"
	"time"
)

// TaskService defines the operations exposed to callers of the task service.
type TaskService interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error)
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasks(ctx context.Context, params ListTasksParams) (*TaskList, error)
	GetStats(ctx context.Context, name string) (Stats, error)
	FetchResult(ctx context.Context, resultURL string) (json.RawMessage, error)
	ValidateKey(ctx context.Context) bool
	PollTask(ctx context.Context, taskID string, onUpdate func(*Task), maxAttempts int, interval time.Duration) (*Task, error)
}

// PollTask polls through this client with the default real-time waits
func (c *Client) PollTask(ctx context.Context, taskID string, onUpdate func(*Task), maxAttempts int, interval time.Duration) (*Task, error) {
	return NewPoller(c, c.logger).PollTask(ctx, taskID, onUpdate, maxAttempts, interval)
}

// Compile-time interface compliance check
var _ TaskService = (*Client)(nil)
