package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Validate checks the request before it is sent
func (r CreateTaskRequest) Validate() error {
	u, err := url.Parse(r.URL)
	if r.URL == "" || err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: a valid target URL is required", ErrInvalidRequest)
	}
	if len(r.Targets) == 0 {
		return fmt.Errorf("%w: at least one target is required", ErrInvalidRequest)
	}
	for i, t := range r.Targets {
		if strings.TrimSpace(t.Model) == "" {
			return fmt.Errorf("%w: target %d has no model", ErrInvalidRequest, i+1)
		}
		if len(t.Formats) == 0 {
			return fmt.Errorf("%w: target %d has no output formats", ErrInvalidRequest, i+1)
		}
	}
	return nil
}

// CreateTask submits a new task
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.Execute(ctx, "tasks", RequestOptions{Method: http.MethodPost, Body: req})
	if err != nil {
		return nil, err
	}

	var task Task
	if err := resp.Decode(&task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask fetches a task by ID
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: task ID is required", ErrInvalidRequest)
	}

	resp, err := c.Execute(ctx, "tasks/"+url.PathEscape(id), RequestOptions{})
	if err != nil {
		return nil, err
	}

	var task Task
	if err := resp.Decode(&task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks fetches tasks matching params
func (c *Client) ListTasks(ctx context.Context, params ListTasksParams) (*TaskList, error) {
	resp, err := c.Execute(ctx, "tasks", RequestOptions{Query: params.Values()})
	if err != nil {
		return nil, err
	}

	var list TaskList
	if err := resp.Decode(&list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetStats fetches aggregate task statistics by name
func (c *Client) GetStats(ctx context.Context, name string) (Stats, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: statistics name is required", ErrInvalidRequest)
	}

	resp, err := c.Execute(ctx, "stats/"+url.PathEscape(name), RequestOptions{})
	if err != nil {
		return nil, err
	}

	var stats Stats
	if err := resp.Decode(&stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// FetchResult downloads a result document hosted outside the service.
// The API key is not sent to the document host.
func (c *Client) FetchResult(ctx context.Context, resultURL string) (json.RawMessage, error) {
	resp, err := c.fetch(ctx, resultURL)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ValidateKey reports whether the current credential is accepted, using the
// cheapest listing call. Any failure counts as invalid.
func (c *Client) ValidateKey(ctx context.Context) bool {
	_, err := c.ListTasks(ctx, ListTasksParams{Limit: 1})
	if err != nil {
		c.logger.WithError(err).Debug("API key validation failed")
		return false
	}
	return true
}
