package api

import (
	"errors"
	"fmt"
)

// ErrCredentialRequired is returned before any network activity when no API key is set
var ErrCredentialRequired = errors.New("API key is required")

// ErrPollTimeout is matched by PollTimeoutError via errors.Is
var ErrPollTimeout = errors.New("polling timed out")

// ErrInvalidRequest wraps client-side validation failures
var ErrInvalidRequest = errors.New("invalid request")

// APIError is a non-success response from the service
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NetworkError means the service could not be reached at all
type NetworkError struct {
	Err error
}

// Error implements the error interface
func (e *NetworkError) Error() string {
	return "Network error: unable to reach the service. Please check your internet connection."
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TaskFailedError is a task that reached the "failed" status
type TaskFailedError struct {
	TaskID  string
	Message string
	Task    *Task
}

// Error implements the error interface
func (e *TaskFailedError) Error() string {
	return e.Message
}

// PollTimeoutError is returned when a task is still running after the last attempt
type PollTimeoutError struct {
	TaskID   string
	Attempts int
}

// Error implements the error interface
func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("Polling timeout: task %s did not finish after %d attempts", e.TaskID, e.Attempts)
}

// Is reports whether target is ErrPollTimeout
func (e *PollTimeoutError) Is(target error) bool {
	return target == ErrPollTimeout
}
