package api

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/semmy-space/tasq/internal/logging"
)

const (
	// DefaultMaxAttempts bounds a poll session to roughly two minutes at DefaultInterval
	DefaultMaxAttempts = 60
	// DefaultInterval is the wait between two status checks
	DefaultInterval = 2 * time.Second
)

// errStillRunning marks a non-terminal status so backoff schedules another attempt
var errStillRunning = errors.New("task still running")

// TaskGetter fetches a task by ID
type TaskGetter interface {
	GetTask(ctx context.Context, id string) (*Task, error)
}

// Poller turns repeated status checks into a single blocking call.
type Poller struct {
	tasks    TaskGetter
	newTimer func() backoff.Timer
	logger   logrus.FieldLogger
}

// NewPoller creates a poller that fetches through tasks
func NewPoller(tasks TaskGetter, logger logrus.FieldLogger) *Poller {
	return &Poller{
		tasks:    tasks,
		newTimer: func() backoff.Timer { return nil }, // nil selects backoff's real timer
		logger:   logging.Component(logger, "poller"),
	}
}

// WithTimer replaces the wait primitive, e.g. with an instant timer in tests
func (p *Poller) WithTimer(newTimer func() backoff.Timer) *Poller {
	p.newTimer = newTimer
	return p
}

// PollTask fetches taskID until it completes, fails, or maxAttempts fetches
// have been made, waiting interval between fetches. onUpdate, if non-nil, sees
// every fetched task including the terminal one. Zero or negative
// maxAttempts/interval select the defaults.
//
// A fetch error ends the session immediately. A "failed" task returns
// *TaskFailedError; running out of attempts returns *PollTimeoutError.
// Cancelling ctx ends the session with ctx.Err().
func (p *Poller) PollTask(ctx context.Context, taskID string, onUpdate func(*Task), maxAttempts int, interval time.Duration) (*Task, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	log := p.logger.WithField("task_id", taskID)
	attempts := 0
	var completed *Task

	operation := func() error {
		attempts++
		task, err := p.tasks.GetTask(ctx, taskID)
		if err != nil {
			return backoff.Permanent(err)
		}
		if onUpdate != nil {
			onUpdate(task)
		}

		switch task.Status {
		case StatusCompleted:
			completed = task
			return nil
		case StatusFailed:
			msg := task.Error
			if msg == "" {
				msg = "Task failed"
			}
			return backoff.Permanent(&TaskFailedError{TaskID: taskID, Message: msg, Task: task})
		default:
			return errStillRunning
		}
	}

	notify := func(err error, wait time.Duration) {
		log.WithFields(logrus.Fields{
			"attempt": attempts,
			"wait":    wait.String(),
		}).Debug("Task not finished, polling again")
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(maxAttempts-1)),
		ctx,
	)

	err := backoff.RetryNotifyWithTimer(operation, b, notify, p.newTimer())
	switch {
	case err == nil:
		log.WithField("attempts", attempts).Debug("Task completed")
		return completed, nil
	case errors.Is(err, errStillRunning):
		return nil, &PollTimeoutError{TaskID: taskID, Attempts: attempts}
	default:
		return nil, err
	}
}
