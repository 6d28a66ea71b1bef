package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/semmy-space/tasq/internal/logging"
)

// Adapter wraps a Backend with fail-soft semantics.
// Its public methods never return storage errors: reads degrade to "absent",
// writes and deletes degrade to no-ops. Every anomaly is logged instead.
//
// All operations wait for the one-time open to resolve before touching the
// backend, so nothing runs against a half-opened store.
type Adapter struct {
	backend Backend
	logger  logrus.FieldLogger

	once   sync.Once
	ready  chan struct{}
	state  State // written once before ready is closed
	closed atomic.Bool
}

// NewAdapter creates an adapter over backend. A nil backend behaves like a
// host without storage: the adapter resolves as unsupported.
func NewAdapter(backend Backend, logger logrus.FieldLogger) *Adapter {
	return &Adapter{
		backend: backend,
		logger:  logging.Component(logger, "store"),
		ready:   make(chan struct{}),
	}
}

// Open starts the one-time initialization and waits for it to resolve or for
// ctx to end. It never fails; use State to see the outcome.
// The open itself is detached from ctx cancellation so a caller giving up
// does not poison the gate for everybody else.
func (a *Adapter) Open(ctx context.Context) {
	a.once.Do(func() {
		go a.open(context.WithoutCancel(ctx))
	})
	_ = a.Ready(ctx)
}

// Ready blocks until the open has resolved or ctx is done.
func (a *Adapter) Ready(ctx context.Context) error {
	select {
	case <-a.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State reports the resolved open state, or StatePending while open is in flight.
func (a *Adapter) State() State {
	select {
	case <-a.ready:
		return a.state
	default:
		return StatePending
	}
}

// Available reports whether the backend opened and is being used.
func (a *Adapter) Available() bool {
	return a.State() == StateAvailable && !a.closed.Load()
}

func (a *Adapter) open(ctx context.Context) {
	defer close(a.ready)

	if a.backend == nil {
		a.state = StateUnsupported
		a.logger.Info("No local storage configured, credentials are kept in memory only")
		return
	}

	err := a.backend.Open(ctx)
	switch {
	case err == nil:
		a.state = StateAvailable
		a.logger.Debug("Local storage opened")
	case errors.Is(err, ErrUnsupported):
		a.state = StateUnsupported
		a.logger.WithError(err).Warn("Local storage not supported, credentials are kept in memory only")
	case errors.Is(err, ErrUpgrade):
		// The store itself opened; later operations fail softly if the schema is unusable.
		a.state = StateAvailable
		a.logger.WithError(err).Error("Local storage schema upgrade failed")
	case errors.Is(err, ErrBlocked):
		a.state = StateFailed
		a.logger.WithError(err).Warn("Local storage open blocked, continuing without persistence")
	default:
		a.state = StateFailed
		a.logger.WithError(err).Error("Failed to open local storage, continuing without persistence")
	}
}

// status classifies the result of a single backend step.
type status int

const (
	statusOK status = iota
	statusAbsent
	statusUnavailable
	statusFailed
)

type outcome struct {
	value  string
	status status
	err    error
}

// await opens the store if needed and reports whether the backend may be used.
func (a *Adapter) await(ctx context.Context) outcome {
	a.Open(ctx)
	if err := ctx.Err(); err != nil {
		return outcome{status: statusFailed, err: err}
	}
	if !a.Available() {
		return outcome{status: statusUnavailable}
	}
	return outcome{status: statusOK}
}

func (a *Adapter) get(ctx context.Context, key string) outcome {
	if o := a.await(ctx); o.status != statusOK {
		return o
	}
	value, err := a.backend.Get(ctx, key)
	switch {
	case err == nil:
		return outcome{value: value, status: statusOK}
	case errors.Is(err, ErrNotFound):
		return outcome{status: statusAbsent}
	default:
		return outcome{status: statusFailed, err: err}
	}
}

func (a *Adapter) put(ctx context.Context, key, value string) outcome {
	if o := a.await(ctx); o.status != statusOK {
		return o
	}
	if err := a.backend.Put(ctx, key, value); err != nil {
		return outcome{status: statusFailed, err: err}
	}
	return outcome{status: statusOK}
}

func (a *Adapter) delete(ctx context.Context, key string) outcome {
	if o := a.await(ctx); o.status != statusOK {
		return o
	}
	err := a.backend.Delete(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return outcome{status: statusFailed, err: err}
	}
	return outcome{status: statusOK}
}

func (a *Adapter) report(op, key string, o outcome) {
	if o.status != statusFailed {
		return
	}
	a.logger.WithFields(logrus.Fields{
		"op":  op,
		"key": key,
	}).WithError(o.err).Warn("Local storage operation failed")
}

// Get returns the stored value for key. The boolean is false when the key is
// missing, the store is unavailable, or the read failed.
func (a *Adapter) Get(ctx context.Context, key string) (string, bool) {
	o := a.get(ctx, key)
	a.report("get", key, o)
	return o.value, o.status == statusOK
}

// Put stores value under key, overwriting any existing value. Best effort.
func (a *Adapter) Put(ctx context.Context, key, value string) {
	a.report("put", key, a.put(ctx, key, value))
}

// Delete removes key if present. Best effort.
func (a *Adapter) Delete(ctx context.Context, key string) {
	a.report("delete", key, a.delete(ctx, key))
}

// Close releases the backend. Closing before Open resolves the gate as
// unsupported so later operations become no-ops.
func (a *Adapter) Close() error {
	a.once.Do(func() {
		a.state = StateUnsupported
		close(a.ready)
	})
	<-a.ready

	if a.closed.Swap(true) || a.state != StateAvailable {
		return nil
	}
	if err := a.backend.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}
