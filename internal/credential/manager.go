// Package credential owns the active API key: the in-memory value is the
// source of truth, local storage is a best-effort mirror.
package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/semmy-space/tasq/internal/events"
	"github.com/semmy-space/tasq/internal/logging"
)

// StorageKey is the fixed key the credential is persisted under
const StorageKey = "apiKey"

// ErrNoCredential is returned by Token when no API key is set
var ErrNoCredential = errors.New("no API key set")

// Store is the fail-soft persistence the manager mirrors into.
// *store.Adapter implements it.
type Store interface {
	Open(ctx context.Context)
	Get(ctx context.Context, key string) (string, bool)
	Put(ctx context.Context, key, value string)
	Delete(ctx context.Context, key string)
	Close() error
}

// State is the manager's lifecycle state
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateEmpty
	StatePresent
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StatePresent:
		return "present"
	default:
		return "unknown"
	}
}

// Manager holds the current credential and mirrors it into a Store.
type Manager struct {
	store  Store
	bus    *events.Bus
	logger logrus.FieldLogger

	mu    sync.RWMutex
	value string
	state State
	gen   uint64 // bumped by every Set and Clear

	// held across the load decision and Loaded so a concurrent Set or Clear
	// cannot publish ahead of it; Loaded observers must not call Set or Clear
	loadMu sync.Mutex

	initOnce sync.Once
	initDone chan struct{}

	writeMu sync.Mutex // serializes persisted writes
	pending sync.WaitGroup
}

// New creates a manager. A nil bus gets a fresh one.
// Call Initialize to load a previously stored credential.
func New(s Store, bus *events.Bus, logger logrus.FieldLogger) *Manager {
	if bus == nil {
		bus = events.NewBus()
	}
	return &Manager{
		store:    s,
		bus:      bus,
		logger:   logging.Component(logger, "credential"),
		initDone: make(chan struct{}),
	}
}

// Events returns the bus lifecycle events are published on
func (m *Manager) Events() *events.Bus {
	return m.bus
}

// Subscribe registers o for events of kind
func (m *Manager) Subscribe(kind events.Kind, o events.Observer) {
	m.bus.Subscribe(kind, o)
}

// Initialize opens the store and loads a stored credential, once.
// It waits until loading finished or ctx is done; loading itself continues
// in the background if ctx ends first. Load problems leave the manager empty.
func (m *Manager) Initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		m.mu.Lock()
		if m.state == StateUninitialized {
			m.state = StateLoading
		}
		m.mu.Unlock()

		go func() {
			defer close(m.initDone)
			m.load(context.WithoutCancel(ctx))
		}()
	})

	select {
	case <-m.initDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) load(ctx context.Context) {
	m.store.Open(ctx)
	stored, ok := m.store.Get(ctx, StorageKey)

	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	m.mu.Lock()
	loaded := false
	switch {
	case m.gen > 0:
		// Set or Clear ran while loading; the newer in-memory value wins.
		if m.value == "" {
			m.state = StateEmpty
		} else {
			m.state = StatePresent
		}
	case ok && stored != "":
		m.value = stored
		m.state = StatePresent
		loaded = true
	default:
		m.state = StateEmpty
	}
	m.mu.Unlock()

	if loaded {
		m.logger.Debug("Loaded stored API key")
		m.bus.Publish(events.Event{Kind: events.Loaded, Credential: stored})
	}
}

// Set replaces the credential. The new value is visible to Get immediately;
// persistence happens in the background and Updated is published without
// waiting for it. An empty value removes the persisted copy.
func (m *Manager) Set(ctx context.Context, value string) {
	m.loadMu.Lock()
	m.mu.Lock()
	m.value = value
	if value == "" {
		m.state = StateEmpty
	} else {
		m.state = StatePresent
	}
	m.gen++
	gen := m.gen
	m.mu.Unlock()
	m.loadMu.Unlock()

	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		m.persist(context.WithoutCancel(ctx), gen, value)
	}()

	m.bus.Publish(events.Event{Kind: events.Updated, Credential: value})
}

// Get returns the current credential. Never blocks on storage.
func (m *Manager) Get() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value, m.value != ""
}

// Has reports whether a credential is set
func (m *Manager) Has() bool {
	_, ok := m.Get()
	return ok
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Clear waits for the store to finish opening, drops the credential from
// memory, deletes the persisted copy and publishes Cleared.
func (m *Manager) Clear(ctx context.Context) {
	m.store.Open(ctx)

	m.loadMu.Lock()
	m.mu.Lock()
	m.value = ""
	m.state = StateEmpty
	m.gen++
	gen := m.gen
	m.mu.Unlock()
	m.loadMu.Unlock()

	m.persist(ctx, gen, "")
	m.bus.Publish(events.Event{Kind: events.Cleared})
}

// persist mirrors value into the store unless a newer Set or Clear has
// superseded generation gen, so the stored copy converges on the last write.
func (m *Manager) persist(ctx context.Context, gen uint64, value string) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	current := m.gen
	m.mu.RUnlock()
	if gen != current {
		m.logger.WithField("generation", gen).Debug("Skipping superseded credential write")
		return
	}

	if value == "" {
		m.store.Delete(ctx, StorageKey)
		return
	}
	m.store.Put(ctx, StorageKey, value)
}

// Token implements oauth2.TokenSource with the current key as a bearer token.
func (m *Manager) Token() (*oauth2.Token, error) {
	value, ok := m.Get()
	if !ok {
		return nil, ErrNoCredential
	}
	return &oauth2.Token{AccessToken: value, TokenType: "Bearer"}, nil
}

// Wait blocks until background persistence has drained or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown drains background persistence and closes the store.
func (m *Manager) Shutdown(ctx context.Context) error {
	if err := m.Wait(ctx); err != nil {
		return fmt.Errorf("wait for pending writes: %w", err)
	}
	if err := m.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// Compile-time interface compliance check
var _ oauth2.TokenSource = (*Manager)(nil)
