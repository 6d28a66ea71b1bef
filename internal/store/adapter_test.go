package store

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingBackend fails every operation with err after opening with openErr.
type failingBackend struct {
	openErr error
	err     error
	opens   int
	mu      sync.Mutex
}

func (f *failingBackend) Open(ctx context.Context) error {
	f.mu.Lock()
	f.opens++
	f.mu.Unlock()
	return f.openErr
}
func (f *failingBackend) Get(ctx context.Context, key string) (string, error) { return "", f.err }
func (f *failingBackend) Put(ctx context.Context, key, value string) error    { return f.err }
func (f *failingBackend) Delete(ctx context.Context, key string) error        { return f.err }
func (f *failingBackend) Close() error                                        { return nil }

// gatedBackend blocks Open until release is closed.
type gatedBackend struct {
	*MemoryBackend
	release chan struct{}
}

func (g *gatedBackend) Open(ctx context.Context) error {
	<-g.release
	return nil
}

func testLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)
	return logger, &buf
}

func TestAdapterRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(NewMemoryBackend(), nil)

	_, ok := a.Get(ctx, "apiKey")
	assert.False(t, ok)

	a.Put(ctx, "apiKey", "first")
	a.Put(ctx, "apiKey", "second")
	value, ok := a.Get(ctx, "apiKey")
	require.True(t, ok)
	assert.Equal(t, "second", value)
	assert.Equal(t, StateAvailable, a.State())

	a.Delete(ctx, "apiKey")
	_, ok = a.Get(ctx, "apiKey")
	assert.False(t, ok)

	// Deleting a missing key is silent
	a.Delete(ctx, "apiKey")
}

func TestAdapterOpenStates(t *testing.T) {
	tests := []struct {
		name     string
		backend  Backend
		expected State
		logged   string
	}{
		{name: "nil backend is unsupported", backend: nil, expected: StateUnsupported, logged: "memory only"},
		{name: "unsupported", backend: &failingBackend{openErr: ErrUnsupported}, expected: StateUnsupported, logged: "not supported"},
		{name: "blocked", backend: &failingBackend{openErr: ErrBlocked}, expected: StateFailed, logged: "blocked"},
		{name: "open failure", backend: &failingBackend{openErr: errors.New("disk on fire")}, expected: StateFailed, logged: "disk on fire"},
		{name: "upgrade failure keeps store available", backend: &failingBackend{openErr: ErrUpgrade}, expected: StateAvailable, logged: "upgrade failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := testLogger()
			a := NewAdapter(tt.backend, logger)

			assert.Equal(t, StatePending, a.State())
			a.Open(context.Background())
			assert.Equal(t, tt.expected, a.State())
			assert.Contains(t, buf.String(), tt.logged)
		})
	}
}

func TestAdapterFailSoft(t *testing.T) {
	ctx := context.Background()
	logger, buf := testLogger()
	backend := &failingBackend{err: errors.New("transaction aborted")}
	a := NewAdapter(backend, logger)

	assert.NotPanics(t, func() {
		value, ok := a.Get(ctx, "apiKey")
		assert.False(t, ok)
		assert.Empty(t, value)
		a.Put(ctx, "apiKey", "v")
		a.Delete(ctx, "apiKey")
	})

	assert.Contains(t, buf.String(), "transaction aborted")
	assert.Contains(t, buf.String(), "op=get")
	assert.Contains(t, buf.String(), "op=put")
	assert.Contains(t, buf.String(), "op=delete")
}

func TestAdapterUnavailableSkipsBackend(t *testing.T) {
	ctx := context.Background()
	backend := &failingBackend{openErr: errors.New("nope"), err: errors.New("must not be called")}
	logger, buf := testLogger()
	a := NewAdapter(backend, logger)

	a.Put(ctx, "apiKey", "v")
	_, ok := a.Get(ctx, "apiKey")
	assert.False(t, ok)
	assert.NotContains(t, buf.String(), "must not be called")
}

func TestAdapterOpensOnce(t *testing.T) {
	backend := &failingBackend{}
	a := NewAdapter(backend, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Get(context.Background(), "k")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, backend.opens)
}

func TestAdapterOperationsWaitForGate(t *testing.T) {
	backend := &gatedBackend{MemoryBackend: NewMemoryBackend(), release: make(chan struct{})}
	require.NoError(t, backend.MemoryBackend.Put(context.Background(), "apiKey", "stored"))
	a := NewAdapter(backend, nil)

	result := make(chan string, 1)
	go func() {
		value, _ := a.Get(context.Background(), "apiKey")
		result <- value
	}()

	select {
	case <-result:
		t.Fatal("Get returned before the store finished opening")
	case <-time.After(20 * time.Millisecond):
	}

	close(backend.release)
	assert.Equal(t, "stored", <-result)
}

func TestAdapterReadyHonorsContext(t *testing.T) {
	backend := &gatedBackend{MemoryBackend: NewMemoryBackend(), release: make(chan struct{})}
	defer close(backend.release)
	a := NewAdapter(backend, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, ok := a.Get(ctx, "apiKey")
	assert.False(t, ok)
	assert.ErrorIs(t, a.Ready(ctx), context.DeadlineExceeded)
}

func TestAdapterClose(t *testing.T) {
	t.Run("close before open resolves the gate", func(t *testing.T) {
		a := NewAdapter(NewMemoryBackend(), nil)
		require.NoError(t, a.Close())
		assert.Equal(t, StateUnsupported, a.State())

		a.Put(context.Background(), "k", "v")
		_, ok := a.Get(context.Background(), "k")
		assert.False(t, ok)
	})

	t.Run("operations after close are no-ops", func(t *testing.T) {
		a := NewAdapter(NewMemoryBackend(), nil)
		a.Put(context.Background(), "k", "v")
		require.NoError(t, a.Close())
		require.NoError(t, a.Close())

		_, ok := a.Get(context.Background(), "k")
		assert.False(t, ok)
	})
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StatePending, "pending"},
		{StateAvailable, "available"},
		{StateUnsupported, "unsupported"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.String())
		})
	}
}
