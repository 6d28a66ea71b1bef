package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/semmy-space/tasq/internal/api"
	"github.com/semmy-space/tasq/internal/config"
	"github.com/semmy-space/tasq/internal/credential"
	"github.com/semmy-space/tasq/internal/events"
	"github.com/semmy-space/tasq/internal/output"
	"github.com/semmy-space/tasq/internal/store"
)

// ServiceProvider lazily creates and caches the credential manager and the
// task service client.
type ServiceProvider struct {
	cfg     *config.Config
	globals *Globals
	logger  *logrus.Logger

	credsOnce sync.Once
	adapter   *store.Adapter
	creds     *credential.Manager
	credsErr  error

	clientOnce sync.Once
	client     *api.Client
	clientErr  error
}

// NewServiceProvider creates a ServiceProvider with the given config.
func NewServiceProvider(cfg *config.Config, globals *Globals, logger *logrus.Logger) *ServiceProvider {
	return &ServiceProvider{cfg: cfg, globals: globals, logger: logger}
}

// StoreKind returns the effective credential store kind
func (sp *ServiceProvider) StoreKind() string {
	kind := resolve(sp.globals.Store, sp.cfg.Store)
	if kind == "" {
		return store.KindAuto
	}
	return kind
}

// Credentials returns the credential manager, creating and initializing it
// on first call.
func (sp *ServiceProvider) Credentials(ctx context.Context) (*credential.Manager, error) {
	sp.credsOnce.Do(func() {
		backend, err := store.NewBackend(sp.StoreKind(), resolve(sp.globals.StorePath, sp.cfg.StorePath))
		if err != nil {
			sp.credsErr = output.NewCLIError(output.ExitConfigError, fmt.Sprintf("Failed to initialize credential store: %v", err)).
				WithHint("Run: tasq config set store auto")
			return
		}

		sp.adapter = store.NewAdapter(backend, sp.logger)
		bus := events.NewBus()
		bus.SubscribeFunc(events.Loaded, func(events.Event) {
			sp.logger.WithField("store", sp.StoreKind()).Debug("Loaded API key from local storage")
		})
		sp.creds = credential.New(sp.adapter, bus, sp.logger)

		if err := sp.creds.Initialize(ctx); err != nil {
			sp.credsErr = err
		}
	})
	return sp.creds, sp.credsErr
}

// StoreState returns the readiness of the credential store, or pending if
// it was never opened.
func (sp *ServiceProvider) StoreState() store.State {
	if sp.adapter == nil {
		return store.StatePending
	}
	return sp.adapter.State()
}

// Client returns the task service client, creating it on first call.
func (sp *ServiceProvider) Client(ctx context.Context) (*api.Client, error) {
	sp.clientOnce.Do(func() {
		baseURL := resolve(sp.globals.BaseURL, sp.cfg.BaseURL)
		if baseURL == "" {
			sp.clientErr = output.NewCLIError(output.ExitConfigError, "Task service base URL is not configured").
				WithHint("Run: tasq setup")
			return
		}

		creds, err := sp.Credentials(ctx)
		if err != nil {
			sp.clientErr = err
			return
		}

		client, err := api.NewClient(baseURL, creds, api.Options{
			RateLimit: sp.cfg.RateLimitPerSecond(),
			Logger:    sp.logger,
		})
		if err != nil {
			sp.clientErr = output.NewCLIError(output.ExitConfigError, fmt.Sprintf("Invalid base URL: %v", err)).
				WithHint("Run: tasq config set base_url https://api.example.com/v1")
			return
		}
		sp.client = client
	})
	return sp.client, sp.clientErr
}

// Close drains pending credential writes and closes the store.
func (sp *ServiceProvider) Close(ctx context.Context) error {
	if sp.creds == nil {
		return nil
	}
	return sp.creds.Shutdown(ctx)
}
