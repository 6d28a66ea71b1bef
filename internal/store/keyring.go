package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/adrg/xdg"
)

// KeyringBackend stores values in the OS keyring.
type KeyringBackend struct {
	cfg  keyring.Config
	ring keyring.Keyring
}

// NewKeyringBackend creates a keyring-backed store using the platform defaults.
func NewKeyringBackend() *KeyringBackend {
	return &KeyringBackend{
		cfg: keyring.Config{
			ServiceName:              AppName,
			KeychainTrustApplication: true, // macOS: don't prompt every access
			FileDir:                  filepath.Join(xdg.DataHome, AppName, "keyring"),
			FilePasswordFunc:         keyring.TerminalPrompt,
		},
	}
}

// NewKeyringBackendWith wraps an already opened keyring.
func NewKeyringBackendWith(ring keyring.Keyring) *KeyringBackend {
	return &KeyringBackend{ring: ring}
}

// Open opens the keyring. A host without any keyring backend is unsupported.
func (s *KeyringBackend) Open(ctx context.Context) error {
	if s.ring != nil {
		return nil
	}

	ring, err := keyring.Open(s.cfg)
	if err != nil {
		if errors.Is(err, keyring.ErrNoAvailImpl) {
			return fmt.Errorf("%w: %w", ErrUnsupported, err)
		}
		return fmt.Errorf("failed to open keyring: %w", err)
	}

	s.ring = ring
	return nil
}

// Get retrieves a value by key from the keyring.
func (s *KeyringBackend) Get(ctx context.Context, key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("keyring get failed: %w", err)
	}
	return string(item.Data), nil
}

// Put stores a value in the keyring.
func (s *KeyringBackend) Put(ctx context.Context, key, value string) error {
	item := keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: AppName + " " + key,
	}
	if err := s.ring.Set(item); err != nil {
		return fmt.Errorf("keyring set failed: %w", err)
	}
	return nil
}

// Delete removes a value from the keyring.
func (s *KeyringBackend) Delete(ctx context.Context, key string) error {
	if err := s.ring.Remove(key); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("keyring delete failed: %w", err)
	}
	return nil
}

func (s *KeyringBackend) Close() error { return nil }
