package store

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockTimeout bounds how long a file operation waits for another process
const lockTimeout = 5 * time.Second

// FileBackend stores values in an AES-256-GCM encrypted file.
// This is the fallback for environments where the OS keyring is unavailable (WSL, headless, Docker).
// Access is serialized across processes with a lock file next to the data file.
type FileBackend struct {
	path string
	key  []byte
	lock *flock.Flock
}

// NewFileBackend creates a file-backed store at path.
// If password is empty, uses a machine-specific key (less secure).
// Future improvement: use scrypt or argon2 for key derivation instead of sha256.
func NewFileBackend(path, password string) *FileBackend {
	if password == "" {
		// Machine-specific default (less secure than user-provided password)
		hostname, _ := os.Hostname()
		username := os.Getenv("USER")
		if username == "" {
			username = os.Getenv("USERNAME") // Windows fallback
		}
		password = fmt.Sprintf("%s@%s", username, hostname)
	}
	hash := sha256.Sum256([]byte(password))

	return &FileBackend{
		path: path,
		key:  hash[:],
		lock: flock.New(path + ".lock"),
	}
}

// Open creates the parent directory with 0700 permissions and checks the
// existing file (if any) can be decrypted with the configured key.
func (s *FileBackend) Open(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	return s.withLock(ctx, func() error {
		_, err := s.readStore()
		return err
	})
}

func (s *FileBackend) withLock(ctx context.Context, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil || !locked {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s", ErrBlocked, s.lock.Path())
	}
	defer s.lock.Unlock()

	return fn()
}

// encrypt encrypts plaintext using AES-256-GCM with a random nonce.
// The nonce is prepended to the ciphertext.
func (s *FileBackend) encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt reverses encrypt.
func (s *FileBackend) decrypt(ciphertext []byte) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

func (s *FileBackend) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// readStore decrypts and parses the data file.
// Returns an empty map if the file doesn't exist.
func (s *FileBackend) readStore() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}

	if len(data) == 0 {
		return make(map[string]string), nil
	}

	plaintext, err := s.decrypt(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt storage file: %w", err)
	}

	var values map[string]string
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return nil, fmt.Errorf("failed to parse storage file: %w", err)
	}
	return values, nil
}

// writeStore encrypts and writes the map to disk.
func (s *FileBackend) writeStore(values map[string]string) error {
	plaintext, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to serialize values: %w", err)
	}

	ciphertext, err := s.encrypt(plaintext)
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.path, ciphertext, 0600); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	return nil
}

// Get retrieves a value by key from the encrypted file.
func (s *FileBackend) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.withLock(ctx, func() error {
		values, err := s.readStore()
		if err != nil {
			return err
		}
		v, ok := values[key]
		if !ok {
			return ErrNotFound
		}
		value = v
		return nil
	})
	return value, err
}

// Put stores a value in the encrypted file.
func (s *FileBackend) Put(ctx context.Context, key, value string) error {
	return s.withLock(ctx, func() error {
		values, err := s.readStore()
		if err != nil {
			return err
		}
		values[key] = value
		return s.writeStore(values)
	})
}

// Delete removes a value from the encrypted file.
func (s *FileBackend) Delete(ctx context.Context, key string) error {
	return s.withLock(ctx, func() error {
		values, err := s.readStore()
		if err != nil {
			return err
		}
		if _, ok := values[key]; !ok {
			return ErrNotFound
		}
		delete(values, key)
		return s.writeStore(values)
	})
}

func (s *FileBackend) Close() error { return nil }
