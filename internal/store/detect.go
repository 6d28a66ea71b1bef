package store

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
)

// Backend kinds accepted by NewBackend
const (
	KindAuto    = "auto"
	KindSQLite  = "sqlite"
	KindKeyring = "keyring"
	KindFile    = "file"
	KindMemory  = "memory"
	KindNone    = "none"
)

// Kinds lists the accepted backend kinds
var Kinds = []string{KindAuto, KindSQLite, KindKeyring, KindFile, KindMemory, KindNone}

// DataDir returns the XDG data directory for tasq
// Typically ~/.local/share/tasq/ on Linux
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// NewBackend creates the backend for kind. dir overrides the data directory
// for file-based backends. KindNone returns a nil Backend, which the Adapter
// treats as a host without storage.
//
// The keyring can't be used reliably under WSL or without a display server,
// so those environments get the encrypted file instead.
func NewBackend(kind, dir string) (Backend, error) {
	if dir == "" {
		dir = DataDir()
	}

	switch kind {
	case "", KindAuto, KindSQLite:
		return NewSQLiteBackend(filepath.Join(dir, "store.db")), nil
	case KindKeyring:
		if IsWSL() || IsHeadless() {
			return NewFileBackend(filepath.Join(dir, "store.enc"), os.Getenv("TASQ_STORE_PASSWORD")), nil
		}
		return NewKeyringBackend(), nil
	case KindFile:
		return NewFileBackend(filepath.Join(dir, "store.enc"), os.Getenv("TASQ_STORE_PASSWORD")), nil
	case KindMemory:
		return NewMemoryBackend(), nil
	case KindNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store kind: %s (valid: %s)", kind, strings.Join(Kinds, ", "))
	}
}

// IsWSL returns true if running under Windows Subsystem for Linux.
func IsWSL() bool {
	if runtime.GOOS != "linux" {
		return false
	}

	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}

	version := strings.ToLower(string(data))
	return strings.Contains(version, "microsoft") || strings.Contains(version, "wsl")
}

// IsHeadless returns true if running in a headless environment (no display server).
// Only applicable on Linux; macOS and Windows are assumed to have GUI.
func IsHeadless() bool {
	if runtime.GOOS != "linux" {
		return false
	}

	// Check for X11 or Wayland display
	return os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == ""
}
