package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Config holds the CLI configuration. Values are kept as strings so the file
// stays hand-editable; typed accessors parse them on use.
type Config struct {
	BaseURL       string `json:"base_url,omitempty"`
	Store         string `json:"store,omitempty"`
	StorePath     string `json:"store_path,omitempty"`
	PollAttempts  string `json:"poll_attempts,omitempty"`
	PollInterval  string `json:"poll_interval,omitempty"`
	RateLimit     string `json:"rate_limit,omitempty"`
	LogLevel      string `json:"log_level,omitempty"`
	LogFormat     string `json:"log_format,omitempty"`
	DefaultOutput string `json:"default_output,omitempty"`

	path string
}

// Load reads config from XDG path, returns defaults if file doesn't exist
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path, returns defaults if file doesn't exist
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{path: path}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Config{path: path}
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Path returns the file the config was loaded from
func (c *Config) Path() string {
	if c.path == "" {
		return ConfigPath()
	}
	return c.path
}

// Save writes the config to the path it was loaded from
func (c *Config) Save() error {
	path := c.Path()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// JSON is valid JSON5
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// field finds the struct field backing a config key
func (c *Config) field(key string) (reflect.Value, error) {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		jsonTag := t.Field(i).Tag.Get("json")
		if jsonTag == key || jsonTag == key+",omitempty" {
			return v.Field(i), nil
		}
	}

	return reflect.Value{}, fmt.Errorf("unknown config key: %s", key)
}

// Get retrieves a config value by key name
func (c *Config) Get(key string) (string, error) {
	f, err := c.field(key)
	if err != nil {
		return "", err
	}
	return f.String(), nil
}

// Set validates and sets a config value by key name and saves
func (c *Config) Set(key, value string) error {
	f, err := c.field(key)
	if err != nil {
		return err
	}
	if spec, err := GetKey(key); err == nil && spec.Validate != nil {
		if err := spec.Validate(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	f.SetString(value)
	return c.Save()
}

// Unset sets a config value to its zero value and saves
func (c *Config) Unset(key string) error {
	f, err := c.field(key)
	if err != nil {
		return err
	}
	f.SetString("")
	return c.Save()
}

// Values returns every key with its current value
func (c *Config) Values() map[string]string {
	values := make(map[string]string, len(Keys))
	for _, key := range ValidKeys() {
		v, _ := c.Get(key)
		values[key] = v
	}
	return values
}

// MaxPollAttempts returns the configured attempt bound, or 0 for the default
func (c *Config) MaxPollAttempts() int {
	n, err := strconv.Atoi(c.PollAttempts)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// PollIntervalDuration returns the configured poll interval, or 0 for the default
func (c *Config) PollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// RateLimitPerSecond returns the configured request rate, or 0 for unlimited
func (c *Config) RateLimitPerSecond() float64 {
	f, err := strconv.ParseFloat(c.RateLimit, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
