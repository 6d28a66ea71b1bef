package config

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// KeySpec describes one settable config key
type KeySpec struct {
	Description string
	Validate    func(string) error
}

// Keys maps config key names to their description and validation
var Keys = map[string]KeySpec{
	"base_url": {
		Description: "Task service API base URL, e.g. https://api.example.com/v1",
		Validate:    validateURL,
	},
	"store": {
		Description: "Credential store: auto, sqlite, keyring, file, memory, none",
		Validate:    oneOf("auto", "sqlite", "keyring", "file", "memory", "none"),
	},
	"store_path": {
		Description: "Directory holding the credential store",
	},
	"poll_attempts": {
		Description: "Maximum status checks per poll session",
		Validate:    positiveInt,
	},
	"poll_interval": {
		Description: "Wait between status checks, e.g. 2s",
		Validate:    positiveDuration,
	},
	"rate_limit": {
		Description: "Maximum requests per second, 0 disables limiting",
		Validate:    nonNegativeFloat,
	},
	"log_level": {
		Description: "Log level: trace, debug, info, warn, error",
		Validate:    validateLevel,
	},
	"log_format": {
		Description: "Log format: text or json",
		Validate:    oneOf("text", "json"),
	},
	"default_output": {
		Description: "Default output format: json, plain, rich",
		Validate:    oneOf("json", "plain", "rich"),
	},
}

// GetKey returns the spec for the named key
func GetKey(name string) (KeySpec, error) {
	spec, ok := Keys[name]
	if !ok {
		return KeySpec{}, fmt.Errorf("unknown config key: %s", name)
	}
	return spec, nil
}

// ValidKeys returns a sorted list of config key names
func ValidKeys() []string {
	keys := make([]string, 0, len(Keys))
	for name := range Keys {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

func validateURL(v string) error {
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q: expected http(s)://host[/path]", v)
	}
	return nil
}

func oneOf(allowed ...string) func(string) error {
	return func(v string) error {
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return fmt.Errorf("invalid value %q: must be one of %v", v, allowed)
	}
}

func positiveInt(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid value %q: expected a positive integer", v)
	}
	return nil
}

func positiveDuration(v string) error {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fmt.Errorf("invalid value %q: expected a positive duration like 2s", v)
	}
	return nil
}

func nonNegativeFloat(v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return fmt.Errorf("invalid value %q: expected a number >= 0", v)
	}
	return nil
}

func validateLevel(v string) error {
	if _, err := logrus.ParseLevel(v); err != nil {
		return fmt.Errorf("invalid log level %q", v)
	}
	return nil
}
