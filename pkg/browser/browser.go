package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// ErrUnsupportedPlatform is returned when no opener is known for the OS
var ErrUnsupportedPlatform = errors.New("opening a browser is not supported on this platform")

// start launches a command without waiting for it; replaced in tests
var start = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Open opens the specified http(s) URL in the default browser.
func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("refusing to open %q: not an http(s) URL", rawURL)
	}

	name, args, ok := command(runtime.GOOS, u.String())
	if !ok {
		return ErrUnsupportedPlatform
	}
	return start(name, args...)
}

// command returns the opener invocation for goos
func command(goos, target string) (string, []string, bool) {
	switch goos {
	case "darwin":
		return "open", []string{target}, true
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{target}, true
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, true
	default:
		return "", nil, false
	}
}
