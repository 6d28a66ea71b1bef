package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/semmy-space/tasq/internal/logging"
)

// DefaultUserAgent is sent when Options.UserAgent is empty
const DefaultUserAgent = "tasq"

// Options configures a Client
type Options struct {
	HTTPClient *http.Client
	// RateLimit caps requests per second; zero disables limiting
	RateLimit float64
	UserAgent string
	Logger    logrus.FieldLogger
}

// Client attaches the current credential to requests against the task
// service and normalizes its responses. It never retries.
type Client struct {
	baseURL   *url.URL
	tokens    oauth2.TokenSource
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    logrus.FieldLogger
}

// NewClient creates a Client for baseURL. tokens supplies the API key on
// every call, typically a *credential.Manager.
func NewClient(baseURL string, tokens oauth2.TokenSource, opts Options) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidRequest)
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", ErrInvalidRequest, baseURL)
	}

	c := &Client{
		baseURL:   u,
		tokens:    tokens,
		http:      opts.HTTPClient,
		userAgent: opts.UserAgent,
		logger:    logging.Component(opts.Logger, "api"),
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c, nil
}

// RequestOptions shapes a single call
type RequestOptions struct {
	Method string // GET when empty
	Query  url.Values
	// Header is applied after the defaults, so it can override them
	Header http.Header
	// Body is JSON-encoded when non-nil
	Body any
}

// Response is a successful, normalized response. Data is always JSON: either
// the service's JSON body or {"message": text, "status": code} for other bodies.
type Response struct {
	Status int
	Header http.Header
	Data   json.RawMessage
}

// Decode unmarshals Data into v
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Execute calls <base>/<endpoint> with the current credential.
// Without a credential it fails with ErrCredentialRequired before doing
// anything else.
func (c *Client) Execute(ctx context.Context, endpoint string, opts RequestOptions) (*Response, error) {
	if c.tokens == nil {
		return nil, ErrCredentialRequired
	}
	tok, err := c.tokens.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return nil, ErrCredentialRequired
	}

	req, err := c.newRequest(ctx, c.endpointURL(endpoint, opts.Query), opts.Method, opts.Body)
	if err != nil {
		return nil, err
	}
	tok.SetAuthHeader(req)
	for name, values := range opts.Header {
		req.Header.Del(name)
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	return c.do(req)
}

// fetch issues an unauthenticated GET to an absolute URL with the same
// response handling as Execute.
func (c *Client) fetch(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid URL %q", ErrInvalidRequest, rawURL)
	}
	req, err := c.newRequest(ctx, u.String(), http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) endpointURL(endpoint string, query url.Values) string {
	u := *c.baseURL
	// endpoint segments arrive path-escaped
	u.RawPath = strings.TrimRight(u.EscapedPath(), "/") + "/" + strings.TrimLeft(endpoint, "/")
	if p, err := url.PathUnescape(u.RawPath); err == nil {
		u.Path = p
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, target, method string, body any) (*http.Request, error) {
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	return req, nil
}

func (c *Client) do(req *http.Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	log := c.logger.WithFields(logrus.Fields{
		"method":     req.Method,
		"url":        req.URL.Redacted(),
		"request_id": req.Header.Get("X-Request-Id"),
	})
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Debug("Request failed")
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("Request completed")

	data, err := normalizeBody(resp.Header.Get("Content-Type"), body, resp.StatusCode)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(data, resp.StatusCode),
		}
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Data: data}, nil
}

// isJSON reports whether a Content-Type header declares JSON
func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// normalizeBody keeps JSON bodies and wraps anything else as {message, status}.
func normalizeBody(contentType string, body []byte, status int) (json.RawMessage, error) {
	if isJSON(contentType) {
		if len(bytes.TrimSpace(body)) == 0 {
			return json.RawMessage("null"), nil
		}
		if !json.Valid(body) {
			return nil, fmt.Errorf("decode response: invalid JSON body (HTTP %d)", status)
		}
		return json.RawMessage(body), nil
	}

	wrapped, err := json.Marshal(struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	}{Message: string(body), Status: status})
	if err != nil {
		return nil, fmt.Errorf("wrap response: %w", err)
	}
	return wrapped, nil
}

// errorMessage extracts "message" or "error" from a failed response body,
// falling back to a generic status line.
func errorMessage(data json.RawMessage, status int) string {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err == nil {
		for _, key := range []string{"message", "error"} {
			if s, ok := fields[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("API Error: %d", status)
}

// classifyTransportError relabels failures to reach the host as
// *NetworkError and passes everything else through unchanged.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return &NetworkError{Err: err}
	}
	return err
}
