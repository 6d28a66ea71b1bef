package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func staticKey(key string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: key})
}

// emptyKey behaves like a credential manager with nothing set
type emptyKey struct{}

func (emptyKey) Token() (*oauth2.Token, error) { return nil, assert.AnError }

func newTestClient(t *testing.T, handler http.Handler, tokens oauth2.TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/v1", tokens, Options{})
	require.NoError(t, err)
	return c
}

func TestExecuteRequiresCredential(t *testing.T) {
	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	for name, tokens := range map[string]oauth2.TokenSource{
		"token error": emptyKey{},
		"empty token": staticKey(""),
		"nil source":  nil,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, handler, tokens)
			_, err := c.Execute(context.Background(), "tasks", RequestOptions{})
			assert.ErrorIs(t, err, ErrCredentialRequired)
		})
	}

	assert.Zero(t, hits.Load(), "no request may reach the transport")
}

func TestExecuteHeaders(t *testing.T) {
	var got http.Header
	r := mux.NewRouter()
	r.HandleFunc("/v1/tasks", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}).Methods(http.MethodGet)

	c := newTestClient(t, r, staticKey("secret"))

	t.Run("defaults", func(t *testing.T) {
		resp, err := c.Execute(context.Background(), "tasks", RequestOptions{})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.JSONEq(t, `{"ok":true}`, string(resp.Data))

		assert.Equal(t, "Bearer secret", got.Get("Authorization"))
		assert.Equal(t, "application/json", got.Get("Content-Type"))
		assert.Equal(t, DefaultUserAgent, got.Get("User-Agent"))
		assert.NotEmpty(t, got.Get("X-Request-Id"))
	})

	t.Run("caller headers override defaults", func(t *testing.T) {
		header := http.Header{}
		header.Set("Content-Type", "application/vnd.custom+json")
		header.Set("X-Trace", "abc")

		_, err := c.Execute(context.Background(), "/tasks", RequestOptions{Header: header})
		require.NoError(t, err)
		assert.Equal(t, "application/vnd.custom+json", got.Get("Content-Type"))
		assert.Equal(t, "abc", got.Get("X-Trace"))
		assert.Equal(t, "Bearer secret", got.Get("Authorization"))
	})
}

func TestExecuteResponses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantErr     string
		wantStatus  int
		wantData    string
	}{
		{
			name:        "JSON error field",
			status:      http.StatusInternalServerError,
			contentType: "application/json",
			body:        `{"error":"boom"}`,
			wantErr:     "boom",
		},
		{
			name:        "JSON message preferred over error",
			status:      http.StatusBadRequest,
			contentType: "application/json; charset=utf-8",
			body:        `{"message":"bad url","error":"validation"}`,
			wantErr:     "bad url",
		},
		{
			name:        "JSON without message falls back to status",
			status:      http.StatusForbidden,
			contentType: "application/json",
			body:        `{"code":17}`,
			wantErr:     "API Error: 403",
		},
		{
			name:        "non-JSON error body is the message",
			status:      http.StatusInternalServerError,
			contentType: "text/plain",
			body:        "upstream exploded",
			wantErr:     "upstream exploded",
		},
		{
			name:        "empty non-JSON error body falls back to status",
			status:      http.StatusBadGateway,
			contentType: "text/html",
			body:        "",
			wantErr:     "API Error: 502",
		},
		{
			name:        "non-JSON success is wrapped",
			status:      http.StatusOK,
			contentType: "text/plain",
			body:        "pong",
			wantStatus:  http.StatusOK,
			wantData:    `{"message":"pong","status":200}`,
		},
		{
			name:        "empty JSON success is null",
			status:      http.StatusAccepted,
			contentType: "application/json",
			body:        "",
			wantStatus:  http.StatusAccepted,
			wantData:    `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			c := newTestClient(t, handler, staticKey("k"))

			resp, err := c.Execute(context.Background(), "anything", RequestOptions{})
			if tt.wantErr != "" {
				require.Error(t, err)
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.status, apiErr.Status)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.JSONEq(t, tt.wantData, string(resp.Data))
		})
	}
}

func TestExecuteInvalidJSON(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, "{not json")
	})
	c := newTestClient(t, handler, staticKey("k"))

	_, err := c.Execute(context.Background(), "tasks", RequestOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestExecuteNetworkError(t *testing.T) {
	// Grab a free port and close it so nothing is listening
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c, err := NewClient("http://"+addr, staticKey("k"), Options{})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), "tasks", RequestOptions{})
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Contains(t, err.Error(), "check your internet connection")
}

func TestExecuteContextCanceledIsNotNetworkError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	c := newTestClient(t, handler, staticKey("k"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Execute(ctx, "tasks", RequestOptions{})
	require.Error(t, err)
	var netErr *NetworkError
	assert.False(t, errors.As(err, &netErr))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteRequestBody(t *testing.T) {
	var got map[string]any
	r := mux.NewRouter()
	r.HandleFunc("/v1/echo", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{}`)
	}).Methods(http.MethodPost)

	c := newTestClient(t, r, staticKey("k"))
	_, err := c.Execute(context.Background(), "echo", RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"hello": "world"},
	})
	require.NoError(t, err)
	assert.Equal(t, "world", got["hello"])
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	for _, base := range []string{"", "not a url", "/relative"} {
		_, err := NewClient(base, staticKey("k"), Options{})
		assert.ErrorIs(t, err, ErrInvalidRequest, base)
	}
}

func TestRateLimitedClient(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{}`)
	})
	srv := httptest.NewServer(handler)
	defer srv.Close()

	c, err := NewClient(srv.URL, staticKey("k"), Options{RateLimit: 1000})
	require.NoError(t, err)
	require.NotNil(t, c.limiter)

	for i := 0; i < 3; i++ {
		_, err := c.Execute(context.Background(), "x", RequestOptions{})
		require.NoError(t, err)
	}
}
