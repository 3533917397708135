package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/adoptly/adoptly/internal/errs"
)

type fakeTokens struct {
	mu      sync.Mutex
	token   string
	cleared bool
}

func (f *fakeTokens) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeTokens) ClearSession() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.cleared = true
	return nil
}

func newClient(t *testing.T, srv *httptest.Server, cfg Config) *Client {
	t.Helper()
	cfg.BaseURL = srv.URL
	if cfg.RetryBase == 0 {
		cfg.RetryBase = 5 * time.Millisecond
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestClient_AttachesBearerToken(t *testing.T) {
	t.Parallel()
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newClient(t, srv, Config{Tokens: &fakeTokens{token: "t1"}})
	if err := c.Get(context.Background(), "/api/pets", nil, &struct{}{}); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer t1" {
		t.Fatalf("want bearer header, got %q", gotAuth)
	}

	c2 := newClient(t, srv, Config{Tokens: &fakeTokens{}})
	if err := c2.Get(context.Background(), "/api/pets", nil, &struct{}{}); err != nil {
		t.Fatalf("Get anon: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("want no auth header without token, got %q", gotAuth)
	}
}

func TestClient_NormalizesErrorMessages(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/with-message":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"breed is required"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`<html>ugly</html>`))
		}
	}))
	defer srv.Close()

	c := newClient(t, srv, Config{})

	err := c.Get(context.Background(), "/with-message", nil, nil)
	if err == nil || err.Error() != "breed is required" {
		t.Fatalf("want server message, got %v", err)
	}

	err = c.Get(context.Background(), "/no-message", nil, nil)
	if err == nil || err.Error() != defaultErrMessage {
		t.Fatalf("want default message, got %v", err)
	}
}

func TestClient_401ClearsSessionAndNotifies(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer srv.Close()

	tokens := &fakeTokens{token: "stale"}
	expired := false
	c := newClient(t, srv, Config{
		Tokens:           tokens,
		OnSessionExpired: func() { expired = true },
	})

	err := c.Get(context.Background(), "/api/pets", nil, nil)
	if !errors.Is(err, errs.ErrSessionExpired) {
		t.Fatalf("want ErrSessionExpired, got %v", err)
	}
	if !tokens.cleared {
		t.Fatalf("expected session cleared on 401")
	}
	if !expired {
		t.Fatalf("expected OnSessionExpired callback")
	}
}

func TestClient_404MapsToNotFound(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"pet not found"}`))
	}))
	defer srv.Close()

	c := newClient(t, srv, Config{})
	err := c.Get(context.Background(), "/api/pets/xyz", nil, nil)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err.Error() != "pet not found" {
		t.Fatalf("want normalized message, got %q", err.Error())
	}
}

func TestClient_GetRetry_TransientThenSuccess(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var attempts []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts = append(attempts, time.Now())
		n := len(attempts)
		mu.Unlock()
		if n <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	base := 60 * time.Millisecond
	c := newClient(t, srv, Config{RetryBase: base})

	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.GetRetry(context.Background(), "/api/pets", nil, &out); err != nil {
		t.Fatalf("GetRetry: %v", err)
	}
	if !out.OK {
		t.Fatalf("response not decoded")
	}
	if len(attempts) != 3 {
		t.Fatalf("want exactly 3 attempts, got %d", len(attempts))
	}

	// first gap ~= base, second ~= 2*base
	gap1 := attempts[1].Sub(attempts[0])
	gap2 := attempts[2].Sub(attempts[1])
	if gap1 < base || gap1 > 3*base {
		t.Fatalf("first backoff out of range: %v", gap1)
	}
	if gap2 < 2*base || gap2 > 6*base {
		t.Fatalf("second backoff out of range: %v", gap2)
	}
	if gap2 < gap1 {
		t.Fatalf("backoff not increasing: %v then %v", gap1, gap2)
	}
}

func TestClient_GetRetry_NonRetryableFailsFast(t *testing.T) {
	t.Parallel()
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad page"}`))
	}))
	defer srv.Close()

	c := newClient(t, srv, Config{})
	err := c.GetRetry(context.Background(), "/api/pets", nil, nil)
	if err == nil || err.Error() != "bad page" {
		t.Fatalf("want normalized 400, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("want exactly 1 attempt for 400, got %d", attempts)
	}
}

func TestClient_GetRetry_ExhaustsOn5xx(t *testing.T) {
	t.Parallel()
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newClient(t, srv, Config{})
	err := c.GetRetry(context.Background(), "/api/pets", url.Values{"page": {"1"}}, nil)
	if err == nil {
		t.Fatalf("want error after exhaustion")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("want normalized 503, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("want exactly 3 attempts, got %d", attempts)
	}
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{BaseURL: ""}); err == nil {
		t.Fatalf("want error on empty base URL")
	}
	if _, err := New(Config{BaseURL: "not a url"}); err == nil {
		t.Fatalf("want error on malformed base URL")
	}
}
