package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/adoptly/adoptly/internal/api"
	"github.com/adoptly/adoptly/internal/statefile"
)

// testState returns a state file in a temp dir.
func testState(t *testing.T) *statefile.File {
	t.Helper()
	return statefile.New(filepath.Join(t.TempDir(), "state.json"))
}

// testClient builds an API client against srv backed by state.
func testClient(t *testing.T, srv *httptest.Server, state *statefile.File) *api.Client {
	t.Helper()
	c, err := api.New(api.Config{
		BaseURL:   srv.URL,
		Tokens:    state,
		RetryBase: 2 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	return c
}

func TestAuth_LoginPersistsSession(t *testing.T) {
	t.Parallel()
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var in struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Email != "a@b.com" || in.Password != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid email or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"t1","user":{"id":"u1","role":"user","email":"a@b.com"}}`))
	}))
	defer srv.Close()

	state := testState(t)
	auth := NewAuth(testClient(t, srv, state), state, zap.NewNop())

	res := auth.Login(context.Background(), "a@b.com", "secret1")
	if !res.OK {
		t.Fatalf("login failed: %s", res.Err)
	}
	if !auth.IsLoggedIn() {
		t.Fatalf("want logged in")
	}
	if auth.IsAdmin() {
		t.Fatalf("role user must not be admin")
	}
	if got := state.Token(); got != "t1" {
		t.Fatalf("durable token = %q, want t1", got)
	}

	// A fresh process reads the session back without any network call.
	before := calls
	fresh := NewAuth(testClient(t, srv, state), state, zap.NewNop())
	fresh.Init()
	if !fresh.IsLoggedIn() {
		t.Fatalf("want rehydrated session")
	}
	if u, ok := fresh.CurrentUser(); !ok || u.ID != "u1" {
		t.Fatalf("bad rehydrated user: %+v", u)
	}
	if calls != before {
		t.Fatalf("rehydration must be trust-on-read, saw %d extra calls", calls-before)
	}
}

func TestAuth_LoginFailureStaysAnonymous(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid email or password"}`))
	}))
	defer srv.Close()

	state := testState(t)
	auth := NewAuth(testClient(t, srv, state), state, zap.NewNop())

	res := auth.Login(context.Background(), "a@b.com", "wrong")
	if res.OK {
		t.Fatalf("want failure")
	}
	if res.Err != "invalid email or password" {
		t.Fatalf("want normalized message, got %q", res.Err)
	}
	if auth.IsLoggedIn() {
		t.Fatalf("must remain anonymous after failed login")
	}
	if auth.LastError() == "" {
		t.Fatalf("store error field not set")
	}
}

func TestAuth_ValidationSkipsNetwork(t *testing.T) {
	t.Parallel()
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	state := testState(t)
	auth := NewAuth(testClient(t, srv, state), state, zap.NewNop())

	if res := auth.Login(context.Background(), "", "x"); res.OK {
		t.Fatalf("want validation failure")
	}
	if res := auth.Signup(context.Background(), "a@b.com", "", "", "", ""); res.OK {
		t.Fatalf("want validation failure")
	}
	if calls != 0 {
		t.Fatalf("validation must not hit the network, saw %d calls", calls)
	}
}

func TestAuth_SignupOpensSession(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/signup" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"token":"t2","user":{"id":"u2","role":"admin","name":"Root"}}`))
	}))
	defer srv.Close()

	state := testState(t)
	auth := NewAuth(testClient(t, srv, state), state, zap.NewNop())

	res := auth.Signup(context.Background(), "root@x.com", "pw", "Root", "", "")
	if !res.OK {
		t.Fatalf("signup: %s", res.Err)
	}
	if !auth.IsAdmin() {
		t.Fatalf("admin role must derive IsAdmin=true")
	}
}

func TestAuth_LogoutAlwaysClearsLocally(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			_, _ = w.Write([]byte(`{"token":"t1","user":{"id":"u1","role":"user"}}`))
		case "/api/auth/logout":
			// server-side invalidation fails; the client must not care
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	state := testState(t)
	auth := NewAuth(testClient(t, srv, state), state, zap.NewNop())
	if res := auth.Login(context.Background(), "a@b.com", "secret1"); !res.OK {
		t.Fatalf("login: %s", res.Err)
	}

	if res := auth.Logout(context.Background()); !res.OK {
		t.Fatalf("logout must succeed regardless of network outcome")
	}
	if auth.IsLoggedIn() {
		t.Fatalf("session must be gone after logout")
	}
	if state.Token() != "" {
		t.Fatalf("durable token must be cleared")
	}
}

func TestAuth_SessionExpiredCallbackDropsSession(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			_, _ = w.Write([]byte(`{"token":"t1","user":{"id":"u1","role":"user"}}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
		}
	}))
	defer srv.Close()

	state := testState(t)

	var auth *Auth
	client, err := api.New(api.Config{
		BaseURL:          srv.URL,
		Tokens:           state,
		OnSessionExpired: func() { auth.DropSession() },
	})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	auth = NewAuth(client, state, zap.NewNop())

	if res := auth.Login(context.Background(), "a@b.com", "secret1"); !res.OK {
		t.Fatalf("login: %s", res.Err)
	}
	if _, res := auth.Profile(context.Background()); res.OK {
		t.Fatalf("want 401 failure")
	}
	if auth.IsLoggedIn() {
		t.Fatalf("session must be dropped after 401")
	}
	if state.Token() != "" {
		t.Fatalf("durable token must be cleared after 401")
	}
}
