package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/adoptly/adoptly/internal/api"
	"github.com/adoptly/adoptly/internal/errs"
	"github.com/adoptly/adoptly/internal/model"
	"github.com/adoptly/adoptly/internal/statefile"
)

// Auth holds the current session and exposes login/signup/logout. The session
// is persisted to the state file and rehydrated on start without re-validating
// against the backend; a later 401 is what invalidates it.
type Auth struct {
	api   *api.Client
	state *statefile.File
	log   *zap.Logger

	mu      sync.Mutex
	session *model.Session
	lastErr string

	guard inflight
}

// NewAuth constructs the auth store around the shared API client and state file.
func NewAuth(client *api.Client, state *statefile.File, log *zap.Logger) *Auth {
	return &Auth{api: client, state: state, log: log}
}

// credentials is the wire shape of login/signup requests.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// authResponse is the wire shape of successful login/signup responses.
type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Init rehydrates a persisted session. Presence of both token and user is
// trusted as proof of authentication (no network call).
func (a *Auth) Init() {
	var tok string
	var u model.User
	if err := a.state.Get(statefile.KeyToken, &tok); err != nil || tok == "" {
		return
	}
	if err := a.state.Get(statefile.KeyUser, &u); err != nil {
		return
	}
	a.mu.Lock()
	a.session = &model.Session{User: u, Token: tok}
	a.mu.Unlock()
	a.log.Debug("session rehydrated", zap.String("user", u.ID), zap.String("role", string(u.Role)))
}

// Signup creates an account and opens a session on success.
func (a *Auth) Signup(ctx context.Context, email, password, name, phone, address string) Result {
	if strings.TrimSpace(email) == "" || password == "" || strings.TrimSpace(name) == "" {
		return a.failWith(fmt.Errorf("%w: email, password and name are required", errs.ErrValidation))
	}
	if !a.guard.begin("signup") {
		return failMsg(errInFlight)
	}
	defer a.guard.end("signup")

	var resp authResponse
	err := a.api.Post(ctx, api.PathSignup, credentials{
		Email: email, Password: password, Name: name, Phone: phone, Address: address,
	}, &resp)
	if err != nil {
		return a.failWith(err)
	}
	return a.openSession(resp)
}

// Login authenticates and opens a session on success.
func (a *Auth) Login(ctx context.Context, email, password string) Result {
	if strings.TrimSpace(email) == "" || password == "" {
		return a.failWith(fmt.Errorf("%w: email and password are required", errs.ErrValidation))
	}
	if !a.guard.begin("login") {
		return failMsg(errInFlight)
	}
	defer a.guard.end("login")

	var resp authResponse
	if err := a.api.Post(ctx, api.PathLogin, credentials{Email: email, Password: password}, &resp); err != nil {
		return a.failWith(err)
	}
	return a.openSession(resp)
}

// openSession persists token+user and transitions to authenticated.
func (a *Auth) openSession(resp authResponse) Result {
	if err := a.state.Set(statefile.KeyToken, resp.Token); err != nil {
		return a.failWith(err)
	}
	if err := a.state.Set(statefile.KeyUser, resp.User); err != nil {
		return a.failWith(err)
	}
	a.mu.Lock()
	a.session = &model.Session{User: resp.User, Token: resp.Token}
	a.lastErr = ""
	a.mu.Unlock()
	return ok()
}

// Logout tells the server to invalidate the session (best effort; a failure is
// logged, never surfaced) and always clears the local session.
func (a *Auth) Logout(ctx context.Context) Result {
	if err := a.api.Post(ctx, api.PathLogout, nil, nil); err != nil {
		a.log.Warn("logout call failed", zap.Error(err))
	}
	if err := a.state.ClearSession(); err != nil {
		a.log.Warn("clearing persisted session failed", zap.Error(err))
	}
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
	return ok()
}

// DropSession clears the in-memory session without a server call. Wired as the
// API client's session-expired callback; the client has already cleared the
// persisted token at that point.
func (a *Auth) DropSession() {
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
}

// Profile fetches the current profile and refreshes the cached user.
func (a *Auth) Profile(ctx context.Context) (model.User, Result) {
	var u model.User
	if err := a.api.Get(ctx, api.PathProfile, nil, &u); err != nil {
		return model.User{}, a.failWith(err)
	}
	if err := a.state.Set(statefile.KeyUser, u); err != nil {
		return model.User{}, a.failWith(err)
	}
	a.mu.Lock()
	if a.session != nil {
		a.session.User = u
	}
	a.mu.Unlock()
	return u, ok()
}

// Refresh exchanges the current token for a fresh one.
func (a *Auth) Refresh(ctx context.Context) Result {
	var resp struct {
		Token string `json:"token"`
	}
	if err := a.api.Post(ctx, api.PathRefresh, nil, &resp); err != nil {
		return a.failWith(err)
	}
	if err := a.state.Set(statefile.KeyToken, resp.Token); err != nil {
		return a.failWith(err)
	}
	a.mu.Lock()
	if a.session != nil {
		a.session.Token = resp.Token
	}
	a.mu.Unlock()
	return ok()
}

// IsLoggedIn reports whether a session is held.
func (a *Auth) IsLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil
}

// IsAdmin is derived from the cached role; no server round-trip.
func (a *Auth) IsAdmin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil && a.session.User.Role == model.RoleAdmin
}

// CurrentUser returns the session user, if any.
func (a *Auth) CurrentUser() (model.User, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return model.User{}, false
	}
	return a.session.User, true
}

// LastError returns the most recent action error message ("" when none).
func (a *Auth) LastError() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

func (a *Auth) failWith(err error) Result {
	a.mu.Lock()
	a.lastErr = err.Error()
	a.mu.Unlock()
	return fail(err)
}
