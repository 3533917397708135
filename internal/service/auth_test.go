package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adoptly/adoptly/internal/errs"
	"github.com/adoptly/adoptly/internal/limiter"
	"github.com/adoptly/adoptly/internal/model"
	"github.com/adoptly/adoptly/internal/repository/memory"
)

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return nil
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

func TestAuth_Register_Basics(t *testing.T) {
	t.Parallel()
	s := NewAuthService(memory.NewUserRepo(), []byte("k"), time.Minute, &fakeLimiter{allowOK: true})
	ctx := context.Background()

	if _, _, err := s.Register(ctx, RegisterInput{}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on empty input, got %v", err)
	}
	if _, _, err := s.Register(ctx, RegisterInput{Name: "A", Email: "a@b.com", Password: "short"}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on short password, got %v", err)
	}

	token, u, err := s.Register(ctx, RegisterInput{Name: "Alice", Email: "Alice@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if token == "" || u.ID == "" {
		t.Fatalf("want token and user id, got %q / %q", token, u.ID)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email not lowercased: %q", u.Email)
	}
	if u.Role != model.RoleUser {
		t.Fatalf("new accounts must get the user role, got %q", u.Role)
	}

	_, _, err = s.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	if !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists on duplicate email, got %v", err)
	}
}

func TestAuth_Login_Flow(t *testing.T) {
	t.Parallel()
	users := memory.NewUserRepo()
	lim := &fakeLimiter{allowOK: true}
	s := NewAuthService(users, []byte("k"), time.Minute, lim)
	ctx := context.Background()

	if _, _, err := s.Register(ctx, RegisterInput{Name: "Alice", Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, u, err := s.LoginWithIP(ctx, "A@B.com", "secret1", "1.2.3.4")
	if err != nil {
		t.Fatalf("LoginWithIP: %v", err)
	}
	if u.Name != "Alice" || token == "" {
		t.Fatalf("unexpected login result: %+v token=%q", u, token)
	}
	if lim.successCalls != 1 {
		t.Fatalf("success not recorded: %d", lim.successCalls)
	}

	// wrong password and missing account look identical
	_, _, err = s.LoginWithIP(ctx, "a@b.com", "wrong", "1.2.3.4")
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("wrong password: want ErrUnauthorized, got %v", err)
	}
	_, _, err = s.LoginWithIP(ctx, "nobody@b.com", "secret1", "1.2.3.4")
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("unknown account: want ErrUnauthorized, got %v", err)
	}
	if lim.failureCalls != 2 {
		t.Fatalf("failures not recorded: %d", lim.failureCalls)
	}
}

func TestAuth_Login_RateLimited(t *testing.T) {
	t.Parallel()
	users := memory.NewUserRepo()
	ctx := context.Background()

	// blocked before the password is even checked
	s := NewAuthService(users, []byte("k"), time.Minute, &fakeLimiter{allowOK: false})
	if _, _, err := s.LoginWithIP(ctx, "a@b.com", "secret1", "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited when blocked, got %v", err)
	}

	// the failure that crosses the threshold reports rate-limited, not unauthorized
	s = NewAuthService(users, []byte("k"), time.Minute, &fakeLimiter{allowOK: true, failBlocked: true})
	if _, _, err := s.LoginWithIP(ctx, "a@b.com", "wrong", "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited at threshold, got %v", err)
	}
}

func TestAuth_TokenCarriesSubjectAndRole(t *testing.T) {
	t.Parallel()
	key := []byte("signing-key")
	s := NewAuthService(memory.NewUserRepo(), key, time.Minute, &fakeLimiter{allowOK: true})
	ctx := context.Background()

	token, u, err := s.Register(ctx, RegisterInput{Name: "Alice", Email: "a@b.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var claims Claims
	_, err = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return key, nil })
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != u.ID || claims.Role != "user" {
		t.Fatalf("claims: sub=%q role=%q", claims.Subject, claims.Role)
	}
}

func TestAuth_ProfileAndRefresh(t *testing.T) {
	t.Parallel()
	users := memory.NewUserRepo()
	s := NewAuthService(users, []byte("k"), time.Minute, &fakeLimiter{allowOK: true})
	ctx := context.Background()

	_, u, err := s.Register(ctx, RegisterInput{Name: "Alice", Email: "a@b.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	uid := mustID(t, u.ID)

	got, err := s.Profile(ctx, uid)
	if err != nil || got.Email != "a@b.com" {
		t.Fatalf("Profile: %+v err=%v", got, err)
	}

	token, got, err := s.Refresh(ctx, uid)
	if err != nil || token == "" || got.ID != u.ID {
		t.Fatalf("Refresh: token=%q user=%+v err=%v", token, got, err)
	}
}
