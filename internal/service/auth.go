// Package service contains application services behind the REST handlers.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/adoptly/adoptly/internal/crypto"
	"github.com/adoptly/adoptly/internal/errs"
	"github.com/adoptly/adoptly/internal/limiter"
	"github.com/adoptly/adoptly/internal/model"
	"github.com/adoptly/adoptly/internal/repository"
)

// RegisterInput carries the fields of a signup request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

// AuthService defines account and session operations.
type AuthService interface {
	// Register creates a new account and returns a signed session token.
	Register(ctx context.Context, in RegisterInput) (token string, user model.User, err error)
	// LoginWithIP applies rate-limiting and authenticates the user.
	LoginWithIP(ctx context.Context, email, password, ip string) (token string, user model.User, err error)
	// Profile returns the account profile.
	Profile(ctx context.Context, userID uuid.UUID) (model.User, error)
	// Refresh issues a new token for an already-authenticated user.
	Refresh(ctx context.Context, userID uuid.UUID) (token string, user model.User, err error)
}

// Claims are the JWT claims carried by session tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim}
}

// Register creates a new account with a per-user password salt.
func (s *AuthServiceImpl) Register(ctx context.Context, in RegisterInput) (string, model.User, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return "", model.User{}, fmt.Errorf("%w: name and email are required", errs.ErrValidation)
	}
	if len(in.Password) < 6 {
		return "", model.User{}, fmt.Errorf("%w: password must be at least 6 characters", errs.ErrValidation)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return "", model.User{}, err
	}
	salt, err := pkgcrypto.RandBytes(16)
	if err != nil {
		return "", model.User{}, err
	}

	u := &model.UserRecord{
		ID:      uid,
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:   in.Phone,
		Address: in.Address,
		Role:    model.RoleUser,
		PwdHash: pkgcrypto.HashPassword([]byte(in.Password), salt),
		PwdSalt: salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return "", model.User{}, err
	}
	token, err := s.issueToken(u)
	if err != nil {
		return "", model.User{}, err
	}
	return token, u.Profile(), nil
}

// LoginWithIP authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (string, model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return "", model.User{}, err
	}
	if !allowed {
		return "", model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.PwdSalt, u.PwdHash) {
		// Record failure; if threshold reached, return rate-limited. A missing
		// account and a wrong password are indistinguishable to the caller.
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return "", model.User{}, errs.ErrRateLimited
		}
		return "", model.User{}, errs.ErrUnauthorized
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, email, ipHash)

	token, err := s.issueToken(u)
	if err != nil {
		return "", model.User{}, err
	}
	return token, u.Profile(), nil
}

// Profile returns the account profile for an authenticated user.
func (s *AuthServiceImpl) Profile(ctx context.Context, userID uuid.UUID) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	return u.Profile(), nil
}

// Refresh issues a fresh token for an authenticated user.
func (s *AuthServiceImpl) Refresh(ctx context.Context, userID uuid.UUID) (string, model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", model.User{}, err
	}
	token, err := s.issueToken(u)
	if err != nil {
		return "", model.User{}, err
	}
	return token, u.Profile(), nil
}

// SeedAdmin creates an admin account if the email is not taken yet. Server
// startup uses it to guarantee at least one reviewer exists.
func SeedAdmin(ctx context.Context, users repository.UserRepository, name, email, password string) error {
	uid, err := uuid.NewV4()
	if err != nil {
		return err
	}
	salt, err := pkgcrypto.RandBytes(16)
	if err != nil {
		return err
	}
	err = users.Create(ctx, &model.UserRecord{
		ID:      uid,
		Name:    name,
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Role:    model.RoleAdmin,
		PwdHash: pkgcrypto.HashPassword([]byte(password), salt),
		PwdSalt: salt,
	})
	if errors.Is(err, errs.ErrAlreadyExists) {
		return nil
	}
	return err
}

// issueToken creates a signed HS256 JWT carrying the subject and role.
func (s *AuthServiceImpl) issueToken(u *model.UserRecord) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		Role: string(u.Role),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.signKey)
}
