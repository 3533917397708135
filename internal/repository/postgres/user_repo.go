package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/adoptly/adoptly/internal/errs"
	"github.com/adoptly/adoptly/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new account row. Duplicate emails return ErrAlreadyExists.
func (r *UserRepo) Create(ctx context.Context, u *model.UserRecord) error {
	const q = `
INSERT INTO users (id, name, email, phone, address, role, pwd_hash, pwd_salt)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Pool.Exec(ctx, q,
		u.ID, u.Name, strings.ToLower(u.Email), u.Phone, u.Address, string(u.Role), u.PwdHash, u.PwdSalt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects an account by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.UserRecord, error) {
	const q = `
SELECT id, name, email, phone, address, role, pwd_hash, pwd_salt, created_at
FROM users WHERE id=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByEmail selects an account by email (stored lowercased).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.UserRecord, error) {
	const q = `
SELECT id, name, email, phone, address, role, pwd_hash, pwd_salt, created_at
FROM users WHERE email=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, strings.ToLower(email)))
}

func (r *UserRepo) scanOne(row pgx.Row) (*model.UserRecord, error) {
	var (
		u    model.UserRecord
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &role, &u.PwdHash, &u.PwdSalt, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}
