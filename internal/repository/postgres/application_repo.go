package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/adoptly/adoptly/internal/errs"
	"github.com/adoptly/adoptly/internal/model"
)

// ApplicationRepo implements ApplicationRepository using PostgreSQL.
type ApplicationRepo struct{ db *DB }

// NewApplicationRepo constructs an application repository.
func NewApplicationRepo(db *DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

// Denormalized user/pet names are resolved at read time so renames show up in
// the admin dashboard without touching application rows.
const appSelect = `
SELECT a.id, a.user_id, a.pet_id, u.name, p.name, u.email,
a.status, a.user_message, a.admin_notes, a.applied_date
FROM applications a
JOIN users u ON u.id = a.user_id
JOIN pets p ON p.id = a.pet_id`

// Create inserts an application row.
func (r *ApplicationRepo) Create(ctx context.Context, a *model.Application) error {
	id, userID, petID, err := appIDs(a)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO applications (id, user_id, pet_id, status, user_message, admin_notes, applied_date)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err = r.db.Pool.Exec(ctx, q,
		id, userID, petID, string(a.Status), a.UserMessage, a.AdminNotes, a.AppliedDate)
	return err
}

// Get returns a single application by ID.
func (r *ApplicationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	q := appSelect + ` WHERE a.id=$1`
	a, err := scanApp(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListByUser returns the applications submitted by one user, oldest first.
func (r *ApplicationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Application, error) {
	q := appSelect + ` WHERE a.user_id=$1 ORDER BY a.applied_date, a.id`
	return r.list(ctx, q, userID)
}

// ListAll returns every application, oldest first.
func (r *ApplicationRepo) ListAll(ctx context.Context) ([]model.Application, error) {
	q := appSelect + ` ORDER BY a.applied_date, a.id`
	return r.list(ctx, q)
}

func (r *ApplicationRepo) list(ctx context.Context, q string, args ...any) ([]model.Application, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []model.Application{}
	for rows.Next() {
		a, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// Update replaces the status and admin notes of an existing application.
func (r *ApplicationRepo) Update(ctx context.Context, a *model.Application) error {
	id, err := uuid.FromString(a.ID)
	if err != nil {
		return err
	}
	const q = `UPDATE applications SET status=$2, admin_notes=$3 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, string(a.Status), a.AdminNotes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// HasOpenForPet reports whether the user has a non-terminal application for the pet.
func (r *ApplicationRepo) HasOpenForPet(ctx context.Context, userID, petID uuid.UUID) (bool, error) {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM applications
  WHERE user_id=$1 AND pet_id=$2 AND status IN ('pending','under_review')
)`
	var exists bool
	if err := r.db.Pool.QueryRow(ctx, q, userID, petID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func appIDs(a *model.Application) (id, userID, petID uuid.UUID, err error) {
	if id, err = uuid.FromString(a.ID); err != nil {
		return
	}
	if userID, err = uuid.FromString(a.UserID); err != nil {
		err = fmt.Errorf("user id: %w", err)
		return
	}
	if petID, err = uuid.FromString(a.PetID); err != nil {
		err = fmt.Errorf("pet id: %w", err)
		return
	}
	return
}

func scanApp(row pgx.Row) (model.Application, error) {
	var (
		a            model.Application
		id, uID, pID uuid.UUID
		status       string
	)
	err := row.Scan(&id, &uID, &pID, &a.UserName, &a.PetName, &a.UserEmail,
		&status, &a.UserMessage, &a.AdminNotes, &a.AppliedDate)
	if err != nil {
		return model.Application{}, err
	}
	a.ID = id.String()
	a.UserID = uID.String()
	a.PetID = pID.String()
	a.Status = model.AppStatus(status)
	return a, nil
}
