package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/adoptly/adoptly/internal/errs"
	"github.com/adoptly/adoptly/internal/model"
)

// PetRepo implements PetRepository using PostgreSQL.
type PetRepo struct{ db *DB }

// NewPetRepo constructs a pet repository.
func NewPetRepo(db *DB) *PetRepo { return &PetRepo{db: db} }

const petColumns = `id, name, species, breed, age, size, gender, status,
health_status, temperament, description, photo, is_featured, created_at`

// List returns one page of pets matching the filters, newest first. The total
// row count is fetched in the same query via a window function.
func (r *PetRepo) List(ctx context.Context, f model.Filters, page, pageSize int) (model.PetPage, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR breed ILIKE %[1]s OR description ILIKE %[1]s)", p))
	}
	if f.Species != "" {
		conds = append(conds, "species ILIKE "+arg(f.Species))
	}
	if f.Breed != "" {
		conds = append(conds, "breed ILIKE "+arg(f.Breed))
	}
	if f.Age != "" {
		conds = append(conds, "age = "+arg(f.Age))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	q := fmt.Sprintf(`
SELECT %s, COUNT(*) OVER() AS total
FROM pets %s
ORDER BY created_at DESC, id
LIMIT %s OFFSET %s`, petColumns, where, arg(pageSize), arg((page-1)*pageSize))

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return model.PetPage{}, err
	}
	defer rows.Close()

	pets := []model.Pet{}
	total := 0
	for rows.Next() {
		p, n, err := scanPetWithTotal(rows)
		if err != nil {
			return model.PetPage{}, err
		}
		pets = append(pets, p)
		total = n
	}
	if err := rows.Err(); err != nil {
		return model.PetPage{}, err
	}
	if len(pets) == 0 {
		// The window function returns no rows past the last page; count
		// separately so paging metadata stays correct.
		cq := fmt.Sprintf("SELECT COUNT(*) FROM pets %s", where)
		if err := r.db.Pool.QueryRow(ctx, cq, args[:len(args)-2]...).Scan(&total); err != nil {
			return model.PetPage{}, err
		}
	}
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	return model.PetPage{Pets: pets, CurrentPage: page, TotalPages: totalPages, TotalCount: total}, nil
}

// Featured returns the curated featured subset.
func (r *PetRepo) Featured(ctx context.Context) ([]model.Pet, error) {
	q := fmt.Sprintf(`SELECT %s FROM pets WHERE is_featured ORDER BY created_at DESC, id`, petColumns)
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pets := []model.Pet{}
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		pets = append(pets, p)
	}
	return pets, rows.Err()
}

// Get returns a single pet by ID.
func (r *PetRepo) Get(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	q := fmt.Sprintf(`SELECT %s FROM pets WHERE id=$1`, petColumns)
	p, err := scanPet(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a pet row.
func (r *PetRepo) Create(ctx context.Context, p *model.Pet) error {
	id, err := uuid.FromString(p.ID)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO pets (id, name, species, breed, age, size, gender, status,
health_status, temperament, description, photo, is_featured, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err = r.db.Pool.Exec(ctx, q,
		id, p.Name, p.Species, p.Breed, p.Age, p.Size, p.Gender, string(p.Status),
		p.HealthStatus, p.Temperament, p.Description, p.Photo, p.IsFeatured, p.CreatedAt)
	return err
}

// Update fully replaces a pet row.
func (r *PetRepo) Update(ctx context.Context, p *model.Pet) error {
	id, err := uuid.FromString(p.ID)
	if err != nil {
		return err
	}
	const q = `
UPDATE pets SET name=$2, species=$3, breed=$4, age=$5, size=$6, gender=$7,
status=$8, health_status=$9, temperament=$10, description=$11, photo=$12,
is_featured=$13
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q,
		id, p.Name, p.Species, p.Breed, p.Age, p.Size, p.Gender, string(p.Status),
		p.HealthStatus, p.Temperament, p.Description, p.Photo, p.IsFeatured)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a pet row.
func (r *PetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM pets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func scanPet(row pgx.Row) (model.Pet, error) {
	var (
		p      model.Pet
		id     uuid.UUID
		status string
	)
	err := row.Scan(&id, &p.Name, &p.Species, &p.Breed, &p.Age, &p.Size, &p.Gender,
		&status, &p.HealthStatus, &p.Temperament, &p.Description, &p.Photo,
		&p.IsFeatured, &p.CreatedAt)
	if err != nil {
		return model.Pet{}, err
	}
	p.ID = id.String()
	p.Status = model.PetStatus(status)
	return p, nil
}

func scanPetWithTotal(row pgx.Row) (model.Pet, int, error) {
	var (
		p      model.Pet
		id     uuid.UUID
		status string
		total  int
	)
	err := row.Scan(&id, &p.Name, &p.Species, &p.Breed, &p.Age, &p.Size, &p.Gender,
		&status, &p.HealthStatus, &p.Temperament, &p.Description, &p.Photo,
		&p.IsFeatured, &p.CreatedAt, &total)
	if err != nil {
		return model.Pet{}, 0, err
	}
	p.ID = id.String()
	p.Status = model.PetStatus(status)
	return p, total, nil
}
