// Package memory contains in-memory repository implementations used by tests
// and the server's -memory development mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/adoptly/adoptly/internal/errs"
	"github.com/adoptly/adoptly/internal/model"
)

// UserRepo is an in-memory UserRepository.
type UserRepo struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*model.UserRecord
	email map[string]uuid.UUID
}

// NewUserRepo constructs an empty user repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{byID: map[uuid.UUID]*model.UserRecord{}, email: map[string]uuid.UUID{}}
}

// Create inserts a new account; duplicate emails return ErrAlreadyExists.
func (r *UserRepo) Create(_ context.Context, u *model.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, exists := r.email[key]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *u
	r.byID[u.ID] = &cpy
	r.email[key] = u.ID
	return nil
}

// GetByID loads an account by ID.
func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *u
	return &cpy, nil
}

// GetByEmail loads an account by email (case-insensitive).
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*model.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.email[strings.ToLower(email)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *r.byID[id]
	return &cpy, nil
}

// PetRepo is an in-memory PetRepository.
type PetRepo struct {
	mu   sync.RWMutex
	pets map[uuid.UUID]*model.Pet
}

// NewPetRepo constructs an empty pet repository.
func NewPetRepo() *PetRepo {
	return &PetRepo{pets: map[uuid.UUID]*model.Pet{}}
}

// List returns one page of pets matching the filters, newest first.
func (r *PetRepo) List(_ context.Context, f model.Filters, page, pageSize int) (model.PetPage, error) {
	r.mu.RLock()
	matched := make([]model.Pet, 0, len(r.pets))
	for _, p := range r.pets {
		if matches(p, f) {
			matched = append(matched, *p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return model.PetPage{
		Pets:        matched[start:end],
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  total,
	}, nil
}

func matches(p *model.Pet, f model.Filters) bool {
	if f.Species != "" && !strings.EqualFold(p.Species, f.Species) {
		return false
	}
	if f.Breed != "" && !strings.EqualFold(p.Breed, f.Breed) {
		return false
	}
	if f.Age != "" && !strings.EqualFold(p.Age, f.Age) {
		return false
	}
	if f.Search != "" {
		s := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), s) &&
			!strings.Contains(strings.ToLower(p.Breed), s) &&
			!strings.Contains(strings.ToLower(p.Description), s) {
			return false
		}
	}
	return true
}

// Featured returns the curated featured subset.
func (r *PetRepo) Featured(_ context.Context) ([]model.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Pet{}
	for _, p := range r.pets {
		if p.IsFeatured {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns a single pet by ID.
func (r *PetRepo) Get(_ context.Context, id uuid.UUID) (*model.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pets[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *p
	return &cpy, nil
}

// Create inserts a pet.
func (r *PetRepo) Create(_ context.Context, p *model.Pet) error {
	id, err := uuid.FromString(p.ID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cpy := *p
	r.pets[id] = &cpy
	return nil
}

// Update fully replaces a pet row.
func (r *PetRepo) Update(_ context.Context, p *model.Pet) error {
	id, err := uuid.FromString(p.ID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pets[id]; !ok {
		return errs.ErrNotFound
	}
	cpy := *p
	r.pets[id] = &cpy
	return nil
}

// Delete removes a pet.
func (r *PetRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pets[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.pets, id)
	return nil
}

// ApplicationRepo is an in-memory ApplicationRepository.
type ApplicationRepo struct {
	mu   sync.RWMutex
	apps map[uuid.UUID]*model.Application
}

// NewApplicationRepo constructs an empty application repository.
func NewApplicationRepo() *ApplicationRepo {
	return &ApplicationRepo{apps: map[uuid.UUID]*model.Application{}}
}

// Create inserts an application.
func (r *ApplicationRepo) Create(_ context.Context, a *model.Application) error {
	id, err := uuid.FromString(a.ID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cpy := *a
	r.apps[id] = &cpy
	return nil
}

// Get returns a single application by ID.
func (r *ApplicationRepo) Get(_ context.Context, id uuid.UUID) (*model.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.apps[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *a
	return &cpy, nil
}

// ListByUser returns the applications submitted by one user, oldest first.
func (r *ApplicationRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Application{}
	for _, a := range r.apps {
		if a.UserID == userID.String() {
			out = append(out, *a)
		}
	}
	sortApps(out)
	return out, nil
}

// ListAll returns every application, oldest first.
func (r *ApplicationRepo) ListAll(_ context.Context) ([]model.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Application, 0, len(r.apps))
	for _, a := range r.apps {
		out = append(out, *a)
	}
	sortApps(out)
	return out, nil
}

func sortApps(apps []model.Application) {
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].AppliedDate.Equal(apps[j].AppliedDate) {
			return apps[i].AppliedDate.Before(apps[j].AppliedDate)
		}
		return apps[i].ID < apps[j].ID
	})
}

// Update replaces an existing application.
func (r *ApplicationRepo) Update(_ context.Context, a *model.Application) error {
	id, err := uuid.FromString(a.ID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[id]; !ok {
		return errs.ErrNotFound
	}
	cpy := *a
	r.apps[id] = &cpy
	return nil
}

// HasOpenForPet reports whether the user has a non-terminal application for
// the pet.
func (r *ApplicationRepo) HasOpenForPet(_ context.Context, userID, petID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.apps {
		if a.UserID == userID.String() && a.PetID == petID.String() && !a.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}
