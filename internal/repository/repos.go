// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/adoptly/adoptly/internal/model"
)

// UserRepository provides account storage for the reference backend.
type UserRepository interface {
	// Create inserts a new account; duplicate emails return ErrAlreadyExists.
	Create(ctx context.Context, u *model.UserRecord) error
	// GetByID loads an account by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.UserRecord, error)
	// GetByEmail loads an account by email.
	GetByEmail(ctx context.Context, email string) (*model.UserRecord, error)
}

// PetRepository provides catalog storage with pagination and filtering.
type PetRepository interface {
	// List returns one page of pets matching the filters, newest first.
	List(ctx context.Context, f model.Filters, page, pageSize int) (model.PetPage, error)
	// Featured returns the curated featured subset.
	Featured(ctx context.Context) ([]model.Pet, error)
	// Get returns a single pet by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.Pet, error)
	// Create inserts a pet (ID already assigned).
	Create(ctx context.Context, p *model.Pet) error
	// Update fully replaces a pet row.
	Update(ctx context.Context, p *model.Pet) error
	// Delete removes a pet.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ApplicationRepository provides adoption application storage.
type ApplicationRepository interface {
	// Create inserts an application (ID already assigned).
	Create(ctx context.Context, a *model.Application) error
	// Get returns a single application by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.Application, error)
	// ListByUser returns the applications submitted by one user.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Application, error)
	// ListAll returns every application (admin view).
	ListAll(ctx context.Context) ([]model.Application, error)
	// Update replaces status and admin notes of an existing application.
	Update(ctx context.Context, a *model.Application) error
	// HasOpenForPet reports whether the user already has a non-terminal
	// application for the pet.
	HasOpenForPet(ctx context.Context, userID, petID uuid.UUID) (bool, error)
}
