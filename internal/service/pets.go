package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/adoptly/adoptly/internal/errs"
	"github.com/adoptly/adoptly/internal/model"
	"github.com/adoptly/adoptly/internal/repository"
)

// PageSize is the fixed pet listing page size.
const PageSize = 12

// MaxPhotoBytes caps the decoded size of an uploaded pet photo.
const MaxPhotoBytes = 5 << 20

// PetService defines catalog operations.
type PetService interface {
	// List returns one page of the filtered catalog.
	List(ctx context.Context, f model.Filters, page int) (model.PetPage, error)
	// Featured returns the curated featured pets.
	Featured(ctx context.Context) ([]model.Pet, error)
	// Get returns a single pet.
	Get(ctx context.Context, id string) (*model.Pet, error)
	// Create adds a pet to the catalog and returns it with server-assigned fields.
	Create(ctx context.Context, p model.Pet) (*model.Pet, error)
	// Update fully replaces a pet.
	Update(ctx context.Context, id string, p model.Pet) (*model.Pet, error)
	// Patch applies a partial update to a pet.
	Patch(ctx context.Context, id string, patch model.PetPatch) (*model.Pet, error)
	// Delete removes a pet from the catalog.
	Delete(ctx context.Context, id string) error
}

type PetServiceImpl struct {
	pets repository.PetRepository
}

// NewPetService constructs PetService.
func NewPetService(pets repository.PetRepository) *PetServiceImpl {
	return &PetServiceImpl{pets: pets}
}

// List returns one page of the filtered catalog; page is clamped to >= 1.
func (s *PetServiceImpl) List(ctx context.Context, f model.Filters, page int) (model.PetPage, error) {
	if page < 1 {
		page = 1
	}
	return s.pets.List(ctx, f, page, PageSize)
}

// Featured returns the curated featured pets.
func (s *PetServiceImpl) Featured(ctx context.Context) ([]model.Pet, error) {
	return s.pets.Featured(ctx)
}

// Get returns a single pet by ID.
func (s *PetServiceImpl) Get(ctx context.Context, id string) (*model.Pet, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.pets.Get(ctx, uid)
}

// Create validates and stores a new pet.
func (s *PetServiceImpl) Create(ctx context.Context, p model.Pet) (*model.Pet, error) {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Species) == "" {
		return nil, fmt.Errorf("%w: name and species are required", errs.ErrValidation)
	}
	if err := checkPhoto(p.Photo); err != nil {
		return nil, err
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	p.ID = uid.String()
	p.CreatedAt = time.Now().UTC()
	if p.Status == "" {
		p.Status = model.PetAvailable
	}
	if err := s.pets.Create(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update fully replaces a pet, keeping its identity and creation time.
func (s *PetServiceImpl) Update(ctx context.Context, id string, p model.Pet) (*model.Pet, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Species) == "" {
		return nil, fmt.Errorf("%w: name and species are required", errs.ErrValidation)
	}
	if err := checkPhoto(p.Photo); err != nil {
		return nil, err
	}
	cur, err := s.pets.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	p.ID = cur.ID
	p.CreatedAt = cur.CreatedAt
	if err := s.pets.Update(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Patch applies the non-nil fields of the patch to the stored pet.
func (s *PetServiceImpl) Patch(ctx context.Context, id string, patch model.PetPatch) (*model.Pet, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	cur, err := s.pets.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	applyPatch(cur, patch)
	if err := checkPhoto(cur.Photo); err != nil {
		return nil, err
	}
	if err := s.pets.Update(ctx, cur); err != nil {
		return nil, err
	}
	return cur, nil
}

// Delete removes a pet from the catalog.
func (s *PetServiceImpl) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	return s.pets.Delete(ctx, uid)
}

func applyPatch(p *model.Pet, patch model.PetPatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Breed != nil {
		p.Breed = *patch.Breed
	}
	if patch.Age != nil {
		p.Age = *patch.Age
	}
	if patch.Size != nil {
		p.Size = *patch.Size
	}
	if patch.Gender != nil {
		p.Gender = *patch.Gender
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.HealthStatus != nil {
		p.HealthStatus = *patch.HealthStatus
	}
	if patch.Temperament != nil {
		p.Temperament = patch.Temperament
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Photo != nil {
		p.Photo = *patch.Photo
	}
	if patch.IsFeatured != nil {
		p.IsFeatured = *patch.IsFeatured
	}
}

// checkPhoto re-validates what the client already checked: an image data URL
// whose decoded payload fits the size cap. Empty photos are allowed.
func checkPhoto(photo string) error {
	if photo == "" {
		return nil
	}
	if !strings.HasPrefix(photo, "data:image/") {
		return fmt.Errorf("%w: photo must be an image data URL", errs.ErrValidation)
	}
	_, b64, ok := strings.Cut(photo, ";base64,")
	if !ok {
		return fmt.Errorf("%w: photo must be base64-encoded", errs.ErrValidation)
	}
	if base64.StdEncoding.DecodedLen(len(b64)) > MaxPhotoBytes {
		return fmt.Errorf("%w: photo exceeds 5MB", errs.ErrValidation)
	}
	return nil
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.FromString(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed id", errs.ErrValidation)
	}
	return uid, nil
}
