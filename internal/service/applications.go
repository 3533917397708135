package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/adoptly/adoptly/internal/errs"
	"github.com/adoptly/adoptly/internal/model"
	"github.com/adoptly/adoptly/internal/repository"
)

// ApplicationService defines adoption application operations.
type ApplicationService interface {
	// Apply submits an application for a pet on behalf of a user.
	Apply(ctx context.Context, userID uuid.UUID, petID, message string) (*model.Application, error)
	// ListMine returns the caller's applications.
	ListMine(ctx context.Context, userID uuid.UUID) ([]model.Application, error)
	// ListAll returns every application (admin view).
	ListAll(ctx context.Context) ([]model.Application, error)
	// Approve marks an application approved and the pet adopted.
	Approve(ctx context.Context, id, notes string) (*model.Application, error)
	// Reject marks an application rejected.
	Reject(ctx context.Context, id, notes string) (*model.Application, error)
	// Withdraw retracts the caller's own pending application.
	Withdraw(ctx context.Context, userID uuid.UUID, id string) error
}

type ApplicationServiceImpl struct {
	apps  repository.ApplicationRepository
	pets  repository.PetRepository
	users repository.UserRepository
}

// NewApplicationService constructs ApplicationService.
func NewApplicationService(apps repository.ApplicationRepository, pets repository.PetRepository, users repository.UserRepository) *ApplicationServiceImpl {
	return &ApplicationServiceImpl{apps: apps, pets: pets, users: users}
}

// Apply validates the pet exists and the user has no open application for it,
// then stores a pending application.
func (s *ApplicationServiceImpl) Apply(ctx context.Context, userID uuid.UUID, petID, message string) (*model.Application, error) {
	pid, err := parseID(petID)
	if err != nil {
		return nil, err
	}
	pet, err := s.pets.Get(ctx, pid)
	if err != nil {
		return nil, err
	}
	open, err := s.apps.HasOpenForPet(ctx, userID, pid)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, fmt.Errorf("%w: you already have an open application for this pet", errs.ErrConflict)
	}
	applicant, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	a := &model.Application{
		ID:          id.String(),
		UserID:      userID.String(),
		PetID:       pet.ID,
		UserName:    applicant.Name,
		PetName:     pet.Name,
		UserEmail:   applicant.Email,
		Status:      model.AppPending,
		UserMessage: message,
		AppliedDate: time.Now().UTC(),
	}
	if err := s.apps.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListMine returns the caller's applications, oldest first.
func (s *ApplicationServiceImpl) ListMine(ctx context.Context, userID uuid.UUID) ([]model.Application, error) {
	return s.apps.ListByUser(ctx, userID)
}

// ListAll returns every application, oldest first.
func (s *ApplicationServiceImpl) ListAll(ctx context.Context) ([]model.Application, error) {
	return s.apps.ListAll(ctx)
}

// Approve decides an application in the applicant's favor and marks the pet adopted.
func (s *ApplicationServiceImpl) Approve(ctx context.Context, id, notes string) (*model.Application, error) {
	a, err := s.decide(ctx, id, model.AppApproved, notes)
	if err != nil {
		return nil, err
	}
	if pid, perr := uuid.FromString(a.PetID); perr == nil {
		if pet, perr := s.pets.Get(ctx, pid); perr == nil {
			pet.Status = model.PetAdopted
			_ = s.pets.Update(ctx, pet)
		}
	}
	return a, nil
}

// Reject decides an application against the applicant.
func (s *ApplicationServiceImpl) Reject(ctx context.Context, id, notes string) (*model.Application, error) {
	return s.decide(ctx, id, model.AppRejected, notes)
}

func (s *ApplicationServiceImpl) decide(ctx context.Context, id string, status model.AppStatus, notes string) (*model.Application, error) {
	aid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	a, err := s.apps.Get(ctx, aid)
	if err != nil {
		return nil, err
	}
	if a.Status.Terminal() {
		return nil, fmt.Errorf("%w: application already decided", errs.ErrConflict)
	}
	a.Status = status
	a.AdminNotes = notes
	if err := s.apps.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Withdraw retracts the caller's own application. Decided applications stay as
// they are and report a conflict.
func (s *ApplicationServiceImpl) Withdraw(ctx context.Context, userID uuid.UUID, id string) error {
	aid, err := parseID(id)
	if err != nil {
		return err
	}
	a, err := s.apps.Get(ctx, aid)
	if err != nil {
		return err
	}
	if a.UserID != userID.String() {
		return errs.ErrUnauthorized
	}
	if a.Status.Terminal() {
		return fmt.Errorf("%w: application already decided", errs.ErrConflict)
	}
	a.Status = model.AppWithdrawn
	return s.apps.Update(ctx, a)
}
