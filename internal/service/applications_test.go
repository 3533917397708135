package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/adoptly/adoptly/internal/errs"
	"github.com/adoptly/adoptly/internal/model"
	"github.com/adoptly/adoptly/internal/repository/memory"
)

type appFixture struct {
	svc   *ApplicationServiceImpl
	pets  *memory.PetRepo
	users *memory.UserRepo

	userID uuid.UUID
	petID  string
}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()
	ctx := context.Background()
	users := memory.NewUserRepo()
	pets := memory.NewPetRepo()
	apps := memory.NewApplicationRepo()

	userID := uuid.Must(uuid.NewV4())
	if err := users.Create(ctx, &model.UserRecord{ID: userID, Name: "Alice", Email: "a@b.com", Role: model.RoleUser}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	petID := uuid.Must(uuid.NewV4()).String()
	err := pets.Create(ctx, &model.Pet{ID: petID, Name: "Rex", Species: "dog", Status: model.PetAvailable, CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("seed pet: %v", err)
	}
	return &appFixture{
		svc:    NewApplicationService(apps, pets, users),
		pets:   pets,
		users:  users,
		userID: userID,
		petID:  petID,
	}
}

func TestApplications_Apply(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t)
	ctx := context.Background()

	a, err := f.svc.Apply(ctx, f.userID, f.petID, "we have a garden")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if a.Status != model.AppPending {
		t.Fatalf("status: %q", a.Status)
	}
	if a.PetName != "Rex" || a.UserName != "Alice" || a.UserEmail != "a@b.com" {
		t.Fatalf("denormalized fields: %+v", a)
	}

	// second open application for the same pet is refused
	_, err = f.svc.Apply(ctx, f.userID, f.petID, "again")
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("duplicate: want ErrConflict, got %v", err)
	}

	// unknown pet
	_, err = f.svc.Apply(ctx, f.userID, uuid.Must(uuid.NewV4()).String(), "hi")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown pet: want ErrNotFound, got %v", err)
	}
}

func TestApplications_ApproveMarksPetAdopted(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t)
	ctx := context.Background()

	a, err := f.svc.Apply(ctx, f.userID, f.petID, "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got, err := f.svc.Approve(ctx, a.ID, "great home")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != model.AppApproved || got.AdminNotes != "great home" {
		t.Fatalf("approved app: %+v", got)
	}

	pet, err := f.pets.Get(ctx, mustID(t, f.petID))
	if err != nil || pet.Status != model.PetAdopted {
		t.Fatalf("pet after approve: %+v err=%v", pet, err)
	}

	// deciding twice conflicts
	if _, err := f.svc.Reject(ctx, a.ID, ""); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("double decide: want ErrConflict, got %v", err)
	}
}

func TestApplications_Withdraw(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t)
	ctx := context.Background()

	a, err := f.svc.Apply(ctx, f.userID, f.petID, "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// someone else's application cannot be withdrawn
	if err := f.svc.Withdraw(ctx, uuid.Must(uuid.NewV4()), a.ID); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("foreign withdraw: want ErrUnauthorized, got %v", err)
	}

	if err := f.svc.Withdraw(ctx, f.userID, a.ID); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	mine, err := f.svc.ListMine(ctx, f.userID)
	if err != nil || len(mine) != 1 || mine[0].Status != model.AppWithdrawn {
		t.Fatalf("after withdraw: %+v err=%v", mine, err)
	}

	// a decided application stays decided
	if err := f.svc.Withdraw(ctx, f.userID, a.ID); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("withdraw decided: want ErrConflict, got %v", err)
	}
}

func TestApplications_Lists(t *testing.T) {
	t.Parallel()
	f := newAppFixture(t)
	ctx := context.Background()

	other := uuid.Must(uuid.NewV4())
	if err := f.users.Create(ctx, &model.UserRecord{ID: other, Name: "Bob", Email: "bob@b.com", Role: model.RoleUser}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if _, err := f.svc.Apply(ctx, f.userID, f.petID, ""); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, err := f.svc.Apply(ctx, other, f.petID, ""); err != nil {
		t.Fatalf("Apply other: %v", err)
	}

	mine, err := f.svc.ListMine(ctx, f.userID)
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListMine: %d err=%v", len(mine), err)
	}
	all, err := f.svc.ListAll(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListAll: %d err=%v", len(all), err)
	}
}
