package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/adoptly/adoptly/internal/errs"
	"github.com/adoptly/adoptly/internal/model"
	"github.com/adoptly/adoptly/internal/repository/memory"
)

func mustID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.FromString(s)
	if err != nil {
		t.Fatalf("bad id %q: %v", s, err)
	}
	return id
}

func seedPets(t *testing.T, repo *memory.PetRepo, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		id := uuid.Must(uuid.NewV4())
		err := repo.Create(context.Background(), &model.Pet{
			ID:        id.String(),
			Name:      fmt.Sprintf("pet-%02d", i),
			Species:   "dog",
			Status:    model.PetAvailable,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestPets_List_PagesAndClamp(t *testing.T) {
	t.Parallel()
	repo := memory.NewPetRepo()
	seedPets(t, repo, 30)
	s := NewPetService(repo)
	ctx := context.Background()

	page, err := s.List(ctx, model.Filters{}, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Pets) != PageSize || page.TotalPages != 3 || page.TotalCount != 30 {
		t.Fatalf("page 1: len=%d totalPages=%d totalCount=%d", len(page.Pets), page.TotalPages, page.TotalCount)
	}
	// newest first
	if page.Pets[0].Name != "pet-29" {
		t.Fatalf("want newest first, got %q", page.Pets[0].Name)
	}

	page, err = s.List(ctx, model.Filters{}, 3)
	if err != nil || len(page.Pets) != 6 {
		t.Fatalf("page 3: len=%d err=%v", len(page.Pets), err)
	}

	// page 0 clamps to 1
	page, err = s.List(ctx, model.Filters{}, 0)
	if err != nil || page.CurrentPage != 1 {
		t.Fatalf("clamp: currentPage=%d err=%v", page.CurrentPage, err)
	}
}

func TestPets_List_Filters(t *testing.T) {
	t.Parallel()
	repo := memory.NewPetRepo()
	ctx := context.Background()
	for _, p := range []model.Pet{
		{ID: uuid.Must(uuid.NewV4()).String(), Name: "Rex", Species: "dog", Breed: "corgi", Age: "adult"},
		{ID: uuid.Must(uuid.NewV4()).String(), Name: "Whiskers", Species: "cat", Breed: "tabby", Age: "young"},
	} {
		if err := repo.Create(ctx, &p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	s := NewPetService(repo)

	page, err := s.List(ctx, model.Filters{Species: "cat"}, 1)
	if err != nil || len(page.Pets) != 1 || page.Pets[0].Name != "Whiskers" {
		t.Fatalf("species filter: %+v err=%v", page.Pets, err)
	}
	page, err = s.List(ctx, model.Filters{Search: "rex"}, 1)
	if err != nil || len(page.Pets) != 1 || page.Pets[0].Name != "Rex" {
		t.Fatalf("search filter: %+v err=%v", page.Pets, err)
	}
	page, err = s.List(ctx, model.Filters{Search: "nothing-matches"}, 1)
	if err != nil || page.TotalCount != 0 || page.TotalPages != 1 {
		t.Fatalf("empty result: %+v err=%v", page, err)
	}
}

func TestPets_Create_ValidatesAndAssigns(t *testing.T) {
	t.Parallel()
	s := NewPetService(memory.NewPetRepo())
	ctx := context.Background()

	if _, err := s.Create(ctx, model.Pet{Species: "dog"}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error without name, got %v", err)
	}

	p, err := s.Create(ctx, model.Pet{Name: "Rex", Species: "dog"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" || p.CreatedAt.IsZero() {
		t.Fatalf("server fields not assigned: %+v", p)
	}
	if p.Status != model.PetAvailable {
		t.Fatalf("default status: %q", p.Status)
	}

	got, err := s.Get(ctx, p.ID)
	if err != nil || got.Name != "Rex" {
		t.Fatalf("Get after create: %+v err=%v", got, err)
	}
}

func TestPets_Create_PhotoChecks(t *testing.T) {
	t.Parallel()
	s := NewPetService(memory.NewPetRepo())
	ctx := context.Background()

	_, err := s.Create(ctx, model.Pet{Name: "Rex", Species: "dog", Photo: "data:text/plain;base64,aGk="})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("non-image photo: want validation error, got %v", err)
	}

	huge := "data:image/png;base64," + strings.Repeat("A", base64.StdEncoding.EncodedLen(MaxPhotoBytes+1))
	_, err = s.Create(ctx, model.Pet{Name: "Rex", Species: "dog", Photo: huge})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("oversized photo: want validation error, got %v", err)
	}

	_, err = s.Create(ctx, model.Pet{Name: "Rex", Species: "dog", Photo: "data:image/png;base64,aGk="})
	if err != nil {
		t.Fatalf("valid photo rejected: %v", err)
	}
}

func TestPets_Patch(t *testing.T) {
	t.Parallel()
	s := NewPetService(memory.NewPetRepo())
	ctx := context.Background()

	p, err := s.Create(ctx, model.Pet{Name: "Rex", Species: "dog", Breed: "corgi"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	status := model.PetPending
	got, err := s.Patch(ctx, p.ID, model.PetPatch{Status: &status})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if got.Status != model.PetPending || got.Breed != "corgi" {
		t.Fatalf("patch must only touch provided fields: %+v", got)
	}

	if _, err := s.Patch(ctx, "not-a-uuid", model.PetPatch{}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("malformed id: want validation error, got %v", err)
	}
	if _, err := s.Patch(ctx, uuid.Must(uuid.NewV4()).String(), model.PetPatch{}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("missing pet: want ErrNotFound, got %v", err)
	}
}

func TestPets_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	s := NewPetService(memory.NewPetRepo())
	ctx := context.Background()

	p, err := s.Create(ctx, model.Pet{Name: "Rex", Species: "dog"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Update(ctx, p.ID, model.Pet{Name: "Rexy", Species: "dog"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ID != p.ID || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("identity not preserved: %+v vs %+v", got, p)
	}

	if err := s.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, p.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}
