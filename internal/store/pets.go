package store

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/adoptly/adoptly/internal/api"
	"github.com/adoptly/adoptly/internal/errs"
	"github.com/adoptly/adoptly/internal/model"
)

// Pets caches a paginated, filtered slice of the pet catalog plus one selected
// pet. List fetches go through the API client's bounded retry; responses that
// lose the race to a newer request are discarded instead of clobbering state.
type Pets struct {
	api *api.Client
	log *zap.Logger

	mu         sync.Mutex
	pets       []model.Pet
	featured   []model.Pet
	selected   *model.Pet
	page       int
	totalPages int
	totalCount int
	filters    model.Filters
	lastErr    string

	listSeq uint64 // latest issued list fetch
	selSeq  uint64 // latest issued single-pet fetch

	guard inflight
}

// NewPets constructs the pets store.
func NewPets(client *api.Client, log *zap.Logger) *Pets {
	return &Pets{api: client, log: log, page: 1, totalPages: 1}
}

// Fetch loads the given page of the catalog using the current filters. It
// retries transient failures (network, 5xx, 429) up to three attempts with
// exponential backoff, then surfaces the normalized error.
func (p *Pets) Fetch(ctx context.Context, page int) Result {
	p.mu.Lock()
	p.listSeq++
	seq := p.listSeq
	q := listQuery(page, p.filters)
	p.mu.Unlock()

	var pg model.PetPage
	if err := p.api.GetRetry(ctx, api.PathPets, q, &pg); err != nil {
		return p.failWith(err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.listSeq {
		// A newer fetch was issued while this one was in flight.
		p.log.Debug("stale pet list response discarded", zap.Uint64("seq", seq))
		return failMsg("superseded by a newer request")
	}
	p.pets = pg.Pets
	p.page = pg.CurrentPage
	p.totalPages = pg.TotalPages
	p.totalCount = pg.TotalCount
	p.lastErr = ""
	return ok()
}

// listQuery builds the page/search/species/breed/age parameter set.
func listQuery(page int, f model.Filters) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Species != "" {
		q.Set("species", f.Species)
	}
	if f.Breed != "" {
		q.Set("breed", f.Breed)
	}
	if f.Age != "" {
		q.Set("age", f.Age)
	}
	return q
}

// FetchFeatured loads the curated featured subset.
func (p *Pets) FetchFeatured(ctx context.Context) Result {
	var featured []model.Pet
	if err := p.api.GetRetry(ctx, api.PathFeaturedPets, nil, &featured); err != nil {
		return p.failWith(err)
	}
	p.mu.Lock()
	p.featured = featured
	p.mu.Unlock()
	return ok()
}

// FetchByID loads one pet into SelectedPet. An empty id fails fast without a
// network call.
func (p *Pets) FetchByID(ctx context.Context, id string) Result {
	if id == "" {
		return p.failWith(fmt.Errorf("%w: empty pet id", errs.ErrValidation))
	}

	p.mu.Lock()
	p.selSeq++
	seq := p.selSeq
	p.mu.Unlock()

	var pet model.Pet
	if err := p.api.GetRetry(ctx, api.PetPath(id), nil, &pet); err != nil {
		return p.failWith(err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.selSeq {
		return failMsg("superseded by a newer request")
	}
	p.selected = &pet
	p.lastErr = ""
	return ok()
}

// ApplyFilters replaces the filter state and refetches page 1.
func (p *Pets) ApplyFilters(ctx context.Context, f model.Filters) Result {
	p.mu.Lock()
	p.filters = f
	p.mu.Unlock()
	return p.Fetch(ctx, 1)
}

// ClearFilters resets all filters and refetches page 1. Calling it twice in a
// row yields the same state as calling it once.
func (p *Pets) ClearFilters(ctx context.Context) Result {
	return p.ApplyFilters(ctx, model.Filters{})
}

// GoToPage refetches at the requested page with current filters. Pages outside
// [1, totalPages] are rejected locally without a network call.
func (p *Pets) GoToPage(ctx context.Context, page int) Result {
	p.mu.Lock()
	total := p.totalPages
	p.mu.Unlock()
	if page < 1 || page > total {
		return failMsg(fmt.Sprintf("page %d out of range [1, %d]", page, total))
	}
	return p.Fetch(ctx, page)
}

// Add creates a pet and prepends it to the cached list on success. The cache
// is untouched on failure.
func (p *Pets) Add(ctx context.Context, pet model.Pet) (model.Pet, Result) {
	if err := validatePet(pet); err != nil {
		return model.Pet{}, p.failWith(err)
	}
	if !p.guard.begin("add") {
		return model.Pet{}, failMsg(errInFlight)
	}
	defer p.guard.end("add")

	var created model.Pet
	if err := p.api.Post(ctx, api.PathPets, pet, &created); err != nil {
		return model.Pet{}, p.failWith(err)
	}

	p.mu.Lock()
	p.pets = append([]model.Pet{created}, p.pets...)
	p.totalCount++
	p.lastErr = ""
	p.mu.Unlock()
	return created, ok()
}

// Update fully replaces a pet and mirrors the server copy into the cache.
func (p *Pets) Update(ctx context.Context, id string, pet model.Pet) (model.Pet, Result) {
	if id == "" {
		return model.Pet{}, p.failWith(fmt.Errorf("%w: empty pet id", errs.ErrValidation))
	}
	if err := validatePet(pet); err != nil {
		return model.Pet{}, p.failWith(err)
	}
	if !p.guard.begin("update:" + id) {
		return model.Pet{}, failMsg(errInFlight)
	}
	defer p.guard.end("update:" + id)

	var updated model.Pet
	if err := p.api.Put(ctx, api.PetPath(id), pet, &updated); err != nil {
		return model.Pet{}, p.failWith(err)
	}
	p.replace(updated)
	return updated, ok()
}

// Patch partially updates a pet and mirrors the server copy into the cache.
func (p *Pets) Patch(ctx context.Context, id string, patch model.PetPatch) (model.Pet, Result) {
	if id == "" {
		return model.Pet{}, p.failWith(fmt.Errorf("%w: empty pet id", errs.ErrValidation))
	}
	if patch.Photo != nil {
		if err := ValidatePhotoDataURL(*patch.Photo); err != nil {
			return model.Pet{}, p.failWith(err)
		}
	}
	if !p.guard.begin("patch:" + id) {
		return model.Pet{}, failMsg(errInFlight)
	}
	defer p.guard.end("patch:" + id)

	var updated model.Pet
	if err := p.api.Patch(ctx, api.PetPath(id), patch, &updated); err != nil {
		return model.Pet{}, p.failWith(err)
	}
	p.replace(updated)
	return updated, ok()
}

// replace swaps the matching cache entry and fixes the selected pet.
func (p *Pets) replace(pet model.Pet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.pets {
		if p.pets[i].ID == pet.ID {
			p.pets[i] = pet
			break
		}
	}
	if p.selected != nil && p.selected.ID == pet.ID {
		cpy := pet
		p.selected = &cpy
	}
	p.lastErr = ""
}

// Delete removes a pet and filters it out of the cache on success.
func (p *Pets) Delete(ctx context.Context, id string) Result {
	if id == "" {
		return p.failWith(fmt.Errorf("%w: empty pet id", errs.ErrValidation))
	}
	if !p.guard.begin("delete:" + id) {
		return failMsg(errInFlight)
	}
	defer p.guard.end("delete:" + id)

	if err := p.api.Delete(ctx, api.PetPath(id)); err != nil {
		return p.failWith(err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.pets[:0]
	for _, pet := range p.pets {
		if pet.ID != id {
			kept = append(kept, pet)
		}
	}
	p.pets = kept
	if p.totalCount > 0 {
		p.totalCount--
	}
	if p.selected != nil && p.selected.ID == id {
		p.selected = nil
	}
	p.lastErr = ""
	return ok()
}

// validatePet checks required fields and the photo contract before any
// network call.
func validatePet(pet model.Pet) error {
	if pet.Name == "" || pet.Species == "" {
		return fmt.Errorf("%w: name and species are required", errs.ErrValidation)
	}
	if pet.Photo != "" {
		return ValidatePhotoDataURL(pet.Photo)
	}
	return nil
}

// List returns a copy of the cached page.
func (p *Pets) List() []model.Pet {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Pet, len(p.pets))
	copy(out, p.pets)
	return out
}

// Featured returns a copy of the cached featured subset.
func (p *Pets) Featured() []model.Pet {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Pet, len(p.featured))
	copy(out, p.featured)
	return out
}

// Selected returns the selected pet, if any.
func (p *Pets) Selected() (model.Pet, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == nil {
		return model.Pet{}, false
	}
	return *p.selected, true
}

// Page returns the current page and total pages after the last fetch.
func (p *Pets) Page() (current, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page, p.totalPages
}

// TotalCount returns the server-reported match count.
func (p *Pets) TotalCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalCount
}

// Filters returns the current filter state.
func (p *Pets) Filters() model.Filters {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filters
}

// LastError returns the most recent action error message ("" when none).
func (p *Pets) LastError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Pets) failWith(err error) Result {
	p.mu.Lock()
	p.lastErr = err.Error()
	p.mu.Unlock()
	return fail(err)
}
