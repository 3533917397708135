package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/adoptly/adoptly/internal/api"
	"github.com/adoptly/adoptly/internal/errs"
	"github.com/adoptly/adoptly/internal/model"
)

// Applications caches the caller's own adoption applications plus, for admins,
// the full queue. Mutations never retry; list fetches use the shared bounded
// retry for idempotent GETs.
type Applications struct {
	api *api.Client
	log *zap.Logger

	mu      sync.Mutex
	mine    []model.Application
	all     []model.Application
	lastErr string

	guard inflight
}

// NewApplications constructs the applications store.
func NewApplications(client *api.Client, log *zap.Logger) *Applications {
	return &Applications{api: client, log: log}
}

// RefreshMine reloads the caller's applications.
func (s *Applications) RefreshMine(ctx context.Context) Result {
	var apps []model.Application
	if err := s.api.GetRetry(ctx, api.PathMyApplications, nil, &apps); err != nil {
		return s.failWith(err)
	}
	s.mu.Lock()
	s.mine = apps
	s.lastErr = ""
	s.mu.Unlock()
	return ok()
}

// RefreshAll reloads every application (admin view).
func (s *Applications) RefreshAll(ctx context.Context) Result {
	var apps []model.Application
	if err := s.api.GetRetry(ctx, api.PathApplications, nil, &apps); err != nil {
		return s.failWith(err)
	}
	s.mu.Lock()
	s.all = apps
	s.lastErr = ""
	s.mu.Unlock()
	return ok()
}

// Apply submits an adoption application for a pet and appends the created
// resource to the cached list on success.
func (s *Applications) Apply(ctx context.Context, petID, message string) (model.Application, Result) {
	if petID == "" {
		return model.Application{}, s.failWith(fmt.Errorf("%w: empty pet id", errs.ErrValidation))
	}
	if !s.guard.begin("apply:" + petID) {
		return model.Application{}, failMsg(errInFlight)
	}
	defer s.guard.end("apply:" + petID)

	in := struct {
		PetID       string `json:"petId"`
		UserMessage string `json:"userMessage"`
	}{PetID: petID, UserMessage: message}

	var created model.Application
	if err := s.api.Post(ctx, api.PathApplications, in, &created); err != nil {
		return model.Application{}, s.failWith(err)
	}

	s.mu.Lock()
	s.mine = append(s.mine, created)
	s.lastErr = ""
	s.mu.Unlock()
	return created, ok()
}

// Approve marks an application approved with admin notes (admin only).
func (s *Applications) Approve(ctx context.Context, id, notes string) Result {
	return s.review(ctx, api.ApprovePath(id), id, notes)
}

// Reject marks an application rejected with admin notes (admin only).
func (s *Applications) Reject(ctx context.Context, id, notes string) Result {
	return s.review(ctx, api.RejectPath(id), id, notes)
}

func (s *Applications) review(ctx context.Context, path, id, notes string) Result {
	if id == "" {
		return s.failWith(fmt.Errorf("%w: empty application id", errs.ErrValidation))
	}
	if !s.guard.begin("review:" + id) {
		return failMsg(errInFlight)
	}
	defer s.guard.end("review:" + id)

	in := struct {
		AdminNotes string `json:"adminNotes"`
	}{AdminNotes: notes}

	var updated model.Application
	if err := s.api.Put(ctx, path, in, &updated); err != nil {
		return s.failWith(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.all {
		if s.all[i].ID == updated.ID {
			s.all[i] = updated
			break
		}
	}
	for i := range s.mine {
		if s.mine[i].ID == updated.ID {
			s.mine[i] = updated
			break
		}
	}
	s.lastErr = ""
	return ok()
}

// Withdraw deletes the caller's application. The DELETE is issued regardless
// of the locally cached status; the server is the authority on whether a
// terminal application can still be withdrawn, and on failure the cache is
// left untouched.
func (s *Applications) Withdraw(ctx context.Context, id string) Result {
	if id == "" {
		return s.failWith(fmt.Errorf("%w: empty application id", errs.ErrValidation))
	}
	if !s.guard.begin("withdraw:" + id) {
		return failMsg(errInFlight)
	}
	defer s.guard.end("withdraw:" + id)

	if err := s.api.Delete(ctx, api.ApplicationPath(id)); err != nil {
		return s.failWith(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.mine[:0]
	for _, app := range s.mine {
		if app.ID != id {
			kept = append(kept, app)
		}
	}
	s.mine = kept
	s.lastErr = ""
	return ok()
}

// Mine returns a copy of the caller's cached applications.
func (s *Applications) Mine() []model.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Application, len(s.mine))
	copy(out, s.mine)
	return out
}

// All returns a copy of the cached admin queue.
func (s *Applications) All() []model.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Application, len(s.all))
	copy(out, s.all)
	return out
}

// LastError returns the most recent action error message ("" when none).
func (s *Applications) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Applications) failWith(err error) Result {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	return fail(err)
}
