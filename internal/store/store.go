// Package store holds the client-side state containers: auth session, pets
// catalog, adoption applications and ephemeral UI state. Each store owns its
// snapshot exclusively and mutates it only from its own actions.
package store

import "sync"

// Result is the uniform outcome of a store action. Callers branch on OK; Err
// carries the normalized human-readable message when OK is false.
type Result struct {
	OK  bool
	Err string
}

func ok() Result { return Result{OK: true} }

func fail(err error) Result { return Result{Err: err.Error()} }

func failMsg(msg string) Result { return Result{Err: msg} }

// inflight rejects concurrent duplicate invocations of the same action
// (e.g. a rapid double-submit) without blocking distinct actions.
type inflight struct {
	mu   sync.Mutex
	busy map[string]bool
}

// begin marks the action as running; it returns false if already running.
func (g *inflight) begin(action string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy == nil {
		g.busy = map[string]bool{}
	}
	if g.busy[action] {
		return false
	}
	g.busy[action] = true
	return true
}

func (g *inflight) end(action string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, action)
}

const errInFlight = "request already in progress"
