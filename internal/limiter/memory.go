package limiter

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	failCount    int
	blockedUntil time.Time
	updatedAt    time.Time
}

// Memory is an in-process limiter with the same sliding-window semantics as PG.
// Used by the server's in-memory mode and tests.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]*memEntry
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
}

// NewMemory constructs an in-process limiter.
func NewMemory(window time.Duration, maxFails int, blockFor time.Duration) *Memory {
	return &Memory{
		entries:  map[string]*memEntry{},
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
		now:      time.Now,
	}
}

func memKey(email string, ipHash []byte) string { return email + "\x00" + string(ipHash) }

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *Memory) Allow(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[memKey(email, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if now := l.now(); e.blockedUntil.After(now) {
		return false, e.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success resets counters for (email, ip).
func (l *Memory) Success(_ context.Context, email string, ipHash []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, memKey(email, ipHash))
	return nil
}

// Failure records a failed attempt; may set a block until a future time.
func (l *Memory) Failure(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	key := memKey(email, ipHash)
	e, ok := l.entries[key]
	if !ok || now.Sub(e.updatedAt) > l.window {
		e = &memEntry{}
		l.entries[key] = e
	}
	e.failCount++
	e.updatedAt = now
	if e.failCount >= l.maxFails {
		e.blockedUntil = now.Add(l.blockFor)
		return true, l.blockFor, nil
	}
	return false, 0, nil
}
