// Package statefile implements durable client-side key/value storage backed by
// a JSON file. It holds the session token and user profile plus UI preferences,
// and survives process restarts.
package statefile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/adoptly/adoptly/internal/errs"
)

// Well-known storage keys.
const (
	KeyToken   = "token"
	KeyUser    = "user"
	KeyTheme   = "theme"
	KeySidebar = "sidebar_collapsed"
)

// File is a flock-guarded JSON key/value file. Values are opaque JSON blobs.
type File struct {
	path string
	lock *flock.Flock
}

// New opens a state file at an explicit path (used by tests).
func New(path string) *File {
	return &File{path: path, lock: flock.New(path + ".lock")}
}

// Default opens the state file under the user config directory
// ($XDG_CONFIG_HOME/adoptly/state.json).
func Default() *File {
	return New(filepath.Join(cfgDir(), "state.json"))
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "adoptly")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "adoptly")
}

// Get decodes the value stored under key into out.
// Returns errs.ErrNotFound if the key is absent.
func (f *File) Get(key string, out any) error {
	if err := f.lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = f.lock.Unlock() }()

	m, err := f.read()
	if err != nil {
		return err
	}
	raw, ok := m[key]
	if !ok {
		return errs.ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

// Set stores v under key, creating the file and its directory on first use.
func (f *File) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := f.lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = f.lock.Unlock() }()

	m, err := f.read()
	if err != nil {
		return err
	}
	m[key] = raw
	return f.write(m)
}

// Delete removes the given keys. Missing keys are not an error.
func (f *File) Delete(keys ...string) error {
	if err := f.lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = f.lock.Unlock() }()

	m, err := f.read()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(m, k)
	}
	return f.write(m)
}

// Token returns the stored bearer token, or "" when none is stored.
func (f *File) Token() string {
	var tok string
	if err := f.Get(KeyToken, &tok); err != nil {
		return ""
	}
	return tok
}

// ClearSession removes the persisted token and user profile.
func (f *File) ClearSession() error {
	return f.Delete(KeyToken, KeyUser)
}

// read loads the current contents; an absent file is an empty map.
func (f *File) read() (map[string]json.RawMessage, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}
	m := map[string]json.RawMessage{}
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// write persists the map atomically (temp file + rename) with 0600 perms.
func (f *File) write(m map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
