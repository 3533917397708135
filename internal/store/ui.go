package store

import (
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/adoptly/adoptly/internal/statefile"
)

// Modal kinds tracked by the UI store.
const (
	ModalApply  = "apply"
	ModalDelete = "delete"
	ModalLogin  = "login"
	ModalSignup = "signup"
)

// defaultToastTTL is how long a toast stays visible.
const defaultToastTTL = 3 * time.Second

// Toast is a transient notification. Ordering is insertion order and several
// may coexist before their timers fire.
type Toast struct {
	ID      string
	Message string
	Kind    string // info, success, error
}

// UI holds ephemeral view state: modal visibility, the toast queue and the
// sidebar/theme toggles. It never talks to the network; the two preference
// toggles are mirrored to the state file so they survive restarts.
type UI struct {
	state *statefile.File

	mu            sync.Mutex
	modals        map[string]bool
	selectedPetID string
	toasts        []Toast
	toastTTL      time.Duration
	darkMode      bool
	sidebarOpen   bool
}

// NewUI constructs the UI store. state may be nil (preferences not persisted).
func NewUI(state *statefile.File) *UI {
	return &UI{state: state, modals: map[string]bool{}, toastTTL: defaultToastTTL}
}

// SetToastTTL overrides the toast lifetime (tests).
func (u *UI) SetToastTTL(d time.Duration) {
	u.mu.Lock()
	u.toastTTL = d
	u.mu.Unlock()
}

// Init loads persisted preferences.
func (u *UI) Init() {
	if u.state == nil {
		return
	}
	var theme string
	if err := u.state.Get(statefile.KeyTheme, &theme); err == nil {
		u.mu.Lock()
		u.darkMode = theme == "dark"
		u.mu.Unlock()
	}
	var collapsed bool
	if err := u.state.Get(statefile.KeySidebar, &collapsed); err == nil {
		u.mu.Lock()
		u.sidebarOpen = !collapsed
		u.mu.Unlock()
	}
}

// OpenModal shows the modal of the given kind, remembering which pet it is
// about. Login and signup modals are mutually exclusive.
func (u *UI) OpenModal(kind, petID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch kind {
	case ModalLogin:
		u.modals[ModalSignup] = false
	case ModalSignup:
		u.modals[ModalLogin] = false
	}
	u.modals[kind] = true
	u.selectedPetID = petID
}

// CloseModal hides the modal of the given kind and forgets the selected pet.
func (u *UI) CloseModal(kind string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.modals[kind] = false
	u.selectedPetID = ""
}

// ModalOpen reports whether the modal of the given kind is visible.
func (u *UI) ModalOpen(kind string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.modals[kind]
}

// SelectedPetID returns the pet the open modal refers to ("" when none).
func (u *UI) SelectedPetID() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.selectedPetID
}

// ShowToast enqueues a toast that self-destructs after the configured TTL.
func (u *UI) ShowToast(message, kind string) Toast {
	id, _ := uuid.NewV4()
	t := Toast{ID: id.String(), Message: message, Kind: kind}

	u.mu.Lock()
	u.toasts = append(u.toasts, t)
	ttl := u.toastTTL
	u.mu.Unlock()

	time.AfterFunc(ttl, func() { u.Dismiss(t.ID) })
	return t
}

// Dismiss removes a toast by id; unknown ids are ignored.
func (u *UI) Dismiss(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	kept := u.toasts[:0]
	for _, t := range u.toasts {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	u.toasts = kept
}

// Toasts returns the visible toasts in insertion order.
func (u *UI) Toasts() []Toast {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Toast, len(u.toasts))
	copy(out, u.toasts)
	return out
}

// ToggleDarkMode flips the theme and persists it.
func (u *UI) ToggleDarkMode() bool {
	u.mu.Lock()
	u.darkMode = !u.darkMode
	dark := u.darkMode
	u.mu.Unlock()

	if u.state != nil {
		theme := "light"
		if dark {
			theme = "dark"
		}
		_ = u.state.Set(statefile.KeyTheme, theme)
	}
	return dark
}

// DarkMode reports the current theme.
func (u *UI) DarkMode() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.darkMode
}

// ToggleSidebar flips sidebar visibility and persists the collapsed state.
func (u *UI) ToggleSidebar() bool {
	u.mu.Lock()
	u.sidebarOpen = !u.sidebarOpen
	open := u.sidebarOpen
	u.mu.Unlock()

	if u.state != nil {
		_ = u.state.Set(statefile.KeySidebar, !open)
	}
	return open
}

// SidebarOpen reports sidebar visibility.
func (u *UI) SidebarOpen() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sidebarOpen
}
