// Package model defines domain entities shared by the client stores and the
// reference backend.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role is the access level attached to a user account.
type Role string

// Known account roles.
const (
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
	RoleVolunteer Role = "volunteer"
	RoleModerator Role = "moderator"
	RoleVisitor   Role = "visitor"
)

// User is the account profile as exposed over the API.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Role    Role   `json:"role"`
}

// Session is an authenticated client session: the profile plus the bearer
// token proving it. Exactly one session (or none) exists at a time.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// PetStatus is the adoption availability of a pet.
type PetStatus string

// Pet availability states.
const (
	PetAvailable    PetStatus = "available"
	PetPending      PetStatus = "pending"
	PetAdopted      PetStatus = "adopted"
	PetNotAvailable PetStatus = "not_available"
	PetFostered     PetStatus = "fostered"
)

// Pet age categories (coarse buckets, not numeric ages).
const (
	AgeBaby   = "baby"
	AgeYoung  = "young"
	AgeAdult  = "adult"
	AgeSenior = "senior"
)

// Pet is a single adoptable animal. Photo is a base64 data URL; the backend is
// the owner of record, clients hold cached copies.
type Pet struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Species      string    `json:"species"`
	Breed        string    `json:"breed"`
	Age          string    `json:"age"`
	Size         string    `json:"size"`
	Gender       string    `json:"gender"`
	Status       PetStatus `json:"status"`
	HealthStatus string    `json:"healthStatus"`
	Temperament  []string  `json:"temperament,omitempty"`
	Description  string    `json:"description"`
	Photo        string    `json:"photo,omitempty"`
	IsFeatured   bool      `json:"isFeatured"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

// PetPatch is a partial pet update; nil fields are left untouched.
type PetPatch struct {
	Name         *string    `json:"name,omitempty"`
	Breed        *string    `json:"breed,omitempty"`
	Age          *string    `json:"age,omitempty"`
	Size         *string    `json:"size,omitempty"`
	Gender       *string    `json:"gender,omitempty"`
	Status       *PetStatus `json:"status,omitempty"`
	HealthStatus *string    `json:"healthStatus,omitempty"`
	Temperament  []string   `json:"temperament,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Photo        *string    `json:"photo,omitempty"`
	IsFeatured   *bool      `json:"isFeatured,omitempty"`
}

// PetPage is one page of a filtered pet listing.
type PetPage struct {
	Pets        []Pet `json:"pets"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int   `json:"totalCount"`
}

// Filters is the client-side filter state driving pet listing requests.
type Filters struct {
	Search  string `json:"search"`
	Species string `json:"species"`
	Breed   string `json:"breed"`
	Age     string `json:"age"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f.Search == "" && f.Species == "" && f.Breed == "" && f.Age == ""
}

// AppStatus is the review state of an adoption application.
type AppStatus string

// Application states. Approved, rejected and withdrawn are terminal.
const (
	AppPending     AppStatus = "pending"
	AppUnderReview AppStatus = "under_review"
	AppApproved    AppStatus = "approved"
	AppRejected    AppStatus = "rejected"
	AppWithdrawn   AppStatus = "withdrawn"
	AppCancelled   AppStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s AppStatus) Terminal() bool {
	switch s {
	case AppApproved, AppRejected, AppWithdrawn, AppCancelled:
		return true
	}
	return false
}

// Application is a user's request to adopt a specific pet.
type Application struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	PetID       string    `json:"petId"`
	UserName    string    `json:"userName"`
	PetName     string    `json:"petName"`
	UserEmail   string    `json:"userEmail"`
	Status      AppStatus `json:"status"`
	UserMessage string    `json:"userMessage"`
	AdminNotes  string    `json:"adminNotes,omitempty"`
	AppliedDate time.Time `json:"appliedDate"`
}

// UserRecord is the server-side account row; credentials never leave the server.
type UserRecord struct {
	ID        uuid.UUID
	Name      string
	Email     string // unique
	Phone     string
	Address   string
	Role      Role
	PwdHash   []byte // Argon2id(password, PwdSalt)
	PwdSalt   []byte // per-user salt
	CreatedAt time.Time
}

// Profile returns the API-facing view of the account.
func (u *UserRecord) Profile() User {
	return User{
		ID:      u.ID.String(),
		Name:    u.Name,
		Email:   u.Email,
		Phone:   u.Phone,
		Address: u.Address,
		Role:    u.Role,
	}
}
