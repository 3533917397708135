package api

// REST paths exposed by the adoption backend.
const (
	PathSignup  = "/api/auth/signup"
	PathLogin   = "/api/auth/login"
	PathLogout  = "/api/auth/logout"
	PathProfile = "/api/auth/profile"
	PathRefresh = "/api/auth/refresh"

	PathPets         = "/api/pets"
	PathFeaturedPets = "/api/pets/featured"

	PathApplications   = "/api/applications"
	PathMyApplications = "/api/applications/my"
)

// PetPath returns the path of a single pet resource.
func PetPath(id string) string { return PathPets + "/" + id }

// ApplicationPath returns the path of a single application resource.
func ApplicationPath(id string) string { return PathApplications + "/" + id }

// ApprovePath returns the admin approval path for an application.
func ApprovePath(id string) string { return ApplicationPath(id) + "/approve" }

// RejectPath returns the admin rejection path for an application.
func RejectPath(id string) string { return ApplicationPath(id) + "/reject" }
