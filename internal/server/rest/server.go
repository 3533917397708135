// Package rest exposes the adoption platform HTTP API.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/adoptly/adoptly/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	auth    service.AuthService
	pets    service.PetService
	apps    service.ApplicationService
	signKey []byte
	log     *zap.Logger
}

// New constructs a server with injected services.
func New(auth service.AuthService, pets service.PetService, apps service.ApplicationService, signKey []byte, log *zap.Logger) *Server {
	return &Server{auth: auth, pets: pets, apps: apps, signKey: signKey, log: log}
}

// Router builds the API route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logging(s.log))
	r.Use(Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignup)
			r.Post("/login", s.handleLogin)

			r.Group(func(r chi.Router) {
				r.Use(Authenticate(s.signKey))
				r.Post("/logout", s.handleLogout)
				r.Get("/profile", s.handleProfile)
				r.Post("/refresh", s.handleRefresh)
			})
		})

		r.Route("/pets", func(r chi.Router) {
			r.Get("/", s.handleListPets)
			r.Get("/featured", s.handleFeaturedPets)
			r.Get("/{petID}", s.handleGetPet)

			r.Group(func(r chi.Router) {
				r.Use(Authenticate(s.signKey), RequireAdmin)
				r.Post("/", s.handleCreatePet)
				r.Put("/{petID}", s.handleUpdatePet)
				r.Patch("/{petID}", s.handlePatchPet)
				r.Delete("/{petID}", s.handleDeletePet)
			})
		})

		r.Route("/applications", func(r chi.Router) {
			r.Use(Authenticate(s.signKey))
			r.Post("/", s.handleApply)
			r.Get("/my", s.handleMyApplications)
			r.Delete("/{appID}", s.handleWithdraw)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/", s.handleAllApplications)
				r.Put("/{appID}/approve", s.handleApprove)
				r.Put("/{appID}/reject", s.handleReject)
			})
		})
	})

	return r
}
