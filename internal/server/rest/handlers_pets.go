package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/adoptly/adoptly/internal/model"
)

func (s *Server) handleListPets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	f := model.Filters{
		Search:  q.Get("search"),
		Species: q.Get("species"),
		Breed:   q.Get("breed"),
		Age:     q.Get("age"),
	}
	pageData, err := s.pets.List(r.Context(), f, page)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pageData)
}

func (s *Server) handleFeaturedPets(w http.ResponseWriter, r *http.Request) {
	pets, err := s.pets.Featured(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pets)
}

func (s *Server) handleGetPet(w http.ResponseWriter, r *http.Request) {
	pet, err := s.pets.Get(r.Context(), chi.URLParam(r, "petID"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pet)
}

func (s *Server) handleCreatePet(w http.ResponseWriter, r *http.Request) {
	var pet model.Pet
	if err := json.NewDecoder(r.Body).Decode(&pet); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	created, err := s.pets.Create(r.Context(), pet)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdatePet(w http.ResponseWriter, r *http.Request) {
	var pet model.Pet
	if err := json.NewDecoder(r.Body).Decode(&pet); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	updated, err := s.pets.Update(r.Context(), chi.URLParam(r, "petID"), pet)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handlePatchPet(w http.ResponseWriter, r *http.Request) {
	var patch model.PetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	updated, err := s.pets.Patch(r.Context(), chi.URLParam(r, "petID"), patch)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePet(w http.ResponseWriter, r *http.Request) {
	if err := s.pets.Delete(r.Context(), chi.URLParam(r, "petID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
