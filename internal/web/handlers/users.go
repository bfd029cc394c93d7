package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eaglesec/eagle-access/internal/store"
)

// UsersHandler handles user registry endpoints.
type UsersHandler struct {
	users store.UserRepository
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(users store.UserRepository) *UsersHandler {
	return &UsersHandler{users: users}
}

// UserResponse represents a registered user in API responses.
type UserResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// List returns all registered users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		log.Printf("users: list failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	response := make([]UserResponse, 0, len(users))
	for id, name := range users {
		response = append(response, UserResponse{UserID: id, Name: name})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count": len(response),
		"users": response,
	})
}

// Delete removes a user by ID or name, together with their embeddings and
// sample images.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	if identifier == "" {
		respondError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	found, err := h.users.Delete(r.Context(), identifier)
	if err != nil {
		log.Printf("users: delete %q failed: %v", sanitizeForLog(identifier), err)
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	log.Printf("users: deleted %q", sanitizeForLog(identifier))
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
	})
}
