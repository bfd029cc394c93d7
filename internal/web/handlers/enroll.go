package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eaglesec/eagle-access/internal/enroll"
	"github.com/eaglesec/eagle-access/internal/store"
)

// EnrollHandler handles registration endpoints.
type EnrollHandler struct {
	manager *enroll.Manager
}

// NewEnrollHandler creates a new enrollment handler.
func NewEnrollHandler(manager *enroll.Manager) *EnrollHandler {
	return &EnrollHandler{manager: manager}
}

// RegisterRequest is the body of a registration request.
type RegisterRequest struct {
	Name string `json:"name"`
}

// RegisterResponse is returned when a registration job is accepted.
type RegisterResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Register creates the user record and starts the background capture job.
// The job runs after this request returns; poll Status for the outcome.
func (h *EnrollHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	userID, err := h.manager.Enroll(r.Context(), req.Name, nil)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			respondError(w, http.StatusConflict, "user name already registered")
			return
		}
		log.Printf("enroll: registration of %q failed: %v", sanitizeForLog(req.Name), err)
		respondError(w, http.StatusInternalServerError, "failed to start registration")
		return
	}

	respondJSON(w, http.StatusAccepted, RegisterResponse{
		UserID: userID,
		Name:   req.Name,
		Status: string(enroll.StatusProcessing),
	})
}

// StatusResponse reports the lifecycle state of a registration job.
type StatusResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Status returns the registration job state for a name. Names never
// enrolled during this process lifetime report "unknown".
func (h *EnrollHandler) Status(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	respondJSON(w, http.StatusOK, StatusResponse{
		Name:   name,
		Status: string(h.manager.Status(name)),
	})
}
