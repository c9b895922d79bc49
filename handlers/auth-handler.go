package handlers

import (
	"encoding/json"
	"net/http"

	"kanban-board/services"
)

type AuthHandler struct {
	service *services.AuthService
}

func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// CreateSession rešava identitet: prosleđen token ili anonimna prijava.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token string `json:"token"`
	}
	if r.Body != nil {
		// Prazno telo znači anonimnu prijavu
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	identity, err := h.service.Resolve(r.Context(), payload.Token)
	if err != nil {
		http.Error(w, "Unable to resolve identity", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(identity)
}
