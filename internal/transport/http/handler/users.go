package handler

import (
	"encoding/json"
	"net/http"

	"github.com/complaints-api/internal/application/user"
)

// UserHandler handles user administration endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

// Managers lists every manager account.
func (h *UserHandler) Managers(w http.ResponseWriter, r *http.Request) {
	managers, err := h.svc.Managers(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"managers": managers})
}

// Delete removes an account by id (admin only).
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}
	if err := h.svc.Delete(r.Context(), req.ID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "user deleted successfully"})
}

// UserID resolves a session token to its account id.
func (h *UserHandler) UserID(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}
	uid, err := h.svc.UserIDFromToken(req.Token)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uid": uid})
}
