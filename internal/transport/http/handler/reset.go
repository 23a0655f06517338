package handler

import (
	"encoding/json"
	"net/http"

	"github.com/complaints-api/internal/application/auth"
)

// ResetHandler handles the password recovery endpoint.
type ResetHandler struct {
	svc auth.Service
}

func NewResetHandler(svc auth.Service) *ResetHandler { return &ResetHandler{svc: svc} }

func (h *ResetHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "missing email")
		return
	}
	link, err := h.svc.ResetPassword(r.Context(), req.Email)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "password reset link sent",
		"link":    link,
	})
}

// ChangePassword consumes an emailed reset token and sets the new password.
func (h *ResetHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "missing token or newPassword")
		return
	}
	if err := h.svc.CompleteReset(r.Context(), req.Token, req.NewPassword); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password updated successfully"})
}
