package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/complaints-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps login and verification responses.
type AuthEnvelope struct {
	Message string                `json:"message,omitempty"`
	Email   string                `json:"email,omitempty"`
	Token   string                `json:"token,omitempty"`
	User    *domain.PublicProfile `json:"user,omitempty"`
}

// ComplaintEnvelope wraps single-complaint responses.
type ComplaintEnvelope struct {
	Message   string            `json:"message,omitempty"`
	Complaint *domain.Complaint `json:"complaint,omitempty"`
}

// ComplaintListEnvelope wraps paginated listing responses.
type ComplaintListEnvelope struct {
	Complaints []domain.Complaint `json:"complaints"`
	Pagination domain.Pagination  `json:"pagination"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// ExposeInternalErrors controls whether 500 responses carry the underlying
// error text. Enabled outside production to ease debugging.
var ExposeInternalErrors bool

// httpError maps a service error onto its status code. In production,
// backend failures are never echoed verbatim to the client.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		msg := "internal server error"
		if ExposeInternalErrors {
			msg = err.Error()
		}
		writeError(w, http.StatusInternalServerError, msg)
	}
}
