package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/complaints-api/internal/application/complaint"
	"github.com/complaints-api/internal/domain"
	"github.com/complaints-api/internal/pkg/validate"
	"github.com/complaints-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// maxEvidenceSize caps the multipart body of a complaint submission.
const maxEvidenceSize = 10 << 20 // 10 MB

// ComplaintHandler handles complaint CRUD, comments and the audit trail.
type ComplaintHandler struct {
	svc complaint.Service
}

func NewComplaintHandler(svc complaint.Service) *ComplaintHandler {
	return &ComplaintHandler{svc: svc}
}

func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxEvidenceSize)
	if err := r.ParseMultipartForm(maxEvidenceSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	req := domain.CreateComplaintRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		Category:    r.FormValue("category"),
		Priority:    r.FormValue("priority"),
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var ev *complaint.EvidenceUpload
	file, header, err := r.FormFile("evidence")
	switch {
	case err == nil:
		defer file.Close()
		data, rerr := io.ReadAll(file)
		if rerr != nil {
			writeError(w, http.StatusBadRequest, "failed to read evidence file")
			return
		}
		ev = &complaint.EvidenceUpload{
			Data:        data,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
		}
	case errors.Is(err, http.ErrMissingFile):
		// evidence is optional
	default:
		writeError(w, http.StatusBadRequest, "invalid evidence file")
		return
	}

	c, err := h.svc.Create(r.Context(), user.Profile, req, ev)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ComplaintEnvelope{Message: "complaint created successfully", Complaint: c})
}

// List serves the collection-wide listing with query-string filters.
func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	q := queryFromURL(r)
	out, err := h.svc.List(r.Context(), q)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ComplaintListEnvelope{Complaints: out.Items, Pagination: out.Pagination})
}

// ListOwned serves the owner-filtered listing driven by a JSON body.
func (h *ComplaintHandler) ListOwned(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Page   int    `json:"page"`
		Limit  int    `json:"limit"`
		SortBy string `json:"sortBy"`
		Order  string `json:"order"`
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ownerID := body.UserID
	if ownerID == "" {
		ownerID = user.Profile.UserID
	}
	q := domain.ComplaintQuery{
		OwnerID:   ownerID,
		Page:      body.Page,
		PageSize:  body.Limit,
		SortField: body.SortBy,
		SortOrder: body.Order,
	}
	out, err := h.svc.List(r.Context(), q)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ComplaintListEnvelope{Complaints: out.Items, Pagination: out.Pagination})
}

func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ComplaintEnvelope{Complaint: c})
}

func (h *ComplaintHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := h.svc.Update(r.Context(), user.Profile, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ComplaintEnvelope{Message: "complaint updated successfully", Complaint: c})
}

func (h *ComplaintHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), user.Profile, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "complaint deleted successfully"})
}

func (h *ComplaintHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	comment, err := h.svc.AddComment(r.Context(), user.Profile, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "comment added successfully",
		"comment": comment,
	})
}

func (h *ComplaintHandler) Activity(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	logs, err := h.svc.Activity(r.Context(), user.Profile, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"activity": logs})
}

// Evidence returns a short-lived download URL for a complaint's attachment.
func (h *ComplaintHandler) Evidence(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.EvidenceURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func queryFromURL(r *http.Request) domain.ComplaintQuery {
	qs := r.URL.Query()
	page, _ := strconv.Atoi(qs.Get("page"))
	limit, _ := strconv.Atoi(qs.Get("limit"))
	return domain.ComplaintQuery{
		Status:    qs.Get("status"),
		Page:      page,
		PageSize:  limit,
		SortField: qs.Get("sortBy"),
		SortOrder: qs.Get("order"),
	}
}
