package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/formflowhq/backend/internal/auth"
	"github.com/formflowhq/backend/internal/extraction"
	"github.com/formflowhq/backend/internal/forms"
	"github.com/formflowhq/backend/internal/jobs"
	"github.com/formflowhq/backend/internal/models"
	"github.com/formflowhq/backend/internal/queue"
	"github.com/formflowhq/backend/internal/storage"
)

// DocumentHandler accepts documents for background extraction and reports
// job progress. Extraction itself happens in the worker process.
type DocumentHandler struct {
	jobs  *jobs.Service
	blobs storage.BlobStore
	queue *queue.Client
}

func NewDocumentHandler(js *jobs.Service, blobs storage.BlobStore, qc *queue.Client) *DocumentHandler {
	return &DocumentHandler{jobs: js, blobs: blobs, queue: qc}
}

// Upload validates one document, stores its bytes, and enqueues extraction.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var doc extraction.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Request body required"})
		return
	}
	if err := forms.ValidateDocuments([]extraction.Document{doc}); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	raw, err := extraction.DecodeContent(doc.Content)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document content encoding"})
		return
	}
	if len(raw) > extraction.MaxDocumentSize {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document too large"})
		return
	}

	ctx := r.Context()
	key, err := h.blobs.Put(ctx, raw)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store document"})
		return
	}

	job, err := h.jobs.Create(ctx, auth.UserIDFromContext(ctx), doc.Name, doc.Type, int64(len(raw)), key)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create job"})
		return
	}

	if err := h.queue.EnqueueDocumentExtract(queue.DocumentExtractPayload{JobID: job.ID.String()}); err != nil {
		h.jobs.Fail(ctx, job.ID, "could not queue extraction")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to queue extraction"})
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}

	list, err := h.jobs.ListByUser(r.Context(), auth.UserIDFromContext(r.Context()), limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list documents"})
		return
	}
	if list == nil {
		list = []models.ExtractionJob{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": list, "count": len(list)})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// Status is the polling endpoint: just enough to know whether the text is
// ready yet.
func (h *DocumentHandler) Status(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":     job.ID.String(),
		"status": job.Status,
		"method": job.Method,
		"error":  job.Error,
	})
}

// loadOwned resolves {id} for the authenticated user. Jobs belonging to
// other users read as missing.
func (h *DocumentHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*models.ExtractionJob, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
		return nil, false
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if errors.Is(err, jobs.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
		return nil, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load document"})
		return nil, false
	}

	if job.UserID != auth.UserIDFromContext(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
		return nil, false
	}

	return job, true
}
