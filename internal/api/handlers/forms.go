package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/formflowhq/backend/internal/auth"
	"github.com/formflowhq/backend/internal/forms"
	"github.com/formflowhq/backend/internal/models"
)

type FormsHandler struct {
	svc   *forms.Service
	store *forms.Store
}

func NewFormsHandler(svc *forms.Service, store *forms.Store) *FormsHandler {
	return &FormsHandler{svc: svc, store: store}
}

// Create builds a form from a natural-language request and optional
// documents, falling back to a minimal schema when generation fails.
func (h *FormsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req forms.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Request body required"})
		return
	}
	if req.UserQuery == "" && len(req.Documents) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Either userQuery or documents required"})
		return
	}
	if len(req.Documents) > 0 {
		if err := forms.ValidateDocuments(req.Documents); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	form, err := h.svc.Create(r.Context(), auth.UserIDFromContext(r.Context()), req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to create form", "message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"formId":      form.ID.String(),
		"redirectUrl": fmt.Sprintf("/%s/edit", form.ID),
	})
}

func (h *FormsHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.ListByUser(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list forms"})
		return
	}
	if summaries == nil {
		summaries = []forms.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"forms": summaries})
}

// Get serves the current schema. Forms are filled out by anonymous
// respondents, so this endpoint is public.
func (h *FormsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Form not found"})
		return
	}

	form, schema, err := h.store.Get(r.Context(), id)
	if errors.Is(err, forms.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Form not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load form"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"formId":      form.ID,
		"title":       form.Title,
		"description": form.Description,
		"schema":      schema,
	})
}

// Save persists a manually edited schema as a new version.
func (h *FormsHandler) Save(w http.ResponseWriter, r *http.Request) {
	form, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var body struct {
		Schema            *forms.Schema `json:"schema"`
		ChangeDescription string        `json:"changeDescription"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Request body required"})
		return
	}
	if body.Schema == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Schema required"})
		return
	}
	if err := forms.ValidateSchema(*body.Schema); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if body.ChangeDescription == "" {
		body.ChangeDescription = "Manual save"
	}

	version, err := h.store.Update(r.Context(), form.ID, forms.UpdateRequest{
		Schema:            *body.Schema,
		ChangeDescription: body.ChangeDescription,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save form"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "version": version})
}

// Edit applies a natural-language change to the form via the generator.
func (h *FormsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	form, schema, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req forms.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Request body required"})
		return
	}
	if req.UserQuery == "" && len(req.Documents) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Either userQuery or documents required"})
		return
	}
	if len(req.Documents) > 0 {
		if err := forms.ValidateDocuments(req.Documents); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	result, err := h.svc.Edit(r.Context(), form, schema, req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to edit form", "message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"schema":      result.Schema,
		"title":       result.Title,
		"description": result.Description,
		"version":     result.Version,
	})
}

// Undo reverts the form to its previous version.
func (h *FormsHandler) Undo(w http.ResponseWriter, r *http.Request) {
	form, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	schema, version, err := h.store.Undo(r.Context(), form.ID)
	if errors.Is(err, forms.ErrAtInitialVersion) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "message": "Already at initial version",
		})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to undo"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true, "schema": schema, "version": version,
	})
}

// Delete removes a form together with its versions and responses.
func (h *FormsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	form, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), form.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete form"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Submit records an anonymous response after validating the answers
// against the form's current schema.
func (h *FormsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Form not found"})
		return
	}

	var body struct {
		Answers map[string]any `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Request body required"})
		return
	}
	if len(body.Answers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Answers required"})
		return
	}

	_, schema, err := h.store.Get(r.Context(), id)
	if errors.Is(err, forms.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Form not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load form"})
		return
	}

	if err := forms.ValidateAnswers(body.Answers, schema); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	responseID, err := h.store.AddResponse(r.Context(), id, body.Answers)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to submit response"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true, "responseId": responseID,
	})
}

// Responses lists a form's submissions for its owner.
func (h *FormsHandler) Responses(w http.ResponseWriter, r *http.Request) {
	form, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	responses, err := h.store.Responses(r.Context(), form.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get responses"})
		return
	}
	if responses == nil {
		responses = []models.FormResponse{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"formId":    form.ID,
		"responses": responses,
	})
}

// loadOwned resolves {id} and enforces ownership. It writes the error
// response itself and reports ok=false when the caller should stop.
func (h *FormsHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*models.Form, forms.Schema, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Form not found"})
		return nil, forms.Schema{}, false
	}

	form, schema, err := h.store.Get(r.Context(), id)
	if errors.Is(err, forms.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Form not found"})
		return nil, forms.Schema{}, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load form"})
		return nil, forms.Schema{}, false
	}

	if form.UserID != auth.UserIDFromContext(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Access denied"})
		return nil, forms.Schema{}, false
	}

	return form, schema, true
}
