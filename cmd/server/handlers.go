package main

import (
	"fmt"
	"net/http"

	"github.com/lychee-technology/formkit"
)

// formsHandler dispatches /api/v1/forms and everything under it.
func (s *Server) formsHandler(w http.ResponseWriter, r *http.Request) {
	slug, action, err := parsePath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: %v", err))
		return
	}

	switch {
	case slug == "":
		switch r.Method {
		case http.MethodGet:
			s.handleListForms(w, r)
		case http.MethodPost:
			s.handleCreateForm(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case action == "":
		switch r.Method {
		case http.MethodGet:
			s.handleGetForm(w, r, slug)
		case http.MethodPut:
			s.handleUpdateForm(w, r, slug)
		case http.MethodDelete:
			s.handleDeleteForm(w, r, slug)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case action == "submit":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleSubmitForm(w, r, slug)
	case action == "submissions":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleGetSubmissions(w, r, slug)
	case action == "schema":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleGetJSONSchema(w, r, slug)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown action '%s'", action))
	}
}

// handleListForms handles GET /api/v1/forms
func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := s.service.ListForms(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, forms)
}

// handleCreateForm handles POST /api/v1/forms
func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	var payload formkit.SavePayload
	if err := readJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}

	schema, err := s.service.CreateForm(r.Context(), &payload)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeSuccess(w, http.StatusCreated, schema)
}

// handleGetForm handles GET /api/v1/forms/{slug}
func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request, slug string) {
	schema, err := s.service.GetForm(r.Context(), slug)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, schema)
}

// handleUpdateForm handles PUT /api/v1/forms/{slug}
func (s *Server) handleUpdateForm(w http.ResponseWriter, r *http.Request, slug string) {
	var payload formkit.SavePayload
	if err := readJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}

	schema, err := s.service.UpdateForm(r.Context(), slug, &payload)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, schema)
}

// handleDeleteForm handles DELETE /api/v1/forms/{slug}
func (s *Server) handleDeleteForm(w http.ResponseWriter, r *http.Request, slug string) {
	if err := s.service.DeleteForm(r.Context(), slug); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"deleted": slug})
}

// handleSubmitForm handles POST /api/v1/forms/{slug}/submit. Values are
// validated against the form's fields before anything is stored.
func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request, slug string) {
	var body struct {
		Data  map[string]any    `json:"data"`
		Files map[string]string `json:"files,omitempty"`
	}
	if err := readJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}

	schema, err := s.service.GetForm(r.Context(), slug)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	fields := make([]formkit.FormField, 0, len(schema.FieldsStructure))
	for _, stored := range schema.FieldsStructure {
		fields = append(fields, s.transform.FromStorage(stored, schema.LanguageConfig.Primary))
	}
	if errs := s.validator.Validate(fields, body.Data); errs.HasErrors() {
		writeFieldErrors(w, errs)
		return
	}

	stored, err := s.service.SubmitForm(r.Context(), &formkit.Submission{
		FormSlug: slug,
		Data:     body.Data,
		Files:    body.Files,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeSuccess(w, http.StatusCreated, stored)
}

// handleGetSubmissions handles GET /api/v1/forms/{slug}/submissions
func (s *Server) handleGetSubmissions(w http.ResponseWriter, r *http.Request, slug string) {
	submissions, err := s.service.GetFormSubmissions(r.Context(), slug)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, submissions)
}

// handleGetJSONSchema handles GET /api/v1/forms/{slug}/schema
func (s *Server) handleGetJSONSchema(w http.ResponseWriter, r *http.Request, slug string) {
	schema, err := s.service.GetForm(r.Context(), slug)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	doc, err := schema.JSONSchemaDocument()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeSuccess(w, http.StatusOK, doc)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case formkit.IsNotFoundError(err):
		return http.StatusNotFound
	case formkit.IsConflictError(err):
		return http.StatusConflict
	case formkit.IsValidationError(err), formkit.IsConsistencyError(err):
		return http.StatusBadRequest
	case formkit.IsRemoteError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
