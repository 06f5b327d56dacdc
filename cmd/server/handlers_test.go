package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/lychee-technology/formkit"
	"github.com/lychee-technology/formkit/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFormService struct {
	forms map[string]*formkit.FormSchema

	submitted []*formkit.Submission
}

func newFakeFormService() *fakeFormService {
	return &fakeFormService{forms: make(map[string]*formkit.FormSchema)}
}

func (f *fakeFormService) ListForms(ctx context.Context) ([]formkit.FormSchema, error) {
	forms := make([]formkit.FormSchema, 0, len(f.forms))
	for _, form := range f.forms {
		forms = append(forms, *form)
	}
	return forms, nil
}

func (f *fakeFormService) GetForm(ctx context.Context, slug string) (*formkit.FormSchema, error) {
	form, ok := f.forms[slug]
	if !ok {
		return nil, formkit.NewFormNotFoundError(slug)
	}
	return form, nil
}

func (f *fakeFormService) CreateForm(ctx context.Context, payload *formkit.SavePayload) (*formkit.FormSchema, error) {
	schema := &formkit.FormSchema{
		ID:              uuid.New(),
		Slug:            "generated-slug",
		Title:           payload.Title,
		LanguageConfig:  payload.LanguageConfig,
		FieldsStructure: payload.FieldsStructure,
		Relationships:   payload.Relationships,
	}
	f.forms[schema.Slug] = schema
	return schema, nil
}

func (f *fakeFormService) UpdateForm(ctx context.Context, slug string, payload *formkit.SavePayload) (*formkit.FormSchema, error) {
	form, ok := f.forms[slug]
	if !ok {
		return nil, formkit.NewFormNotFoundError(slug)
	}
	form.Title = payload.Title
	form.FieldsStructure = payload.FieldsStructure
	return form, nil
}

func (f *fakeFormService) DeleteForm(ctx context.Context, slug string) error {
	if _, ok := f.forms[slug]; !ok {
		return formkit.NewFormNotFoundError(slug)
	}
	delete(f.forms, slug)
	return nil
}

func (f *fakeFormService) SubmitForm(ctx context.Context, submission *formkit.Submission) (*formkit.Submission, error) {
	submission.ID = uuid.New()
	f.submitted = append(f.submitted, submission)
	return submission, nil
}

func (f *fakeFormService) GetFormSubmissions(ctx context.Context, slug string) ([]formkit.Submission, error) {
	submissions := make([]formkit.Submission, 0)
	for _, sub := range f.submitted {
		if sub.FormSlug == slug {
			submissions = append(submissions, *sub)
		}
	}
	return submissions, nil
}

func newTestServer(service formkit.FormService) *Server {
	config := formkit.DefaultConfig()
	server := NewServer(service, factory.NewSubmissionValidator(config), factory.NewFieldTransformer())
	server.RegisterRoutes()
	return server
}

func seedContactForm(service *fakeFormService) {
	service.forms["contact-us"] = &formkit.FormSchema{
		ID:             uuid.New(),
		Slug:           "contact-us",
		Title:          "Contact Us",
		LanguageConfig: formkit.LanguageConfig{Primary: "en"},
		FieldsStructure: []formkit.StoredFieldStructure{
			{ID: "field_1", Kind: formkit.StorageKindText, Labels: map[string]string{"en": "Name"}, Required: true},
			{ID: "field_2", Kind: formkit.StorageKindText, Labels: map[string]string{"en": "Email"}},
		},
	}
}

func TestGetFormEndpoint(t *testing.T) {
	service := newFakeFormService()
	seedContactForm(service)
	server := newTestServer(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forms/contact-us", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var schema formkit.FormSchema
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	assert.Equal(t, "contact-us", schema.Slug)
	assert.Len(t, schema.FieldsStructure, 2)
}

func TestGetFormEndpointNotFound(t *testing.T) {
	server := newTestServer(newFakeFormService())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forms/ghost", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateFormEndpoint(t *testing.T) {
	service := newFakeFormService()
	server := newTestServer(service)

	payload := formkit.SavePayload{
		Title:          "Survey",
		LanguageConfig: formkit.LanguageConfig{Primary: "en"},
		FieldsStructure: []formkit.StoredFieldStructure{
			{ID: "field_1", Kind: formkit.StorageKindText, Labels: map[string]string{"en": "Q1"}},
		},
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var schema formkit.FormSchema
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	assert.Equal(t, "Survey", schema.Title)
	assert.NotEqual(t, uuid.Nil, schema.ID)
}

func TestCreateFormEndpointBadBody(t *testing.T) {
	server := newTestServer(newFakeFormService())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteFormEndpoint(t *testing.T) {
	service := newFakeFormService()
	seedContactForm(service)
	server := newTestServer(service)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/forms/contact-us", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/forms/contact-us", nil)
	rec = httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitEndpointValidates(t *testing.T) {
	service := newFakeFormService()
	seedContactForm(service)
	server := newTestServer(service)

	// Missing the required field_1.
	body, _ := json.Marshal(map[string]any{"data": map[string]any{"field_2": "x"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/contact-us/submit", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	fields, ok := resp.Fields.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "field_1")
	assert.Empty(t, service.submitted)
}

func TestSubmitEndpointStoresValidSubmission(t *testing.T) {
	service := newFakeFormService()
	seedContactForm(service)
	server := newTestServer(service)

	body, _ := json.Marshal(map[string]any{"data": map[string]any{"field_1": "Ada"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/contact-us/submit", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, service.submitted, 1)
	assert.Equal(t, "contact-us", service.submitted[0].FormSlug)
	assert.Equal(t, "Ada", service.submitted[0].Data["field_1"])
}

func TestSubmissionsEndpoint(t *testing.T) {
	service := newFakeFormService()
	seedContactForm(service)
	server := newTestServer(service)

	body, _ := json.Marshal(map[string]any{"data": map[string]any{"field_1": "Ada"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/contact-us/submit", bytes.NewReader(body))
	server.mux.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/forms/contact-us/submissions", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var submissions []formkit.Submission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submissions))
	require.Len(t, submissions, 1)
}

func TestJSONSchemaEndpoint(t *testing.T) {
	service := newFakeFormService()
	seedContactForm(service)
	server := newTestServer(service)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forms/contact-us/schema", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "object", doc["type"])
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "field_1")
}

func TestMethodNotAllowed(t *testing.T) {
	server := newTestServer(newFakeFormService())

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/forms", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/forms/x/submit", nil)
	rec = httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		path   string
		slug   string
		action string
		ok     bool
	}{
		{"/api/v1/forms", "", "", true},
		{"/api/v1/forms/", "", "", true},
		{"/api/v1/forms/contact-us", "contact-us", "", true},
		{"/api/v1/forms/contact-us/submit", "contact-us", "submit", true},
		{"/api/v1/forms/a/b/c", "", "", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			slug, action, err := parsePath(tt.path)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.slug, slug)
			assert.Equal(t, tt.action, action)
		})
	}
}
