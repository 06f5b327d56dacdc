package formkit

import (
	"context"
)

// FormService is the persistence/listing collaborator the core consumes.
// Transport and auth details are out of scope; only these contracts matter.
type FormService interface {
	// ListForms returns all form schemas, used to populate candidate
	// relationship targets.
	ListForms(ctx context.Context) ([]FormSchema, error)
	// GetForm loads one form by slug.
	GetForm(ctx context.Context, slug string) (*FormSchema, error)
	// CreateForm persists a new form and returns the canonical schema with
	// assigned id and slug.
	CreateForm(ctx context.Context, payload *SavePayload) (*FormSchema, error)
	// UpdateForm replaces fields_structure, relationships and language_config
	// wholesale. There is no partial-field patching.
	UpdateForm(ctx context.Context, slug string, payload *SavePayload) (*FormSchema, error)
	DeleteForm(ctx context.Context, slug string) error

	// SubmitForm stores validated values. The submission validator runs before
	// this call; the service may independently re-validate.
	SubmitForm(ctx context.Context, submission *Submission) (*Submission, error)
	GetFormSubmissions(ctx context.Context, slug string) ([]Submission, error)
}

// FormBuilder maintains one consistent builder session across editor actions.
// All transitions are synchronous; Save is the only suspension point and is
// single-flight.
type FormBuilder interface {
	// AddField appends a new field of the given kind with generated id and
	// kind-appropriate defaults, and selects it.
	AddField(kind FieldKind) (*FormField, error)
	// UpdateField merges the partial update into the selected field. It is a
	// no-op when nothing is selected.
	UpdateField(update FieldUpdate) error
	// DeleteField removes the field and clears selection if it was selected.
	// Relationships referencing the field are not cascaded here; they are
	// rejected at save time instead.
	DeleteField(id string) error
	// SelectField marks the field with the given id as selected.
	SelectField(id string) error
	// ReorderFields replaces the field order. The new order must be a
	// permutation of the current field ids.
	ReorderFields(ids []string) error
	// UpdateFormMetadata merges name/description changes.
	UpdateFormMetadata(name, description *string)
	// SetLanguageConfig replaces the session's language configuration.
	SetLanguageConfig(cfg LanguageConfig) error
	// SetRelationships replaces the session's relationship list, normally fed
	// from a RelationshipDesigner.
	SetRelationships(rels []FormRelationship)

	// Load initializes the session from a persisted schema (edit mode).
	Load(schema *FormSchema) error
	// Save validates, converts and persists the session. On create success the
	// session resets blank; on update success it keeps the canonical id/slug.
	// A failed save leaves every edit intact.
	Save(ctx context.Context) (*FormSchema, error)

	// Snapshot returns a read-only copy of the session state.
	Snapshot() BuilderSnapshot
}

// RelationshipDesigner manages the cross-form links of one builder session.
type RelationshipDesigner interface {
	// SelectTargetForm fetches the target form's candidate display fields.
	// Switching targets clears the previous field list and selection.
	SelectTargetForm(ctx context.Context, slug string) ([]TargetField, error)
	// CreateRelationship links a source field to a display field on the
	// selected target form. It is rejected when a relationship for the field
	// already exists; use ReplaceRelationship instead.
	CreateRelationship(fieldID, targetFormSlug, displayField string) error
	// ReplaceRelationship performs remove-then-add atomically.
	ReplaceRelationship(fieldID, targetFormSlug, displayField string) error
	// RemoveRelationship deletes the entry if present; removing a missing
	// relationship is a no-op.
	RemoveRelationship(fieldID string)
	// SelectTargetField marks one of the fetched target fields as the
	// candidate display field.
	SelectTargetField(id string) error
	// SelectedTargetField returns the currently selected target field id, or
	// empty when none is selected.
	SelectedTargetField() string
	// Relationships returns the current relationship list.
	Relationships() []FormRelationship
}

// SubmissionValidator checks candidate input values against a field list.
// Implementations are pure and synchronous: no network, no storage.
type SubmissionValidator interface {
	// Validate returns per-field errors. Absence of a key means valid.
	Validate(fields []FormField, values map[string]any) FieldErrors
	// ValidateField evaluates a single field, used for live re-validation on
	// field change.
	ValidateField(field FormField, value any) string
}

// FieldTransformer converts between editor-facing and storage-facing field
// shapes, parameterized by the form's language configuration.
type FieldTransformer interface {
	ToStorage(field FormField, langCfg LanguageConfig) (StoredFieldStructure, error)
	FromStorage(stored StoredFieldStructure, primaryLanguage string) FormField
}

// UploadStore is the file-content collaborator for image/video fields. The
// core validator checks presence only; content handling lives behind this
// interface.
type UploadStore interface {
	// Upload stores the file content for a media field after checking it
	// against the field's accept pattern and size limit, returning the
	// storage key.
	Upload(ctx context.Context, field FormField, filename string, size int64, content []byte) (string, error)
}
