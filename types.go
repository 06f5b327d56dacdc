package formkit

import (
	"github.com/google/uuid"
)

// FieldKind is the editor-facing type of a form input.
type FieldKind string

const (
	FieldKindText     FieldKind = "text"
	FieldKindNumber   FieldKind = "number"
	FieldKindSelect   FieldKind = "select"
	FieldKindRadio    FieldKind = "radio"
	FieldKindCheckbox FieldKind = "checkbox"
	FieldKindEmail    FieldKind = "email"
	FieldKindTel      FieldKind = "tel"
	FieldKindTextarea FieldKind = "textarea"
	FieldKindDate     FieldKind = "date"
	FieldKindTime     FieldKind = "time"
	FieldKindURL      FieldKind = "url"
	FieldKindImage    FieldKind = "image"
	FieldKindVideo    FieldKind = "video"
)

// StorageFieldKind is the smaller set of persisted kinds that similar editor
// kinds collapse into. The collapsing rule lives in registry.go.
type StorageFieldKind string

const (
	StorageKindText     StorageFieldKind = "text"
	StorageKindNumber   StorageFieldKind = "number"
	StorageKindDropdown StorageFieldKind = "dropdown"
	StorageKindRadio    StorageFieldKind = "radio"
	StorageKindCheckbox StorageFieldKind = "checkbox"
	StorageKindImage    StorageFieldKind = "image"
	StorageKindVideo    StorageFieldKind = "video"
)

// FieldOption is one choice of a select/radio field. Value is the stable
// identifier stored with submissions; Label is display text only.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FormField is the editor-facing representation of a single form input.
//
// Options is meaningful only for select/radio kinds; Accept and MaxSizeMB only
// for image/video; DefaultChecked only for checkbox. The registry capability
// profile (KindProfile) is the authoritative statement of those rules.
type FormField struct {
	ID             string            `json:"id"`
	Kind           FieldKind         `json:"kind"`
	Label          string            `json:"label"`
	Labels         map[string]string `json:"labels,omitempty"`
	Name           string            `json:"name"`
	Placeholder    string            `json:"placeholder,omitempty"`
	Required       bool              `json:"required"`
	Options        []FieldOption     `json:"options,omitempty"`
	Descriptions   map[string]string `json:"descriptions,omitempty"`
	DefaultValue   any               `json:"defaultValue,omitempty"`
	DefaultChecked bool              `json:"defaultChecked,omitempty"`
	MinLength      *int              `json:"minLength,omitempty"`
	MaxLength      *int              `json:"maxLength,omitempty"`
	Min            *float64          `json:"min,omitempty"`
	Max            *float64          `json:"max,omitempty"`
	AllowMultiple  bool              `json:"allowMultiple,omitempty"`
	Accept         string            `json:"accept,omitempty"`
	MaxSizeMB      *float64          `json:"maxSizeMB,omitempty"`
}

// OptionValues returns the option values in declaration order.
func (f *FormField) OptionValues() []string {
	values := make([]string, 0, len(f.Options))
	for _, opt := range f.Options {
		values = append(values, opt.Value)
	}
	return values
}

// FieldUpdate is a partial patch merged into the selected field by the
// builder. Nil pointers mean "leave unchanged".
type FieldUpdate struct {
	Label          *string           `json:"label,omitempty"`
	Labels         map[string]string `json:"labels,omitempty"`
	Name           *string           `json:"name,omitempty"`
	Placeholder    *string           `json:"placeholder,omitempty"`
	Required       *bool             `json:"required,omitempty"`
	Options        *[]FieldOption    `json:"options,omitempty"`
	Descriptions   map[string]string `json:"descriptions,omitempty"`
	DefaultValue   *any              `json:"defaultValue,omitempty"`
	DefaultChecked *bool             `json:"defaultChecked,omitempty"`
	MinLength      *int              `json:"minLength,omitempty"`
	MaxLength      *int              `json:"maxLength,omitempty"`
	Min            *float64          `json:"min,omitempty"`
	Max            *float64          `json:"max,omitempty"`
	AllowMultiple  *bool             `json:"allowMultiple,omitempty"`
	Accept         *string           `json:"accept,omitempty"`
	MaxSizeMB      *float64          `json:"maxSizeMB,omitempty"`
}

// StoredFieldStructure is the compact storage-facing shape of a field.
// Labels is always keyed by at least the form's primary language. Option
// labels are intentionally not stored; they are synthesized from the values
// on the way back (see the field transform in internal).
type StoredFieldStructure struct {
	ID           string            `json:"id"`
	Kind         StorageFieldKind  `json:"kind"`
	Labels       map[string]string `json:"labels"`
	Descriptions map[string]string `json:"descriptions,omitempty"`
	Required     bool              `json:"required"`
	Options      []string          `json:"options,omitempty"`
	Accept       string            `json:"accept,omitempty"`
	MaxSizeMB    *float64          `json:"maxSizeMB,omitempty"`
}

// LanguageConfig declares the authoritative language plus optional extras.
// Primary must not appear in Optional.
type LanguageConfig struct {
	Primary  string   `json:"primary"`
	Optional []string `json:"optional,omitempty"`
}

// FormRelationship declares that a field on the owning form is a lookup into
// another form, analogous to a foreign key. At most one relationship exists
// per field id within a form.
type FormRelationship struct {
	FieldID        string `json:"field_id"`
	TargetFormSlug string `json:"target_form_slug"`
	DisplayField   string `json:"display_field"`
}

// FormSchema is the persisted aggregate for one form. FieldsStructure,
// Relationships and LanguageConfig are replaced wholesale on every save.
type FormSchema struct {
	ID              uuid.UUID              `json:"id"`
	Slug            string                 `json:"slug"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description,omitempty"`
	LanguageConfig  LanguageConfig         `json:"language_config"`
	FieldsStructure []StoredFieldStructure `json:"fields_structure"`
	Relationships   []FormRelationship     `json:"relationships"`
	SubmissionCount int                    `json:"submission_count"`
	CreatedAt       int64                  `json:"created_at,omitempty"`
	UpdatedAt       int64                  `json:"updated_at,omitempty"`
}

// SavePayload is what a builder session hands to the persistence collaborator
// on save. The service assigns or keeps id and slug.
type SavePayload struct {
	Title           string                 `json:"title"`
	Description     string                 `json:"description,omitempty"`
	LanguageConfig  LanguageConfig         `json:"language_config"`
	FieldsStructure []StoredFieldStructure `json:"fields_structure"`
	Relationships   []FormRelationship     `json:"relationships"`
}

// Submission is one filled-out form, keyed by field id.
type Submission struct {
	ID          uuid.UUID         `json:"id"`
	FormSlug    string            `json:"form_slug"`
	Data        map[string]any    `json:"data"`
	Files       map[string]string `json:"files,omitempty"`
	SubmittedAt int64             `json:"submitted_at"`
}

// SessionState is the save-lifecycle state of one builder session.
type SessionState string

const (
	SessionStateEmpty      SessionState = "empty"
	SessionStatePopulated  SessionState = "populated"
	SessionStateSaving     SessionState = "saving"
	SessionStateSaved      SessionState = "saved"
	SessionStateSaveFailed SessionState = "save_failed"
)

// BuilderSnapshot is a read-only copy of a builder session's state.
type BuilderSnapshot struct {
	FormID          string             `json:"form_id,omitempty"`
	FormSlug        string             `json:"form_slug,omitempty"`
	FormName        string             `json:"form_name"`
	FormDescription string             `json:"form_description,omitempty"`
	Fields          []FormField        `json:"fields"`
	SelectedField   *FormField         `json:"selected_field,omitempty"`
	IsEditMode      bool               `json:"is_edit_mode"`
	LanguageConfig  LanguageConfig     `json:"language_config"`
	Relationships   []FormRelationship `json:"relationships"`
	State           SessionState       `json:"state"`
}

// TargetField is one candidate display field on a relationship's target form,
// labeled in the target form's own primary language.
type TargetField struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
