package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lychee-technology/formkit"
	"go.uber.org/zap"
)

// formBuilder owns one builder session. All transitions are synchronous and
// applied atomically between editor events; the mutex exists to keep the
// single-flight save guard sound, not to support concurrent editing.
type formBuilder struct {
	mu        sync.Mutex
	config    *formkit.Config
	service   formkit.FormService
	transform formkit.FieldTransformer

	formID          string
	formSlug        string
	formName        string
	formDescription string
	fields          []formkit.FormField
	selectedID      string
	isEditMode      bool
	languageConfig  formkit.LanguageConfig
	relationships   []formkit.FormRelationship
	state           formkit.SessionState

	saving       bool
	idSeq        int
	lastIDMillis int64
}

// NewFormBuilder creates a blank builder session.
func NewFormBuilder(config *formkit.Config, service formkit.FormService, transform formkit.FieldTransformer) formkit.FormBuilder {
	if config == nil {
		config = formkit.DefaultConfig()
	}
	if transform == nil {
		transform = NewFieldTransformer()
	}
	return &formBuilder{
		config:    config,
		service:   service,
		transform: transform,
		fields:    make([]formkit.FormField, 0),
		languageConfig: formkit.LanguageConfig{
			Primary: config.Builder.DefaultLanguage,
		},
		relationships: make([]formkit.FormRelationship, 0),
		state:         formkit.SessionStateEmpty,
	}
}

// nextFieldID generates a monotonic, time-based field id. Ids are never
// reused within a session: the sequence only grows even when the clock does
// not advance between calls.
func (b *formBuilder) nextFieldID() string {
	millis := time.Now().UnixMilli()
	if millis <= b.lastIDMillis {
		millis = b.lastIDMillis
	}
	b.lastIDMillis = millis
	b.idSeq++
	return fmt.Sprintf("field_%d_%d", millis, b.idSeq)
}

func (b *formBuilder) AddField(kind formkit.FieldKind) (*formkit.FormField, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	profile, ok := formkit.ProfileOf(kind)
	if !ok {
		return nil, formkit.NewValidationError(formkit.ErrCodeUnknownFieldKind,
			fmt.Sprintf("unknown field kind '%s'", kind))
	}
	if len(b.fields) >= b.config.Builder.MaxFields {
		return nil, formkit.NewValidationError(formkit.ErrCodeValidationFailed,
			fmt.Sprintf("form cannot exceed %d fields", b.config.Builder.MaxFields))
	}

	position := len(b.fields) + 1
	field := formkit.FormField{
		ID:    b.nextFieldID(),
		Kind:  kind,
		Label: fmt.Sprintf("%s Field %d", profile.DisplayName, position),
		Name:  fmt.Sprintf("%s_field_%d", kind, position),
	}

	if profile.HasOptions {
		count := b.config.Builder.PlaceholderOptionCount
		options := make([]formkit.FieldOption, 0, count)
		for i := 1; i <= count; i++ {
			options = append(options, formkit.FieldOption{
				Value: fmt.Sprintf("option_%d", i),
				Label: fmt.Sprintf("Option %d", i),
			})
		}
		field.Options = options
	}

	b.fields = append(b.fields, field)
	b.selectedID = field.ID
	b.touch()

	added := field
	return &added, nil
}

func (b *formBuilder) UpdateField(update formkit.FieldUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.selectedID == "" {
		return nil
	}
	idx := b.indexOf(b.selectedID)
	if idx < 0 {
		return nil
	}

	field := &b.fields[idx]
	if update.Label != nil {
		field.Label = *update.Label
	}
	if update.Labels != nil {
		field.Labels = update.Labels
	}
	if update.Name != nil {
		field.Name = *update.Name
	}
	if update.Placeholder != nil {
		field.Placeholder = *update.Placeholder
	}
	if update.Required != nil {
		field.Required = *update.Required
	}
	if update.Options != nil {
		field.Options = *update.Options
	}
	if update.Descriptions != nil {
		field.Descriptions = update.Descriptions
	}
	if update.DefaultValue != nil {
		field.DefaultValue = *update.DefaultValue
	}
	if update.DefaultChecked != nil {
		field.DefaultChecked = *update.DefaultChecked
	}
	if update.MinLength != nil {
		field.MinLength = update.MinLength
	}
	if update.MaxLength != nil {
		field.MaxLength = update.MaxLength
	}
	if update.Min != nil {
		field.Min = update.Min
	}
	if update.Max != nil {
		field.Max = update.Max
	}
	if update.AllowMultiple != nil {
		field.AllowMultiple = *update.AllowMultiple
	}
	if update.Accept != nil {
		field.Accept = *update.Accept
	}
	if update.MaxSizeMB != nil {
		field.MaxSizeMB = update.MaxSizeMB
	}

	b.touch()
	return nil
}

func (b *formBuilder) DeleteField(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexOf(id)
	if idx < 0 {
		return formkit.NewValidationError(formkit.ErrCodeValidationFailed,
			fmt.Sprintf("field '%s' does not exist", id))
	}

	b.fields = append(b.fields[:idx], b.fields[idx+1:]...)
	if b.selectedID == id {
		b.selectedID = ""
	}
	// Relationships referencing the field are left in place on purpose;
	// the save-time consistency check rejects orphans.
	b.touch()
	return nil
}

func (b *formBuilder) SelectField(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.indexOf(id) < 0 {
		return formkit.NewValidationError(formkit.ErrCodeValidationFailed,
			fmt.Sprintf("field '%s' does not exist", id))
	}
	b.selectedID = id
	return nil
}

func (b *formBuilder) ReorderFields(ids []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := make([]string, 0, len(b.fields))
	for _, f := range b.fields {
		current = append(current, f.ID)
	}
	if !multisetEqual(current, ids) {
		return formkit.NewValidationError(formkit.ErrCodeNotAPermutation,
			"new order must be a permutation of the existing fields")
	}

	byID := make(map[string]formkit.FormField, len(b.fields))
	for _, f := range b.fields {
		byID[f.ID] = f
	}
	reordered := make([]formkit.FormField, 0, len(ids))
	for _, id := range ids {
		reordered = append(reordered, byID[id])
	}
	b.fields = reordered
	b.touch()
	return nil
}

func (b *formBuilder) UpdateFormMetadata(name, description *string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if name != nil {
		b.formName = *name
	}
	if description != nil {
		b.formDescription = *description
	}
	b.touch()
}

func (b *formBuilder) SetLanguageConfig(cfg formkit.LanguageConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cfg.Primary == "" {
		return formkit.NewValidationError(formkit.ErrCodeInvalidLanguage,
			"primary language cannot be empty")
	}
	for _, lang := range cfg.Optional {
		if lang == cfg.Primary {
			return formkit.NewValidationError(formkit.ErrCodeInvalidLanguage,
				fmt.Sprintf("primary language '%s' cannot also be optional", cfg.Primary))
		}
	}
	b.languageConfig = cfg
	return nil
}

func (b *formBuilder) SetRelationships(rels []formkit.FormRelationship) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.relationships = make([]formkit.FormRelationship, len(rels))
	copy(b.relationships, rels)
	b.touch()
}

func (b *formBuilder) Load(schema *formkit.FormSchema) error {
	if schema == nil {
		return formkit.NewValidationError(formkit.ErrCodeValidationFailed, "schema cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.formID = schema.ID.String()
	b.formSlug = schema.Slug
	b.formName = schema.Title
	b.formDescription = schema.Description
	b.languageConfig = schema.LanguageConfig
	b.isEditMode = true
	b.selectedID = ""

	b.fields = make([]formkit.FormField, 0, len(schema.FieldsStructure))
	for _, stored := range schema.FieldsStructure {
		b.fields = append(b.fields, b.transform.FromStorage(stored, schema.LanguageConfig.Primary))
	}
	b.relationships = make([]formkit.FormRelationship, len(schema.Relationships))
	copy(b.relationships, schema.Relationships)

	if len(b.fields) > 0 {
		b.state = formkit.SessionStatePopulated
	} else {
		b.state = formkit.SessionStateEmpty
	}
	return nil
}

func (b *formBuilder) Save(ctx context.Context) (*formkit.FormSchema, error) {
	b.mu.Lock()
	if b.saving {
		b.mu.Unlock()
		return nil, formkit.NewValidationError(formkit.ErrCodeSaveInFlight,
			"a save is already in progress")
	}

	if err := b.validateForSave(); err != nil {
		b.mu.Unlock()
		return nil, err
	}

	payload, err := b.buildPayload()
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}

	isEdit := b.isEditMode
	slug := b.formSlug
	b.saving = true
	b.state = formkit.SessionStateSaving
	b.mu.Unlock()

	var saved *formkit.FormSchema
	var saveErr error
	if isEdit {
		saved, saveErr = b.service.UpdateForm(ctx, slug, payload)
	} else {
		saved, saveErr = b.service.CreateForm(ctx, payload)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.saving = false

	if saveErr != nil {
		// Failed saves never discard edits: the session drops back to
		// populated with everything intact, and retry is a manual action.
		b.state = formkit.SessionStateSaveFailed
		if _, ok := saveErr.(*formkit.FormKitError); ok {
			return nil, saveErr
		}
		return nil, formkit.NewRemoteError(saveErr.Error(), saveErr)
	}

	if isEdit {
		b.formID = saved.ID.String()
		b.formSlug = saved.Slug
		b.state = formkit.SessionStateSaved
	} else {
		zap.S().Infow("form created, resetting builder session", "slug", saved.Slug)
		b.reset()
	}
	return saved, nil
}

func (b *formBuilder) Snapshot() formkit.BuilderSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	fields := make([]formkit.FormField, len(b.fields))
	copy(fields, b.fields)

	relationships := make([]formkit.FormRelationship, len(b.relationships))
	copy(relationships, b.relationships)

	snapshot := formkit.BuilderSnapshot{
		FormID:          b.formID,
		FormSlug:        b.formSlug,
		FormName:        b.formName,
		FormDescription: b.formDescription,
		Fields:          fields,
		IsEditMode:      b.isEditMode,
		LanguageConfig:  b.languageConfig,
		Relationships:   relationships,
		State:           b.state,
	}
	if idx := b.indexOf(b.selectedID); idx >= 0 {
		selected := b.fields[idx]
		snapshot.SelectedField = &selected
	}
	return snapshot
}

// validateForSave runs the save-time checks: metadata, option lists and
// relationship integrity. Preview tolerates empty option lists; save does not.
func (b *formBuilder) validateForSave() error {
	if b.formName == "" {
		return formkit.NewValidationError(formkit.ErrCodeEmptyFormName, "form name cannot be empty")
	}
	if len(b.fields) == 0 {
		return formkit.NewValidationError(formkit.ErrCodeNoFields, "form must contain at least one field")
	}

	fieldIDs := NewSet[string]()
	for _, field := range b.fields {
		fieldIDs.Add(field.ID)

		if formkit.KindHasOptions(field.Kind) {
			if len(field.Options) == 0 {
				return formkit.NewConsistencyError(formkit.ErrCodeEmptyOptions,
					fmt.Sprintf("field '%s' requires at least one option", field.Label)).
					WithFieldID(field.ID)
			}
			values := NewSet[string]()
			for _, opt := range field.Options {
				if values.Contains(opt.Value) {
					return formkit.NewValidationError(formkit.ErrCodeDuplicateOption,
						fmt.Sprintf("option value '%s' appears more than once", opt.Value)).
						WithFieldID(field.ID)
				}
				values.Add(opt.Value)
			}
		}
	}

	for _, rel := range b.relationships {
		if !fieldIDs.Contains(rel.FieldID) {
			return formkit.NewConsistencyError(formkit.ErrCodeOrphanedRelationship,
				fmt.Sprintf("relationship references deleted field '%s'", rel.FieldID)).
				WithFieldID(rel.FieldID)
		}
	}
	return nil
}

func (b *formBuilder) buildPayload() (*formkit.SavePayload, error) {
	structure := make([]formkit.StoredFieldStructure, 0, len(b.fields))
	for _, field := range b.fields {
		stored, err := b.transform.ToStorage(field, b.languageConfig)
		if err != nil {
			return nil, err
		}
		structure = append(structure, stored)
	}

	relationships := make([]formkit.FormRelationship, len(b.relationships))
	copy(relationships, b.relationships)

	return &formkit.SavePayload{
		Title:           b.formName,
		Description:     b.formDescription,
		LanguageConfig:  b.languageConfig,
		FieldsStructure: structure,
		Relationships:   relationships,
	}, nil
}

// touch recomputes the populated/empty state after a mutation. A failed save
// stays visible only until the next edit.
func (b *formBuilder) touch() {
	if len(b.fields) > 0 {
		b.state = formkit.SessionStatePopulated
	} else {
		b.state = formkit.SessionStateEmpty
	}
}

func (b *formBuilder) reset() {
	b.formID = ""
	b.formSlug = ""
	b.formName = ""
	b.formDescription = ""
	b.fields = make([]formkit.FormField, 0)
	b.selectedID = ""
	b.isEditMode = false
	b.languageConfig = formkit.LanguageConfig{Primary: b.config.Builder.DefaultLanguage}
	b.relationships = make([]formkit.FormRelationship, 0)
	b.state = formkit.SessionStateEmpty
}

func (b *formBuilder) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, f := range b.fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}
