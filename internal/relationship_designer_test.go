package internal

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lychee-technology/formkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededService() *stubFormService {
	service := newStubFormService()
	service.forms["companies"] = &formkit.FormSchema{
		ID:             uuid.New(),
		Slug:           "companies",
		Title:          "Companies",
		LanguageConfig: formkit.LanguageConfig{Primary: "en"},
		FieldsStructure: []formkit.StoredFieldStructure{
			{ID: "field_10", Kind: formkit.StorageKindText, Labels: map[string]string{"en": "Company Name"}},
			{ID: "field_11", Kind: formkit.StorageKindText, Labels: map[string]string{"en": "Registration Number"}},
		},
	}
	service.forms["departments"] = &formkit.FormSchema{
		ID:             uuid.New(),
		Slug:           "departments",
		Title:          "Departments",
		LanguageConfig: formkit.LanguageConfig{Primary: "en"},
		FieldsStructure: []formkit.StoredFieldStructure{
			{ID: "field_20", Kind: formkit.StorageKindText, Labels: map[string]string{"en": "Department"}},
		},
	}
	return service
}

func newTestDesigner(service formkit.FormService) formkit.RelationshipDesigner {
	return NewRelationshipDesigner(formkit.DefaultConfig(), service, "employees", nil)
}

func TestSelectTargetForm(t *testing.T) {
	ctx := context.Background()
	d := newTestDesigner(seededService())

	fields, err := d.SelectTargetForm(ctx, "companies")
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "field_10", fields[0].ID)
	assert.Equal(t, "Company Name", fields[0].Label)
}

func TestSelectTargetFormRejectsSelf(t *testing.T) {
	ctx := context.Background()
	d := newTestDesigner(seededService())

	_, err := d.SelectTargetForm(ctx, "employees")
	require.Error(t, err)
	var fkErr *formkit.FormKitError
	require.ErrorAs(t, err, &fkErr)
	assert.Equal(t, formkit.ErrCodeSelfRelationship, fkErr.Code)
}

func TestSelectTargetFormUnknownSlug(t *testing.T) {
	ctx := context.Background()
	d := newTestDesigner(seededService())

	_, err := d.SelectTargetForm(ctx, "ghosts")
	require.Error(t, err)
	assert.True(t, formkit.IsNotFoundError(err))
}

func TestSwitchingTargetClearsSelection(t *testing.T) {
	ctx := context.Background()
	d := newTestDesigner(seededService())

	_, err := d.SelectTargetForm(ctx, "companies")
	require.NoError(t, err)
	require.NoError(t, d.SelectTargetField("field_10"))
	assert.Equal(t, "field_10", d.SelectedTargetField())

	_, err = d.SelectTargetForm(ctx, "departments")
	require.NoError(t, err)
	assert.Empty(t, d.SelectedTargetField())

	// The old target's fields are gone too.
	err = d.SelectTargetField("field_10")
	require.Error(t, err)
	require.NoError(t, d.SelectTargetField("field_20"))
}

func TestCreateRelationship(t *testing.T) {
	ctx := context.Background()
	d := newTestDesigner(seededService())

	_, err := d.SelectTargetForm(ctx, "companies")
	require.NoError(t, err)
	require.NoError(t, d.CreateRelationship("field_1", "companies", "field_10"))

	rels := d.Relationships()
	require.Len(t, rels, 1)
	assert.Equal(t, "field_1", rels[0].FieldID)
	assert.Equal(t, "companies", rels[0].TargetFormSlug)
	assert.Equal(t, "field_10", rels[0].DisplayField)
}

// A field holds at most one relationship: creating a second one for the same
// field conflicts, and the operator resolves it with an explicit replace.
func TestConflictThenReplaceScenario(t *testing.T) {
	ctx := context.Background()
	d := newTestDesigner(seededService())

	_, err := d.SelectTargetForm(ctx, "companies")
	require.NoError(t, err)
	require.NoError(t, d.CreateRelationship("field_1", "companies", "field_10"))

	err = d.CreateRelationship("field_1", "companies", "field_11")
	require.Error(t, err)
	assert.True(t, formkit.IsConflictError(err))
	// The original relationship is untouched by the rejected create.
	require.Len(t, d.Relationships(), 1)
	assert.Equal(t, "field_10", d.Relationships()[0].DisplayField)

	require.NoError(t, d.ReplaceRelationship("field_1", "companies", "field_11"))
	rels := d.Relationships()
	require.Len(t, rels, 1)
	assert.Equal(t, "field_11", rels[0].DisplayField)
}

func TestAtMostOneRelationshipPerField(t *testing.T) {
	ctx := context.Background()
	d := newTestDesigner(seededService())

	_, err := d.SelectTargetForm(ctx, "companies")
	require.NoError(t, err)
	require.NoError(t, d.CreateRelationship("field_1", "companies", "field_10"))
	require.NoError(t, d.CreateRelationship("field_2", "companies", "field_11"))
	require.NoError(t, d.ReplaceRelationship("field_1", "companies", "field_11"))
	require.NoError(t, d.ReplaceRelationship("field_2", "companies", "field_10"))

	seen := NewSet[string]()
	for _, rel := range d.Relationships() {
		assert.False(t, seen.Contains(rel.FieldID), "field %s has more than one relationship", rel.FieldID)
		seen.Add(rel.FieldID)
	}
	assert.Equal(t, 2, seen.Size())
}

func TestReplaceWithoutExistingAdds(t *testing.T) {
	d := newTestDesigner(seededService())
	require.NoError(t, d.ReplaceRelationship("field_1", "companies", "field_10"))
	require.Len(t, d.Relationships(), 1)
}

func TestCreateRelationshipRejectsSelf(t *testing.T) {
	d := newTestDesigner(seededService())

	err := d.CreateRelationship("field_1", "employees", "field_10")
	require.Error(t, err)
	var fkErr *formkit.FormKitError
	require.ErrorAs(t, err, &fkErr)
	assert.Equal(t, formkit.ErrCodeSelfRelationship, fkErr.Code)
	assert.Equal(t, "field_1", fkErr.FieldID)
}

func TestCreateRelationshipRequiresAllParams(t *testing.T) {
	d := newTestDesigner(seededService())

	for _, args := range [][3]string{
		{"", "companies", "field_10"},
		{"field_1", "", "field_10"},
		{"field_1", "companies", ""},
	} {
		err := d.CreateRelationship(args[0], args[1], args[2])
		require.Error(t, err)
		assert.True(t, formkit.IsValidationError(err))
	}
}

func TestCreateRelationshipChecksLoadedDisplayField(t *testing.T) {
	ctx := context.Background()
	d := newTestDesigner(seededService())

	_, err := d.SelectTargetForm(ctx, "companies")
	require.NoError(t, err)

	err = d.CreateRelationship("field_1", "companies", "field_99")
	require.Error(t, err)
	assert.True(t, formkit.IsValidationError(err))
}

func TestRemoveRelationshipIsIdempotent(t *testing.T) {
	d := newTestDesigner(seededService())
	require.NoError(t, d.ReplaceRelationship("field_1", "companies", "field_10"))

	d.RemoveRelationship("field_1")
	assert.Empty(t, d.Relationships())

	// Removing a missing relationship is a no-op.
	d.RemoveRelationship("field_1")
	d.RemoveRelationship("field_never_existed")
	assert.Empty(t, d.Relationships())
}

func TestDesignerSeededWithExisting(t *testing.T) {
	existing := []formkit.FormRelationship{
		{FieldID: "field_1", TargetFormSlug: "companies", DisplayField: "field_10"},
	}
	d := NewRelationshipDesigner(formkit.DefaultConfig(), seededService(), "employees", existing)

	require.Len(t, d.Relationships(), 1)
	err := d.CreateRelationship("field_1", "departments", "field_20")
	require.Error(t, err)
	assert.True(t, formkit.IsConflictError(err))
}

func TestRelationshipsReturnsCopy(t *testing.T) {
	d := newTestDesigner(seededService())
	require.NoError(t, d.ReplaceRelationship("field_1", "companies", "field_10"))

	rels := d.Relationships()
	rels[0].DisplayField = "mutated"
	assert.Equal(t, "field_10", d.Relationships()[0].DisplayField)
}
