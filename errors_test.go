package formkit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormKitErrorFormatting(t *testing.T) {
	err := NewValidationError(ErrCodeEmptyFormName, "form name cannot be empty")
	assert.Equal(t, "[validation:EMPTY_FORM_NAME] form name cannot be empty", err.Error())

	withField := NewValidationError(ErrCodeDuplicateOption, "duplicate option value").WithFieldID("field_1")
	assert.Equal(t, "[validation:DUPLICATE_OPTION_VALUE] field 'field_1': duplicate option value", withField.Error())
}

func TestFormKitErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewRemoteError("failed to save form", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestErrorCheckers(t *testing.T) {
	validation := NewValidationError(ErrCodeNotAPermutation, "reorder is not a permutation")
	consistency := NewConsistencyError(ErrCodeOrphanedRelationship, "relationship references deleted field")
	remote := NewRemoteError("boom", nil)
	notFound := NewFormNotFoundError("contacts")
	conflict := NewRelationshipConflictError("f1")

	assert.True(t, IsValidationError(validation))
	assert.False(t, IsValidationError(consistency))

	assert.True(t, IsConsistencyError(consistency))
	assert.False(t, IsConsistencyError(remote))

	assert.True(t, IsRemoteError(remote))
	assert.True(t, IsNotFoundError(notFound))
	assert.True(t, IsConflictError(conflict))
	assert.False(t, IsConflictError(notFound))

	// Checkers must not panic or match on plain errors.
	plain := fmt.Errorf("plain")
	assert.False(t, IsValidationError(plain))
	assert.False(t, IsRemoteError(plain))
}

func TestFormNotFoundErrorDetails(t *testing.T) {
	err := NewFormNotFoundError("orders")
	require.Equal(t, ErrCodeFormNotFound, err.Code)
	assert.Equal(t, "orders", err.Details["slug"])
	assert.Contains(t, err.Error(), "orders")
}

func TestFieldErrors(t *testing.T) {
	fe := FieldErrors{}
	assert.False(t, fe.HasErrors())
	assert.NoError(t, fe.ToError())
	assert.Equal(t, "no field errors", fe.Error())

	fe["email_field"] = "invalid email format"
	assert.True(t, fe.HasErrors())
	assert.Error(t, fe.ToError())
	assert.Equal(t, "field 'email_field': invalid email format", fe.Error())

	fe["name_field"] = "required"
	assert.Equal(t, "2 fields failed validation", fe.Error())

	// Live inline clearing: value changed, error goes away immediately.
	fe.Clear("email_field")
	assert.Equal(t, "field 'name_field': required", fe.Error())
	fe.Clear("missing")
	assert.True(t, fe.HasErrors())
}
