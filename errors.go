package formkit

import (
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeConsistency ErrorType = "consistency"
	ErrorTypeRemote      ErrorType = "remote"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeConflict    ErrorType = "conflict"
	ErrorTypeInternal    ErrorType = "internal"
)

// FormKitError is the unified error type for all form-engine operations.
type FormKitError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	FieldID string         `json:"field_id,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *FormKitError) Error() string {
	if e.FieldID != "" {
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.FieldID, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *FormKitError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a single detail to the error
func (e *FormKitError) WithDetail(key string, value any) *FormKitError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause to the error
func (e *FormKitError) WithCause(cause error) *FormKitError {
	e.Cause = cause
	return e
}

// WithFieldID adds field context to the error
func (e *FormKitError) WithFieldID(fieldID string) *FormKitError {
	e.FieldID = fieldID
	return e
}

// Error codes
const (
	// Builder / designer validation errors
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeEmptyFormName        = "EMPTY_FORM_NAME"
	ErrCodeNoFields             = "NO_FIELDS"
	ErrCodeUnknownFieldKind     = "UNKNOWN_FIELD_KIND"
	ErrCodeNoFieldSelected      = "NO_FIELD_SELECTED"
	ErrCodeNotAPermutation      = "NOT_A_PERMUTATION"
	ErrCodeDuplicateOption      = "DUPLICATE_OPTION_VALUE"
	ErrCodeSaveInFlight         = "SAVE_IN_FLIGHT"
	ErrCodeLookupInFlight       = "LOOKUP_IN_FLIGHT"
	ErrCodeRelationshipExists   = "RELATIONSHIP_EXISTS"
	ErrCodeSelfRelationship     = "SELF_RELATIONSHIP"
	ErrCodeInvalidLanguage      = "INVALID_LANGUAGE_CONFIG"

	// Save-time consistency errors
	ErrCodeOrphanedRelationship = "ORPHANED_RELATIONSHIP"
	ErrCodeEmptyOptions         = "EMPTY_OPTIONS"

	// Submission validation errors
	ErrCodeRequiredMissing = "REQUIRED_FIELD_MISSING"
	ErrCodeInvalidEmail    = "INVALID_EMAIL"
	ErrCodeInvalidURL      = "INVALID_URL"
	ErrCodeInvalidPhone    = "INVALID_PHONE"
	ErrCodeOutOfRange      = "VALUE_OUT_OF_RANGE"
	ErrCodeLengthOutOfRange = "LENGTH_OUT_OF_RANGE"
	ErrCodeNotANumber      = "NOT_A_NUMBER"

	// Collaborator errors
	ErrCodeFormNotFound   = "FORM_NOT_FOUND"
	ErrCodeSlugTaken      = "SLUG_TAKEN"
	ErrCodeRemoteFailed   = "REMOTE_OPERATION_FAILED"
	ErrCodeInternalError  = "INTERNAL_ERROR"

	// Media errors
	ErrCodeAcceptMismatch = "ACCEPT_PATTERN_MISMATCH"
	ErrCodeFileTooLarge   = "FILE_TOO_LARGE"
)

// NewFormKitError creates a new FormKitError
func NewFormKitError(errorType ErrorType, code, message string) *FormKitError {
	return &FormKitError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewValidationError creates a validation error scoped to a field or action.
func NewValidationError(code, message string) *FormKitError {
	return &FormKitError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewConsistencyError creates a save-time consistency error.
func NewConsistencyError(code, message string) *FormKitError {
	return &FormKitError{
		Type:    ErrorTypeConsistency,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewRemoteError wraps a collaborator failure. The raw message is preserved
// for the operator; remote failures are never retried automatically.
func NewRemoteError(message string, cause error) *FormKitError {
	return &FormKitError{
		Type:    ErrorTypeRemote,
		Code:    ErrCodeRemoteFailed,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// NewFormNotFoundError creates a form not found error
func NewFormNotFoundError(slug string) *FormKitError {
	return &FormKitError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeFormNotFound,
		Message: fmt.Sprintf("form '%s' not found", slug),
		Details: map[string]any{
			"slug": slug,
		},
	}
}

// NewRelationshipConflictError signals that a relationship already exists for
// the field and the caller must use replace semantics instead.
func NewRelationshipConflictError(fieldID string) *FormKitError {
	return &FormKitError{
		Type:    ErrorTypeConflict,
		Code:    ErrCodeRelationshipExists,
		Message: "a relationship already exists for this field; replace it explicitly",
		FieldID: fieldID,
		Details: make(map[string]any),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *FormKitError {
	return &FormKitError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternalError,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// ============================================================================
// FieldErrors
// ============================================================================

// FieldErrors maps field id -> error message for one validation pass.
// Absence of a key means the field is valid.
type FieldErrors map[string]string

// Error implements the error interface for FieldErrors
func (fe FieldErrors) Error() string {
	switch len(fe) {
	case 0:
		return "no field errors"
	case 1:
		for id, msg := range fe {
			return fmt.Sprintf("field '%s': %s", id, msg)
		}
	}
	return fmt.Sprintf("%d fields failed validation", len(fe))
}

// HasErrors returns true if any field failed.
func (fe FieldErrors) HasErrors() bool {
	return len(fe) > 0
}

// Clear removes the error for one field. Used for live inline error clearing
// the instant a field's value changes, before the next full validation pass.
func (fe FieldErrors) Clear(fieldID string) {
	delete(fe, fieldID)
}

// ToError returns fe as an error if any field failed, nil otherwise.
func (fe FieldErrors) ToError() error {
	if fe.HasErrors() {
		return fe
	}
	return nil
}

// ============================================================================
// Error checking utilities
// ============================================================================

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	if fe, ok := err.(*FormKitError); ok {
		return fe.Type == ErrorTypeValidation
	}
	return false
}

// IsConsistencyError checks if an error is a save-time consistency error
func IsConsistencyError(err error) bool {
	if fe, ok := err.(*FormKitError); ok {
		return fe.Type == ErrorTypeConsistency
	}
	return false
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	if fe, ok := err.(*FormKitError); ok {
		return fe.Type == ErrorTypeConflict
	}
	return false
}

// IsRemoteError checks if an error is a remote collaborator error
func IsRemoteError(err error) bool {
	if fe, ok := err.(*FormKitError); ok {
		return fe.Type == ErrorTypeRemote
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	if fe, ok := err.(*FormKitError); ok {
		return fe.Type == ErrorTypeNotFound
	}
	return false
}
