package internal

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/lychee-technology/formkit"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Leading optional '+', then digit groups with optional separators.
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ().\-]{5,18}[0-9]$`)
)

// submissionValidator evaluates candidate values against a field list. It is
// pure and synchronous; it never touches network or storage, so it can be
// re-run on every field change for live inline error clearing.
type submissionValidator struct {
	config *formkit.Config
}

// NewSubmissionValidator creates the canonical SubmissionValidator.
func NewSubmissionValidator(config *formkit.Config) formkit.SubmissionValidator {
	if config == nil {
		config = formkit.DefaultConfig()
	}
	return &submissionValidator{config: config}
}

func (v *submissionValidator) Validate(fields []formkit.FormField, values map[string]any) formkit.FieldErrors {
	errs := formkit.FieldErrors{}
	for _, field := range fields {
		if msg := v.ValidateField(field, values[field.ID]); msg != "" {
			errs[field.ID] = msg
		}
	}
	return errs
}

// ValidateField evaluates the rules for one field in order, short-circuiting
// at the first failure: required, then kind-specific format, then bounds.
func (v *submissionValidator) ValidateField(field formkit.FormField, value any) string {
	if isAbsent(value) {
		if field.Required {
			return "This field is required"
		}
		return ""
	}

	switch field.Kind {
	case formkit.FieldKindEmail:
		return v.checkEmail(value)
	case formkit.FieldKindURL:
		return v.checkURL(value)
	case formkit.FieldKindTel:
		return v.checkPhone(value)
	case formkit.FieldKindNumber:
		return v.checkNumber(field, value)
	case formkit.FieldKindText, formkit.FieldKindTextarea:
		return v.checkLength(field, value)
	case formkit.FieldKindImage, formkit.FieldKindVideo:
		// Presence only: file content checks belong to the upload store.
		return ""
	default:
		return ""
	}
}

// isAbsent treats nil and the empty string as missing. A falsy-but-present
// string like "0" is a value.
func isAbsent(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return s == ""
	}
	return false
}

func (v *submissionValidator) stringValue(value any) (string, bool) {
	s, ok := value.(string)
	if !ok {
		return "", false
	}
	if v.config.Validator.TrimWhitespace {
		s = strings.TrimSpace(s)
	}
	return s, true
}

func (v *submissionValidator) checkEmail(value any) string {
	s, ok := v.stringValue(value)
	if !ok || !emailPattern.MatchString(s) {
		return "Invalid email format"
	}
	return ""
}

func (v *submissionValidator) checkURL(value any) string {
	s, ok := v.stringValue(value)
	if !ok {
		return "Invalid URL"
	}
	parsed, err := url.Parse(s)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return "Invalid URL"
	}
	return ""
}

func (v *submissionValidator) checkPhone(value any) string {
	s, ok := v.stringValue(value)
	if !ok || !phonePattern.MatchString(s) {
		return "Invalid phone number"
	}
	return ""
}

func (v *submissionValidator) checkNumber(field formkit.FormField, value any) string {
	num, ok := toFloat(value)
	if !ok {
		return "Must be a number"
	}
	if field.Min != nil && num < *field.Min {
		return fmt.Sprintf("Must be at least %g", *field.Min)
	}
	if field.Max != nil && num > *field.Max {
		return fmt.Sprintf("Must be at most %g", *field.Max)
	}
	return ""
}

func (v *submissionValidator) checkLength(field formkit.FormField, value any) string {
	s, ok := v.stringValue(value)
	if !ok {
		return "Must be text"
	}
	length := len([]rune(s))
	if length > v.config.Validator.MaxValueLength {
		return fmt.Sprintf("Must be at most %d characters", v.config.Validator.MaxValueLength)
	}
	if field.MinLength != nil && length < *field.MinLength {
		return fmt.Sprintf("Must be at least %d characters", *field.MinLength)
	}
	if field.MaxLength != nil && length > *field.MaxLength {
		return fmt.Sprintf("Must be at most %d characters", *field.MaxLength)
	}
	return ""
}

// toFloat accepts the numeric shapes JSON decoding and form inputs produce.
func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
