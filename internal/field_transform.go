package internal

import (
	"fmt"
	"strings"

	"github.com/lychee-technology/formkit"
)

type fieldTransformer struct{}

// NewFieldTransformer creates the canonical FieldTransformer implementation.
func NewFieldTransformer() formkit.FieldTransformer {
	return &fieldTransformer{}
}

// ToStorage converts an editor-facing field into its compact storage shape.
// Labels come from field.Labels when present, otherwise the primary-language
// label is synthesized from field.Label. Option labels are dropped: only
// values persist, and labels are regenerated by SynthesizeOptionLabel on the
// way back.
func (t *fieldTransformer) ToStorage(field formkit.FormField, langCfg formkit.LanguageConfig) (formkit.StoredFieldStructure, error) {
	storageKind, ok := formkit.StorageKindOf(field.Kind)
	if !ok {
		return formkit.StoredFieldStructure{}, formkit.NewValidationError(
			formkit.ErrCodeUnknownFieldKind,
			fmt.Sprintf("unknown field kind '%s'", field.Kind),
		).WithFieldID(field.ID)
	}

	labels := make(map[string]string, len(field.Labels)+1)
	for lang, label := range field.Labels {
		labels[lang] = label
	}
	if _, ok := labels[langCfg.Primary]; !ok {
		labels[langCfg.Primary] = field.Label
	}

	stored := formkit.StoredFieldStructure{
		ID:       field.ID,
		Kind:     storageKind,
		Labels:   labels,
		Required: field.Required,
	}

	if len(field.Descriptions) > 0 {
		descriptions := make(map[string]string, len(field.Descriptions))
		for lang, desc := range field.Descriptions {
			descriptions[lang] = desc
		}
		stored.Descriptions = descriptions
	}

	if formkit.KindHasOptions(field.Kind) {
		// An empty option list must survive as an empty slice, not nil,
		// so the editor never mistakes it for "options unknown".
		stored.Options = field.OptionValues()
	}

	if formkit.KindHasMedia(field.Kind) {
		stored.Accept = field.Accept
		stored.MaxSizeMB = field.MaxSizeMB
	}

	return stored, nil
}

// FromStorage expands a stored field back into its editor shape. The kind
// round-trip is lossy: every text-like kind comes back as text, dropdown as
// select. Option labels are synthesized from the stored values.
func (t *fieldTransformer) FromStorage(stored formkit.StoredFieldStructure, primaryLanguage string) formkit.FormField {
	kind := formkit.ExpandStorageKind(stored.Kind)

	field := formkit.FormField{
		ID:       stored.ID,
		Kind:     kind,
		Label:    resolveLabel(stored.Labels, primaryLanguage),
		Name:     stored.ID,
		Required: stored.Required,
	}

	if len(stored.Labels) > 0 {
		labels := make(map[string]string, len(stored.Labels))
		for lang, label := range stored.Labels {
			labels[lang] = label
		}
		field.Labels = labels
	}
	if len(stored.Descriptions) > 0 {
		descriptions := make(map[string]string, len(stored.Descriptions))
		for lang, desc := range stored.Descriptions {
			descriptions[lang] = desc
		}
		field.Descriptions = descriptions
	}

	if formkit.KindHasOptions(kind) {
		options := make([]formkit.FieldOption, 0, len(stored.Options))
		for _, value := range stored.Options {
			options = append(options, formkit.FieldOption{
				Value: value,
				Label: SynthesizeOptionLabel(value),
			})
		}
		field.Options = options
	}

	if formkit.KindHasMedia(kind) {
		field.Accept = stored.Accept
		field.MaxSizeMB = stored.MaxSizeMB
	}

	return field
}

// resolveLabel picks the primary-language label, falling back to the first
// available language in deterministic (sorted) order.
func resolveLabel(labels map[string]string, primaryLanguage string) string {
	if label, ok := labels[primaryLanguage]; ok {
		return label
	}
	for _, lang := range sortedKeys(labels) {
		return labels[lang]
	}
	return ""
}

// SynthesizeOptionLabel regenerates a display label from a stored option
// value: split on '_', title-case each token, join with spaces. This is a
// deliberate lossy convention; custom labels that do not follow it are not
// recoverable ("blue_green" -> "Blue Green").
func SynthesizeOptionLabel(value string) string {
	if value == "" {
		return ""
	}
	tokens := strings.Split(value, "_")
	for i, token := range tokens {
		tokens[i] = titleCaseToken(token)
	}
	return strings.Join(tokens, " ")
}

func titleCaseToken(token string) string {
	if token == "" {
		return token
	}
	runes := []rune(strings.ToLower(token))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}
