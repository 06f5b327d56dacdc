package internal

import (
	"github.com/lychee-technology/formkit"
)

// PreviewField is the read-only projection of one builder field for the
// fill-preview pane.
type PreviewField struct {
	ID          string               `json:"id"`
	Kind        formkit.FieldKind    `json:"kind"`
	Label       string               `json:"label"`
	Placeholder string               `json:"placeholder,omitempty"`
	Required    bool                 `json:"required"`
	Options     []formkit.FieldOption `json:"options,omitempty"`
	Notice      string               `json:"notice,omitempty"`
}

// noOptionsNotice is shown instead of an empty choice list. Preview tolerates
// option-less select/radio fields; the save-time check rejects them.
const noOptionsNotice = "No options added yet"

// BuildPreview projects a builder snapshot into preview fields, in order.
func BuildPreview(snapshot formkit.BuilderSnapshot) []PreviewField {
	preview := make([]PreviewField, 0, len(snapshot.Fields))
	for _, field := range snapshot.Fields {
		p := PreviewField{
			ID:          field.ID,
			Kind:        field.Kind,
			Label:       field.Label,
			Placeholder: field.Placeholder,
			Required:    field.Required,
		}
		if formkit.KindHasOptions(field.Kind) {
			if len(field.Options) == 0 {
				p.Notice = noOptionsNotice
			} else {
				options := make([]formkit.FieldOption, len(field.Options))
				copy(options, field.Options)
				p.Options = options
			}
		}
		preview = append(preview, p)
	}
	return preview
}
