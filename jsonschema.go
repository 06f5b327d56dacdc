package formkit

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// JSONSchemaDocument builds a JSON Schema (draft 2020-12) document describing
// valid submissions for the form. Storage kinds map onto JSON Schema types;
// dropdown/radio options become enums. Labels are taken from the form's
// primary language. Numeric and length bounds are editor-side validation only
// and are not part of the stored shape, so they do not appear here.
func (s *FormSchema) JSONSchemaDocument() (map[string]any, error) {
	if s == nil {
		return nil, fmt.Errorf("form schema cannot be nil")
	}

	properties := make(map[string]any, len(s.FieldsStructure))
	required := make([]string, 0)

	for _, stored := range s.FieldsStructure {
		prop, err := storedFieldProperty(stored)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", stored.ID, err)
		}
		if title, ok := stored.Labels[s.LanguageConfig.Primary]; ok {
			prop["title"] = title
		}
		if desc, ok := stored.Descriptions[s.LanguageConfig.Primary]; ok {
			prop["description"] = desc
		}
		properties[stored.ID] = prop
		if stored.Required {
			required = append(required, stored.ID)
		}
	}

	doc := map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"$id":        fmt.Sprintf("urn:formkit:form:%s", s.Slug),
		"title":      s.Title,
		"type":       "object",
		"properties": properties,
	}
	if s.Description != "" {
		doc["description"] = s.Description
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc, nil
}

func storedFieldProperty(stored StoredFieldStructure) (map[string]any, error) {
	switch stored.Kind {
	case StorageKindText, StorageKindImage, StorageKindVideo:
		return map[string]any{"type": "string"}, nil
	case StorageKindNumber:
		return map[string]any{"type": "number"}, nil
	case StorageKindCheckbox:
		return map[string]any{"type": "boolean"}, nil
	case StorageKindDropdown, StorageKindRadio:
		enum := make([]any, 0, len(stored.Options))
		for _, v := range stored.Options {
			enum = append(enum, v)
		}
		prop := map[string]any{"type": "string"}
		if len(enum) > 0 {
			prop["enum"] = enum
		}
		return prop, nil
	default:
		return nil, fmt.Errorf("unknown storage kind '%s'", stored.Kind)
	}
}

// RevalidateSubmission re-checks a submission's data against the form's
// exported JSON Schema. This is the service-side counterpart of the builder's
// client-side validator; collaborators may call it independently.
func (s *FormSchema) RevalidateSubmission(data map[string]any) error {
	doc, err := s.JSONSchemaDocument()
	if err != nil {
		return fmt.Errorf("failed to build JSON schema: %w", err)
	}

	docBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal schema for validation: %w", err)
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(docBytes, &schema); err != nil {
		return fmt.Errorf("failed to unmarshal into jsonschema.Schema: %w", err)
	}

	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return fmt.Errorf("failed to resolve JSON schema: %w", err)
	}

	var toValidate any = data
	if err := resolved.Validate(toValidate); err != nil {
		return fmt.Errorf("JSON validation failed: %w", err)
	}
	return nil
}
