package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/lychee-technology/formkit"
	"go.uber.org/zap"
)

// relationshipDesigner manages the cross-form links of one builder session.
// It keeps no long-lived cache across target-form switches: selecting a
// different target clears the selected target field and refetches the list.
type relationshipDesigner struct {
	mu      sync.Mutex
	config  *formkit.Config
	service formkit.FormService
	ownSlug string

	relationships []formkit.FormRelationship

	selectedTargetSlug  string
	selectedTargetField string
	targetFields        []formkit.TargetField

	lookupInFlight bool
}

// NewRelationshipDesigner creates a designer for the form identified by
// ownSlug, seeded with the session's existing relationships.
func NewRelationshipDesigner(config *formkit.Config, service formkit.FormService, ownSlug string, existing []formkit.FormRelationship) formkit.RelationshipDesigner {
	if config == nil {
		config = formkit.DefaultConfig()
	}
	relationships := make([]formkit.FormRelationship, len(existing))
	copy(relationships, existing)
	return &relationshipDesigner{
		config:        config,
		service:       service,
		ownSlug:       ownSlug,
		relationships: relationships,
	}
}

func (d *relationshipDesigner) SelectTargetForm(ctx context.Context, slug string) ([]formkit.TargetField, error) {
	d.mu.Lock()
	if slug == d.ownSlug {
		d.mu.Unlock()
		return nil, formkit.NewValidationError(formkit.ErrCodeSelfRelationship,
			"a form cannot target itself")
	}
	if d.lookupInFlight {
		d.mu.Unlock()
		return nil, formkit.NewValidationError(formkit.ErrCodeLookupInFlight,
			"a target form lookup is already in progress")
	}

	// Switching targets invalidates everything derived from the old one.
	d.selectedTargetSlug = slug
	d.selectedTargetField = ""
	d.targetFields = nil
	d.lookupInFlight = true
	d.mu.Unlock()

	lookupCtx := ctx
	if d.config.Designer.LookupTimeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, d.config.Designer.LookupTimeout)
		defer cancel()
	}
	target, err := d.service.GetForm(lookupCtx, slug)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookupInFlight = false

	if err != nil {
		zap.S().Warnw("target form lookup failed", "slug", slug, "error", err)
		if _, ok := err.(*formkit.FormKitError); ok {
			return nil, err
		}
		return nil, formkit.NewRemoteError(err.Error(), err)
	}
	if d.selectedTargetSlug != slug {
		// The operator switched targets while this lookup was pending; the
		// stale result is dropped.
		return nil, nil
	}

	fields := make([]formkit.TargetField, 0, len(target.FieldsStructure))
	for _, stored := range target.FieldsStructure {
		fields = append(fields, formkit.TargetField{
			ID:    stored.ID,
			Label: resolveLabel(stored.Labels, target.LanguageConfig.Primary),
		})
	}
	d.targetFields = fields

	result := make([]formkit.TargetField, len(fields))
	copy(result, fields)
	return result, nil
}

func (d *relationshipDesigner) CreateRelationship(fieldID, targetFormSlug, displayField string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkTarget(fieldID, targetFormSlug, displayField); err != nil {
		return err
	}
	if d.indexOf(fieldID) >= 0 {
		return formkit.NewRelationshipConflictError(fieldID)
	}

	d.relationships = append(d.relationships, formkit.FormRelationship{
		FieldID:        fieldID,
		TargetFormSlug: targetFormSlug,
		DisplayField:   displayField,
	})
	return nil
}

// ReplaceRelationship removes any existing link for the field and adds the
// new one in a single step; no intermediate state is observable.
func (d *relationshipDesigner) ReplaceRelationship(fieldID, targetFormSlug, displayField string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkTarget(fieldID, targetFormSlug, displayField); err != nil {
		return err
	}

	replacement := formkit.FormRelationship{
		FieldID:        fieldID,
		TargetFormSlug: targetFormSlug,
		DisplayField:   displayField,
	}
	if idx := d.indexOf(fieldID); idx >= 0 {
		d.relationships[idx] = replacement
		return nil
	}
	d.relationships = append(d.relationships, replacement)
	return nil
}

func (d *relationshipDesigner) RemoveRelationship(fieldID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if idx := d.indexOf(fieldID); idx >= 0 {
		d.relationships = append(d.relationships[:idx], d.relationships[idx+1:]...)
	}
}

func (d *relationshipDesigner) SelectTargetField(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, f := range d.targetFields {
		if f.ID == id {
			d.selectedTargetField = id
			return nil
		}
	}
	return formkit.NewValidationError(formkit.ErrCodeValidationFailed,
		fmt.Sprintf("field '%s' does not exist on the selected target form", id))
}

func (d *relationshipDesigner) SelectedTargetField() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selectedTargetField
}

func (d *relationshipDesigner) Relationships() []formkit.FormRelationship {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := make([]formkit.FormRelationship, len(d.relationships))
	copy(result, d.relationships)
	return result
}

// checkTarget enforces the call-time invariants shared by create and replace.
func (d *relationshipDesigner) checkTarget(fieldID, targetFormSlug, displayField string) error {
	if fieldID == "" || targetFormSlug == "" || displayField == "" {
		return formkit.NewValidationError(formkit.ErrCodeValidationFailed,
			"field id, target form and display field are all required")
	}
	if targetFormSlug == d.ownSlug {
		return formkit.NewValidationError(formkit.ErrCodeSelfRelationship,
			"a form cannot target itself").WithFieldID(fieldID)
	}
	// When the target's field list is already loaded, reject display fields
	// that are not on it.
	if targetFormSlug == d.selectedTargetSlug && len(d.targetFields) > 0 {
		found := false
		for _, f := range d.targetFields {
			if f.ID == displayField {
				found = true
				break
			}
		}
		if !found {
			return formkit.NewValidationError(formkit.ErrCodeValidationFailed,
				fmt.Sprintf("display field '%s' does not exist on form '%s'", displayField, targetFormSlug)).
				WithFieldID(fieldID)
		}
	}
	return nil
}

func (d *relationshipDesigner) indexOf(fieldID string) int {
	for i, rel := range d.relationships {
		if rel.FieldID == fieldID {
			return i
		}
	}
	return -1
}
