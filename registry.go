package formkit

// registry.go holds the closed field-kind tables: which kinds exist, what each
// kind collapses to for storage, and what capabilities each kind carries.
// Adding a FieldKind constant without extending these tables is caught by the
// registry exhaustiveness test.

// storageKinds is the total collapsing function FieldKind -> StorageFieldKind.
// text-like kinds (email, tel, textarea, date, time, url) collapse to text;
// select persists as dropdown; image/video stay distinct because they carry
// accept-pattern and size-limit metadata.
var storageKinds = map[FieldKind]StorageFieldKind{
	FieldKindText:     StorageKindText,
	FieldKindEmail:    StorageKindText,
	FieldKindTel:      StorageKindText,
	FieldKindTextarea: StorageKindText,
	FieldKindDate:     StorageKindText,
	FieldKindTime:     StorageKindText,
	FieldKindURL:      StorageKindText,
	FieldKindNumber:   StorageKindNumber,
	FieldKindSelect:   StorageKindDropdown,
	FieldKindRadio:    StorageKindRadio,
	FieldKindCheckbox: StorageKindCheckbox,
	FieldKindImage:    StorageKindImage,
	FieldKindVideo:    StorageKindVideo,
}

// KindProfile is the capability profile of one field kind.
type KindProfile struct {
	DisplayName     string `json:"display_name"`
	HasOptions      bool   `json:"has_options"`
	HasNumericRange bool   `json:"has_numeric_range"`
	HasLengthRange  bool   `json:"has_length_range"`
	HasMedia        bool   `json:"has_media"`
	HasChecked      bool   `json:"has_checked"`
}

var kindProfiles = map[FieldKind]KindProfile{
	FieldKindText:     {DisplayName: "Text", HasLengthRange: true},
	FieldKindNumber:   {DisplayName: "Number", HasNumericRange: true},
	FieldKindSelect:   {DisplayName: "Select", HasOptions: true},
	FieldKindRadio:    {DisplayName: "Radio", HasOptions: true},
	FieldKindCheckbox: {DisplayName: "Checkbox", HasChecked: true},
	FieldKindEmail:    {DisplayName: "Email"},
	FieldKindTel:      {DisplayName: "Phone"},
	FieldKindTextarea: {DisplayName: "Text Area", HasLengthRange: true},
	FieldKindDate:     {DisplayName: "Date"},
	FieldKindTime:     {DisplayName: "Time"},
	FieldKindURL:      {DisplayName: "URL"},
	FieldKindImage:    {DisplayName: "Image", HasMedia: true},
	FieldKindVideo:    {DisplayName: "Video", HasMedia: true},
}

// fieldKindOrder fixes the palette ordering surfaced to editors.
var fieldKindOrder = []FieldKind{
	FieldKindText,
	FieldKindNumber,
	FieldKindSelect,
	FieldKindRadio,
	FieldKindCheckbox,
	FieldKindEmail,
	FieldKindTel,
	FieldKindTextarea,
	FieldKindDate,
	FieldKindTime,
	FieldKindURL,
	FieldKindImage,
	FieldKindVideo,
}

// FieldKinds returns all supported kinds in palette order.
func FieldKinds() []FieldKind {
	kinds := make([]FieldKind, len(fieldKindOrder))
	copy(kinds, fieldKindOrder)
	return kinds
}

// IsValidFieldKind reports whether k is a member of the closed kind set.
func IsValidFieldKind(k FieldKind) bool {
	_, ok := storageKinds[k]
	return ok
}

// StorageKindOf returns the storage kind k collapses to. The second result is
// false for kinds outside the closed set.
func StorageKindOf(k FieldKind) (StorageFieldKind, bool) {
	sk, ok := storageKinds[k]
	return sk, ok
}

// ExpandStorageKind maps a storage kind back to its canonical editor kind.
// This is the lossy inverse of StorageKindOf: all text-like kinds come back
// as text, dropdown expands to select.
func ExpandStorageKind(sk StorageFieldKind) FieldKind {
	switch sk {
	case StorageKindDropdown:
		return FieldKindSelect
	case StorageKindNumber:
		return FieldKindNumber
	case StorageKindRadio:
		return FieldKindRadio
	case StorageKindCheckbox:
		return FieldKindCheckbox
	case StorageKindImage:
		return FieldKindImage
	case StorageKindVideo:
		return FieldKindVideo
	default:
		return FieldKindText
	}
}

// ProfileOf returns the capability profile for k. The second result is false
// for kinds outside the closed set.
func ProfileOf(k FieldKind) (KindProfile, bool) {
	p, ok := kindProfiles[k]
	return p, ok
}

// KindHasOptions reports whether k carries an option list (select/radio).
func KindHasOptions(k FieldKind) bool {
	return kindProfiles[k].HasOptions
}

// KindHasMedia reports whether k carries accept/maxSizeMB metadata.
func KindHasMedia(k FieldKind) bool {
	return kindProfiles[k].HasMedia
}
