package models

// SourceType is the field type tag reported by the form service.
type SourceType string

const (
	SourceTypeShortText      SourceType = "short_text"
	SourceTypeLongText       SourceType = "long_text"
	SourceTypeEmail          SourceType = "email"
	SourceTypeNumber         SourceType = "number"
	SourceTypePhoneNumber    SourceType = "phone_number"
	SourceTypeYesNo          SourceType = "yes_no"
	SourceTypeDate           SourceType = "date"
	SourceTypeDropdown       SourceType = "dropdown"
	SourceTypeMultipleChoice SourceType = "multiple_choice"
	SourceTypeOpinionScale   SourceType = "opinion_scale"
	SourceTypeRating         SourceType = "rating"
	SourceTypeFileUpload     SourceType = "file_upload"
	SourceTypeLegal          SourceType = "legal"
	SourceTypeContactInfo    SourceType = "contact_info"
	SourceTypeGroup          SourceType = "group"
	SourceTypeInlineGroup    SourceType = "inline_group"
)

// IsContainer reports whether the type is a layout group whose children are the real fields.
func (t SourceType) IsContainer() bool {
	return t == SourceTypeGroup || t == SourceTypeInlineGroup
}

// IsComposite reports whether the type bundles several inputs into one field.
func (t SourceType) IsComposite() bool {
	return t == SourceTypeContactInfo
}

// FieldOrigin records the composite field an atomic field was exploded from.
type FieldOrigin struct {
	ParentRef  string     `json:"parent_ref"`
	ParentType SourceType `json:"parent_type"`
}

// AtomicFormField is one leaf input of a form. Containers and composites never appear
// as AtomicFormFields: containers are dropped and composites are exploded.
type AtomicFormField struct {
	Ref            string       `json:"ref"`
	Title          string       `json:"title"`
	SourceType     SourceType   `json:"type"`
	Options        []string     `json:"options,omitempty"`
	AllowsMultiple bool         `json:"multi"`
	Origin         *FieldOrigin `json:"from_container"`
}

// FormSummary identifies a form in API responses.
type FormSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
