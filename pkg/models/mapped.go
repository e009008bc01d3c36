package models

// MappedField is an AtomicFormField enriched with its CRM-facing shape.
type MappedField struct {
	Ref           string     `json:"ref"`
	Title         string     `json:"title"`
	SourceType    SourceType `json:"tf_type"`
	TargetType    TargetType `json:"pd_type"`
	Options       []string   `json:"options,omitempty"`
	SuggestedName string     `json:"suggested_name"`
	Entity        Entity     `json:"entity"`
}

// SuggestedField is the CRM field a MissingFieldRow proposes to create.
type SuggestedField struct {
	Name      string     `json:"name"`
	FieldType TargetType `json:"field_type"`
	Options   []string   `json:"options,omitempty"`
}

// MissingFieldRow is a mapped form field with no matching CRM field. Built per request
// and never stored.
type MissingFieldRow struct {
	FormRef   string         `json:"tf_ref"`
	FormTitle string         `json:"tf_title"`
	FormType  SourceType     `json:"tf_type"`
	Suggested SuggestedField `json:"pd_suggested"`
	Exists    bool           `json:"exists_in_pipedrive"`
}
