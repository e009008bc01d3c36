package models

import "fmt"

// Entity is a CRM record type that owns custom fields.
type Entity string

const (
	EntityPerson Entity = "person"
	EntityDeal   Entity = "deal"
)

// ParseEntity parses an entity name. An empty string yields the deal default.
func ParseEntity(s string) (Entity, error) {
	switch Entity(s) {
	case "":
		return EntityDeal, nil
	case EntityPerson, EntityDeal:
		return Entity(s), nil
	default:
		return "", fmt.Errorf("unsupported entity '%s' (use 'deal' or 'person')", s)
	}
}

// FieldsPath is the CRM collection holding the entity's field definitions.
func (e Entity) FieldsPath() string {
	if e == EntityPerson {
		return "personFields"
	}
	return "dealFields"
}

// RecordsPath is the CRM collection holding the entity's records.
func (e Entity) RecordsPath() string {
	if e == EntityPerson {
		return "persons"
	}
	return "deals"
}

// TargetType is a CRM field type. Values are the CRM's own field_type names.
type TargetType string

const (
	TargetShortString  TargetType = "varchar"
	TargetLongText     TargetType = "text"
	TargetNumeric      TargetType = "double"
	TargetSingleChoice TargetType = "enum"
	TargetMultiChoice  TargetType = "set"
	TargetPhone        TargetType = "phone"
	TargetDate         TargetType = "date"
)

// ProvisionableTypes lists the types this service can create.
var ProvisionableTypes = []TargetType{
	TargetShortString,
	TargetLongText,
	TargetNumeric,
	TargetSingleChoice,
	TargetMultiChoice,
	TargetPhone,
	TargetDate,
}

// IsChoice reports whether the type carries an options list.
func (t TargetType) IsChoice() bool {
	return t == TargetSingleChoice || t == TargetMultiChoice
}

// IsValid reports whether the type is one of ProvisionableTypes.
func (t TargetType) IsValid() bool {
	for _, candidate := range ProvisionableTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// CrmField is a field definition that already exists in the CRM.
type CrmField struct {
	ID             int      `json:"id"`
	Key            string   `json:"key"`
	Name           string   `json:"name"`
	FieldType      string   `json:"field_type"`
	Options        []string `json:"options"`
	AddVisibleFlag *bool    `json:"add_visible_flag,omitempty"`
	EditFlag       *bool    `json:"edit_flag,omitempty"`
}

var targetTypeAliases = map[string]TargetType{
	"short-string":  TargetShortString,
	"long-text":     TargetLongText,
	"numeric":       TargetNumeric,
	"single-choice": TargetSingleChoice,
	"multi-choice":  TargetMultiChoice,
}

// ParseTargetType accepts the CRM's field_type names and the descriptive aliases
// (short-string, long-text, numeric, single-choice, multi-choice).
func ParseTargetType(s string) (TargetType, error) {
	if alias, ok := targetTypeAliases[s]; ok {
		return alias, nil
	}
	t := TargetType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unsupported field_type '%s'", s)
	}
	return t, nil
}
