// Package reconcile compares mapped form fields with the CRM's live field schema.
package reconcile

import (
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/naming"
)

// Index looks up CRM fields by normalized name. When several CRM fields normalize to the
// same name the first one wins.
type Index map[string]models.CrmField

// NewIndex builds an Index over the full CRM field list of one entity.
func NewIndex(crmFields []models.CrmField) Index {
	index := make(Index, len(crmFields))
	for _, field := range crmFields {
		key := naming.NormalizeForCompare(field.Name)
		if _, ok := index[key]; ok {
			continue
		}
		index[key] = field
	}
	return index
}

// Lookup finds the CRM field whose normalized name equals the normalized name.
func (i Index) Lookup(name string) (models.CrmField, bool) {
	field, ok := i[naming.NormalizeForCompare(name)]
	return field, ok
}

// Diff returns a row for every mapped field with no CRM field of the same normalized
// name. Field types are not compared: a same-named field of another type counts as present.
// Name collisions inside mapped must already be resolved (see mapping.BuildMappedFields).
func Diff(mapped []models.MappedField, crmFields []models.CrmField) []models.MissingFieldRow {
	index := NewIndex(crmFields)

	missing := make([]models.MissingFieldRow, 0)
	for _, field := range mapped {
		if _, ok := index.Lookup(field.SuggestedName); ok {
			continue
		}
		missing = append(missing, models.MissingFieldRow{
			FormRef:   field.Ref,
			FormTitle: field.Title,
			FormType:  field.SourceType,
			Suggested: models.SuggestedField{
				Name:      field.SuggestedName,
				FieldType: field.TargetType,
				Options:   field.Options,
			},
			Exists: false,
		})
	}
	return missing
}
