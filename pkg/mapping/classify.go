package mapping

import (
	"regexp"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/naming"
)

var (
	personRefSuffixRe = regexp.MustCompile(`__(first_name|last_name|email|phone)$`)
	personTitleRe     = regexp.MustCompile(`(?i)\b(first\s*name|last\s*name)\b`)
	personIDRefRe     = regexp.MustCompile(`(?i)(user|person)[_\s]?id`)
)

// Classify decides which CRM entity a field belongs to. The rules are checked in order:
//
//  1. email and phone_number fields are person fields
//  2. refs produced by exploding contact_info are person fields
//  3. titles mentioning "first name" or "last name" are person fields
//  4. a title normalizing to user_id, or a ref containing a user/person id token, is a person field
//
// Anything else, including ambiguous fields such as "Company", defaults to deal.
func Classify(field models.AtomicFormField) models.Entity {
	if IsPersonField(field) {
		return models.EntityPerson
	}
	return models.EntityDeal
}

// IsPersonField reports whether Classify would return EntityPerson.
func IsPersonField(field models.AtomicFormField) bool {
	switch field.SourceType {
	case models.SourceTypeEmail, models.SourceTypePhoneNumber:
		return true
	}
	if personRefSuffixRe.MatchString(field.Ref) {
		return true
	}
	if personTitleRe.MatchString(field.Title) {
		return true
	}
	if naming.NormalizeName(field.Title) == "user_id" || personIDRefRe.MatchString(field.Ref) {
		return true
	}
	return false
}

// FilterByEntity keeps the fields Classify assigns to entity.
func FilterByEntity(fields []models.AtomicFormField, entity models.Entity) []models.AtomicFormField {
	out := make([]models.AtomicFormField, 0, len(fields))
	for _, field := range fields {
		if Classify(field) == entity {
			out = append(out, field)
		}
	}
	return out
}
