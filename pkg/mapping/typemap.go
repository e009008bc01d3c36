// Package mapping turns atomic form fields into CRM-facing field descriptions.
//
// # Type table
//
//	short_text, email                  -> varchar (short string)
//	long_text, file_upload             -> text (long text)
//	number, opinion_scale, rating      -> double (numeric)
//	date                               -> date
//	dropdown                           -> enum (single choice)
//	multiple_choice                    -> set when multi-select, else enum
//	yes_no                             -> enum with options Yes / No
//	phone_number                       -> phone
//	contact_info, group, inline_group,
//	legal and anything unknown         -> not mapped
//
// Unmapped fields are dropped without being reported.
package mapping

import (
	"github.com/Ramsey-B/clover/pkg/models"
)

// YesNoOptions are the fixed options of a yes_no field, whatever the form says.
var YesNoOptions = []string{"Yes", "No"}

var typeTable = map[models.SourceType]models.TargetType{
	models.SourceTypeShortText:    models.TargetShortString,
	models.SourceTypeEmail:        models.TargetShortString,
	models.SourceTypeLongText:     models.TargetLongText,
	models.SourceTypeFileUpload:   models.TargetLongText,
	models.SourceTypeNumber:       models.TargetNumeric,
	models.SourceTypeOpinionScale: models.TargetNumeric,
	models.SourceTypeRating:       models.TargetNumeric,
	models.SourceTypeDate:         models.TargetDate,
	models.SourceTypeDropdown:     models.TargetSingleChoice,
	models.SourceTypeYesNo:        models.TargetSingleChoice,
	models.SourceTypePhoneNumber:  models.TargetPhone,
}

// MapType returns the CRM type for a source type. ok is false when the field cannot be mapped.
func MapType(sourceType models.SourceType, allowsMultiple bool) (models.TargetType, bool) {
	if sourceType == models.SourceTypeMultipleChoice {
		if allowsMultiple {
			return models.TargetMultiChoice, true
		}
		return models.TargetSingleChoice, true
	}
	target, ok := typeTable[sourceType]
	return target, ok
}

// MapOptions returns the options a mapped field carries: the fixed Yes/No list for
// yes_no fields, the form's choices for other choice fields, and nothing otherwise.
func MapOptions(field models.AtomicFormField, target models.TargetType) []string {
	if field.SourceType == models.SourceTypeYesNo {
		return append([]string(nil), YesNoOptions...)
	}
	if !target.IsChoice() {
		return nil
	}
	return field.Options
}
