package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/typeform"
)

func TestMapType(t *testing.T) {
	testCases := []struct {
		source   models.SourceType
		multi    bool
		expected models.TargetType
		ok       bool
	}{
		{source: models.SourceTypeShortText, expected: models.TargetShortString, ok: true},
		{source: models.SourceTypeEmail, expected: models.TargetShortString, ok: true},
		{source: models.SourceTypeLongText, expected: models.TargetLongText, ok: true},
		{source: models.SourceTypeFileUpload, expected: models.TargetLongText, ok: true},
		{source: models.SourceTypeNumber, expected: models.TargetNumeric, ok: true},
		{source: models.SourceTypeOpinionScale, expected: models.TargetNumeric, ok: true},
		{source: models.SourceTypeRating, expected: models.TargetNumeric, ok: true},
		{source: models.SourceTypeDate, expected: models.TargetDate, ok: true},
		{source: models.SourceTypeDropdown, expected: models.TargetSingleChoice, ok: true},
		{source: models.SourceTypeMultipleChoice, expected: models.TargetSingleChoice, ok: true},
		{source: models.SourceTypeMultipleChoice, multi: true, expected: models.TargetMultiChoice, ok: true},
		{source: models.SourceTypeYesNo, expected: models.TargetSingleChoice, ok: true},
		{source: models.SourceTypePhoneNumber, expected: models.TargetPhone, ok: true},
		{source: models.SourceTypeLegal},
		{source: models.SourceTypeContactInfo},
		{source: models.SourceTypeGroup},
		{source: models.SourceTypeInlineGroup},
		{source: "statement"},
	}

	for _, testCase := range testCases {
		name := string(testCase.source)
		if testCase.multi {
			name += "/multi"
		}
		t.Run(name, func(t *testing.T) {
			target, ok := MapType(testCase.source, testCase.multi)
			assert.Equal(t, testCase.ok, ok)
			assert.Equal(t, testCase.expected, target)
		})
	}
}

func TestMapOptions(t *testing.T) {
	t.Run("yes no ignores form options", func(t *testing.T) {
		field := models.AtomicFormField{SourceType: models.SourceTypeYesNo, Options: []string{"Tak", "Nie"}}
		options := MapOptions(field, models.TargetSingleChoice)
		assert.Equal(t, []string{"Yes", "No"}, options)

		// callers cannot corrupt the shared list
		options[0] = "changed"
		assert.Equal(t, []string{"Yes", "No"}, YesNoOptions)
	})

	t.Run("choices are kept in order", func(t *testing.T) {
		field := models.AtomicFormField{SourceType: models.SourceTypeDropdown, Options: []string{"B", "A"}}
		assert.Equal(t, []string{"B", "A"}, MapOptions(field, models.TargetSingleChoice))
	})

	t.Run("non choice types carry none", func(t *testing.T) {
		field := models.AtomicFormField{SourceType: models.SourceTypeShortText, Options: []string{"x"}}
		assert.Nil(t, MapOptions(field, models.TargetShortString))
	})
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		field    models.AtomicFormField
		expected models.Entity
	}{
		{name: "email type", field: models.AtomicFormField{Ref: "a", Title: "Where can we reach you", SourceType: models.SourceTypeEmail}, expected: models.EntityPerson},
		{name: "phone type", field: models.AtomicFormField{Ref: "b", Title: "Mobile", SourceType: models.SourceTypePhoneNumber}, expected: models.EntityPerson},
		{name: "exploded first name", field: models.AtomicFormField{Ref: "k__first_name", Title: "Kontakt: first_name", SourceType: models.SourceTypeShortText}, expected: models.EntityPerson},
		{name: "exploded last name", field: models.AtomicFormField{Ref: "k__last_name", Title: "x", SourceType: models.SourceTypeShortText}, expected: models.EntityPerson},
		{name: "title first name", field: models.AtomicFormField{Ref: "c", Title: "Your First Name", SourceType: models.SourceTypeShortText}, expected: models.EntityPerson},
		{name: "title lastname", field: models.AtomicFormField{Ref: "d", Title: "lastname", SourceType: models.SourceTypeShortText}, expected: models.EntityPerson},
		{name: "title user id", field: models.AtomicFormField{Ref: "e", Title: "User ID", SourceType: models.SourceTypeShortText}, expected: models.EntityPerson},
		{name: "ref person id", field: models.AtomicFormField{Ref: "crm_person_id", Title: "Hidden", SourceType: models.SourceTypeShortText}, expected: models.EntityPerson},
		{name: "ref userid", field: models.AtomicFormField{Ref: "userId", Title: "Hidden", SourceType: models.SourceTypeShortText}, expected: models.EntityPerson},
		{name: "ambiguous company", field: models.AtomicFormField{Ref: "f", Title: "Company", SourceType: models.SourceTypeShortText}, expected: models.EntityDeal},
		{name: "budget", field: models.AtomicFormField{Ref: "g", Title: "Budget", SourceType: models.SourceTypeNumber}, expected: models.EntityDeal},
		{name: "name without first or last", field: models.AtomicFormField{Ref: "h", Title: "Project name", SourceType: models.SourceTypeShortText}, expected: models.EntityDeal},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, Classify(testCase.field))
		})
	}
}

func TestFilterByEntity(t *testing.T) {
	fields := []models.AtomicFormField{
		{Ref: "a", Title: "Email", SourceType: models.SourceTypeEmail},
		{Ref: "b", Title: "Budget", SourceType: models.SourceTypeNumber},
		{Ref: "c", Title: "First name", SourceType: models.SourceTypeShortText},
	}

	person := FilterByEntity(fields, models.EntityPerson)
	deal := FilterByEntity(fields, models.EntityDeal)

	assert.Len(t, person, 2)
	require.Len(t, deal, 1)
	assert.Equal(t, "b", deal[0].Ref)
}

func TestBuildMappedFields(t *testing.T) {
	t.Run("suggested names and unmappable drop", func(t *testing.T) {
		fields := []models.AtomicFormField{
			{Ref: "r1", Title: "Imię", SourceType: models.SourceTypeShortText},
			{Ref: "r2", Title: "Email", SourceType: models.SourceTypeEmail},
			{Ref: "r3", Title: "I agree", SourceType: models.SourceTypeLegal},
		}

		mapped := BuildMappedFields(fields)
		require.Len(t, mapped, 2)
		assert.Equal(t, "imie", mapped[0].SuggestedName)
		assert.Equal(t, models.TargetShortString, mapped[0].TargetType)
		assert.Equal(t, models.EntityDeal, mapped[0].Entity)
		assert.Equal(t, "email", mapped[1].SuggestedName)
		assert.Equal(t, models.EntityPerson, mapped[1].Entity)
	})

	t.Run("collisions get a ref suffix", func(t *testing.T) {
		fields := []models.AtomicFormField{
			{Ref: "AbCdEfGh", Title: "Budget", SourceType: models.SourceTypeNumber},
			{Ref: "XyZ123456", Title: "budget?", SourceType: models.SourceTypeNumber},
			{Ref: "XyZ123999", Title: "BUDGET", SourceType: models.SourceTypeNumber},
			{Ref: "", Title: "Budget!", SourceType: models.SourceTypeNumber},
		}

		mapped := BuildMappedFields(fields)
		require.Len(t, mapped, 4)

		names := []string{mapped[0].SuggestedName, mapped[1].SuggestedName, mapped[2].SuggestedName, mapped[3].SuggestedName}
		assert.Equal(t, []string{"budget", "budget_xyz123", "budget_xyz123_2", "budget_2"}, names)
	})

	t.Run("untitled fields fall back to the ref", func(t *testing.T) {
		mapped := BuildMappedFields([]models.AtomicFormField{
			{Ref: "1a2b3c4d5e", Title: "", SourceType: models.SourceTypeShortText},
		})
		require.Len(t, mapped, 1)
		assert.Equal(t, "f_1a2b3c4d", mapped[0].SuggestedName)
	})

	t.Run("contact info becomes four person fields", func(t *testing.T) {
		node := typeform.Node{Kind: typeform.NodeComposite, ID: "id", Ref: "kontakt", Title: "Kontakt", Type: models.SourceTypeContactInfo}

		mapped := BuildMappedFields(typeform.ExplodeContactInfo(node))
		require.Len(t, mapped, 4)
		for _, field := range mapped {
			assert.Equal(t, models.EntityPerson, field.Entity, field.Ref)
		}
		assert.Equal(t, "kontakt_first_name", mapped[0].SuggestedName)
		assert.Equal(t, models.TargetPhone, mapped[3].TargetType)
	})
}
