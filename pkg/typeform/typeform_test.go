package typeform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

const nestedForm = `{
	"id": "abc123",
	"title": "Lead form",
	"hidden": ["deal_id", "person_id"],
	"fields": [
		{"id": "f1", "ref": "name_ref", "title": "Imię", "type": "short_text"},
		{"id": "f2", "ref": "mail_ref", "title": "Email", "type": "email"},
		{
			"id": "g1", "ref": "group_ref", "title": "About the deal", "type": "group",
			"properties": {
				"fields": [
					{"id": "f3", "ref": "budget_ref", "title": "Budget", "type": "number"},
					{
						"id": "f4", "ref": "plan_ref", "title": "Plan", "type": "multiple_choice",
						"properties": {
							"allow_multiple_selection": true,
							"choices": [{"id": "c1", "label": "Basic"}, {"id": "c2", "label": "Pro"}]
						}
					}
				]
			},
			"fields": [
				{"id": "f3", "ref": "budget_ref", "title": "Budget", "type": "number"}
			]
		},
		{"id": "c1", "ref": "contact_ref", "title": "Kontakt", "type": "contact_info"},
		{"title": "Statement without id", "type": "statement"},
		"not an object",
		{"id": 42, "title": "Numeric id", "type": "long_text"}
	]
}`

func TestParseForm(t *testing.T) {
	t.Run("nested form", func(t *testing.T) {
		form, err := ParseForm([]byte(nestedForm))
		require.NoError(t, err)

		assert.Equal(t, "abc123", form.ID)
		assert.Equal(t, "Lead form", form.Title)
		assert.Equal(t, []string{"deal_id", "person_id"}, form.Hidden)
		assert.True(t, form.HasFields)
		// the object without id and the string element
		assert.Equal(t, 2, form.Skipped)

		require.Len(t, form.Fields, 6)
		group := form.Fields[2]
		assert.Equal(t, NodeContainer, group.Kind)
		assert.Len(t, group.PropertyChildren, 2)
		assert.Len(t, group.Children, 1)

		plan := group.PropertyChildren[1]
		assert.Equal(t, []string{"Basic", "Pro"}, plan.Choices)
		assert.True(t, plan.AllowsMultiple)

		assert.Equal(t, NodeComposite, form.Fields[3].Kind)
		assert.Equal(t, NodeUnknown, form.Fields[4].Kind)
		assert.Equal(t, "42", form.Fields[5].EffectiveRef())
	})

	t.Run("missing fields", func(t *testing.T) {
		form, err := ParseForm([]byte(`{"id": "x", "title": "Empty"}`))
		require.NoError(t, err)
		assert.False(t, form.HasFields)
		assert.Empty(t, ExtractAtomicFields(form))
	})

	t.Run("fields is not a list", func(t *testing.T) {
		form, err := ParseForm([]byte(`{"id": "x", "fields": {"a": 1}}`))
		require.NoError(t, err)
		assert.False(t, form.HasFields)
	})

	t.Run("not an object", func(t *testing.T) {
		_, err := ParseForm([]byte(`[1, 2, 3]`))
		assert.Error(t, err)

		_, err = ParseForm([]byte(`<html>`))
		assert.Error(t, err)
	})

	t.Run("plural multiple selection flag", func(t *testing.T) {
		form, err := ParseForm([]byte(`{"fields": [{"id": "m", "type": "multiple_choice", "properties": {"allow_multiple_selections": true}}]}`))
		require.NoError(t, err)
		require.Len(t, form.Fields, 1)
		assert.True(t, form.Fields[0].AllowsMultiple)
	})
}

func TestExtractAtomicFields(t *testing.T) {
	form, err := ParseForm([]byte(nestedForm))
	require.NoError(t, err)

	fields := ExtractAtomicFields(form)

	refs := make([]string, 0, len(fields))
	for _, field := range fields {
		refs = append(refs, field.Ref)
		assert.False(t, field.SourceType.IsContainer(), "container %s surfaced", field.Ref)
		assert.False(t, field.SourceType.IsComposite(), "composite %s surfaced", field.Ref)
	}

	assert.Equal(t, []string{
		"name_ref",
		"mail_ref",
		"budget_ref",
		"plan_ref",
		"contact_ref__first_name",
		"contact_ref__last_name",
		"contact_ref__email",
		"contact_ref__phone",
		"42",
	}, refs)

	plan := fields[3]
	assert.Equal(t, models.SourceTypeMultipleChoice, plan.SourceType)
	assert.True(t, plan.AllowsMultiple)
	assert.Equal(t, []string{"Basic", "Pro"}, plan.Options)
}

func TestExplodeContactInfo(t *testing.T) {
	testCases := []struct {
		name          string
		node          Node
		expectedTitle string
		expectedRef   string
	}{
		{
			name:          "titled",
			node:          Node{Kind: NodeComposite, ID: "id1", Ref: "kontakt", Title: "Kontakt", Type: models.SourceTypeContactInfo},
			expectedTitle: "Kontakt: first_name",
			expectedRef:   "kontakt__first_name",
		},
		{
			name:          "untitled falls back",
			node:          Node{Kind: NodeComposite, ID: "id1", Type: models.SourceTypeContactInfo},
			expectedTitle: "Contact info: first_name",
			expectedRef:   "id1__first_name",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			fields := ExplodeContactInfo(testCase.node)
			require.Len(t, fields, 4)

			assert.Equal(t, testCase.expectedRef, fields[0].Ref)
			assert.Equal(t, testCase.expectedTitle, fields[0].Title)

			types := []models.SourceType{fields[0].SourceType, fields[1].SourceType, fields[2].SourceType, fields[3].SourceType}
			assert.Equal(t, []models.SourceType{
				models.SourceTypeShortText,
				models.SourceTypeShortText,
				models.SourceTypeEmail,
				models.SourceTypePhoneNumber,
			}, types)

			for _, field := range fields {
				require.NotNil(t, field.Origin)
				assert.Equal(t, testCase.node.EffectiveRef(), field.Origin.ParentRef)
				assert.Equal(t, models.SourceTypeContactInfo, field.Origin.ParentType)
			}
			assert.Regexp(t, `__phone$`, fields[3].Ref)
		})
	}
}

func TestBuildSchema(t *testing.T) {
	t.Run("pages", func(t *testing.T) {
		form, err := ParseForm([]byte(nestedForm))
		require.NoError(t, err)

		schema := BuildSchema(form)
		assert.Equal(t, "abc123", schema.ID)
		require.Len(t, schema.Pages, 3)

		first := schema.Pages[0]
		assert.Empty(t, first.Title)
		require.Len(t, first.Fields, 2)
		assert.Equal(t, UiText, first.Fields[0].UiType)
		assert.Equal(t, UiEmail, first.Fields[1].UiType)

		group := schema.Pages[1]
		assert.Equal(t, "About the deal", group.Title)
		require.Len(t, group.Fields, 2)
		assert.Equal(t, UiNumber, group.Fields[0].UiType)
		assert.Equal(t, UiMultiselect, group.Fields[1].UiType)
		assert.True(t, group.Fields[1].Multiple)
		assert.Equal(t, []string{"Basic", "Pro"}, group.Fields[1].Options)

		// contact info and the long text share the trailing page, the statement is dropped
		last := schema.Pages[2]
		assert.Empty(t, last.Title)
		require.Len(t, last.Fields, 5)
		assert.Equal(t, "contact_ref__first_name", last.Fields[0].Ref)
		assert.Equal(t, UiPhone, last.Fields[3].UiType)
		assert.Equal(t, UiTextarea, last.Fields[4].UiType)
	})

	t.Run("yes no options are fixed", func(t *testing.T) {
		form, err := ParseForm([]byte(`{"fields": [{"id": "y", "title": "Agree?", "type": "yes_no", "properties": {"choices": [{"label": "Tak"}]}}]}`))
		require.NoError(t, err)

		schema := BuildSchema(form)
		require.Len(t, schema.Pages, 1)
		require.Len(t, schema.Pages[0].Fields, 1)
		assert.Equal(t, []string{"Yes", "No"}, schema.Pages[0].Fields[0].Options)
	})

	t.Run("empty form has one empty page", func(t *testing.T) {
		schema := BuildSchema(&Form{ID: "x"})
		require.Len(t, schema.Pages, 1)
		assert.Empty(t, schema.Pages[0].Fields)
		assert.NotNil(t, schema.Pages[0].Fields)
	})
}
