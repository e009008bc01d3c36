package typeform

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

const defaultContactTitle = "Contact info"

// contactPart is one sub-field of an exploded contact_info field.
type contactPart struct {
	Suffix string
	Type   models.SourceType
}

// ContactParts are the four fields a contact_info field expands into, in order.
var ContactParts = []contactPart{
	{Suffix: "first_name", Type: models.SourceTypeShortText},
	{Suffix: "last_name", Type: models.SourceTypeShortText},
	{Suffix: "email", Type: models.SourceTypeEmail},
	{Suffix: "phone", Type: models.SourceTypePhoneNumber},
}

// ExtractAtomicFields flattens the form tree into its leaf inputs.
//
// Containers are dropped (their children are visited), contact_info fields are exploded
// into ContactParts, and duplicates reachable through more than one child list are
// removed by (ref, title, type). A form without fields yields an empty list.
func ExtractAtomicFields(form *Form) []models.AtomicFormField {
	if form == nil || !form.HasFields {
		return []models.AtomicFormField{}
	}

	var collected []models.AtomicFormField
	var visit func(nodes []Node)
	visit = func(nodes []Node) {
		for _, node := range nodes {
			switch node.Kind {
			case NodeAtomic:
				collected = append(collected, atomicField(node))
			case NodeComposite:
				collected = append(collected, ExplodeContactInfo(node)...)
			}
			visit(node.PropertyChildren)
			visit(node.Children)
		}
	}
	visit(form.Fields)

	return dedupe(collected)
}

// ExplodeContactInfo expands a contact_info node into its four sub-fields.
func ExplodeContactInfo(node Node) []models.AtomicFormField {
	parentRef := node.EffectiveRef()
	parentTitle := strings.TrimSpace(node.Title)
	if parentTitle == "" {
		parentTitle = defaultContactTitle
	}

	fields := make([]models.AtomicFormField, 0, len(ContactParts))
	for _, part := range ContactParts {
		fields = append(fields, models.AtomicFormField{
			Ref:        fmt.Sprintf("%s__%s", parentRef, part.Suffix),
			Title:      fmt.Sprintf("%s: %s", parentTitle, part.Suffix),
			SourceType: part.Type,
			Origin: &models.FieldOrigin{
				ParentRef:  parentRef,
				ParentType: node.Type,
			},
		})
	}
	return fields
}

func atomicField(node Node) models.AtomicFormField {
	return models.AtomicFormField{
		Ref:            node.EffectiveRef(),
		Title:          node.Title,
		SourceType:     node.Type,
		Options:        node.Choices,
		AllowsMultiple: node.AllowsMultiple,
	}
}

func dedupe(fields []models.AtomicFormField) []models.AtomicFormField {
	seen := make(map[string]struct{}, len(fields))
	out := make([]models.AtomicFormField, 0, len(fields))
	for _, field := range fields {
		key := field.Ref + "|" + field.Title + "|" + string(field.SourceType)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, field)
	}
	return out
}
