package typeform

import (
	"github.com/Ramsey-B/clover/pkg/models"
)

// UiType is the input widget a native renderer should draw for a field.
type UiType string

const (
	UiText        UiType = "text"
	UiTextarea    UiType = "textarea"
	UiEmail       UiType = "email"
	UiNumber      UiType = "number"
	UiPhone       UiType = "phone"
	UiDate        UiType = "date"
	UiSelect      UiType = "select"
	UiMultiselect UiType = "multiselect"
	UiRadio       UiType = "radio"
	UiYesNo       UiType = "yesno"
	UiFile        UiType = "file"
	UiCheckbox    UiType = "checkbox"
)

// UiField is one renderable input.
type UiField struct {
	Ref      string   `json:"ref"`
	Label    string   `json:"label"`
	UiType   UiType   `json:"uiType"`
	Options  []string `json:"options,omitempty"`
	Multiple bool     `json:"multiple"`
}

// Page is a step of the rendered form. Untitled pages hold top-level fields.
type Page struct {
	Title  string    `json:"title,omitempty"`
	Fields []UiField `json:"fields"`
}

// Schema is a form laid out as pages.
type Schema struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Pages []Page `json:"pages"`
}

var uiTypes = map[models.SourceType]UiType{
	models.SourceTypeShortText:   UiText,
	models.SourceTypeLongText:    UiTextarea,
	models.SourceTypeEmail:       UiEmail,
	models.SourceTypeNumber:      UiNumber,
	models.SourceTypePhoneNumber: UiPhone,
	models.SourceTypeDate:        UiDate,
	models.SourceTypeDropdown:    UiSelect,
	models.SourceTypeYesNo:       UiYesNo,
	models.SourceTypeFileUpload:  UiFile,
	models.SourceTypeLegal:       UiCheckbox,
}

// MapUiType returns the widget for a source type; ok is false for types a renderer skips.
func MapUiType(sourceType models.SourceType, multiple bool) (UiType, bool) {
	if sourceType == models.SourceTypeMultipleChoice {
		if multiple {
			return UiMultiselect, true
		}
		return UiRadio, true
	}
	ui, ok := uiTypes[sourceType]
	return ui, ok
}

// BuildSchema lays the form out as pages: top-level fields before a group share an
// untitled page and every group becomes its own titled page. A form that produces no
// pages gets one empty page.
func BuildSchema(form *Form) Schema {
	schema := Schema{ID: form.ID, Title: form.Title}

	var pending []UiField
	flush := func() {
		if len(pending) > 0 {
			schema.Pages = append(schema.Pages, Page{Fields: pending})
			pending = nil
		}
	}

	for _, node := range form.Fields {
		if node.Kind == NodeContainer {
			flush()

			inner := node.PropertyChildren
			if len(inner) == 0 {
				inner = node.Children
			}
			fields := []UiField{}
			for _, child := range inner {
				fields = appendUiFields(fields, child)
			}
			schema.Pages = append(schema.Pages, Page{Title: node.Title, Fields: fields})
			continue
		}
		pending = appendUiFields(pending, node)
	}
	flush()

	if len(schema.Pages) == 0 {
		schema.Pages = []Page{{Fields: []UiField{}}}
	}

	return schema
}

func appendUiFields(acc []UiField, node Node) []UiField {
	switch node.Kind {
	case NodeComposite:
		for _, field := range ExplodeContactInfo(node) {
			ui, _ := MapUiType(field.SourceType, false)
			acc = append(acc, UiField{Ref: field.Ref, Label: field.Title, UiType: ui})
		}
		return acc
	case NodeAtomic:
	default:
		return acc
	}

	multiple := node.Type == models.SourceTypeMultipleChoice && node.AllowsMultiple
	ui, ok := MapUiType(node.Type, multiple)
	if !ok {
		return acc
	}

	field := UiField{
		Ref:      node.EffectiveRef(),
		Label:    node.Title,
		UiType:   ui,
		Multiple: ui == UiMultiselect,
	}
	switch ui {
	case UiYesNo:
		field.Options = []string{"Yes", "No"}
	case UiRadio, UiMultiselect, UiSelect:
		field.Options = node.Choices
		if field.Options == nil {
			field.Options = []string{}
		}
	}
	return append(acc, field)
}
