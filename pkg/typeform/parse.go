package typeform

import (
	"encoding/json"
	"fmt"

	"github.com/Ramsey-B/clover/pkg/models"
)

// NodeKind classifies a node of the raw form tree.
type NodeKind int

const (
	// NodeUnknown is anything that is not a field (no type, or neither id nor ref).
	// Its children are still visited.
	NodeUnknown NodeKind = iota
	// NodeAtomic is a leaf input.
	NodeAtomic
	// NodeContainer is a layout group (group, inline_group).
	NodeContainer
	// NodeComposite bundles several inputs (contact_info).
	NodeComposite
)

func (k NodeKind) String() string {
	switch k {
	case NodeAtomic:
		return "atomic"
	case NodeContainer:
		return "container"
	case NodeComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// childListKeys are the attributes that may hold nested fields, in visiting order.
var childListKeys = []string{"fields", "items", "elements", "questions"}

// Node is a validated node of the form tree.
type Node struct {
	Kind           NodeKind
	ID             string
	Ref            string
	Title          string
	Type           models.SourceType
	Choices        []string
	AllowsMultiple bool
	// Children nested under properties, then children nested on the node itself.
	PropertyChildren []Node
	Children         []Node
}

// EffectiveRef is the ref, or the id when the form gave no ref.
func (n Node) EffectiveRef() string {
	if n.Ref != "" {
		return n.Ref
	}
	return n.ID
}

// Form is a parsed form definition.
type Form struct {
	ID     string
	Title  string
	Hidden []string
	// HasFields is false when the definition carried no "fields" list at all.
	HasFields bool
	Fields    []Node
	// Skipped counts nodes that were not recognizable fields.
	Skipped int
}

// Summary returns the form id and title.
func (f *Form) Summary() models.FormSummary {
	return models.FormSummary{ID: f.ID, Title: f.Title}
}

type rawChoice struct {
	Label string `json:"label"`
}

// ParseForm validates a form definition and converts it into a Node tree.
// The only hard failure is a body that is not a JSON object.
func ParseForm(body []byte) (*Form, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("form definition is not a JSON object: %w", err)
	}

	form := &Form{
		ID:    stringAttr(raw, "id"),
		Title: stringAttr(raw, "title"),
	}

	if hidden, ok := raw["hidden"]; ok {
		var names []string
		if err := json.Unmarshal(hidden, &names); err == nil {
			form.Hidden = names
		}
	}

	if rawFields, ok := raw["fields"]; ok {
		if items, ok := asList(rawFields); ok {
			form.HasFields = true
			form.Fields = parseList(items, &form.Skipped)
		}
	}

	return form, nil
}

func parseList(items []json.RawMessage, skipped *int) []Node {
	nodes := make([]Node, 0, len(items))
	for _, item := range items {
		node, ok := parseNode(item, skipped)
		if !ok {
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// parseNode converts one raw element. Elements that are not JSON objects are dropped
// (and counted as skipped); objects that do not look like fields become NodeUnknown so
// their children remain reachable.
func parseNode(item json.RawMessage, skipped *int) (Node, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(item, &raw); err != nil || raw == nil {
		*skipped++
		return Node{}, false
	}

	node := Node{
		ID:    stringAttr(raw, "id"),
		Ref:   stringAttr(raw, "ref"),
		Title: stringAttr(raw, "title"),
		Type:  models.SourceType(stringAttr(raw, "type")),
	}
	node.Kind = classifyNode(node)
	if node.Kind == NodeUnknown {
		*skipped++
	}

	if rawProps, ok := raw["properties"]; ok {
		var props map[string]json.RawMessage
		if err := json.Unmarshal(rawProps, &props); err == nil && props != nil {
			node.Choices = parseChoices(props)
			node.AllowsMultiple = boolAttr(props, "allow_multiple_selection") || boolAttr(props, "allow_multiple_selections")
			node.PropertyChildren = parseChildren(props, skipped)
		}
	}
	node.Children = parseChildren(raw, skipped)

	return node, true
}

func classifyNode(n Node) NodeKind {
	if n.Type == "" || (n.ID == "" && n.Ref == "") {
		return NodeUnknown
	}
	switch {
	case n.Type.IsContainer():
		return NodeContainer
	case n.Type.IsComposite():
		return NodeComposite
	default:
		return NodeAtomic
	}
}

func parseChildren(attrs map[string]json.RawMessage, skipped *int) []Node {
	var children []Node
	for _, key := range childListKeys {
		rawList, ok := attrs[key]
		if !ok {
			continue
		}
		items, ok := asList(rawList)
		if !ok {
			continue
		}
		children = append(children, parseList(items, skipped)...)
	}
	return children
}

func parseChoices(props map[string]json.RawMessage) []string {
	rawChoices, ok := props["choices"]
	if !ok {
		return nil
	}
	var choices []rawChoice
	if err := json.Unmarshal(rawChoices, &choices); err != nil {
		return nil
	}
	labels := make([]string, 0, len(choices))
	for _, choice := range choices {
		if choice.Label == "" {
			continue
		}
		labels = append(labels, choice.Label)
	}
	return labels
}

func asList(raw json.RawMessage) ([]json.RawMessage, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

// stringAttr reads a string attribute; numeric ids are accepted and kept verbatim.
func stringAttr(attrs map[string]json.RawMessage, key string) string {
	raw, ok := attrs[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func boolAttr(attrs map[string]json.RawMessage, key string) bool {
	raw, ok := attrs[key]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}
