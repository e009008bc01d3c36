package mapping

import (
	"strconv"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/naming"
)

const collisionSuffixLength = 6

// BuildMappedFields maps every mappable field, derives its suggested CRM name and
// classifies it. Unmappable fields are dropped. When two fields suggest the same
// name, the second and later ones get a suffix taken from their ref.
func BuildMappedFields(fields []models.AtomicFormField) []models.MappedField {
	mapped := make([]models.MappedField, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))

	for _, field := range fields {
		target, ok := MapType(field.SourceType, field.AllowsMultiple)
		if !ok {
			continue
		}

		name := uniqueName(naming.Normalize(field.Title, field.Ref, naming.DefaultMaxLength), field.Ref, seen)
		seen[naming.NormalizeForCompare(name)] = struct{}{}

		mapped = append(mapped, models.MappedField{
			Ref:           field.Ref,
			Title:         field.Title,
			SourceType:    field.SourceType,
			TargetType:    target,
			Options:       MapOptions(field, target),
			SuggestedName: name,
			Entity:        Classify(field),
		})
	}

	return mapped
}

// uniqueName returns name, or name with a ref-derived suffix when it is already taken.
// A counter is appended as a last resort so the result is always unique.
func uniqueName(name, ref string, seen map[string]struct{}) string {
	taken := func(candidate string) bool {
		_, ok := seen[naming.NormalizeForCompare(candidate)]
		return ok
	}
	if !taken(name) {
		return name
	}

	base := name
	if token := refToken(ref, collisionSuffixLength); token != "" {
		candidate := base + "_" + token
		if !taken(candidate) {
			return candidate
		}
		base = candidate
	}

	for i := 2; ; i++ {
		candidate := base + "_" + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// refToken lowercases a ref for use in suffixes.
func refToken(ref string, length int) string {
	if strings.TrimSpace(ref) == "" {
		return ""
	}
	token := strings.ToLower(naming.Normalize(ref, "", naming.CompareMaxLength))
	token = strings.TrimPrefix(token, "f_")
	if len(token) > length {
		token = token[:length]
	}
	return strings.Trim(token, "_")
}
