// Package changes maps a parsed model answer onto field-level entity
// changes: dot-path extraction, the minimal transform rule, value
// normalization and diffing against current stored values.
package changes

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// transformPrefix marks the only transform kind currently defined: the
// remainder is a JSON literal that replaces the extracted value. The rule
// is deliberately minimal; anything richer belongs in a future transform
// kind with its own prefix.
const transformPrefix = "json:"

// ExtractValue pulls a value out of the parsed object by dot-path
// (each segment trimmed), then applies the transform rule when present.
// The second return is false when any path segment is missing.
func ExtractValue(parsed map[string]any, sourceKey, transformRule string) (any, bool) {
	value, found := lookupPath(parsed, sourceKey)

	if rule := strings.TrimSpace(transformRule); strings.HasPrefix(rule, transformPrefix) {
		literal := strings.TrimPrefix(rule, transformPrefix)
		var replacement any
		if err := json.Unmarshal([]byte(literal), &replacement); err == nil {
			return replacement, true
		}
		log.Debug().
			Str("source_key", sourceKey).
			Str("rule", rule).
			Msg("Ignoring transform rule with unparseable JSON literal")
	}

	return value, found
}

func lookupPath(parsed map[string]any, sourceKey string) (any, bool) {
	if parsed == nil {
		return nil, false
	}
	var current any = parsed
	for _, segment := range strings.Split(sourceKey, ".") {
		segment = strings.TrimSpace(segment)
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// MapInput is everything BuildProposedChanges needs for one execution.
type MapInput struct {
	Mappings      []models.FieldMapping
	Parsed        map[string]any
	Operation     models.OperationType
	EntityType    models.EntityType
	EntityID      string
	CurrentValues map[string]any
}

// BuildProposedChanges resolves every mapping against the parsed object
// and produces the staged diff. For updates, fields whose normalized old
// and new values are equal are skipped; for creates every mapped defined
// value is recorded with a nil old value. A nil return means nothing
// mapped, which the pipeline treats as a successful no-op read.
func BuildProposedChanges(in MapInput) *models.ProposedChanges {
	if in.Parsed == nil || len(in.Mappings) == 0 {
		return nil
	}

	fields := make(map[string]models.FieldChange)
	for _, mapping := range in.Mappings {
		value, found := ExtractValue(in.Parsed, mapping.SourceKey, mapping.TransformRule)
		if !found || value == nil {
			continue
		}
		target := strings.TrimSpace(mapping.TargetField)
		if target == "" {
			continue
		}

		if in.Operation == models.OperationUpdate {
			old := in.CurrentValues[target]
			if Normalize(old) == Normalize(value) {
				continue
			}
			fields[target] = models.FieldChange{
				OldValue:  old,
				NewValue:  value,
				SourceKey: mapping.SourceKey,
			}
			continue
		}

		// Create: no prior value exists by definition.
		fields[target] = models.FieldChange{
			OldValue:  nil,
			NewValue:  value,
			SourceKey: mapping.SourceKey,
		}
	}

	if len(fields) == 0 {
		return nil
	}

	return &models.ProposedChanges{
		Operation:  in.Operation,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		Fields:     fields,
	}
}

// Normalize renders a value into canonical comparison form: nil becomes
// empty, strings are trimmed, everything else serializes to compact JSON.
// Two values normalize equal exactly when a write-back would be a no-op.
func Normalize(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(encoded)
}
