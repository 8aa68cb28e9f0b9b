// Package prompt composes the final text sent to the generative model:
// placeholder interpolation over the action's template, collection context
// blocks, optional operator instructions and the structured-output
// directive for write-back actions.
package prompt

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/divisionAI-co/d5-management-system-sub002/internal/registry"
	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// BuildInput carries everything the builder needs for one prompt.
type BuildInput struct {
	Template          string
	Fields            map[string]any
	Collections       []*registry.ResolvedCollection
	ExtraInstructions string
	Operation         models.OperationType
	Mappings          []models.FieldMapping
}

// Build composes the final prompt. Field placeholders are interpolated in
// place; each collection whose key appears as a placeholder is substituted
// where it stands, and the remaining collections are appended as blocks at
// the end in the order they were resolved. Templates are operator-authored
// configuration, not end-user input, so substitution is a single
// non-recursive pass with no expansion of substituted values.
func Build(in BuildInput) string {
	values := make(map[string]string, len(in.Fields)+len(in.Collections))
	for key, value := range in.Fields {
		values[strings.ToLower(key)] = Stringify(value)
	}
	for _, coll := range in.Collections {
		values[strings.ToLower(coll.Key)] = FormatCollection(coll)
	}

	body, used := interpolate(in.Template, values)

	var sb strings.Builder
	sb.WriteString(body)

	for _, coll := range in.Collections {
		if used[strings.ToLower(coll.Key)] {
			continue
		}
		sb.WriteString("\n\n")
		sb.WriteString(FormatCollection(coll))
	}

	if strings.TrimSpace(in.ExtraInstructions) != "" {
		sb.WriteString("\n\nAdditional instructions:\n")
		sb.WriteString(strings.TrimSpace(in.ExtraInstructions))
	}

	if directive := structuredOutputDirective(in.Operation, in.Mappings); directive != "" {
		sb.WriteString("\n\n")
		sb.WriteString(directive)
	}

	return sb.String()
}

// Interpolate replaces every {{key}} placeholder in template with its
// stringified value. Matching is case-insensitive and tolerates whitespace
// inside the braces; placeholders with no value stay literal.
func Interpolate(template string, fields map[string]any) string {
	values := make(map[string]string, len(fields))
	for key, value := range fields {
		values[strings.ToLower(key)] = Stringify(value)
	}
	result, _ := interpolate(template, values)
	return result
}

// interpolate is the single-pass substitution engine. It also reports
// which keys were actually consumed so Build can tell substituted
// collections apart from appended ones.
func interpolate(template string, values map[string]string) (string, map[string]bool) {
	used := make(map[string]bool)
	var sb strings.Builder
	rest := template
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			sb.WriteString(rest)
			break
		}
		close := strings.Index(rest[open+2:], "}}")
		if close < 0 {
			sb.WriteString(rest)
			break
		}
		close += open + 2

		key := strings.ToLower(strings.TrimSpace(rest[open+2 : close]))
		value, ok := values[key]
		if ok {
			sb.WriteString(rest[:open])
			sb.WriteString(value)
			used[key] = true
		} else {
			// Unknown placeholder: keep the literal text.
			sb.WriteString(rest[:close+2])
		}
		rest = rest[close+2:]
	}
	return sb.String(), used
}

// Stringify renders a resolved field value for prompt inclusion: nil
// becomes empty, slices join with commas, maps and structs pretty-print as
// JSON, everything else formats naturally.
func Stringify(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, ", ")
	case float64:
		return trimFloat(v)
	case float32:
		return trimFloat(float64(v))
	case error:
		return v.Error()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, Stringify(rv.Index(i).Interface()))
		}
		return strings.Join(parts, ", ")
	case reflect.Map, reflect.Struct:
		pretty, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(pretty)
	}
	return fmt.Sprint(value)
}

// trimFloat prints floats without a trailing ".000000" tail.
func trimFloat(f float64) string {
	s := fmt.Sprintf("%f", f)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// structuredOutputDirective returns the fixed instruction that makes a
// write-back action answer with a machine-readable object, or empty when
// the action is read-only or has no mappings configured.
func structuredOutputDirective(op models.OperationType, mappings []models.FieldMapping) string {
	if op == models.OperationReadOnly || op == "" || len(mappings) == 0 {
		return ""
	}
	keys := make([]string, 0, len(mappings))
	seen := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		key := strings.TrimSpace(m.SourceKey)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return fmt.Sprintf(
		"Respond ONLY with a valid JSON object containing exactly these keys: %s. Do not include any explanation, markdown formatting, or text outside the JSON object.",
		strings.Join(keys, ", "))
}
