package registry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// CoerceKind selects the typed coercion applied to a writable field before
// it reaches the entity store.
type CoerceKind string

const (
	CoerceText     CoerceKind = "text"
	CoerceNumber   CoerceKind = "number"
	CoerceCurrency CoerceKind = "currency"
	CoerceDate     CoerceKind = "date"
	CoerceBool     CoerceKind = "bool"
	CoerceTags     CoerceKind = "tags"
)

// SanitizeUpdate filters a proposed field map through the entity type's
// writable-field allowlist and applies per-field typed coercions. Unknown
// keys and values that fail coercion are dropped (and reported in the
// second return), never fatal: a partially bad proposal still applies its
// good fields. The caller decides whether an empty result is an error.
func SanitizeUpdate(entityType models.EntityType, fields map[string]any) (map[string]any, []string, error) {
	desc, err := descriptorFor(entityType)
	if err != nil {
		return nil, nil, err
	}

	sanitized := make(map[string]any, len(fields))
	var dropped []string
	for key, value := range fields {
		key = strings.TrimSpace(key)
		kind, ok := desc.writable[key]
		if !ok {
			dropped = append(dropped, key)
			log.Debug().
				Str("entity_type", string(entityType)).
				Str("field", key).
				Msg("Dropping field not in writable allowlist")
			continue
		}
		coerced, ok := coerceValue(kind, value)
		if !ok {
			dropped = append(dropped, key)
			log.Debug().
				Str("entity_type", string(entityType)).
				Str("field", key).
				Str("kind", string(kind)).
				Msg("Dropping field that failed coercion")
			continue
		}
		sanitized[key] = coerced
	}
	return sanitized, dropped, nil
}

// WritableFields returns the allowlisted writable field names for the
// entity type.
func WritableFields(entityType models.EntityType) ([]string, error) {
	desc, err := descriptorFor(entityType)
	if err != nil {
		return nil, err
	}
	fields := make([]string, 0, len(desc.writable))
	for key := range desc.writable {
		fields = append(fields, key)
	}
	return fields, nil
}

// WritableKinds returns the writable allowlist together with each field's
// coercion kind. The entity store keys its column scanning off this.
func WritableKinds(entityType models.EntityType) (map[string]CoerceKind, error) {
	desc, err := descriptorFor(entityType)
	if err != nil {
		return nil, err
	}
	kinds := make(map[string]CoerceKind, len(desc.writable))
	for key, kind := range desc.writable {
		kinds[key] = kind
	}
	return kinds, nil
}

func coerceValue(kind CoerceKind, value any) (any, bool) {
	if value == nil {
		return nil, true
	}
	switch kind {
	case CoerceText:
		return coerceText(value)
	case CoerceNumber:
		return coerceNumber(value, false)
	case CoerceCurrency:
		return coerceNumber(value, true)
	case CoerceDate:
		return coerceDate(value)
	case CoerceBool:
		return coerceBool(value)
	case CoerceTags:
		return coerceTags(value)
	}
	return nil, false
}

func coerceText(value any) (any, bool) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), true
	case float64, float32, int, int32, int64, bool:
		return fmt.Sprint(v), true
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", "), true
	}
	return nil, false
}

// coerceNumber parses numeric values. In currency mode common symbols and
// separators ("$1,200.50") are stripped before parsing.
func coerceNumber(value any, currency bool) (any, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		if currency {
			s = strings.TrimLeft(s, "$€£ ")
			s = strings.ReplaceAll(s, ",", "")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	return nil, false
}

func coerceDate(value any) (any, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		if t, ok := parseDate(v); ok {
			return t, true
		}
	}
	return nil, false
}

func coerceBool(value any) (any, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, false
		}
		return b, true
	}
	return nil, false
}

// coerceTags normalizes list-ish values into a []string. A plain string is
// split on commas.
func coerceTags(value any) (any, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				s = fmt.Sprint(item)
			}
			s = strings.TrimSpace(s)
			if s != "" {
				tags = append(tags, s)
			}
		}
		return tags, true
	case string:
		var tags []string
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				tags = append(tags, part)
			}
		}
		return tags, true
	}
	return nil, false
}
