package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// ListFields returns the field descriptors for the entity type, in table
// order.
func (r *Registry) ListFields(entityType models.EntityType) ([]FieldDescriptor, error) {
	desc, err := descriptorFor(entityType)
	if err != nil {
		return nil, err
	}
	return desc.fields, nil
}

// EnsureFieldKeysSupported validates a requested key list up front. An
// empty list fails, and any key absent from the registry fails with a
// message enumerating the offenders.
func (r *Registry) EnsureFieldKeysSupported(entityType models.EntityType, keys []string) error {
	desc, err := descriptorFor(entityType)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return models.NewValidationError("no field keys requested for entity type %s", entityType)
	}

	known := make(map[string]bool, len(desc.fields))
	for _, f := range desc.fields {
		known[f.Key] = true
	}

	var unsupported []string
	for _, key := range keys {
		if !known[key] {
			unsupported = append(unsupported, key)
		}
	}
	if len(unsupported) > 0 {
		return models.NewValidationError("unsupported field keys for %s: %s",
			entityType, strings.Join(unsupported, ", "))
	}
	return nil
}

// ResolveFields loads the entity snapshot and maps each requested key
// through its selector. Selector results that come back untyped-nil are
// stored as nil so every requested key has an entry. Unknown keys are
// dropped silently here; EnsureFieldKeysSupported is the loud check.
func (r *Registry) ResolveFields(ctx context.Context, entityType models.EntityType, entityID string, keys []string) (map[string]any, error) {
	desc, err := descriptorFor(entityType)
	if err != nil {
		return nil, err
	}

	snapshot, err := r.loader.FindSnapshot(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s snapshot: %w", entityType, err)
	}

	byKey := make(map[string]FieldDescriptor, len(desc.fields))
	for _, f := range desc.fields {
		byKey[f.Key] = f
	}

	resolved := make(map[string]any, len(keys))
	for _, key := range keys {
		f, ok := byKey[key]
		if !ok {
			log.Debug().
				Str("entity_type", string(entityType)).
				Str("key", key).
				Msg("Dropping unknown field key during resolution")
			continue
		}
		resolved[key] = f.Select(snapshot)
	}
	return resolved, nil
}
