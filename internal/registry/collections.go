package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// CollectionRequest asks for one collection's rows, projected to the
// requested row-field keys. An empty EntityID selects bulk mode.
type CollectionRequest struct {
	EntityType models.EntityType
	EntityID   string
	Key        string
	Limit      int
	Format     models.CollectionFormat
	FieldKeys  []string
	Filters    map[string]string
}

// ResolvedCollection is a collection's rows projected to the requested
// field keys, ready for prompt rendering.
type ResolvedCollection struct {
	Key    string
	Label  string
	Format models.CollectionFormat
	Fields []FieldDescriptor
	Rows   []map[string]any
}

// ListCollections returns the collection descriptors for the entity type.
func (r *Registry) ListCollections(entityType models.EntityType) ([]CollectionDescriptor, error) {
	desc, err := descriptorFor(entityType)
	if err != nil {
		return nil, err
	}
	return desc.collections, nil
}

// ListCollectionFields returns the row-field descriptors of one collection.
func (r *Registry) ListCollectionFields(entityType models.EntityType, key string) ([]FieldDescriptor, error) {
	coll, err := r.collectionFor(entityType, key)
	if err != nil {
		return nil, err
	}
	return coll.Fields, nil
}

// EnsureCollectionSupported validates that the entity type has a
// collection with the given key.
func (r *Registry) EnsureCollectionSupported(entityType models.EntityType, key string) error {
	_, err := r.collectionFor(entityType, key)
	return err
}

// EnsureCollectionFieldsSupported mirrors EnsureFieldKeysSupported at the
// collection row-field level.
func (r *Registry) EnsureCollectionFieldsSupported(entityType models.EntityType, key string, keys []string) error {
	coll, err := r.collectionFor(entityType, key)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return models.NewValidationError("no row field keys requested for collection %s.%s", entityType, key)
	}

	known := make(map[string]bool, len(coll.Fields))
	for _, f := range coll.Fields {
		known[f.Key] = true
	}

	var unsupported []string
	for _, k := range keys {
		if !known[k] {
			unsupported = append(unsupported, k)
		}
	}
	if len(unsupported) > 0 {
		return models.NewValidationError("unsupported row field keys for %s.%s: %s",
			entityType, key, strings.Join(unsupported, ", "))
	}
	return nil
}

// ResolveCollection fetches the collection's rows and projects each row to
// the requested field keys. With no entity id the bulk resolver is used
// when one exists; a collection with no bulk resolver yields an empty row
// list rather than an error, so aggregate runs never fail on a
// per-entity-only collection.
func (r *Registry) ResolveCollection(ctx context.Context, req CollectionRequest) (*ResolvedCollection, error) {
	coll, err := r.collectionFor(req.EntityType, req.Key)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = coll.DefaultLimit
	}
	format := req.Format
	if format == "" {
		format = coll.DefaultFormat
	}
	filters := ParseFilters(coll.Filters, req.Filters)

	var rows []any
	switch {
	case req.EntityID != "" && req.EntityID != models.BulkEntityID:
		rows, err = coll.Resolve(ctx, r.source, req.EntityID, limit, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve collection %s.%s: %w", req.EntityType, req.Key, err)
		}
	case coll.ResolveBulk != nil:
		rows, err = coll.ResolveBulk(ctx, r.source, limit, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to bulk-resolve collection %s.%s: %w", req.EntityType, req.Key, err)
		}
	default:
		log.Debug().
			Str("entity_type", string(req.EntityType)).
			Str("collection", req.Key).
			Msg("Collection has no bulk resolver, returning empty row set")
	}

	fields := r.projectionFields(coll, req.FieldKeys)

	projected := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		item := make(map[string]any, len(fields))
		for _, f := range fields {
			item[f.Key] = f.Select(row)
		}
		projected = append(projected, item)
	}

	return &ResolvedCollection{
		Key:    coll.Key,
		Label:  coll.Label,
		Format: format,
		Fields: fields,
		Rows:   projected,
	}, nil
}

// projectionFields returns the descriptors for the requested keys in
// descriptor order, or all row fields when no keys were requested.
func (r *Registry) projectionFields(coll CollectionDescriptor, keys []string) []FieldDescriptor {
	if len(keys) == 0 {
		return coll.Fields
	}
	requested := make(map[string]bool, len(keys))
	for _, k := range keys {
		requested[k] = true
	}
	var fields []FieldDescriptor
	for _, f := range coll.Fields {
		if requested[f.Key] {
			fields = append(fields, f)
		}
	}
	return fields
}

func (r *Registry) collectionFor(entityType models.EntityType, key string) (CollectionDescriptor, error) {
	desc, err := descriptorFor(entityType)
	if err != nil {
		return CollectionDescriptor{}, err
	}
	for _, coll := range desc.collections {
		if coll.Key == key {
			return coll, nil
		}
	}
	return CollectionDescriptor{}, models.NewValidationError("unsupported collection %q for entity type %s", key, entityType)
}
