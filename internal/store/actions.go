package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// ActionStore persists action definitions. System actions are shipped
// with the product and guarded against modification and deletion.
type ActionStore struct {
	db *sql.DB
}

// NewActionStore creates an action store over the given connection.
func NewActionStore(db *sql.DB) *ActionStore {
	return &ActionStore{db: db}
}

const actionColumns = `
	id, name, prompt_template, entity_type, model_id, operation_type,
	field_keys, collection_uses, field_mappings, is_active, is_system,
	created_at, updated_at
`

func scanAction(row interface{ Scan(...any) error }) (*models.Action, error) {
	var a models.Action
	var fieldKeys, collectionUses, fieldMappings []byte
	err := row.Scan(
		&a.ID, &a.Name, &a.PromptTemplate, &a.EntityType, &a.ModelID,
		&a.OperationType, &fieldKeys, &collectionUses, &fieldMappings,
		&a.IsActive, &a.IsSystem, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fieldKeys, &a.FieldKeys); err != nil {
		return nil, fmt.Errorf("failed to decode field_keys: %w", err)
	}
	if err := json.Unmarshal(collectionUses, &a.CollectionUses); err != nil {
		return nil, fmt.Errorf("failed to decode collection_uses: %w", err)
	}
	if err := json.Unmarshal(fieldMappings, &a.FieldMappings); err != nil {
		return nil, fmt.Errorf("failed to decode field_mappings: %w", err)
	}
	return &a, nil
}

// Get returns one action by id, or a NotFoundError.
func (s *ActionStore) Get(ctx context.Context, id int64) (*models.Action, error) {
	query := `SELECT ` + actionColumns + ` FROM ai_actions WHERE id = $1`
	action, err := scanAction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("action %d not found", id)
		}
		return nil, fmt.Errorf("failed to load action %d: %w", id, err)
	}
	return action, nil
}

// List returns actions, optionally narrowed to one entity type and to
// active actions only, newest first.
func (s *ActionStore) List(ctx context.Context, entityType models.EntityType, activeOnly bool) ([]models.Action, error) {
	query := `SELECT ` + actionColumns + ` FROM ai_actions WHERE TRUE`
	var args []any
	if entityType != "" {
		args = append(args, string(entityType))
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if activeOnly {
		query += " AND is_active"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var actions []models.Action
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, *action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return actions, nil
}

// Create inserts a new action and fills in its generated id and
// timestamps.
func (s *ActionStore) Create(ctx context.Context, action *models.Action) error {
	fieldKeys, collectionUses, fieldMappings, err := encodeActionLists(action)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ai_actions (
			name, prompt_template, entity_type, model_id, operation_type,
			field_keys, collection_uses, field_mappings, is_active, is_system
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err = s.db.QueryRowContext(ctx, query,
		action.Name, action.PromptTemplate, string(action.EntityType),
		action.ModelID, string(action.OperationType),
		fieldKeys, collectionUses, fieldMappings,
		action.IsActive, action.IsSystem,
	).Scan(&action.ID, &action.CreatedAt, &action.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create action: %w", err)
	}
	return nil
}

// Update rewrites a non-system action. Updating a system action is a
// ConflictError; a missing action is a NotFoundError.
func (s *ActionStore) Update(ctx context.Context, action *models.Action) error {
	fieldKeys, collectionUses, fieldMappings, err := encodeActionLists(action)
	if err != nil {
		return err
	}

	query := `
		UPDATE ai_actions
		SET name = $1, prompt_template = $2, entity_type = $3, model_id = $4,
		    operation_type = $5, field_keys = $6, collection_uses = $7,
		    field_mappings = $8, is_active = $9, updated_at = NOW()
		WHERE id = $10 AND NOT is_system
	`
	res, err := s.db.ExecContext(ctx, query,
		action.Name, action.PromptTemplate, string(action.EntityType),
		action.ModelID, string(action.OperationType),
		fieldKeys, collectionUses, fieldMappings,
		action.IsActive, action.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update action %d: %w", action.ID, err)
	}
	return s.explainGuardedMiss(ctx, res, action.ID, "modified")
}

// Delete removes a non-system action. Deleting a system action is a
// ConflictError; a missing action is a NotFoundError.
func (s *ActionStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ai_actions WHERE id = $1 AND NOT is_system`, id)
	if err != nil {
		return fmt.Errorf("failed to delete action %d: %w", id, err)
	}
	return s.explainGuardedMiss(ctx, res, id, "deleted")
}

// explainGuardedMiss turns a zero-row guarded write into the right error:
// conflict when the row exists but is a system action, not-found
// otherwise.
func (s *ActionStore) explainGuardedMiss(ctx context.Context, res sql.Result, id int64, verb string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var isSystem bool
	err = s.db.QueryRowContext(ctx, `SELECT is_system FROM ai_actions WHERE id = $1`, id).Scan(&isSystem)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewNotFoundError("action %d not found", id)
	}
	if err != nil {
		return fmt.Errorf("failed to check action %d: %w", id, err)
	}
	if isSystem {
		return models.NewConflictError("system action %d cannot be %s", id, verb)
	}
	return models.NewNotFoundError("action %d not found", id)
}

func encodeActionLists(action *models.Action) ([]byte, []byte, []byte, error) {
	fieldKeys, err := json.Marshal(emptyIfNil(action.FieldKeys))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode field_keys: %w", err)
	}
	collectionUses, err := json.Marshal(emptyCollectionsIfNil(action.CollectionUses))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode collection_uses: %w", err)
	}
	fieldMappings, err := json.Marshal(emptyMappingsIfNil(action.FieldMappings))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode field_mappings: %w", err)
	}
	return fieldKeys, collectionUses, fieldMappings, nil
}

// nil slices must encode as [] so the JSONB columns stay uniform.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyCollectionsIfNil(s []models.CollectionUse) []models.CollectionUse {
	if s == nil {
		return []models.CollectionUse{}
	}
	return s
}

func emptyMappingsIfNil(s []models.FieldMapping) []models.FieldMapping {
	if s == nil {
		return []models.FieldMapping{}
	}
	return s
}
