package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// ExecutionStore persists execution state. The applied_at column doubles
// as the idempotency claim for apply: the conditional update in
// ClaimApplied is the only way it is ever set.
type ExecutionStore struct {
	db *sql.DB
}

// NewExecutionStore creates an execution store over the given connection.
func NewExecutionStore(db *sql.DB) *ExecutionStore {
	return &ExecutionStore{db: db}
}

// Create inserts a new execution row.
func (s *ExecutionStore) Create(ctx context.Context, exec *models.Execution) error {
	inputs, proposed, applied, err := encodeExecutionJSON(exec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ai_action_executions (
			id, action_id, entity_type, entity_id, prompt, inputs, status,
			output, raw_output, proposed_changes, applied_changes, applied_at,
			error_message, activity_id, triggered_by_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`
	err = s.db.QueryRowContext(ctx, query,
		exec.ID, exec.ActionID, string(exec.EntityType), exec.EntityID,
		exec.Prompt, inputs, string(exec.Status), exec.Output, exec.RawOutput,
		proposed, applied, exec.AppliedAt, exec.ErrorMessage, exec.ActivityID,
		exec.TriggeredByID,
	).Scan(&exec.CreatedAt, &exec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create execution %s: %w", exec.ID, err)
	}
	return nil
}

// Update rewrites the mutable columns of an execution. applied_at is
// deliberately not touched here; it moves only through the claim methods.
func (s *ExecutionStore) Update(ctx context.Context, exec *models.Execution) error {
	inputs, proposed, applied, err := encodeExecutionJSON(exec)
	if err != nil {
		return err
	}

	query := `
		UPDATE ai_action_executions
		SET prompt = $1, inputs = $2, status = $3, output = $4,
		    raw_output = $5, proposed_changes = $6, applied_changes = $7,
		    error_message = $8, activity_id = $9, updated_at = NOW()
		WHERE id = $10
	`
	res, err := s.db.ExecContext(ctx, query,
		exec.Prompt, inputs, string(exec.Status), exec.Output, exec.RawOutput,
		proposed, applied, exec.ErrorMessage, exec.ActivityID, exec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update execution %s: %w", exec.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return models.NewNotFoundError("execution %s not found", exec.ID)
	}
	return nil
}

// FindByID returns one execution, or a NotFoundError.
func (s *ExecutionStore) FindByID(ctx context.Context, id string) (*models.Execution, error) {
	query := executionSelect + ` WHERE id = $1`
	exec, err := scanExecution(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("execution %s not found", id)
		}
		return nil, fmt.Errorf("failed to load execution %s: %w", id, err)
	}
	return exec, nil
}

// ListByEntity returns recent executions against one record, newest
// first.
func (s *ExecutionStore) ListByEntity(ctx context.Context, entityType models.EntityType, entityID string, limit int) ([]models.Execution, error) {
	query := executionSelect + ` WHERE entity_type = $1 AND entity_id = $2 ORDER BY created_at DESC LIMIT $3`
	rows, err := s.db.QueryContext(ctx, query, string(entityType), entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var execs []models.Execution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		execs = append(execs, *exec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return execs, nil
}

// ClaimApplied atomically claims the right to apply a successful,
// not-yet-applied execution by stamping applied_at. Exactly one caller
// wins; everyone else sees false.
func (s *ExecutionStore) ClaimApplied(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE ai_action_executions
		SET applied_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND applied_at IS NULL AND status = $2
	`
	res, err := s.db.ExecContext(ctx, query, id, string(models.StatusSuccess))
	if err != nil {
		return false, fmt.Errorf("failed to claim execution %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

// ReleaseApplied clears a claim after the entity write behind it failed,
// so a retry can claim again.
func (s *ExecutionStore) ReleaseApplied(ctx context.Context, id string) error {
	query := `
		UPDATE ai_action_executions
		SET applied_at = NULL, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to release execution %s: %w", id, err)
	}
	return nil
}

// MarkApplied records what was actually written after a successful
// claimed apply. For create operations entityID carries the id of the
// record the apply produced.
func (s *ExecutionStore) MarkApplied(ctx context.Context, id string, entityID string, appliedChanges map[string]models.FieldChange) error {
	applied, err := json.Marshal(appliedChanges)
	if err != nil {
		return fmt.Errorf("failed to encode applied changes: %w", err)
	}
	query := `
		UPDATE ai_action_executions
		SET applied_changes = $1, entity_id = $2, updated_at = NOW()
		WHERE id = $3
	`
	if _, err := s.db.ExecContext(ctx, query, applied, entityID, id); err != nil {
		return fmt.Errorf("failed to mark execution %s applied: %w", id, err)
	}
	return nil
}

const executionSelect = `
	SELECT id, action_id, entity_type, entity_id, prompt, inputs, status,
	       output, raw_output, proposed_changes, applied_changes, applied_at,
	       error_message, activity_id, triggered_by_id, created_at, updated_at
	FROM ai_action_executions
`

func scanExecution(row interface{ Scan(...any) error }) (*models.Execution, error) {
	var exec models.Execution
	var actionID sql.NullInt64
	var activityID sql.NullInt64
	var appliedAt sql.NullTime
	var inputs, proposed, applied []byte

	err := row.Scan(
		&exec.ID, &actionID, &exec.EntityType, &exec.EntityID, &exec.Prompt,
		&inputs, &exec.Status, &exec.Output, &exec.RawOutput, &proposed,
		&applied, &appliedAt, &exec.ErrorMessage, &activityID,
		&exec.TriggeredByID, &exec.CreatedAt, &exec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if actionID.Valid {
		exec.ActionID = &actionID.Int64
	}
	if activityID.Valid {
		exec.ActivityID = &activityID.Int64
	}
	if appliedAt.Valid {
		t := appliedAt.Time
		exec.AppliedAt = &t
	}
	if len(inputs) > 0 {
		if err := json.Unmarshal(inputs, &exec.Inputs); err != nil {
			return nil, fmt.Errorf("failed to decode inputs: %w", err)
		}
	}
	if len(proposed) > 0 {
		if err := json.Unmarshal(proposed, &exec.ProposedChanges); err != nil {
			return nil, fmt.Errorf("failed to decode proposed changes: %w", err)
		}
	}
	if len(applied) > 0 {
		if err := json.Unmarshal(applied, &exec.AppliedChanges); err != nil {
			return nil, fmt.Errorf("failed to decode applied changes: %w", err)
		}
	}
	return &exec, nil
}

func encodeExecutionJSON(exec *models.Execution) (inputs, proposed, applied []byte, err error) {
	in := exec.Inputs
	if in == nil {
		in = map[string]any{}
	}
	inputs, err = json.Marshal(in)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode inputs: %w", err)
	}
	if exec.ProposedChanges != nil {
		proposed, err = json.Marshal(exec.ProposedChanges)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to encode proposed changes: %w", err)
		}
	}
	if exec.AppliedChanges != nil {
		applied, err = json.Marshal(exec.AppliedChanges)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to encode applied changes: %w", err)
		}
	}
	return inputs, proposed, applied, nil
}
