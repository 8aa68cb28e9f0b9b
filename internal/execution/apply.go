package execution

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/divisionAI-co/d5-management-system-sub002/internal/registry"
	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// ApplyChanges writes a staged proposal back to the entity store at most
// once. The applied_at stamp is taken through an atomic conditional
// update, so concurrent applies on the same execution race for one claim
// and every loser gets ConflictError. Entity-write failures release the
// claim and surface as ApplyError, which is safe to retry.
func (s *Service) ApplyChanges(ctx context.Context, executionID string) (*models.Execution, error) {
	exec, err := s.executions.FindByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	if exec.Status != models.StatusSuccess {
		return nil, models.NewConflictError("execution %s is %s, only successful executions can be applied", exec.ID, exec.Status)
	}
	if exec.AppliedAt != nil {
		return nil, models.NewConflictError("execution %s was already applied", exec.ID)
	}
	if exec.ProposedChanges == nil {
		return nil, models.NewConflictError("execution %s has no proposed changes", exec.ID)
	}

	proposed := exec.ProposedChanges
	if proposed.Operation == models.OperationUpdate && exec.IsBulk() {
		return nil, models.NewValidationError("execution %s has no target entity to update", exec.ID)
	}

	payload := make(map[string]any, len(proposed.Fields))
	for field, change := range proposed.Fields {
		payload[field] = change.NewValue
	}
	sanitized, dropped, err := registry.SanitizeUpdate(exec.EntityType, payload)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		log.Debug().
			Str("execution_id", exec.ID).
			Strs("fields", dropped).
			Msg("Dropped fields during apply sanitization")
	}
	if len(sanitized) == 0 {
		return nil, models.NewValidationError("no applicable fields left after sanitization for execution %s", exec.ID)
	}

	claimed, err := s.executions.ClaimApplied(ctx, exec.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, models.NewConflictError("execution %s was already applied", exec.ID)
	}

	entityID := exec.EntityID
	switch proposed.Operation {
	case models.OperationUpdate:
		if err := s.entities.UpdateEntity(ctx, exec.EntityType, exec.EntityID, sanitized); err != nil {
			s.releaseClaim(ctx, exec.ID)
			return nil, models.NewApplyError(err)
		}
	case models.OperationCreate:
		newID, err := s.entities.CreateEntity(ctx, exec.EntityType, sanitized)
		if err != nil {
			s.releaseClaim(ctx, exec.ID)
			return nil, models.NewApplyError(err)
		}
		entityID = newID
	default:
		s.releaseClaim(ctx, exec.ID)
		return nil, models.NewValidationError("execution %s has unsupported operation %s", exec.ID, proposed.Operation)
	}

	// Only fields that survived sanitization were written.
	applied := make(map[string]models.FieldChange, len(sanitized))
	for field := range sanitized {
		applied[field] = proposed.Fields[field]
	}

	// The entity write already landed; a failure here must not release
	// the claim or the apply could run twice.
	if err := s.executions.MarkApplied(ctx, exec.ID, entityID, applied); err != nil {
		log.Error().Err(err).Str("execution_id", exec.ID).Msg("Failed to record applied changes")
		return nil, err
	}

	log.Info().
		Str("execution_id", exec.ID).
		Str("entity_type", string(exec.EntityType)).
		Str("entity_id", entityID).
		Int("fields", len(applied)).
		Msg("Applied execution changes")

	return s.executions.FindByID(ctx, exec.ID)
}

func (s *Service) releaseClaim(ctx context.Context, id string) {
	if err := s.executions.ReleaseApplied(ctx, id); err != nil {
		log.Error().Err(err).Str("execution_id", id).Msg("Failed to release apply claim")
	}
}
