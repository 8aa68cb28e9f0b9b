// Package execution runs actions through the pipeline: context
// resolution, prompt composition, the model call, response parsing,
// change staging, and the separate apply step that writes staged changes
// back exactly once.
package execution

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/divisionAI-co/d5-management-system-sub002/internal/changes"
	"github.com/divisionAI-co/d5-management-system-sub002/internal/llm"
	"github.com/divisionAI-co/d5-management-system-sub002/internal/prompt"
	"github.com/divisionAI-co/d5-management-system-sub002/internal/registry"
	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// ActionSource loads action definitions.
type ActionSource interface {
	Get(ctx context.Context, id int64) (*models.Action, error)
}

// ExecutionStore persists execution state across the run and the apply.
type ExecutionStore interface {
	Create(ctx context.Context, exec *models.Execution) error
	Update(ctx context.Context, exec *models.Execution) error
	FindByID(ctx context.Context, id string) (*models.Execution, error)
	ClaimApplied(ctx context.Context, id string) (bool, error)
	ReleaseApplied(ctx context.Context, id string) error
	MarkApplied(ctx context.Context, id string, entityID string, appliedChanges map[string]models.FieldChange) error
}

// EntityWriter is the entity-store surface the pipeline writes through.
type EntityWriter interface {
	CurrentValues(ctx context.Context, entityType models.EntityType, id string, fields []string) (map[string]any, error)
	UpdateEntity(ctx context.Context, entityType models.EntityType, id string, values map[string]any) error
	CreateEntity(ctx context.Context, entityType models.EntityType, values map[string]any) (string, error)
}

// ActivityRecorder logs audit entries against target records.
type ActivityRecorder interface {
	Record(ctx context.Context, entityType, entityID, subject, body string) (int64, error)
}

// Service orchestrates the whole pipeline.
type Service struct {
	registry   *registry.Registry
	invoker    llm.Invoker
	actions    ActionSource
	executions ExecutionStore
	entities   EntityWriter
	activities ActivityRecorder
}

// NewService wires the orchestrator.
func NewService(
	reg *registry.Registry,
	invoker llm.Invoker,
	actions ActionSource,
	executions ExecutionStore,
	entities EntityWriter,
	activities ActivityRecorder,
) *Service {
	return &Service{
		registry:   reg,
		invoker:    invoker,
		actions:    actions,
		executions: executions,
		entities:   entities,
		activities: activities,
	}
}

// ExecuteRequest is one run of an action. An empty EntityID (or the
// aggregate sentinel) selects bulk mode.
type ExecuteRequest struct {
	ActionID          int64
	EntityID          string
	ExtraInstructions string
	ModelOverride     string
	Temperature       float64
	TriggeredByID     int64
}

// Execute runs an action end to end and returns the finished execution
// row. Each call produces a brand-new execution; re-running an action
// never mutates earlier rows. Model failures leave the row FAILED and
// surface as ModelInvocationError.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest) (*models.Execution, error) {
	action, err := s.actions.Get(ctx, req.ActionID)
	if err != nil {
		return nil, err
	}
	if !action.IsActive {
		return nil, models.NewValidationError("action %d is not active", action.ID)
	}

	entityID := strings.TrimSpace(req.EntityID)
	if entityID == "" {
		entityID = models.BulkEntityID
	}
	bulk := entityID == models.BulkEntityID

	if len(action.FieldKeys) > 0 {
		if err := s.registry.EnsureFieldKeysSupported(action.EntityType, action.FieldKeys); err != nil {
			return nil, err
		}
	}

	// Field resolution is skipped entirely in bulk mode; there is no
	// single record to snapshot.
	fields := map[string]any{}
	if !bulk && len(action.FieldKeys) > 0 {
		fields, err = s.registry.ResolveFields(ctx, action.EntityType, entityID, action.FieldKeys)
		if err != nil {
			return nil, err
		}
	}

	collections, err := s.resolveCollections(ctx, action, entityID, bulk)
	if err != nil {
		return nil, err
	}

	composed := prompt.Build(prompt.BuildInput{
		Template:          action.PromptTemplate,
		Fields:            fields,
		Collections:       collections,
		ExtraInstructions: req.ExtraInstructions,
		Operation:         action.OperationType,
		Mappings:          action.FieldMappings,
	})

	exec := &models.Execution{
		ID:            uuid.NewString(),
		ActionID:      &action.ID,
		EntityType:    action.EntityType,
		EntityID:      entityID,
		Prompt:        composed,
		Inputs:        snapshotInputs(fields, collections),
		Status:        models.StatusPending,
		TriggeredByID: req.TriggeredByID,
	}
	if err := s.executions.Create(ctx, exec); err != nil {
		return nil, err
	}

	log.Info().
		Str("execution_id", exec.ID).
		Int64("action_id", action.ID).
		Str("entity_type", string(action.EntityType)).
		Str("entity_id", entityID).
		Bool("bulk", bulk).
		Msg("Invoking model for action execution")

	modelID := req.ModelOverride
	if modelID == "" {
		modelID = action.ModelID
	}
	result, err := s.invoker.Generate(ctx, llm.GenerateRequest{
		Prompt:      composed,
		ModelID:     modelID,
		Temperature: req.Temperature,
	})
	if err != nil {
		exec.Status = models.StatusFailed
		exec.ErrorMessage = err.Error()
		if uerr := s.executions.Update(ctx, exec); uerr != nil {
			log.Error().Err(uerr).Str("execution_id", exec.ID).Msg("Failed to persist failed execution")
		}
		return exec, models.NewModelInvocationError(err)
	}

	exec.Output = result.Text
	exec.RawOutput = result.RawResponse

	if action.OperationType != models.OperationReadOnly && len(action.FieldMappings) > 0 {
		exec.ProposedChanges = s.stageChanges(ctx, action, entityID, bulk, result.Text)
	}

	if !bulk {
		activityID, err := s.activities.Record(ctx,
			string(action.EntityType), entityID,
			action.Name,
			activityBody(action, exec),
		)
		if err != nil {
			log.Warn().Err(err).Str("execution_id", exec.ID).Msg("Failed to record execution activity")
		} else {
			exec.ActivityID = &activityID
		}
	}

	exec.Status = models.StatusSuccess
	if err := s.executions.Update(ctx, exec); err != nil {
		return nil, err
	}
	return exec, nil
}

func (s *Service) resolveCollections(ctx context.Context, action *models.Action, entityID string, bulk bool) ([]*registry.ResolvedCollection, error) {
	var resolved []*registry.ResolvedCollection
	for _, use := range action.CollectionUses {
		if err := s.registry.EnsureCollectionSupported(action.EntityType, use.Key); err != nil {
			return nil, err
		}
		reqID := entityID
		if bulk {
			reqID = ""
		}
		coll, err := s.registry.ResolveCollection(ctx, registry.CollectionRequest{
			EntityType: action.EntityType,
			EntityID:   reqID,
			Key:        use.Key,
			Limit:      use.Limit,
			Format:     use.Format,
			Filters:    use.Filters,
		})
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, coll)
	}
	return resolved, nil
}

// stageChanges parses the model answer and maps it into a proposal. A
// miss at any stage yields no proposal, which counts as a successful
// no-op read rather than an error.
func (s *Service) stageChanges(ctx context.Context, action *models.Action, entityID string, bulk bool, text string) *models.ProposedChanges {
	parsed := llm.ParseStructured(text)
	if parsed == nil {
		log.Debug().
			Int64("action_id", action.ID).
			Msg("No structured object found in model answer, skipping change staging")
		return nil
	}

	current := map[string]any{}
	if action.OperationType == models.OperationUpdate && !bulk {
		targets := make([]string, 0, len(action.FieldMappings))
		for _, m := range action.FieldMappings {
			targets = append(targets, m.TargetField)
		}
		values, err := s.entities.CurrentValues(ctx, action.EntityType, entityID, targets)
		if err != nil {
			log.Warn().Err(err).
				Str("entity_id", entityID).
				Msg("Failed to load current values, diffing against empty state")
		} else {
			current = values
		}
	}

	proposalEntityID := entityID
	if bulk {
		proposalEntityID = ""
	}
	return changes.BuildProposedChanges(changes.MapInput{
		Mappings:      action.FieldMappings,
		Parsed:        parsed,
		Operation:     action.OperationType,
		EntityType:    action.EntityType,
		EntityID:      proposalEntityID,
		CurrentValues: current,
	})
}

// snapshotInputs freezes the resolved context that went into the prompt
// so the execution stays auditable after the entity changes.
func snapshotInputs(fields map[string]any, collections []*registry.ResolvedCollection) map[string]any {
	inputs := map[string]any{"fields": fields}
	if len(collections) > 0 {
		colls := make([]map[string]any, 0, len(collections))
		for _, coll := range collections {
			colls = append(colls, map[string]any{
				"key":       coll.Key,
				"row_count": len(coll.Rows),
				"rows":      coll.Rows,
			})
		}
		inputs["collections"] = colls
	}
	return inputs
}

func activityBody(action *models.Action, exec *models.Execution) string {
	body := fmt.Sprintf("AI action %q completed.", action.Name)
	if exec.ProposedChanges != nil {
		body += fmt.Sprintf(" %d field change(s) proposed.", len(exec.ProposedChanges.Fields))
	}
	return body
}
