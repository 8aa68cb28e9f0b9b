// Package registry holds the per-entity-type tables that drive the AI
// action pipeline: prompt field descriptors, related-row collection
// descriptors, filter definitions and the writable-field allowlists used
// when applying changes back. Every entity type contributes one table of
// each kind; all polymorphism over entity kinds goes through these lookup
// tables rather than scattered type switches.
package registry

import (
	"context"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// Snapshot is a read-only projection of one business record, fetched for
// templating and diffing. Each entity type has its own typed snapshot
// struct; selectors downcast through the field helper below.
type Snapshot interface {
	SnapshotEntityType() models.EntityType
}

// FieldDescriptor describes one promptable field: a stable key, a human
// label and a pure selector over a snapshot (or collection row). Selectors
// never mutate and never touch storage.
type FieldDescriptor struct {
	Key         string          `json:"key"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Select      func(v any) any `json:"-"`
}

// field builds a FieldDescriptor whose selector only fires for values of
// the expected concrete type. A mismatched value yields nil instead of a
// panic, which keeps registry resolution total.
func field[T any](key, label, description string, sel func(T) any) FieldDescriptor {
	return FieldDescriptor{
		Key:         key,
		Label:       label,
		Description: description,
		Select: func(v any) any {
			typed, ok := v.(T)
			if !ok {
				return nil
			}
			return sel(typed)
		},
	}
}

// CollectionDescriptor describes one related-row collection attachable as
// prompt context: row fields, supported filters, default rendering, and
// resolver functions. ResolveBulk is nil for collections that cannot run
// in aggregate mode.
type CollectionDescriptor struct {
	Key           string
	Label         string
	Description   string
	DefaultLimit  int
	DefaultFormat models.CollectionFormat
	Fields        []FieldDescriptor
	Filters       []FilterDescriptor
	Resolve       func(ctx context.Context, src Source, entityID string, limit int, filters FilterValues) ([]any, error)
	ResolveBulk   func(ctx context.Context, src Source, limit int, filters FilterValues) ([]any, error)
}

// SnapshotLoader fetches read-only entity snapshots. Implemented by the
// entity store; faked in tests.
type SnapshotLoader interface {
	// FindSnapshot returns the snapshot for the given record or a
	// NotFoundError when the record is absent.
	FindSnapshot(ctx context.Context, entityType models.EntityType, id string) (Snapshot, error)
}

// Source provides the row queries behind collection resolvers. Implemented
// by the entity store; faked in tests. Methods appear here as collections
// need them.
type Source interface {
	CandidateApplications(ctx context.Context, candidateID string, limit int, filters FilterValues) ([]ApplicationRow, error)
	CandidateNotes(ctx context.Context, candidateID string, limit int, filters FilterValues) ([]NoteRow, error)
	EmployeeReviews(ctx context.Context, employeeID string, limit int, filters FilterValues) ([]ReviewRow, error)
	EmployeeTimeOff(ctx context.Context, employeeID string, limit int, filters FilterValues) ([]TimeOffRow, error)
	CustomerInvoices(ctx context.Context, customerID string, limit int, filters FilterValues) ([]InvoiceRow, error)
	CustomerInvoicesBulk(ctx context.Context, limit int, filters FilterValues) ([]InvoiceRow, error)
	CustomerTickets(ctx context.Context, customerID string, limit int, filters FilterValues) ([]TicketRow, error)
	EntityActivities(ctx context.Context, entityType models.EntityType, entityID string, limit int, filters FilterValues) ([]ActivityRow, error)
	EntityActivitiesBulk(ctx context.Context, entityType models.EntityType, limit int, filters FilterValues) ([]ActivityRow, error)
	TaskComments(ctx context.Context, taskID string, limit int, filters FilterValues) ([]CommentRow, error)
	QuoteLineItems(ctx context.Context, quoteID string, limit int, filters FilterValues) ([]LineItemRow, error)
	OpportunityLineItems(ctx context.Context, opportunityID string, limit int, filters FilterValues) ([]LineItemRow, error)
	OpportunityStageHistory(ctx context.Context, opportunityID string, limit int, filters FilterValues) ([]StageChangeRow, error)
}

// entityDescriptor bundles everything the pipeline knows about one entity
// type. The table below is the single dispatch point for all per-type
// behavior.
type entityDescriptor struct {
	fields      []FieldDescriptor
	collections []CollectionDescriptor
	writable    map[string]CoerceKind
}

// entityTable maps each supported entity type to its descriptor tables.
var entityTable = map[models.EntityType]entityDescriptor{
	models.EntityCandidate:   candidateDescriptor(),
	models.EntityEmployee:    employeeDescriptor(),
	models.EntityCustomer:    customerDescriptor(),
	models.EntityContact:     contactDescriptor(),
	models.EntityLead:        leadDescriptor(),
	models.EntityTask:        taskDescriptor(),
	models.EntityQuote:       quoteDescriptor(),
	models.EntityOpportunity: opportunityDescriptor(),
}

// Registry answers field and collection questions for every entity type
// and resolves them against live data through its loader and source.
type Registry struct {
	loader SnapshotLoader
	source Source
}

// New builds a registry over the given snapshot loader and row source.
func New(loader SnapshotLoader, source Source) *Registry {
	return &Registry{loader: loader, source: source}
}

func descriptorFor(entityType models.EntityType) (entityDescriptor, error) {
	desc, ok := entityTable[entityType]
	if !ok {
		return entityDescriptor{}, models.NewValidationError("unsupported entity type: %s", entityType)
	}
	return desc, nil
}
