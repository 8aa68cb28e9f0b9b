package models

import (
	"time"
)

// EntityType identifies which business record kind an action or execution
// targets. The set is closed: registries, stores and sanitizers all key off
// this tag, so adding a type means adding a row to each of those tables.
type EntityType string

const (
	EntityCandidate   EntityType = "candidate"
	EntityEmployee    EntityType = "employee"
	EntityCustomer    EntityType = "customer"
	EntityContact     EntityType = "contact"
	EntityLead        EntityType = "lead"
	EntityTask        EntityType = "task"
	EntityQuote       EntityType = "quote"
	EntityOpportunity EntityType = "opportunity"
)

// AllEntityTypes lists every supported entity type in a stable order.
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityCandidate,
		EntityEmployee,
		EntityCustomer,
		EntityContact,
		EntityLead,
		EntityTask,
		EntityQuote,
		EntityOpportunity,
	}
}

// Valid reports whether the tag is one of the supported entity types.
func (e EntityType) Valid() bool {
	for _, t := range AllEntityTypes() {
		if t == e {
			return true
		}
	}
	return false
}

// OperationType describes what an action does with the model's answer.
type OperationType string

const (
	// OperationReadOnly actions produce prose only; no write-back happens.
	OperationReadOnly OperationType = "read_only"
	// OperationUpdate actions map the answer into field changes on the
	// target entity.
	OperationUpdate OperationType = "update"
	// OperationCreate actions map the answer into a brand-new entity.
	OperationCreate OperationType = "create"
)

// CollectionFormat selects how a related-row collection is rendered into
// the prompt.
type CollectionFormat string

const (
	FormatTable      CollectionFormat = "table"
	FormatBulletList CollectionFormat = "bullet_list"
	FormatPlainText  CollectionFormat = "plain_text"
)

// ExecutionStatus is the lifecycle state of an execution. Executions start
// pending and transition exactly once to success or failed.
type ExecutionStatus string

const (
	StatusPending ExecutionStatus = "pending"
	StatusSuccess ExecutionStatus = "success"
	StatusFailed  ExecutionStatus = "failed"
)

// BulkEntityID is the sentinel stored in place of a concrete entity id for
// executions that run in aggregate mode (not bound to one record).
const BulkEntityID = "ALL"

// CollectionUse configures one collection reference inside an action:
// which collection, how many rows, which rendering and which filters.
type CollectionUse struct {
	Key     string            `json:"key"`
	Limit   int               `json:"limit,omitempty"`
	Format  CollectionFormat  `json:"format,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
}

// FieldMapping declares how one key of the model's structured answer maps
// onto a writable field of the target entity. SourceKey supports dot-path
// traversal into the parsed object. TransformRule currently supports only
// the literal-substitution form "json:<literal>".
type FieldMapping struct {
	SourceKey     string `json:"source_key"`
	TargetField   string `json:"target_field"`
	TransformRule string `json:"transform_rule,omitempty"`
}

// Action is a reusable, operator-authored prompt template bound to an
// entity type. System actions are immutable and undeletable.
type Action struct {
	ID             int64           `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	PromptTemplate string          `json:"prompt_template" db:"prompt_template"`
	EntityType     EntityType      `json:"entity_type" db:"entity_type"`
	ModelID        string          `json:"model_id,omitempty" db:"model_id"`
	OperationType  OperationType   `json:"operation_type" db:"operation_type"`
	FieldKeys      []string        `json:"field_keys"`
	CollectionUses []CollectionUse `json:"collection_uses"`
	FieldMappings  []FieldMapping  `json:"field_mappings"`
	IsActive       bool            `json:"is_active" db:"is_active"`
	IsSystem       bool            `json:"is_system" db:"is_system"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// FieldChange is one staged field-level change inside a proposal.
type FieldChange struct {
	OldValue  any    `json:"old_value"`
	NewValue  any    `json:"new_value"`
	SourceKey string `json:"source_key"`
}

// ProposedChanges is the unapplied diff computed from a successful
// execution, awaiting explicit approval. For update operations only fields
// whose normalized old/new values differ are present.
type ProposedChanges struct {
	Operation  OperationType          `json:"operation"`
	EntityType EntityType             `json:"entity_type"`
	EntityID   string                 `json:"entity_id,omitempty"`
	Fields     map[string]FieldChange `json:"fields"`
}

// Execution is one run of an action through the pipeline. Inputs snapshots
// the resolved fields and collection context that went into the prompt so
// history stays auditable even when the underlying entity changes later.
type Execution struct {
	ID              string                 `json:"id" db:"id"`
	ActionID        *int64                 `json:"action_id,omitempty" db:"action_id"`
	EntityType      EntityType             `json:"entity_type" db:"entity_type"`
	EntityID        string                 `json:"entity_id" db:"entity_id"`
	Prompt          string                 `json:"prompt" db:"prompt"`
	Inputs          map[string]any         `json:"inputs"`
	Status          ExecutionStatus        `json:"status" db:"status"`
	Output          string                 `json:"output,omitempty" db:"output"`
	RawOutput       string                 `json:"raw_output,omitempty" db:"raw_output"`
	ProposedChanges *ProposedChanges       `json:"proposed_changes,omitempty"`
	AppliedChanges  map[string]FieldChange `json:"applied_changes,omitempty"`
	AppliedAt       *time.Time             `json:"applied_at,omitempty" db:"applied_at"`
	ErrorMessage    string                 `json:"error_message,omitempty" db:"error_message"`
	ActivityID      *int64                 `json:"activity_id,omitempty" db:"activity_id"`
	TriggeredByID   int64                  `json:"triggered_by_id" db:"triggered_by_id"`
	CreatedAt       time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at" db:"updated_at"`
}

// IsBulk reports whether the execution ran in aggregate mode.
func (e *Execution) IsBulk() bool {
	return e.EntityID == BulkEntityID
}

// IsTerminal reports whether the status can no longer change.
func (s ExecutionStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}
