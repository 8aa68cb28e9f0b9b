package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

func seedExecution(h *harness, exec *models.Execution) *models.Execution {
	h.execs.execs[exec.ID] = exec
	return exec
}

func successfulUpdateExecution() *models.Execution {
	return &models.Execution{
		ID:         "exec-1",
		EntityType: models.EntityCandidate,
		EntityID:   "cand-1",
		Status:     models.StatusSuccess,
		ProposedChanges: &models.ProposedChanges{
			Operation:  models.OperationUpdate,
			EntityType: models.EntityCandidate,
			EntityID:   "cand-1",
			Fields: map[string]models.FieldChange{
				"headline": {OldValue: "Engineer", NewValue: "Staff Engineer", SourceKey: "headline"},
			},
		},
	}
}

func TestApplyChanges_Update(t *testing.T) {
	h := newHarness(nil)
	seedExecution(h, successfulUpdateExecution())

	applied, err := h.service.ApplyChanges(context.Background(), "exec-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(h.entities.updates) != 1 {
		t.Fatalf("expected one entity write, got %d", len(h.entities.updates))
	}
	if h.entities.lastEntity != "cand-1" {
		t.Fatalf("expected update against cand-1, got %q", h.entities.lastEntity)
	}
	if h.entities.updates[0]["headline"] != "Staff Engineer" {
		t.Fatalf("unexpected written value %v", h.entities.updates[0]["headline"])
	}
	if applied.AppliedAt == nil {
		t.Fatal("expected applied timestamp set")
	}
	if applied.AppliedChanges["headline"].NewValue != "Staff Engineer" {
		t.Fatalf("expected applied changes recorded, got %v", applied.AppliedChanges)
	}
}

func TestApplyChanges_Create(t *testing.T) {
	h := newHarness(nil)
	seedExecution(h, &models.Execution{
		ID:         "exec-2",
		EntityType: models.EntityCandidate,
		EntityID:   models.BulkEntityID,
		Status:     models.StatusSuccess,
		ProposedChanges: &models.ProposedChanges{
			Operation:  models.OperationCreate,
			EntityType: models.EntityCandidate,
			Fields: map[string]models.FieldChange{
				"headline": {NewValue: "New hire"},
			},
		},
	})

	applied, err := h.service.ApplyChanges(context.Background(), "exec-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.entities.lastCreated == nil {
		t.Fatal("expected entity created")
	}
	if applied.EntityID != "created-1" {
		t.Fatalf("expected execution rebound to new record id, got %q", applied.EntityID)
	}
}

func TestApplyChanges_AlreadyApplied(t *testing.T) {
	h := newHarness(nil)
	exec := successfulUpdateExecution()
	now := time.Now()
	exec.AppliedAt = &now
	seedExecution(h, exec)

	_, err := h.service.ApplyChanges(context.Background(), "exec-1")
	if err == nil || !models.IsConflict(err) {
		t.Fatalf("expected conflict for second apply, got %v", err)
	}
	if len(h.entities.updates) != 0 {
		t.Fatal("expected no entity write on repeat apply")
	}
}

func TestApplyChanges_WrongStatus(t *testing.T) {
	h := newHarness(nil)
	exec := successfulUpdateExecution()
	exec.Status = models.StatusFailed
	seedExecution(h, exec)

	_, err := h.service.ApplyChanges(context.Background(), "exec-1")
	if err == nil || !models.IsConflict(err) {
		t.Fatalf("expected conflict for failed execution, got %v", err)
	}
}

func TestApplyChanges_NoProposal(t *testing.T) {
	h := newHarness(nil)
	exec := successfulUpdateExecution()
	exec.ProposedChanges = nil
	seedExecution(h, exec)

	_, err := h.service.ApplyChanges(context.Background(), "exec-1")
	if err == nil || !models.IsConflict(err) {
		t.Fatalf("expected conflict without proposal, got %v", err)
	}
}

func TestApplyChanges_BulkUpdateRejected(t *testing.T) {
	h := newHarness(nil)
	exec := successfulUpdateExecution()
	exec.EntityID = models.BulkEntityID
	exec.ProposedChanges.EntityID = ""
	seedExecution(h, exec)

	_, err := h.service.ApplyChanges(context.Background(), "exec-1")
	if err == nil || !models.IsValidation(err) {
		t.Fatalf("expected validation error for bulk update apply, got %v", err)
	}
}

func TestApplyChanges_ClaimRace(t *testing.T) {
	h := newHarness(nil)
	seedExecution(h, successfulUpdateExecution())
	h.execs.claimed["exec-1"] = true

	_, err := h.service.ApplyChanges(context.Background(), "exec-1")
	if err == nil || !models.IsConflict(err) {
		t.Fatalf("expected conflict when claim is lost, got %v", err)
	}
	if len(h.entities.updates) != 0 {
		t.Fatal("expected no entity write after losing the claim")
	}
}

func TestApplyChanges_EntityWriteFailureReleasesClaim(t *testing.T) {
	h := newHarness(nil)
	seedExecution(h, successfulUpdateExecution())
	h.entities.updateErr = errors.New("deadlock detected")

	_, err := h.service.ApplyChanges(context.Background(), "exec-1")
	if err == nil || !models.IsApply(err) {
		t.Fatalf("expected apply error, got %v", err)
	}
	if h.execs.released != 1 {
		t.Fatalf("expected claim released once, got %d", h.execs.released)
	}

	// The release makes a retry possible once the store recovers.
	h.entities.updateErr = nil
	applied, err := h.service.ApplyChanges(context.Background(), "exec-1")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if applied.AppliedAt == nil {
		t.Fatal("expected retry to stamp applied timestamp")
	}
}

func TestApplyChanges_SanitizedToNothing(t *testing.T) {
	h := newHarness(nil)
	exec := successfulUpdateExecution()
	exec.ProposedChanges.Fields = map[string]models.FieldChange{
		"not_a_writable_column": {NewValue: "x"},
	}
	seedExecution(h, exec)

	_, err := h.service.ApplyChanges(context.Background(), "exec-1")
	if err == nil || !models.IsValidation(err) {
		t.Fatalf("expected validation error for fully dropped payload, got %v", err)
	}
	if h.execs.claimed["exec-1"] {
		t.Fatal("expected no claim taken for unappliable proposal")
	}
}

func TestApplyChanges_PartiallySanitizedPayload(t *testing.T) {
	h := newHarness(nil)
	exec := successfulUpdateExecution()
	exec.ProposedChanges.Fields = map[string]models.FieldChange{
		"headline":    {NewValue: "Staff Engineer"},
		"secret_flag": {NewValue: true},
	}
	seedExecution(h, exec)

	applied, err := h.service.ApplyChanges(context.Background(), "exec-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.entities.updates[0]) != 1 {
		t.Fatalf("expected only the allowlisted field written, got %v", h.entities.updates[0])
	}
	if _, ok := applied.AppliedChanges["secret_flag"]; ok {
		t.Fatal("expected dropped field absent from applied changes")
	}
}
