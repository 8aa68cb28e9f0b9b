package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassifiers(t *testing.T) {
	if !IsValidation(NewValidationError("bad %s", "input")) {
		t.Fatal("expected validation classifier to match")
	}
	if !IsNotFound(NewNotFoundError("missing")) {
		t.Fatal("expected not-found classifier to match")
	}
	if !IsConflict(NewConflictError("conflict")) {
		t.Fatal("expected conflict classifier to match")
	}
	if !IsModelInvocation(NewModelInvocationError(errors.New("quota"))) {
		t.Fatal("expected model invocation classifier to match")
	}
	if !IsApply(NewApplyError(errors.New("deadlock"))) {
		t.Fatal("expected apply classifier to match")
	}

	if IsValidation(NewNotFoundError("missing")) {
		t.Fatal("expected classifiers to not cross-match")
	}
}

func TestErrorClassifiersThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading action: %w", NewNotFoundError("action 7 not found"))
	if !IsNotFound(wrapped) {
		t.Fatal("expected classifier to see through fmt.Errorf wrapping")
	}

	inner := errors.New("connection reset")
	wrapped = NewModelInvocationError(inner)
	if !errors.Is(wrapped, inner) {
		t.Fatal("expected Unwrap to expose the cause")
	}
}

func TestExecutionIsBulk(t *testing.T) {
	exec := &Execution{EntityID: BulkEntityID}
	if !exec.IsBulk() {
		t.Fatal("expected sentinel id to mean bulk")
	}
	exec.EntityID = "cand-1"
	if exec.IsBulk() {
		t.Fatal("expected concrete id to not be bulk")
	}
}

func TestEntityTypeValid(t *testing.T) {
	for _, et := range AllEntityTypes() {
		if !et.Valid() {
			t.Fatalf("expected %s to be valid", et)
		}
	}
	if EntityType("spaceship").Valid() {
		t.Fatal("expected unknown type to be invalid")
	}
}

func TestStatusIsTerminal(t *testing.T) {
	if StatusPending.IsTerminal() {
		t.Fatal("expected pending to be non-terminal")
	}
	if !StatusSuccess.IsTerminal() || !StatusFailed.IsTerminal() {
		t.Fatal("expected success and failed to be terminal")
	}
}
