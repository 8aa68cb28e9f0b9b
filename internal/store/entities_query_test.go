package store

import (
	"testing"
	"time"

	"github.com/divisionAI-co/d5-management-system-sub002/internal/registry"
)

func TestFinishQuery_PlaceholderNumbering(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	filters := registry.FilterValues{
		"status":  {Enum: "overdue"},
		"dueDate": {From: from, To: to},
	}

	args := []any{"cust-1"}
	conds := invoiceConds(filters, &args)
	query, args := finishQuery(
		`SELECT number FROM invoices WHERE customer_id = $1`,
		conds, args, "due_date ASC", 10)

	want := `SELECT number FROM invoices WHERE customer_id = $1` +
		` AND status = $2 AND due_date >= $3 AND due_date <= $4` +
		` ORDER BY due_date ASC LIMIT $5`
	if query != want {
		t.Fatalf("expected query %q, got %q", want, query)
	}

	if len(args) != 5 {
		t.Fatalf("expected 5 args, got %d: %v", len(args), args)
	}
	if args[0] != "cust-1" || args[1] != "overdue" {
		t.Fatalf("unexpected leading args %v", args[:2])
	}
	if args[2] != from || args[3] != to {
		t.Fatalf("unexpected range args %v", args[2:4])
	}
	if args[4] != 10 {
		t.Fatalf("expected limit as final arg, got %v", args[4])
	}
}

func TestFinishQuery_NoConditions(t *testing.T) {
	var args []any
	conds := invoiceConds(registry.FilterValues{}, &args)
	query, args := finishQuery(
		`SELECT number FROM invoices WHERE TRUE`,
		conds, args, "due_date ASC", 25)

	want := `SELECT number FROM invoices WHERE TRUE ORDER BY due_date ASC LIMIT $1`
	if query != want {
		t.Fatalf("expected query %q, got %q", want, query)
	}
	if len(args) != 1 || args[0] != 25 {
		t.Fatalf("expected only the limit arg, got %v", args)
	}
}

func TestActivityConds_Numbering(t *testing.T) {
	args := []any{"task", "task-1"}
	conds := activityConds(registry.FilterValues{
		"kind": {Enum: "call"},
	}, &args)

	if len(conds) != 1 || conds[0] != "kind = $3" {
		t.Fatalf("expected placeholder after the two seed args, got %v", conds)
	}
	if len(args) != 3 || args[2] != "call" {
		t.Fatalf("unexpected args %v", args)
	}
}
