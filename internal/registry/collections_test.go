package registry

import (
	"context"
	"testing"
	"time"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// stubSource implements Source with canned rows and records how the
// invoice queries were called.
type stubSource struct {
	invoices     []InvoiceRow
	bulkInvoices []InvoiceRow

	lastEntityID string
	lastLimit    int
	lastFilters  FilterValues
	bulkCalled   bool
}

func (s *stubSource) CandidateApplications(ctx context.Context, candidateID string, limit int, filters FilterValues) ([]ApplicationRow, error) {
	return nil, nil
}

func (s *stubSource) CandidateNotes(ctx context.Context, candidateID string, limit int, filters FilterValues) ([]NoteRow, error) {
	return nil, nil
}

func (s *stubSource) EmployeeReviews(ctx context.Context, employeeID string, limit int, filters FilterValues) ([]ReviewRow, error) {
	return nil, nil
}

func (s *stubSource) EmployeeTimeOff(ctx context.Context, employeeID string, limit int, filters FilterValues) ([]TimeOffRow, error) {
	return nil, nil
}

func (s *stubSource) CustomerInvoices(ctx context.Context, customerID string, limit int, filters FilterValues) ([]InvoiceRow, error) {
	s.lastEntityID = customerID
	s.lastLimit = limit
	s.lastFilters = filters
	return s.invoices, nil
}

func (s *stubSource) CustomerInvoicesBulk(ctx context.Context, limit int, filters FilterValues) ([]InvoiceRow, error) {
	s.bulkCalled = true
	s.lastLimit = limit
	s.lastFilters = filters
	return s.bulkInvoices, nil
}

func (s *stubSource) CustomerTickets(ctx context.Context, customerID string, limit int, filters FilterValues) ([]TicketRow, error) {
	return nil, nil
}

func (s *stubSource) EntityActivities(ctx context.Context, entityType models.EntityType, entityID string, limit int, filters FilterValues) ([]ActivityRow, error) {
	return nil, nil
}

func (s *stubSource) EntityActivitiesBulk(ctx context.Context, entityType models.EntityType, limit int, filters FilterValues) ([]ActivityRow, error) {
	return nil, nil
}

func (s *stubSource) TaskComments(ctx context.Context, taskID string, limit int, filters FilterValues) ([]CommentRow, error) {
	return nil, nil
}

func (s *stubSource) QuoteLineItems(ctx context.Context, quoteID string, limit int, filters FilterValues) ([]LineItemRow, error) {
	return nil, nil
}

func (s *stubSource) OpportunityLineItems(ctx context.Context, opportunityID string, limit int, filters FilterValues) ([]LineItemRow, error) {
	return nil, nil
}

func (s *stubSource) OpportunityStageHistory(ctx context.Context, opportunityID string, limit int, filters FilterValues) ([]StageChangeRow, error) {
	return nil, nil
}

func TestEnsureCollectionSupported(t *testing.T) {
	r := New(&fakeLoader{}, &stubSource{})

	if err := r.EnsureCollectionSupported(models.EntityCustomer, "openInvoices"); err != nil {
		t.Fatalf("expected known collection to pass, got %v", err)
	}
	err := r.EnsureCollectionSupported(models.EntityCustomer, "timeMachines")
	if err == nil || !models.IsValidation(err) {
		t.Fatalf("expected validation error for unknown collection, got %v", err)
	}
}

func TestResolveCollection_ProjectionAndDefaults(t *testing.T) {
	due := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	src := &stubSource{invoices: []InvoiceRow{
		{Number: "INV-1", Status: "overdue", Total: 1200.50, Currency: "EUR", DueDate: due},
	}}
	r := New(&fakeLoader{}, src)

	coll, err := r.ResolveCollection(context.Background(), CollectionRequest{
		EntityType: models.EntityCustomer,
		EntityID:   "cust-1",
		Key:        "openInvoices",
		FieldKeys:  []string{"number", "dueDate"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.lastEntityID != "cust-1" {
		t.Fatalf("expected entity id passed through, got %q", src.lastEntityID)
	}
	if src.lastLimit != 10 {
		t.Fatalf("expected default limit 10, got %d", src.lastLimit)
	}
	if coll.Format != models.FormatTable {
		t.Fatalf("expected default table format, got %s", coll.Format)
	}
	if len(coll.Fields) != 2 {
		t.Fatalf("expected projection to two fields, got %d", len(coll.Fields))
	}
	if len(coll.Rows) != 1 {
		t.Fatalf("expected one row, got %d", len(coll.Rows))
	}
	row := coll.Rows[0]
	if row["number"] != "INV-1" {
		t.Fatalf("expected projected number, got %v", row["number"])
	}
	if row["dueDate"] != "2026-03-15" {
		t.Fatalf("expected formatted due date, got %v", row["dueDate"])
	}
	if _, present := row["total"]; present {
		t.Fatal("expected unrequested field to be absent from projection")
	}
}

func TestResolveCollection_OverridesAndFilters(t *testing.T) {
	src := &stubSource{}
	r := New(&fakeLoader{}, src)

	coll, err := r.ResolveCollection(context.Background(), CollectionRequest{
		EntityType: models.EntityCustomer,
		EntityID:   "cust-1",
		Key:        "openInvoices",
		Limit:      3,
		Format:     models.FormatBulletList,
		Filters: map[string]string{
			"status":  "OVERDUE",
			"dueDate": "2026-01-01..2026-06-30",
			"bogus":   "ignored",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.lastLimit != 3 {
		t.Fatalf("expected limit override, got %d", src.lastLimit)
	}
	if coll.Format != models.FormatBulletList {
		t.Fatalf("expected format override, got %s", coll.Format)
	}
	status, ok := src.lastFilters["status"]
	if !ok || status.Enum != "overdue" {
		t.Fatalf("expected enum filter canonicalized to %q, got %+v", "overdue", status)
	}
	rangeFilter, ok := src.lastFilters["dueDate"]
	if !ok {
		t.Fatal("expected date range filter parsed")
	}
	if rangeFilter.From.Format("2006-01-02") != "2026-01-01" || rangeFilter.To.Format("2006-01-02") != "2026-06-30" {
		t.Fatalf("unexpected range bounds %v..%v", rangeFilter.From, rangeFilter.To)
	}
	if src.lastFilters.Has("bogus") {
		t.Fatal("expected undeclared filter key to be ignored")
	}
}

func TestResolveCollection_BulkMode(t *testing.T) {
	src := &stubSource{bulkInvoices: []InvoiceRow{
		{Number: "INV-7", Status: "sent", Total: 300, Currency: "USD"},
	}}
	r := New(&fakeLoader{}, src)

	coll, err := r.ResolveCollection(context.Background(), CollectionRequest{
		EntityType: models.EntityCustomer,
		Key:        "openInvoices",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !src.bulkCalled {
		t.Fatal("expected bulk resolver for empty entity id")
	}
	if len(coll.Rows) != 1 || coll.Rows[0]["number"] != "INV-7" {
		t.Fatalf("unexpected bulk rows %v", coll.Rows)
	}
}

func TestResolveCollection_NoBulkResolverYieldsEmpty(t *testing.T) {
	r := New(&fakeLoader{}, &stubSource{})

	// supportTickets has no aggregate resolver.
	coll, err := r.ResolveCollection(context.Background(), CollectionRequest{
		EntityType: models.EntityCustomer,
		Key:        "supportTickets",
	})
	if err != nil {
		t.Fatalf("expected empty rows instead of error, got %v", err)
	}
	if len(coll.Rows) != 0 {
		t.Fatalf("expected empty row set, got %d rows", len(coll.Rows))
	}
}
