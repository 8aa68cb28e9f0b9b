package registry

import "time"

// Row types returned by collection resolvers. They are plain read-only
// projections; the store fills them from SQL and the collection field
// descriptors select from them.

// ApplicationRow is one job application of a candidate.
type ApplicationRow struct {
	JobTitle  string
	Stage     string
	Source    string
	AppliedAt time.Time
}

// NoteRow is one free-text note left on a record.
type NoteRow struct {
	Author    string
	Body      string
	CreatedAt time.Time
}

// ReviewRow is one performance review of an employee.
type ReviewRow struct {
	Period   string
	Rating   int
	Reviewer string
	Summary  string
}

// TimeOffRow is one time-off request of an employee.
type TimeOffRow struct {
	Kind      string
	Status    string
	StartDate time.Time
	EndDate   time.Time
}

// InvoiceRow is one invoice of a customer.
type InvoiceRow struct {
	Number   string
	Status   string
	Total    float64
	Currency string
	DueDate  time.Time
}

// TicketRow is one support ticket of a customer.
type TicketRow struct {
	Subject  string
	Status   string
	Priority string
	OpenedAt time.Time
	ClosedAt *time.Time
}

// ActivityRow is one logged activity (call, email, meeting, note) against
// a record.
type ActivityRow struct {
	Kind       string
	Subject    string
	Body       string
	OccurredAt time.Time
}

// CommentRow is one comment on a task.
type CommentRow struct {
	Author    string
	Body      string
	CreatedAt time.Time
}

// LineItemRow is one product line of a quote or opportunity.
type LineItemRow struct {
	Product   string
	Quantity  float64
	UnitPrice float64
	Total     float64
}

// StageChangeRow is one pipeline stage transition of an opportunity.
type StageChangeRow struct {
	FromStage string
	ToStage   string
	ChangedBy string
	ChangedAt time.Time
}

// fmtDate renders a timestamp as a prompt-friendly date, or nil for the
// zero time so missing dates interpolate as empty.
func fmtDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format("2006-01-02")
}

// fmtDatePtr is fmtDate over optional timestamps.
func fmtDatePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtDate(*t)
}
