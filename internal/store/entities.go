package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/divisionAI-co/d5-management-system-sub002/internal/registry"
	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// EntityStore reads and writes the business records themselves. It backs
// the registry's SnapshotLoader and Source interfaces and carries the
// write paths used when applying changes.
type EntityStore struct {
	db *sql.DB
}

// NewEntityStore creates an entity store over the given connection.
func NewEntityStore(db *sql.DB) *EntityStore {
	return &EntityStore{db: db}
}

// entityTableName maps entity types to their tables. Every writable-field
// key doubles as a column name in the matching table.
var entityTableName = map[models.EntityType]string{
	models.EntityCandidate:   "candidates",
	models.EntityEmployee:    "employees",
	models.EntityCustomer:    "customers",
	models.EntityContact:     "contacts",
	models.EntityLead:        "leads",
	models.EntityTask:        "tasks",
	models.EntityQuote:       "quotes",
	models.EntityOpportunity: "opportunities",
}

func tableFor(entityType models.EntityType) (string, error) {
	table, ok := entityTableName[entityType]
	if !ok {
		return "", models.NewValidationError("unsupported entity type: %s", entityType)
	}
	return table, nil
}

func wrapRowErr(err error, entityType models.EntityType, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewNotFoundError("%s %s not found", entityType, id)
	}
	return fmt.Errorf("failed to load %s %s: %w", entityType, id, err)
}

// FindSnapshot loads the read-only snapshot for one record, or a
// NotFoundError when the record is absent.
func (s *EntityStore) FindSnapshot(ctx context.Context, entityType models.EntityType, id string) (registry.Snapshot, error) {
	switch entityType {
	case models.EntityCandidate:
		return s.candidateSnapshot(ctx, id)
	case models.EntityEmployee:
		return s.employeeSnapshot(ctx, id)
	case models.EntityCustomer:
		return s.customerSnapshot(ctx, id)
	case models.EntityContact:
		return s.contactSnapshot(ctx, id)
	case models.EntityLead:
		return s.leadSnapshot(ctx, id)
	case models.EntityTask:
		return s.taskSnapshot(ctx, id)
	case models.EntityQuote:
		return s.quoteSnapshot(ctx, id)
	case models.EntityOpportunity:
		return s.opportunitySnapshot(ctx, id)
	}
	return nil, models.NewValidationError("unsupported entity type: %s", entityType)
}

func (s *EntityStore) candidateSnapshot(ctx context.Context, id string) (registry.Snapshot, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, headline, location,
		       current_company, current_title, skills, expected_salary,
		       stage, summary, created_at
		FROM candidates
		WHERE id = $1
	`
	var snap registry.CandidateSnapshot
	var skills pq.StringArray
	var salary sql.NullFloat64
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&snap.ID, &snap.FirstName, &snap.LastName, &snap.Email, &snap.Phone,
		&snap.Headline, &snap.Location, &snap.CurrentCompany, &snap.CurrentTitle,
		&skills, &salary, &snap.Stage, &snap.Summary, &snap.CreatedAt,
	)
	if err != nil {
		return nil, wrapRowErr(err, models.EntityCandidate, id)
	}
	snap.Skills = skills
	if salary.Valid {
		snap.ExpectedSalary = &salary.Float64
	}
	return snap, nil
}

func (s *EntityStore) employeeSnapshot(ctx context.Context, id string) (registry.Snapshot, error) {
	query := `
		SELECT id, first_name, last_name, email, department, job_title,
		       manager_name, hire_date, salary, location, status, goals
		FROM employees
		WHERE id = $1
	`
	var snap registry.EmployeeSnapshot
	var hireDate sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&snap.ID, &snap.FirstName, &snap.LastName, &snap.Email, &snap.Department,
		&snap.JobTitle, &snap.ManagerName, &hireDate, &snap.Salary,
		&snap.Location, &snap.Status, &snap.Goals,
	)
	if err != nil {
		return nil, wrapRowErr(err, models.EntityEmployee, id)
	}
	if hireDate.Valid {
		snap.HireDate = hireDate.Time
	}
	return snap, nil
}

func (s *EntityStore) customerSnapshot(ctx context.Context, id string) (registry.Snapshot, error) {
	query := `
		SELECT id, name, industry, website, account_owner, tier,
		       annual_revenue, support_plan, notes
		FROM customers
		WHERE id = $1
	`
	var snap registry.CustomerSnapshot
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&snap.ID, &snap.Name, &snap.Industry, &snap.Website, &snap.AccountOwner,
		&snap.Tier, &snap.AnnualRevenue, &snap.SupportPlan, &snap.Notes,
	)
	if err != nil {
		return nil, wrapRowErr(err, models.EntityCustomer, id)
	}
	return snap, nil
}

func (s *EntityStore) contactSnapshot(ctx context.Context, id string) (registry.Snapshot, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, job_title,
		       company_name, department, preferred_channel, notes
		FROM contacts
		WHERE id = $1
	`
	var snap registry.ContactSnapshot
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&snap.ID, &snap.FirstName, &snap.LastName, &snap.Email, &snap.Phone,
		&snap.JobTitle, &snap.CompanyName, &snap.Department,
		&snap.PreferredChannel, &snap.Notes,
	)
	if err != nil {
		return nil, wrapRowErr(err, models.EntityContact, id)
	}
	return snap, nil
}

func (s *EntityStore) leadSnapshot(ctx context.Context, id string) (registry.Snapshot, error) {
	query := `
		SELECT id, first_name, last_name, email, company, source, status,
		       score, estimated_value, notes
		FROM leads
		WHERE id = $1
	`
	var snap registry.LeadSnapshot
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&snap.ID, &snap.FirstName, &snap.LastName, &snap.Email, &snap.Company,
		&snap.Source, &snap.Status, &snap.Score, &snap.EstimatedValue, &snap.Notes,
	)
	if err != nil {
		return nil, wrapRowErr(err, models.EntityLead, id)
	}
	return snap, nil
}

func (s *EntityStore) taskSnapshot(ctx context.Context, id string) (registry.Snapshot, error) {
	query := `
		SELECT id, title, description, status, priority, assignee_name,
		       due_date, related_to
		FROM tasks
		WHERE id = $1
	`
	var snap registry.TaskSnapshot
	var due sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&snap.ID, &snap.Title, &snap.Description, &snap.Status, &snap.Priority,
		&snap.AssigneeName, &due, &snap.RelatedTo,
	)
	if err != nil {
		return nil, wrapRowErr(err, models.EntityTask, id)
	}
	if due.Valid {
		snap.DueDate = &due.Time
	}
	return snap, nil
}

func (s *EntityStore) quoteSnapshot(ctx context.Context, id string) (registry.Snapshot, error) {
	query := `
		SELECT id, number, customer_name, status, subtotal, tax, total,
		       currency, valid_until, terms
		FROM quotes
		WHERE id = $1
	`
	var snap registry.QuoteSnapshot
	var validUntil sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&snap.ID, &snap.Number, &snap.CustomerName, &snap.Status, &snap.Subtotal,
		&snap.Tax, &snap.Total, &snap.Currency, &validUntil, &snap.Terms,
	)
	if err != nil {
		return nil, wrapRowErr(err, models.EntityQuote, id)
	}
	if validUntil.Valid {
		snap.ValidUntil = validUntil.Time
	}
	return snap, nil
}

func (s *EntityStore) opportunitySnapshot(ctx context.Context, id string) (registry.Snapshot, error) {
	query := `
		SELECT id, name, account_name, stage, amount, probability,
		       close_date, owner_name, next_step, description
		FROM opportunities
		WHERE id = $1
	`
	var snap registry.OpportunitySnapshot
	var closeDate sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&snap.ID, &snap.Name, &snap.AccountName, &snap.Stage, &snap.Amount,
		&snap.Probability, &closeDate, &snap.OwnerName, &snap.NextStep,
		&snap.Description,
	)
	if err != nil {
		return nil, wrapRowErr(err, models.EntityOpportunity, id)
	}
	if closeDate.Valid {
		snap.CloseDate = closeDate.Time
	}
	return snap, nil
}

// CurrentValues loads the present values of the requested writable fields
// for diffing against a model proposal. Fields outside the writable
// allowlist are ignored; absent records surface as NotFoundError.
func (s *EntityStore) CurrentValues(ctx context.Context, entityType models.EntityType, id string, fields []string) (map[string]any, error) {
	table, err := tableFor(entityType)
	if err != nil {
		return nil, err
	}
	kinds, err := registry.WritableKinds(entityType)
	if err != nil {
		return nil, err
	}

	var cols []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if _, ok := kinds[f]; ok {
			cols = append(cols, f)
		}
	}
	if len(cols) == 0 {
		return map[string]any{}, nil
	}
	sort.Strings(cols)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", strings.Join(cols, ", "), table)

	holders := make([]any, len(cols))
	for i, col := range cols {
		switch kinds[col] {
		case registry.CoerceNumber, registry.CoerceCurrency:
			holders[i] = new(sql.NullFloat64)
		case registry.CoerceDate:
			holders[i] = new(sql.NullTime)
		case registry.CoerceBool:
			holders[i] = new(sql.NullBool)
		case registry.CoerceTags:
			holders[i] = new(pq.StringArray)
		default:
			holders[i] = new(sql.NullString)
		}
	}

	if err := s.db.QueryRowContext(ctx, query, id).Scan(holders...); err != nil {
		return nil, wrapRowErr(err, entityType, id)
	}

	values := make(map[string]any, len(cols))
	for i, col := range cols {
		switch h := holders[i].(type) {
		case *sql.NullFloat64:
			if h.Valid {
				values[col] = h.Float64
			} else {
				values[col] = nil
			}
		case *sql.NullTime:
			if h.Valid {
				values[col] = h.Time.Format("2006-01-02")
			} else {
				values[col] = nil
			}
		case *sql.NullBool:
			if h.Valid {
				values[col] = h.Bool
			} else {
				values[col] = nil
			}
		case *pq.StringArray:
			values[col] = []string(*h)
		case *sql.NullString:
			if h.Valid {
				values[col] = h.String
			} else {
				values[col] = nil
			}
		}
	}
	return values, nil
}

// UpdateEntity writes already-sanitized field values onto one record.
// Values must have passed registry.SanitizeUpdate; keys are column names.
func (s *EntityStore) UpdateEntity(ctx context.Context, entityType models.EntityType, id string, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	table, err := tableFor(entityType)
	if err != nil {
		return err
	}
	kinds, err := registry.WritableKinds(entityType)
	if err != nil {
		return err
	}

	cols := make([]string, 0, len(values))
	for col := range values {
		if _, ok := kinds[col]; !ok {
			return models.NewValidationError("field %s is not writable on %s", col, entityType)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, sqlValue(values[col]))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(sets, ", "), len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", entityType, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return models.NewNotFoundError("%s %s not found", entityType, id)
	}
	return nil
}

// CreateEntity inserts a new record from already-sanitized field values
// and returns its generated id.
func (s *EntityStore) CreateEntity(ctx context.Context, entityType models.EntityType, values map[string]any) (string, error) {
	table, err := tableFor(entityType)
	if err != nil {
		return "", err
	}
	kinds, err := registry.WritableKinds(entityType)
	if err != nil {
		return "", err
	}

	cols := make([]string, 0, len(values))
	for col := range values {
		if _, ok := kinds[col]; !ok {
			return "", models.NewValidationError("field %s is not writable on %s", col, entityType)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	id := uuid.NewString()
	names := append([]string{"id"}, cols...)
	placeholders := make([]string, len(names))
	args := make([]any, 0, len(names))
	args = append(args, id)
	placeholders[0] = "$1"
	for i, col := range cols {
		placeholders[i+1] = fmt.Sprintf("$%d", i+2)
		args = append(args, sqlValue(values[col]))
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(placeholders, ", "),
	)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", entityType, err)
	}
	return id, nil
}

// sqlValue adapts coerced Go values to driver values. Tag slices go
// through pq's array wrapper; everything else passes straight through.
func sqlValue(v any) any {
	if tags, ok := v.([]string); ok {
		return pq.Array(tags)
	}
	return v
}

// queryRows runs a row query and scans each row through scan.
func queryRows[T any](ctx context.Context, db *sql.DB, query string, args []any, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

// dateRange appends range conditions for a parsed date-range filter.
func dateRange(conds *[]string, args *[]any, column string, fv registry.FilterValue) {
	if !fv.From.IsZero() {
		*conds = append(*conds, fmt.Sprintf("%s >= $%d", column, len(*args)+1))
		*args = append(*args, fv.From)
	}
	if !fv.To.IsZero() {
		*conds = append(*conds, fmt.Sprintf("%s <= $%d", column, len(*args)+1))
		*args = append(*args, fv.To)
	}
}

func eq(conds *[]string, args *[]any, column, value string) {
	*conds = append(*conds, fmt.Sprintf("%s = $%d", column, len(*args)+1))
	*args = append(*args, value)
}

func finishQuery(base string, conds []string, args []any, orderBy string, limit int) (string, []any) {
	query := base
	if len(conds) > 0 {
		query += " AND " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT $%d", orderBy, len(args)+1)
	return query, append(args, limit)
}

func (s *EntityStore) CandidateApplications(ctx context.Context, candidateID string, limit int, filters registry.FilterValues) ([]registry.ApplicationRow, error) {
	base := `SELECT job_title, stage, source, applied_at FROM applications WHERE candidate_id = $1`
	args := []any{candidateID}
	var conds []string
	if fv, ok := filters["stage"]; ok {
		eq(&conds, &args, "stage", fv.Enum)
	}
	if fv, ok := filters["appliedAt"]; ok {
		dateRange(&conds, &args, "applied_at", fv)
	}
	query, args := finishQuery(base, conds, args, "applied_at DESC", limit)
	return queryRows(ctx, s.db, query, args, func(rows *sql.Rows) (registry.ApplicationRow, error) {
		var r registry.ApplicationRow
		err := rows.Scan(&r.JobTitle, &r.Stage, &r.Source, &r.AppliedAt)
		return r, err
	})
}

func (s *EntityStore) CandidateNotes(ctx context.Context, candidateID string, limit int, filters registry.FilterValues) ([]registry.NoteRow, error) {
	base := `SELECT author, body, created_at FROM candidate_notes WHERE candidate_id = $1`
	args := []any{candidateID}
	var conds []string
	if fv, ok := filters["createdAt"]; ok {
		dateRange(&conds, &args, "created_at", fv)
	}
	query, args := finishQuery(base, conds, args, "created_at DESC", limit)
	return queryRows(ctx, s.db, query, args, func(rows *sql.Rows) (registry.NoteRow, error) {
		var r registry.NoteRow
		err := rows.Scan(&r.Author, &r.Body, &r.CreatedAt)
		return r, err
	})
}

func (s *EntityStore) EmployeeReviews(ctx context.Context, employeeID string, limit int, filters registry.FilterValues) ([]registry.ReviewRow, error) {
	base := `SELECT period, rating, reviewer, summary FROM performance_reviews WHERE employee_id = $1`
	args := []any{employeeID}
	var conds []string
	if fv, ok := filters["reviewer"]; ok {
		conds = append(conds, fmt.Sprintf("reviewer ILIKE $%d", len(args)+1))
		args = append(args, "%"+fv.Text+"%")
	}
	query, args := finishQuery(base, conds, args, "created_at DESC", limit)
	return queryRows(ctx, s.db, query, args, func(rows *sql.Rows) (registry.ReviewRow, error) {
		var r registry.ReviewRow
		err := rows.Scan(&r.Period, &r.Rating, &r.Reviewer, &r.Summary)
		return r, err
	})
}

func (s *EntityStore) EmployeeTimeOff(ctx context.Context, employeeID string, limit int, filters registry.FilterValues) ([]registry.TimeOffRow, error) {
	base := `SELECT kind, status, start_date, end_date FROM time_off_requests WHERE employee_id = $1`
	args := []any{employeeID}
	var conds []string
	if fv, ok := filters["status"]; ok {
		eq(&conds, &args, "status", fv.Enum)
	}
	if fv, ok := filters["startDate"]; ok {
		dateRange(&conds, &args, "start_date", fv)
	}
	query, args := finishQuery(base, conds, args, "start_date DESC", limit)
	return queryRows(ctx, s.db, query, args, func(rows *sql.Rows) (registry.TimeOffRow, error) {
		var r registry.TimeOffRow
		err := rows.Scan(&r.Kind, &r.Status, &r.StartDate, &r.EndDate)
		return r, err
	})
}

func (s *EntityStore) CustomerInvoices(ctx context.Context, customerID string, limit int, filters registry.FilterValues) ([]registry.InvoiceRow, error) {
	base := `SELECT number, status, total, currency, due_date FROM invoices WHERE customer_id = $1`
	args := []any{customerID}
	conds := invoiceConds(filters, &args)
	query, args := finishQuery(base, conds, args, "due_date ASC", limit)
	return queryRows(ctx, s.db, query, args, scanInvoice)
}

// CustomerInvoicesBulk is the aggregate form used by executions not bound
// to one customer.
func (s *EntityStore) CustomerInvoicesBulk(ctx context.Context, limit int, filters registry.FilterValues) ([]registry.InvoiceRow, error) {
	base := `SELECT number, status, total, currency, due_date FROM invoices WHERE TRUE`
	var args []any
	conds := invoiceConds(filters, &args)
	query, args := finishQuery(base, conds, args, "due_date ASC", limit)
	return queryRows(ctx, s.db, query, args, scanInvoice)
}

func invoiceConds(filters registry.FilterValues, args *[]any) []string {
	var conds []string
	if fv, ok := filters["status"]; ok {
		eq(&conds, args, "status", fv.Enum)
	}
	if fv, ok := filters["dueDate"]; ok {
		dateRange(&conds, args, "due_date", fv)
	}
	return conds
}

func scanInvoice(rows *sql.Rows) (registry.InvoiceRow, error) {
	var r registry.InvoiceRow
	var due sql.NullTime
	err := rows.Scan(&r.Number, &r.Status, &r.Total, &r.Currency, &due)
	if due.Valid {
		r.DueDate = due.Time
	}
	return r, err
}

func (s *EntityStore) CustomerTickets(ctx context.Context, customerID string, limit int, filters registry.FilterValues) ([]registry.TicketRow, error) {
	base := `SELECT subject, status, priority, opened_at, closed_at FROM support_tickets WHERE customer_id = $1`
	args := []any{customerID}
	var conds []string
	if fv, ok := filters["status"]; ok {
		eq(&conds, &args, "status", fv.Enum)
	}
	if fv, ok := filters["priority"]; ok {
		eq(&conds, &args, "priority", fv.Enum)
	}
	query, args := finishQuery(base, conds, args, "opened_at DESC", limit)
	return queryRows(ctx, s.db, query, args, func(rows *sql.Rows) (registry.TicketRow, error) {
		var r registry.TicketRow
		var closed sql.NullTime
		err := rows.Scan(&r.Subject, &r.Status, &r.Priority, &r.OpenedAt, &closed)
		if closed.Valid {
			r.ClosedAt = &closed.Time
		}
		return r, err
	})
}

func (s *EntityStore) EntityActivities(ctx context.Context, entityType models.EntityType, entityID string, limit int, filters registry.FilterValues) ([]registry.ActivityRow, error) {
	base := `SELECT kind, subject, body, occurred_at FROM activities WHERE entity_type = $1 AND entity_id = $2`
	args := []any{string(entityType), entityID}
	conds := activityConds(filters, &args)
	query, args := finishQuery(base, conds, args, "occurred_at DESC", limit)
	return queryRows(ctx, s.db, query, args, scanActivity)
}

// EntityActivitiesBulk returns the latest activities across every record
// of one entity type.
func (s *EntityStore) EntityActivitiesBulk(ctx context.Context, entityType models.EntityType, limit int, filters registry.FilterValues) ([]registry.ActivityRow, error) {
	base := `SELECT kind, subject, body, occurred_at FROM activities WHERE entity_type = $1`
	args := []any{string(entityType)}
	conds := activityConds(filters, &args)
	query, args := finishQuery(base, conds, args, "occurred_at DESC", limit)
	return queryRows(ctx, s.db, query, args, scanActivity)
}

func activityConds(filters registry.FilterValues, args *[]any) []string {
	var conds []string
	if fv, ok := filters["kind"]; ok {
		eq(&conds, args, "kind", fv.Enum)
	}
	if fv, ok := filters["occurredAt"]; ok {
		dateRange(&conds, args, "occurred_at", fv)
	}
	return conds
}

func scanActivity(rows *sql.Rows) (registry.ActivityRow, error) {
	var r registry.ActivityRow
	err := rows.Scan(&r.Kind, &r.Subject, &r.Body, &r.OccurredAt)
	return r, err
}

func (s *EntityStore) TaskComments(ctx context.Context, taskID string, limit int, filters registry.FilterValues) ([]registry.CommentRow, error) {
	base := `SELECT author, body, created_at FROM task_comments WHERE task_id = $1`
	args := []any{taskID}
	var conds []string
	if fv, ok := filters["createdAt"]; ok {
		dateRange(&conds, &args, "created_at", fv)
	}
	query, args := finishQuery(base, conds, args, "created_at DESC", limit)
	return queryRows(ctx, s.db, query, args, func(rows *sql.Rows) (registry.CommentRow, error) {
		var r registry.CommentRow
		err := rows.Scan(&r.Author, &r.Body, &r.CreatedAt)
		return r, err
	})
}

func (s *EntityStore) QuoteLineItems(ctx context.Context, quoteID string, limit int, filters registry.FilterValues) ([]registry.LineItemRow, error) {
	query := `SELECT product, quantity, unit_price, total FROM quote_line_items WHERE quote_id = $1 ORDER BY id ASC LIMIT $2`
	return queryRows(ctx, s.db, query, []any{quoteID, limit}, scanLineItem)
}

func (s *EntityStore) OpportunityLineItems(ctx context.Context, opportunityID string, limit int, filters registry.FilterValues) ([]registry.LineItemRow, error) {
	query := `SELECT product, quantity, unit_price, total FROM opportunity_line_items WHERE opportunity_id = $1 ORDER BY id ASC LIMIT $2`
	return queryRows(ctx, s.db, query, []any{opportunityID, limit}, scanLineItem)
}

func scanLineItem(rows *sql.Rows) (registry.LineItemRow, error) {
	var r registry.LineItemRow
	err := rows.Scan(&r.Product, &r.Quantity, &r.UnitPrice, &r.Total)
	return r, err
}

func (s *EntityStore) OpportunityStageHistory(ctx context.Context, opportunityID string, limit int, filters registry.FilterValues) ([]registry.StageChangeRow, error) {
	base := `SELECT from_stage, to_stage, changed_by, changed_at FROM opportunity_stage_history WHERE opportunity_id = $1`
	args := []any{opportunityID}
	var conds []string
	if fv, ok := filters["changedAt"]; ok {
		dateRange(&conds, &args, "changed_at", fv)
	}
	query, args := finishQuery(base, conds, args, "changed_at DESC", limit)
	return queryRows(ctx, s.db, query, args, func(rows *sql.Rows) (registry.StageChangeRow, error) {
		var r registry.StageChangeRow
		err := rows.Scan(&r.FromStage, &r.ToStage, &r.ChangedBy, &r.ChangedAt)
		return r, err
	})
}
