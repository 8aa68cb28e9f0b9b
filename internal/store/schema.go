package store

import (
	"database/sql"
	"fmt"
)

// Bootstrap creates every table the pipeline needs when it is missing.
// Statements are idempotent so startup can always run this.
func Bootstrap(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to bootstrap schema: %w", err)
	}
	return nil
}

const schema = `
	-- Entity tables. Text columns default to empty so snapshot scans stay
	-- simple; genuinely optional values are nullable.
	CREATE TABLE IF NOT EXISTS candidates (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		headline TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		current_company TEXT NOT NULL DEFAULT '',
		current_title TEXT NOT NULL DEFAULT '',
		skills TEXT[] NOT NULL DEFAULT '{}',
		expected_salary DOUBLE PRECISION,
		stage TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS applications (
		id BIGSERIAL PRIMARY KEY,
		candidate_id TEXT NOT NULL REFERENCES candidates(id),
		job_title TEXT NOT NULL DEFAULT '',
		stage TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_applications_candidate ON applications(candidate_id);

	CREATE TABLE IF NOT EXISTS candidate_notes (
		id BIGSERIAL PRIMARY KEY,
		candidate_id TEXT NOT NULL REFERENCES candidates(id),
		author TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_candidate_notes_candidate ON candidate_notes(candidate_id);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		job_title TEXT NOT NULL DEFAULT '',
		manager_name TEXT NOT NULL DEFAULT '',
		hire_date TIMESTAMPTZ,
		salary DOUBLE PRECISION NOT NULL DEFAULT 0,
		location TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		goals TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS performance_reviews (
		id BIGSERIAL PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		period TEXT NOT NULL DEFAULT '',
		rating INTEGER NOT NULL DEFAULT 0,
		reviewer TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_performance_reviews_employee ON performance_reviews(employee_id);

	CREATE TABLE IF NOT EXISTS time_off_requests (
		id BIGSERIAL PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		kind TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_time_off_requests_employee ON time_off_requests(employee_id);

	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		industry TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		account_owner TEXT NOT NULL DEFAULT '',
		tier TEXT NOT NULL DEFAULT '',
		annual_revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
		support_plan TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS invoices (
		id BIGSERIAL PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		number TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		total DOUBLE PRECISION NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'USD',
		due_date TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_invoices_customer ON invoices(customer_id);
	CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status);

	CREATE TABLE IF NOT EXISTS support_tickets (
		id BIGSERIAL PRIMARY KEY,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		subject TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT '',
		opened_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		closed_at TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_support_tickets_customer ON support_tickets(customer_id);

	CREATE TABLE IF NOT EXISTS contacts (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		job_title TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		preferred_channel TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		company TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL DEFAULT 0,
		estimated_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT '',
		assignee_name TEXT NOT NULL DEFAULT '',
		due_date TIMESTAMPTZ,
		related_to TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS task_comments (
		id BIGSERIAL PRIMARY KEY,
		task_id TEXT NOT NULL REFERENCES tasks(id),
		author TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_task_comments_task ON task_comments(task_id);

	CREATE TABLE IF NOT EXISTS quotes (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL DEFAULT '',
		customer_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		subtotal DOUBLE PRECISION NOT NULL DEFAULT 0,
		tax DOUBLE PRECISION NOT NULL DEFAULT 0,
		total DOUBLE PRECISION NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'USD',
		valid_until TIMESTAMPTZ,
		terms TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS quote_line_items (
		id BIGSERIAL PRIMARY KEY,
		quote_id TEXT NOT NULL REFERENCES quotes(id),
		product TEXT NOT NULL DEFAULT '',
		quantity DOUBLE PRECISION NOT NULL DEFAULT 0,
		unit_price DOUBLE PRECISION NOT NULL DEFAULT 0,
		total DOUBLE PRECISION NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_quote_line_items_quote ON quote_line_items(quote_id);

	CREATE TABLE IF NOT EXISTS opportunities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		account_name TEXT NOT NULL DEFAULT '',
		stage TEXT NOT NULL DEFAULT '',
		amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		probability INTEGER NOT NULL DEFAULT 0,
		close_date TIMESTAMPTZ,
		owner_name TEXT NOT NULL DEFAULT '',
		next_step TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS opportunity_line_items (
		id BIGSERIAL PRIMARY KEY,
		opportunity_id TEXT NOT NULL REFERENCES opportunities(id),
		product TEXT NOT NULL DEFAULT '',
		quantity DOUBLE PRECISION NOT NULL DEFAULT 0,
		unit_price DOUBLE PRECISION NOT NULL DEFAULT 0,
		total DOUBLE PRECISION NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_opportunity_line_items_opportunity ON opportunity_line_items(opportunity_id);

	CREATE TABLE IF NOT EXISTS opportunity_stage_history (
		id BIGSERIAL PRIMARY KEY,
		opportunity_id TEXT NOT NULL REFERENCES opportunities(id),
		from_stage TEXT NOT NULL DEFAULT '',
		to_stage TEXT NOT NULL DEFAULT '',
		changed_by TEXT NOT NULL DEFAULT '',
		changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_opportunity_stage_history_opportunity ON opportunity_stage_history(opportunity_id);

	-- Activity log shared by every entity type.
	CREATE TABLE IF NOT EXISTS activity_types (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		is_system BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS activities (
		id BIGSERIAL PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		activity_type_id BIGINT REFERENCES activity_types(id),
		kind TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_activities_entity ON activities(entity_type, entity_id);
	CREATE INDEX IF NOT EXISTS idx_activities_occurred ON activities(occurred_at);

	-- Action definitions and execution history.
	CREATE TABLE IF NOT EXISTS ai_actions (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		prompt_template TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		model_id TEXT NOT NULL DEFAULT '',
		operation_type TEXT NOT NULL,
		field_keys JSONB NOT NULL DEFAULT '[]',
		collection_uses JSONB NOT NULL DEFAULT '[]',
		field_mappings JSONB NOT NULL DEFAULT '[]',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_system BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_ai_actions_entity_type ON ai_actions(entity_type);

	CREATE TABLE IF NOT EXISTS ai_action_executions (
		id TEXT PRIMARY KEY,
		action_id BIGINT REFERENCES ai_actions(id),
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		prompt TEXT NOT NULL DEFAULT '',
		inputs JSONB NOT NULL DEFAULT '{}',
		status TEXT NOT NULL,
		output TEXT NOT NULL DEFAULT '',
		raw_output TEXT NOT NULL DEFAULT '',
		proposed_changes JSONB,
		applied_changes JSONB,
		applied_at TIMESTAMPTZ,
		error_message TEXT NOT NULL DEFAULT '',
		activity_id BIGINT REFERENCES activities(id),
		triggered_by_id BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_executions_action ON ai_action_executions(action_id);
	CREATE INDEX IF NOT EXISTS idx_executions_entity ON ai_action_executions(entity_type, entity_id);
	CREATE INDEX IF NOT EXISTS idx_executions_status ON ai_action_executions(status);
`
