package registry

import (
	"context"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// CustomerSnapshot is the read-only projection of a customer account.
type CustomerSnapshot struct {
	ID            string
	Name          string
	Industry      string
	Website       string
	AccountOwner  string
	Tier          string
	AnnualRevenue float64
	SupportPlan   string
	Notes         string
}

func (CustomerSnapshot) SnapshotEntityType() models.EntityType { return models.EntityCustomer }

func customerDescriptor() entityDescriptor {
	fields := []FieldDescriptor{
		field("name", "Account name", "", func(s CustomerSnapshot) any { return s.Name }),
		field("industry", "Industry", "", func(s CustomerSnapshot) any { return s.Industry }),
		field("website", "Website", "", func(s CustomerSnapshot) any { return s.Website }),
		field("accountOwner", "Account owner", "", func(s CustomerSnapshot) any { return s.AccountOwner }),
		field("tier", "Tier", "", func(s CustomerSnapshot) any { return s.Tier }),
		field("annualRevenue", "Annual revenue", "", func(s CustomerSnapshot) any { return s.AnnualRevenue }),
		field("supportPlan", "Support plan", "", func(s CustomerSnapshot) any { return s.SupportPlan }),
		field("notes", "Notes", "", func(s CustomerSnapshot) any { return s.Notes }),
	}

	collections := []CollectionDescriptor{
		{
			Key:           "openInvoices",
			Label:         "Open invoices",
			Description:   "Invoices that are not yet settled",
			DefaultLimit:  10,
			DefaultFormat: models.FormatTable,
			Fields: []FieldDescriptor{
				field("number", "Invoice #", "", func(r InvoiceRow) any { return r.Number }),
				field("status", "Status", "", func(r InvoiceRow) any { return r.Status }),
				field("total", "Total", "", func(r InvoiceRow) any { return r.Total }),
				field("currency", "Currency", "", func(r InvoiceRow) any { return r.Currency }),
				field("dueDate", "Due", "", func(r InvoiceRow) any { return fmtDate(r.DueDate) }),
			},
			Filters: []FilterDescriptor{
				{Key: "status", Label: "Status", Type: FilterEnum, Options: []string{"draft", "sent", "overdue", "paid"}},
				{Key: "dueDate", Label: "Due between", Type: FilterDateRange},
			},
			Resolve: func(ctx context.Context, src Source, entityID string, limit int, filters FilterValues) ([]any, error) {
				return asRows(src.CustomerInvoices(ctx, entityID, limit, filters))
			},
			// Aggregate runs report across all customers.
			ResolveBulk: func(ctx context.Context, src Source, limit int, filters FilterValues) ([]any, error) {
				return asRows(src.CustomerInvoicesBulk(ctx, limit, filters))
			},
		},
		{
			Key:           "supportTickets",
			Label:         "Support tickets",
			DefaultLimit:  10,
			DefaultFormat: models.FormatTable,
			Fields: []FieldDescriptor{
				field("subject", "Subject", "", func(r TicketRow) any { return r.Subject }),
				field("status", "Status", "", func(r TicketRow) any { return r.Status }),
				field("priority", "Priority", "", func(r TicketRow) any { return r.Priority }),
				field("openedAt", "Opened", "", func(r TicketRow) any { return fmtDate(r.OpenedAt) }),
				field("closedAt", "Closed", "", func(r TicketRow) any { return fmtDatePtr(r.ClosedAt) }),
			},
			Filters: []FilterDescriptor{
				{Key: "status", Label: "Status", Type: FilterEnum, Options: []string{"open", "pending", "resolved", "closed"}},
				{Key: "priority", Label: "Priority", Type: FilterEnum, Options: []string{"low", "normal", "high", "urgent"}},
			},
			Resolve: func(ctx context.Context, src Source, entityID string, limit int, filters FilterValues) ([]any, error) {
				return asRows(src.CustomerTickets(ctx, entityID, limit, filters))
			},
		},
	}

	writable := map[string]CoerceKind{
		"industry":       CoerceText,
		"website":        CoerceText,
		"tier":           CoerceText,
		"annual_revenue": CoerceCurrency,
		"support_plan":   CoerceText,
		"notes":          CoerceText,
	}

	return entityDescriptor{fields: fields, collections: collections, writable: writable}
}
