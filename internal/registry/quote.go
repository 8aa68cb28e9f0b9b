package registry

import (
	"context"
	"time"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// QuoteSnapshot is the read-only projection of a sales quote.
type QuoteSnapshot struct {
	ID           string
	Number       string
	CustomerName string
	Status       string
	Subtotal     float64
	Tax          float64
	Total        float64
	Currency     string
	ValidUntil   time.Time
	Terms        string
}

func (QuoteSnapshot) SnapshotEntityType() models.EntityType { return models.EntityQuote }

func quoteDescriptor() entityDescriptor {
	fields := []FieldDescriptor{
		field("number", "Quote number", "", func(s QuoteSnapshot) any { return s.Number }),
		field("customer", "Customer", "", func(s QuoteSnapshot) any { return s.CustomerName }),
		field("status", "Status", "", func(s QuoteSnapshot) any { return s.Status }),
		field("subtotal", "Subtotal", "", func(s QuoteSnapshot) any { return s.Subtotal }),
		field("tax", "Tax", "", func(s QuoteSnapshot) any { return s.Tax }),
		field("total", "Total", "", func(s QuoteSnapshot) any { return s.Total }),
		field("currency", "Currency", "", func(s QuoteSnapshot) any { return s.Currency }),
		field("validUntil", "Valid until", "", func(s QuoteSnapshot) any { return fmtDate(s.ValidUntil) }),
		field("terms", "Terms", "", func(s QuoteSnapshot) any { return s.Terms }),
	}

	collections := []CollectionDescriptor{
		{
			Key:           "lineItems",
			Label:         "Line items",
			DefaultLimit:  25,
			DefaultFormat: models.FormatTable,
			Fields:        lineItemFields(),
			Resolve: func(ctx context.Context, src Source, entityID string, limit int, filters FilterValues) ([]any, error) {
				return asRows(src.QuoteLineItems(ctx, entityID, limit, filters))
			},
		},
	}

	writable := map[string]CoerceKind{
		"status":      CoerceText,
		"terms":       CoerceText,
		"valid_until": CoerceDate,
		"tax":         CoerceCurrency,
	}

	return entityDescriptor{fields: fields, collections: collections, writable: writable}
}

// lineItemFields is shared by quote and opportunity line item collections.
func lineItemFields() []FieldDescriptor {
	return []FieldDescriptor{
		field("product", "Product", "", func(r LineItemRow) any { return r.Product }),
		field("quantity", "Qty", "", func(r LineItemRow) any { return r.Quantity }),
		field("unitPrice", "Unit price", "", func(r LineItemRow) any { return r.UnitPrice }),
		field("total", "Total", "", func(r LineItemRow) any { return r.Total }),
	}
}
