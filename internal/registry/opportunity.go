package registry

import (
	"context"
	"time"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// OpportunitySnapshot is the read-only projection of a sales opportunity.
type OpportunitySnapshot struct {
	ID          string
	Name        string
	AccountName string
	Stage       string
	Amount      float64
	Probability int
	CloseDate   time.Time
	OwnerName   string
	NextStep    string
	Description string
}

func (OpportunitySnapshot) SnapshotEntityType() models.EntityType { return models.EntityOpportunity }

func opportunityDescriptor() entityDescriptor {
	fields := []FieldDescriptor{
		field("name", "Opportunity name", "", func(s OpportunitySnapshot) any { return s.Name }),
		field("account", "Account", "", func(s OpportunitySnapshot) any { return s.AccountName }),
		field("stage", "Stage", "", func(s OpportunitySnapshot) any { return s.Stage }),
		field("amount", "Amount", "", func(s OpportunitySnapshot) any { return s.Amount }),
		field("probability", "Probability", "Win probability in percent", func(s OpportunitySnapshot) any { return s.Probability }),
		field("closeDate", "Close date", "", func(s OpportunitySnapshot) any { return fmtDate(s.CloseDate) }),
		field("owner", "Owner", "", func(s OpportunitySnapshot) any { return s.OwnerName }),
		field("nextStep", "Next step", "", func(s OpportunitySnapshot) any { return s.NextStep }),
		field("description", "Description", "", func(s OpportunitySnapshot) any { return s.Description }),
	}

	collections := []CollectionDescriptor{
		{
			Key:           "lineItems",
			Label:         "Line items",
			DefaultLimit:  25,
			DefaultFormat: models.FormatTable,
			Fields:        lineItemFields(),
			Resolve: func(ctx context.Context, src Source, entityID string, limit int, filters FilterValues) ([]any, error) {
				return asRows(src.OpportunityLineItems(ctx, entityID, limit, filters))
			},
		},
		{
			Key:           "stageHistory",
			Label:         "Stage history",
			DefaultLimit:  10,
			DefaultFormat: models.FormatPlainText,
			Fields: []FieldDescriptor{
				field("fromStage", "From", "", func(r StageChangeRow) any { return r.FromStage }),
				field("toStage", "To", "", func(r StageChangeRow) any { return r.ToStage }),
				field("changedBy", "Changed by", "", func(r StageChangeRow) any { return r.ChangedBy }),
				field("changedAt", "Date", "", func(r StageChangeRow) any { return fmtDate(r.ChangedAt) }),
			},
			Filters: []FilterDescriptor{
				{Key: "changedAt", Label: "Changed between", Type: FilterDateRange},
			},
			Resolve: func(ctx context.Context, src Source, entityID string, limit int, filters FilterValues) ([]any, error) {
				return asRows(src.OpportunityStageHistory(ctx, entityID, limit, filters))
			},
		},
	}

	writable := map[string]CoerceKind{
		"stage":       CoerceText,
		"amount":      CoerceCurrency,
		"probability": CoerceNumber,
		"close_date":  CoerceDate,
		"next_step":   CoerceText,
		"description": CoerceText,
	}

	return entityDescriptor{fields: fields, collections: collections, writable: writable}
}
