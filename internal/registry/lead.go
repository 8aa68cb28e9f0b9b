package registry

import (
	"strings"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// LeadSnapshot is the read-only projection of a sales lead.
type LeadSnapshot struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string
	Company        string
	Source         string
	Status         string
	Score          int
	EstimatedValue float64
	Notes          string
}

func (LeadSnapshot) SnapshotEntityType() models.EntityType { return models.EntityLead }

func leadDescriptor() entityDescriptor {
	fields := []FieldDescriptor{
		field("fullName", "Full name", "", func(s LeadSnapshot) any {
			return strings.TrimSpace(s.FirstName + " " + s.LastName)
		}),
		field("email", "Email", "", func(s LeadSnapshot) any { return s.Email }),
		field("company", "Company", "", func(s LeadSnapshot) any { return s.Company }),
		field("source", "Source", "", func(s LeadSnapshot) any { return s.Source }),
		field("status", "Status", "", func(s LeadSnapshot) any { return s.Status }),
		field("score", "Score", "Lead score, 0-100", func(s LeadSnapshot) any { return s.Score }),
		field("estimatedValue", "Estimated value", "", func(s LeadSnapshot) any { return s.EstimatedValue }),
		field("notes", "Notes", "", func(s LeadSnapshot) any { return s.Notes }),
	}

	collections := []CollectionDescriptor{
		activityCollection(models.EntityLead),
	}

	writable := map[string]CoerceKind{
		"company":         CoerceText,
		"status":          CoerceText,
		"score":           CoerceNumber,
		"estimated_value": CoerceCurrency,
		"notes":           CoerceText,
	}

	return entityDescriptor{fields: fields, collections: collections, writable: writable}
}
