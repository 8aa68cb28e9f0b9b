package registry

import (
	"context"
	"strings"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// ContactSnapshot is the read-only projection of a contact person.
type ContactSnapshot struct {
	ID               string
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	JobTitle         string
	CompanyName      string
	Department       string
	PreferredChannel string
	Notes            string
}

func (ContactSnapshot) SnapshotEntityType() models.EntityType { return models.EntityContact }

// activityCollection is shared between contacts and leads; both attach the
// same activity log shape as prompt context.
func activityCollection(entityType models.EntityType) CollectionDescriptor {
	return CollectionDescriptor{
		Key:           "recentActivities",
		Label:         "Recent activities",
		Description:   "Latest logged calls, emails, meetings and notes",
		DefaultLimit:  10,
		DefaultFormat: models.FormatPlainText,
		Fields: []FieldDescriptor{
			field("kind", "Type", "", func(r ActivityRow) any { return r.Kind }),
			field("subject", "Subject", "", func(r ActivityRow) any { return r.Subject }),
			field("body", "Details", "", func(r ActivityRow) any { return r.Body }),
			field("occurredAt", "Date", "", func(r ActivityRow) any { return fmtDate(r.OccurredAt) }),
		},
		Filters: []FilterDescriptor{
			{Key: "kind", Label: "Type", Type: FilterEnum, Options: []string{"call", "email", "meeting", "note"}},
			{Key: "occurredAt", Label: "Between", Type: FilterDateRange},
		},
		Resolve: func(ctx context.Context, src Source, entityID string, limit int, filters FilterValues) ([]any, error) {
			return asRows(src.EntityActivities(ctx, entityType, entityID, limit, filters))
		},
		ResolveBulk: func(ctx context.Context, src Source, limit int, filters FilterValues) ([]any, error) {
			return asRows(src.EntityActivitiesBulk(ctx, entityType, limit, filters))
		},
	}
}

func contactDescriptor() entityDescriptor {
	fields := []FieldDescriptor{
		field("fullName", "Full name", "", func(s ContactSnapshot) any {
			return strings.TrimSpace(s.FirstName + " " + s.LastName)
		}),
		field("email", "Email", "", func(s ContactSnapshot) any { return s.Email }),
		field("phone", "Phone", "", func(s ContactSnapshot) any { return s.Phone }),
		field("jobTitle", "Job title", "", func(s ContactSnapshot) any { return s.JobTitle }),
		field("company", "Company", "", func(s ContactSnapshot) any { return s.CompanyName }),
		field("department", "Department", "", func(s ContactSnapshot) any { return s.Department }),
		field("preferredChannel", "Preferred channel", "", func(s ContactSnapshot) any { return s.PreferredChannel }),
		field("notes", "Notes", "", func(s ContactSnapshot) any { return s.Notes }),
	}

	collections := []CollectionDescriptor{
		activityCollection(models.EntityContact),
	}

	writable := map[string]CoerceKind{
		"phone":             CoerceText,
		"job_title":         CoerceText,
		"department":        CoerceText,
		"preferred_channel": CoerceText,
		"notes":             CoerceText,
	}

	return entityDescriptor{fields: fields, collections: collections, writable: writable}
}
