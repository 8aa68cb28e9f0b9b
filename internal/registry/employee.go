package registry

import (
	"context"
	"strings"
	"time"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// EmployeeSnapshot is the read-only projection of an employee record.
type EmployeeSnapshot struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	Department  string
	JobTitle    string
	ManagerName string
	HireDate    time.Time
	Salary      float64
	Location    string
	Status      string
	Goals       string
}

func (EmployeeSnapshot) SnapshotEntityType() models.EntityType { return models.EntityEmployee }

func employeeDescriptor() entityDescriptor {
	fields := []FieldDescriptor{
		field("fullName", "Full name", "", func(s EmployeeSnapshot) any {
			return strings.TrimSpace(s.FirstName + " " + s.LastName)
		}),
		field("email", "Email", "", func(s EmployeeSnapshot) any { return s.Email }),
		field("department", "Department", "", func(s EmployeeSnapshot) any { return s.Department }),
		field("jobTitle", "Job title", "", func(s EmployeeSnapshot) any { return s.JobTitle }),
		field("manager", "Manager", "", func(s EmployeeSnapshot) any { return s.ManagerName }),
		field("hireDate", "Hire date", "", func(s EmployeeSnapshot) any { return fmtDate(s.HireDate) }),
		field("salary", "Salary", "", func(s EmployeeSnapshot) any { return s.Salary }),
		field("location", "Location", "", func(s EmployeeSnapshot) any { return s.Location }),
		field("status", "Status", "", func(s EmployeeSnapshot) any { return s.Status }),
		field("goals", "Goals", "Current goals as agreed with the manager", func(s EmployeeSnapshot) any { return s.Goals }),
	}

	collections := []CollectionDescriptor{
		{
			Key:           "performanceReviews",
			Label:         "Performance reviews",
			DefaultLimit:  4,
			DefaultFormat: models.FormatTable,
			Fields: []FieldDescriptor{
				field("period", "Period", "", func(r ReviewRow) any { return r.Period }),
				field("rating", "Rating", "", func(r ReviewRow) any { return r.Rating }),
				field("reviewer", "Reviewer", "", func(r ReviewRow) any { return r.Reviewer }),
				field("summary", "Summary", "", func(r ReviewRow) any { return r.Summary }),
			},
			Filters: []FilterDescriptor{
				{Key: "reviewer", Label: "Reviewer", Type: FilterText},
			},
			Resolve: func(ctx context.Context, src Source, entityID string, limit int, filters FilterValues) ([]any, error) {
				return asRows(src.EmployeeReviews(ctx, entityID, limit, filters))
			},
		},
		{
			Key:           "timeOffRequests",
			Label:         "Time off requests",
			DefaultLimit:  10,
			DefaultFormat: models.FormatTable,
			Fields: []FieldDescriptor{
				field("kind", "Type", "", func(r TimeOffRow) any { return r.Kind }),
				field("status", "Status", "", func(r TimeOffRow) any { return r.Status }),
				field("startDate", "From", "", func(r TimeOffRow) any { return fmtDate(r.StartDate) }),
				field("endDate", "To", "", func(r TimeOffRow) any { return fmtDate(r.EndDate) }),
			},
			Filters: []FilterDescriptor{
				{Key: "status", Label: "Status", Type: FilterEnum, Options: []string{"pending", "approved", "denied"}},
				{Key: "startDate", Label: "Starting between", Type: FilterDateRange},
			},
			Resolve: func(ctx context.Context, src Source, entityID string, limit int, filters FilterValues) ([]any, error) {
				return asRows(src.EmployeeTimeOff(ctx, entityID, limit, filters))
			},
		},
	}

	writable := map[string]CoerceKind{
		"job_title":  CoerceText,
		"department": CoerceText,
		"location":   CoerceText,
		"salary":     CoerceCurrency,
		"status":     CoerceText,
		"goals":      CoerceText,
	}

	return entityDescriptor{fields: fields, collections: collections, writable: writable}
}
