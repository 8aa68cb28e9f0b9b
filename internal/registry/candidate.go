package registry

import (
	"context"
	"strings"
	"time"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// CandidateSnapshot is the read-only projection of a recruiting candidate.
type CandidateSnapshot struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Headline       string
	Location       string
	CurrentCompany string
	CurrentTitle   string
	Skills         []string
	ExpectedSalary *float64
	Stage          string
	Summary        string
	CreatedAt      time.Time
}

func (CandidateSnapshot) SnapshotEntityType() models.EntityType { return models.EntityCandidate }

func candidateDescriptor() entityDescriptor {
	fields := []FieldDescriptor{
		field("fullName", "Full name", "First and last name joined", func(s CandidateSnapshot) any {
			return strings.TrimSpace(s.FirstName + " " + s.LastName)
		}),
		field("firstName", "First name", "", func(s CandidateSnapshot) any { return s.FirstName }),
		field("lastName", "Last name", "", func(s CandidateSnapshot) any { return s.LastName }),
		field("email", "Email", "", func(s CandidateSnapshot) any { return s.Email }),
		field("phone", "Phone", "", func(s CandidateSnapshot) any { return s.Phone }),
		field("headline", "Headline", "", func(s CandidateSnapshot) any { return s.Headline }),
		field("location", "Location", "", func(s CandidateSnapshot) any { return s.Location }),
		field("currentCompany", "Current company", "", func(s CandidateSnapshot) any { return s.CurrentCompany }),
		field("currentTitle", "Current title", "", func(s CandidateSnapshot) any { return s.CurrentTitle }),
		field("skills", "Skills", "Skill tags on file", func(s CandidateSnapshot) any { return s.Skills }),
		field("expectedSalary", "Expected salary", "", func(s CandidateSnapshot) any {
			if s.ExpectedSalary == nil {
				return nil
			}
			return *s.ExpectedSalary
		}),
		field("stage", "Pipeline stage", "", func(s CandidateSnapshot) any { return s.Stage }),
		field("summary", "Summary", "Recruiter-written profile summary", func(s CandidateSnapshot) any { return s.Summary }),
	}

	collections := []CollectionDescriptor{
		{
			Key:           "applications",
			Label:         "Job applications",
			Description:   "Positions this candidate has applied to",
			DefaultLimit:  10,
			DefaultFormat: models.FormatTable,
			Fields: []FieldDescriptor{
				field("jobTitle", "Job title", "", func(r ApplicationRow) any { return r.JobTitle }),
				field("stage", "Stage", "", func(r ApplicationRow) any { return r.Stage }),
				field("source", "Source", "", func(r ApplicationRow) any { return r.Source }),
				field("appliedAt", "Applied", "", func(r ApplicationRow) any { return fmtDate(r.AppliedAt) }),
			},
			Filters: []FilterDescriptor{
				{Key: "stage", Label: "Stage", Type: FilterEnum, Options: []string{"applied", "screening", "interview", "offer", "hired", "rejected"}},
				{Key: "appliedAt", Label: "Applied between", Type: FilterDateRange},
			},
			Resolve: func(ctx context.Context, src Source, entityID string, limit int, filters FilterValues) ([]any, error) {
				return asRows(src.CandidateApplications(ctx, entityID, limit, filters))
			},
		},
		{
			Key:           "interviewNotes",
			Label:         "Interview notes",
			DefaultLimit:  5,
			DefaultFormat: models.FormatBulletList,
			Fields: []FieldDescriptor{
				field("author", "Author", "", func(r NoteRow) any { return r.Author }),
				field("note", "Note", "", func(r NoteRow) any { return r.Body }),
				field("createdAt", "Date", "", func(r NoteRow) any { return fmtDate(r.CreatedAt) }),
			},
			Filters: []FilterDescriptor{
				{Key: "createdAt", Label: "Created between", Type: FilterDateRange},
			},
			Resolve: func(ctx context.Context, src Source, entityID string, limit int, filters FilterValues) ([]any, error) {
				return asRows(src.CandidateNotes(ctx, entityID, limit, filters))
			},
		},
	}

	writable := map[string]CoerceKind{
		"headline":        CoerceText,
		"location":        CoerceText,
		"current_company": CoerceText,
		"current_title":   CoerceText,
		"skills":          CoerceTags,
		"expected_salary": CoerceCurrency,
		"stage":           CoerceText,
		"summary":         CoerceText,
	}

	return entityDescriptor{fields: fields, collections: collections, writable: writable}
}

// asRows widens a typed row slice into []any for the generic resolver
// signature, passing the error through untouched.
func asRows[T any](rows []T, err error) ([]any, error) {
	if err != nil {
		return nil, err
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out, nil
}
