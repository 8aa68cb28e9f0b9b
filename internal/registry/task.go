package registry

import (
	"context"
	"time"

	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// TaskSnapshot is the read-only projection of a task record.
type TaskSnapshot struct {
	ID           string
	Title        string
	Description  string
	Status       string
	Priority     string
	AssigneeName string
	DueDate      *time.Time
	RelatedTo    string
}

func (TaskSnapshot) SnapshotEntityType() models.EntityType { return models.EntityTask }

func taskDescriptor() entityDescriptor {
	fields := []FieldDescriptor{
		field("title", "Title", "", func(s TaskSnapshot) any { return s.Title }),
		field("description", "Description", "", func(s TaskSnapshot) any { return s.Description }),
		field("status", "Status", "", func(s TaskSnapshot) any { return s.Status }),
		field("priority", "Priority", "", func(s TaskSnapshot) any { return s.Priority }),
		field("assignee", "Assignee", "", func(s TaskSnapshot) any { return s.AssigneeName }),
		field("dueDate", "Due date", "", func(s TaskSnapshot) any { return fmtDatePtr(s.DueDate) }),
		field("relatedTo", "Related to", "Record this task is attached to", func(s TaskSnapshot) any { return s.RelatedTo }),
	}

	collections := []CollectionDescriptor{
		{
			Key:           "comments",
			Label:         "Comments",
			DefaultLimit:  10,
			DefaultFormat: models.FormatBulletList,
			Fields: []FieldDescriptor{
				field("author", "Author", "", func(r CommentRow) any { return r.Author }),
				field("body", "Comment", "", func(r CommentRow) any { return r.Body }),
				field("createdAt", "Date", "", func(r CommentRow) any { return fmtDate(r.CreatedAt) }),
			},
			Filters: []FilterDescriptor{
				{Key: "createdAt", Label: "Created between", Type: FilterDateRange},
			},
			Resolve: func(ctx context.Context, src Source, entityID string, limit int, filters FilterValues) ([]any, error) {
				return asRows(src.TaskComments(ctx, entityID, limit, filters))
			},
		},
	}

	writable := map[string]CoerceKind{
		"title":       CoerceText,
		"description": CoerceText,
		"status":      CoerceText,
		"priority":    CoerceText,
		"due_date":    CoerceDate,
	}

	return entityDescriptor{fields: fields, collections: collections, writable: writable}
}
