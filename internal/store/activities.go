package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// systemActivityTypeName is the activity type every pipeline write-back is
// logged under. It is created on first use.
const systemActivityTypeName = "ai_action"

// ActivityRecorder writes activity-log entries announcing applied
// changes. The system activity type id is created lazily and cached;
// singleflight keeps concurrent first callers from racing the insert.
type ActivityRecorder struct {
	db     *sql.DB
	group  singleflight.Group
	typeID atomic.Int64
}

// NewActivityRecorder creates a recorder over the given connection.
func NewActivityRecorder(db *sql.DB) *ActivityRecorder {
	return &ActivityRecorder{db: db}
}

func (r *ActivityRecorder) systemTypeID(ctx context.Context) (int64, error) {
	if id := r.typeID.Load(); id != 0 {
		return id, nil
	}

	v, err, _ := r.group.Do("system-activity-type", func() (any, error) {
		if id := r.typeID.Load(); id != 0 {
			return id, nil
		}

		var id int64
		err := r.db.QueryRowContext(ctx,
			`SELECT id FROM activity_types WHERE name = $1`, systemActivityTypeName,
		).Scan(&id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return int64(0), fmt.Errorf("failed to look up activity type: %w", err)
		}
		if errors.Is(err, sql.ErrNoRows) {
			// ON CONFLICT covers a concurrent insert from another process.
			err = r.db.QueryRowContext(ctx, `
				INSERT INTO activity_types (name, is_system)
				VALUES ($1, TRUE)
				ON CONFLICT (name) DO UPDATE SET is_system = TRUE
				RETURNING id
			`, systemActivityTypeName).Scan(&id)
			if err != nil {
				return int64(0), fmt.Errorf("failed to create activity type: %w", err)
			}
		}
		r.typeID.Store(id)
		return id, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// Record logs one activity against a record and returns the new entry's
// id.
func (r *ActivityRecorder) Record(ctx context.Context, entityType, entityID, subject, body string) (int64, error) {
	typeID, err := r.systemTypeID(ctx)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO activities (entity_type, entity_id, activity_type_id, kind, subject, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, entityType, entityID, typeID, systemActivityTypeName, subject, body).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to record activity: %w", err)
	}
	return id, nil
}
