package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

// ActivityFilter narrows an archive query. Zero fields do not filter.
// Results are newest first.
type ActivityFilter struct {
	UserIDs []string
	Actions []string
	Since   time.Time
	Until   time.Time
	Limit   int
}

// InsertActivity archives one activity row and returns it with its id
func (s *Store) InsertActivity(ctx context.Context, a types.StoredActivity) (types.StoredActivity, error) {
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO activity_logs (user_id, action, details, timestamp) VALUES (?, ?, ?, ?)",
		a.UserID, a.Action, a.Details, a.Timestamp.UnixMilli())
	if err != nil {
		return types.StoredActivity{}, fmt.Errorf("insert activity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.StoredActivity{}, fmt.Errorf("activity id: %w", err)
	}
	a.ID = id
	a.Timestamp = time.UnixMilli(a.Timestamp.UnixMilli()).UTC()
	return a, nil
}

// Activities returns archived rows matching the filter
func (s *Store) Activities(ctx context.Context, f ActivityFilter) ([]types.StoredActivity, error) {
	var (
		where []string
		args  []interface{}
	)
	if len(f.UserIDs) > 0 {
		where = append(where, "user_id IN ("+placeholders(len(f.UserIDs))+")")
		for _, id := range f.UserIDs {
			args = append(args, id)
		}
	}
	if len(f.Actions) > 0 {
		where = append(where, "action IN ("+placeholders(len(f.Actions))+")")
		for _, a := range f.Actions {
			args = append(args, a)
		}
	}
	if !f.Since.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, f.Since.UnixMilli())
	}
	if !f.Until.IsZero() {
		where = append(where, "timestamp <= ?")
		args = append(args, f.Until.UnixMilli())
	}

	query := "SELECT id, user_id, action, details, timestamp FROM activity_logs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	out := []types.StoredActivity{}
	for rows.Next() {
		var (
			a  types.StoredActivity
			ts int64
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.Details, &ts); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
