// internal/store/notifications.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"careeragent-workers/internal/models"
)

// AppendNotification appends one notification row. The table is append-only
// and keyed (recipient_id, created_at); rows are never updated or deleted by
// the lifecycle core. ExtraData is stored as JSONB exactly as produced.
func (s *Store) AppendNotification(ctx context.Context, recipientID, recipientType string, n models.Notification) error {
	extra, err := json.Marshal(n.ExtraData)
	if err != nil {
		return fmt.Errorf("marshal notification extra data: %w", err)
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO notifications (recipient_id, recipient_type, type, message, extra_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		recipientID, recipientType, n.Type, n.Message, extra, n.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append notification for %s: %w", recipientID, err)
	}
	return nil
}

// ListNotifications returns a recipient's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT type, message, extra_data, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, recipientID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", recipientID, err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		var extra []byte
		var createdAt time.Time
		if err := rows.Scan(&n.Type, &n.Message, &extra, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if len(extra) > 0 {
			if err := json.Unmarshal(extra, &n.ExtraData); err != nil {
				return nil, fmt.Errorf("unmarshal notification extra data: %w", err)
			}
		}
		n.Timestamp = createdAt
		out = append(out, n)
	}
	return out, rows.Err()
}
