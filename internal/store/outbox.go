// internal/store/outbox.go
package store

import (
	"context"
	"fmt"
	"time"
)

// Email outbox statuses.
const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
	OutboxSkipped = "skipped"
)

// OutboxRow is one queued email side effect. Rows are written in the same
// transaction as the status change they describe and drained afterwards.
type OutboxRow struct {
	ID             int64
	ApplicantID    string
	EventType      string
	RecipientEmail string
	Payload        []byte
	Attempts       int
	Status         string
	CreatedAt      time.Time
}

// EnqueueEmail queues one email side effect.
func (s *Store) EnqueueEmail(ctx context.Context, applicantID, eventType, recipientEmail string, payload []byte) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO email_outbox (applicant_id, event_type, recipient_email, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, NOW())`,
		applicantID, eventType, recipientEmail, payload, OutboxPending,
	)
	if err != nil {
		return fmt.Errorf("enqueue %s email for applicant %s: %w", eventType, applicantID, err)
	}
	return nil
}

// PendingEmailsForApplicant returns queued rows for one applicant, oldest first.
func (s *Store) PendingEmailsForApplicant(ctx context.Context, applicantID string) ([]OutboxRow, error) {
	return s.queryOutbox(ctx, `
		SELECT id, applicant_id, event_type, recipient_email, payload, attempts, status, created_at
		FROM email_outbox
		WHERE applicant_id = $1 AND status = $2
		ORDER BY created_at`, applicantID, OutboxPending)
}

// PendingEmails returns queued rows older than olderThan, for the sweeper.
// Rows the drain path is about to pick up stay out of the sweep window.
func (s *Store) PendingEmails(ctx context.Context, olderThan time.Duration, maxAttempts, limit int) ([]OutboxRow, error) {
	return s.queryOutbox(ctx, `
		SELECT id, applicant_id, event_type, recipient_email, payload, attempts, status, created_at
		FROM email_outbox
		WHERE status = $1 AND attempts < $2 AND created_at < NOW() - $3::interval
		ORDER BY created_at
		LIMIT $4`,
		OutboxPending, maxAttempts, fmt.Sprintf("%d seconds", int(olderThan.Seconds())), limit)
}

func (s *Store) queryOutbox(ctx context.Context, query string, args ...interface{}) ([]OutboxRow, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query email outbox: %w", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var r OutboxRow
		if err := rows.Scan(&r.ID, &r.ApplicantID, &r.EventType, &r.RecipientEmail,
			&r.Payload, &r.Attempts, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkEmailSent finalizes a delivered row.
func (s *Store) MarkEmailSent(ctx context.Context, id int64) error {
	if _, err := s.q.ExecContext(ctx,
		`UPDATE email_outbox SET status = $2, sent_at = NOW() WHERE id = $1`,
		id, OutboxSent,
	); err != nil {
		return fmt.Errorf("mark outbox row %d sent: %w", id, err)
	}
	return nil
}

// MarkEmailFailed bumps the attempt count; once maxAttempts is reached the
// row flips to failed and the sweeper stops picking it up.
func (s *Store) MarkEmailFailed(ctx context.Context, id int64, maxAttempts int) error {
	if _, err := s.q.ExecContext(ctx, `
		UPDATE email_outbox
		SET attempts = attempts + 1,
		    status = CASE WHEN attempts + 1 >= $2 THEN $3 ELSE $4 END
		WHERE id = $1`,
		id, maxAttempts, OutboxFailed, OutboxPending,
	); err != nil {
		return fmt.Errorf("mark outbox row %d failed: %w", id, err)
	}
	return nil
}

// SkipPendingEmails marks an applicant's queued rows skipped. Used when the
// recipient has email notifications disabled.
func (s *Store) SkipPendingEmails(ctx context.Context, applicantID string) error {
	if _, err := s.q.ExecContext(ctx,
		`UPDATE email_outbox SET status = $2 WHERE applicant_id = $1 AND status = $3`,
		applicantID, OutboxSkipped, OutboxPending,
	); err != nil {
		return fmt.Errorf("skip outbox rows for applicant %s: %w", applicantID, err)
	}
	return nil
}
