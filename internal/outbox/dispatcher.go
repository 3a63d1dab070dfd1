// Package outbox drains queued email side effects. Status transitions write
// their emails into the outbox in the same transaction; the email worker
// drains rows for its applicant right away and a cron sweep retries anything
// left behind by a crash or a transient provider failure.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"careeragent-workers/internal/common/logger"
	"careeragent-workers/internal/common/metrics"
	"careeragent-workers/internal/mailer"
	"careeragent-workers/internal/store"

	"github.com/robfig/cron/v3"
)

// Sender sends one templated email. Satisfied by *mailer.Mailer.
type Sender interface {
	Dispatch(ctx context.Context, eventType, recipientEmail string, data mailer.EmailContext) error
}

// Queue is the outbox storage surface. Satisfied by *store.Store.
type Queue interface {
	PendingEmailsForApplicant(ctx context.Context, applicantID string) ([]store.OutboxRow, error)
	PendingEmails(ctx context.Context, olderThan time.Duration, maxAttempts, limit int) ([]store.OutboxRow, error)
	MarkEmailSent(ctx context.Context, id int64) error
	MarkEmailFailed(ctx context.Context, id int64, maxAttempts int) error
}

type Config struct {
	SweepSchedule string        // cron spec, e.g. "@every 1m"
	SweepMinAge   time.Duration // rows younger than this are left to the drain path
	BatchSize     int
	MaxAttempts   int
}

type Dispatcher struct {
	queue  Queue
	sender Sender
	config Config
	logger logger.Logger
	cron   *cron.Cron
}

func New(queue Queue, sender Sender, cfg Config, log logger.Logger) *Dispatcher {
	if cfg.SweepMinAge == 0 {
		cfg.SweepMinAge = 2 * time.Minute
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 5
	}
	return &Dispatcher{
		queue:  queue,
		sender: sender,
		config: cfg,
		logger: log,
	}
}

// Start schedules the background sweep.
func (d *Dispatcher) Start() error {
	d.cron = cron.New()
	_, err := d.cron.AddFunc(d.config.SweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		sent, err := d.Sweep(ctx)
		if err != nil {
			d.logger.Error("Outbox sweep failed", map[string]interface{}{"error": err.Error()})
			return
		}
		if sent > 0 {
			d.logger.Info("Outbox sweep delivered abandoned emails", map[string]interface{}{"sent": sent})
		}
	})
	if err != nil {
		return fmt.Errorf("schedule outbox sweep: %w", err)
	}
	d.cron.Start()
	return nil
}

// Stop halts the sweep and waits for a running sweep to finish.
func (d *Dispatcher) Stop() {
	if d.cron != nil {
		<-d.cron.Stop().Done()
	}
}

// DrainApplicant sends every pending row for one applicant. A failing row is
// marked and skipped so one bad address never blocks the rest; the first
// failure is still surfaced to the caller after all rows were tried.
func (d *Dispatcher) DrainApplicant(ctx context.Context, applicantID string) (int, error) {
	rows, err := d.queue.PendingEmailsForApplicant(ctx, applicantID)
	if err != nil {
		return 0, err
	}
	return d.sendRows(ctx, rows)
}

// Sweep retries pending rows older than SweepMinAge across all applicants.
func (d *Dispatcher) Sweep(ctx context.Context) (int, error) {
	rows, err := d.queue.PendingEmails(ctx, d.config.SweepMinAge, d.config.MaxAttempts, d.config.BatchSize)
	if err != nil {
		return 0, err
	}
	return d.sendRows(ctx, rows)
}

func (d *Dispatcher) sendRows(ctx context.Context, rows []store.OutboxRow) (int, error) {
	var sent int
	var errs []error

	// Emails with the same recipient and event type collapse to one send, so
	// an applicant sharing an address with their job seeker account is not
	// emailed twice about the same event.
	seen := make(map[string]bool)

	for _, row := range rows {
		key := row.EventType + "|" + row.RecipientEmail
		if seen[key] {
			if err := d.queue.MarkEmailSent(ctx, row.ID); err != nil {
				d.logger.Warn("Failed to finalize deduplicated outbox row", map[string]interface{}{
					"outboxId": row.ID, "error": err.Error(),
				})
			}
			continue
		}

		emailCtx, err := mailer.UnmarshalEmailContext(row.Payload)
		if err != nil {
			d.logger.Error("Corrupt outbox payload", map[string]interface{}{
				"outboxId": row.ID, "applicantId": row.ApplicantID, "error": err.Error(),
			})
			if markErr := d.queue.MarkEmailFailed(ctx, row.ID, d.config.MaxAttempts); markErr != nil {
				d.logger.Warn("Failed to mark outbox row failed", map[string]interface{}{
					"outboxId": row.ID, "error": markErr.Error(),
				})
			}
			errs = append(errs, err)
			continue
		}

		if err := d.sender.Dispatch(ctx, row.EventType, row.RecipientEmail, emailCtx); err != nil {
			d.logger.Error("Email dispatch failed", map[string]interface{}{
				"outboxId":    row.ID,
				"applicantId": row.ApplicantID,
				"eventType":   row.EventType,
				"attempts":    row.Attempts + 1,
				"error":       err.Error(),
			})
			if markErr := d.queue.MarkEmailFailed(ctx, row.ID, d.config.MaxAttempts); markErr != nil {
				d.logger.Warn("Failed to mark outbox row failed", map[string]interface{}{
					"outboxId": row.ID, "error": markErr.Error(),
				})
			}
			errs = append(errs, err)
			continue
		}

		seen[key] = true
		sent++
		metrics.OutboxEmailsSent.WithLabelValues(row.EventType).Inc()
		if err := d.queue.MarkEmailSent(ctx, row.ID); err != nil {
			d.logger.Warn("Email sent but outbox row not finalized, sweep may resend", map[string]interface{}{
				"outboxId": row.ID, "error": err.Error(),
			})
		}
	}

	return sent, errors.Join(errs...)
}
