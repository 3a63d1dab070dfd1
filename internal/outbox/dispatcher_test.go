// internal/outbox/dispatcher_test.go
package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"careeragent-workers/internal/common/logger"
	"careeragent-workers/internal/mailer"
	"careeragent-workers/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeQueue struct {
	rows   []store.OutboxRow
	sent   []int64
	failed []int64
}

func (f *fakeQueue) PendingEmailsForApplicant(ctx context.Context, applicantID string) ([]store.OutboxRow, error) {
	var out []store.OutboxRow
	for _, r := range f.rows {
		if r.ApplicantID == applicantID && r.Status == store.OutboxPending {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeQueue) PendingEmails(ctx context.Context, olderThan time.Duration, maxAttempts, limit int) ([]store.OutboxRow, error) {
	var out []store.OutboxRow
	for _, r := range f.rows {
		if r.Status == store.OutboxPending && r.Attempts < maxAttempts {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeQueue) MarkEmailSent(ctx context.Context, id int64) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeQueue) MarkEmailFailed(ctx context.Context, id int64, maxAttempts int) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeSender struct {
	sent []string // "eventType|recipient"
	fail map[string]error
}

func (f *fakeSender) Dispatch(ctx context.Context, eventType, recipientEmail string, data mailer.EmailContext) error {
	key := eventType + "|" + recipientEmail
	if err := f.fail[key]; err != nil {
		return err
	}
	f.sent = append(f.sent, key)
	return nil
}

func payload(t *testing.T) []byte {
	t.Helper()
	p, err := mailer.EmailContext{RecipientName: "Jane Doe", JobRole: "Backend Engineer", Company: "Acme"}.Marshal()
	require.NoError(t, err)
	return p
}

func pendingRow(t *testing.T, id int64, applicantID, eventType, email string) store.OutboxRow {
	t.Helper()
	return store.OutboxRow{
		ID:             id,
		ApplicantID:    applicantID,
		EventType:      eventType,
		RecipientEmail: email,
		Payload:        payload(t),
		Status:         store.OutboxPending,
		CreatedAt:      time.Now().Add(-5 * time.Minute),
	}
}

func newDispatcher(t *testing.T, queue Queue, sender Sender) *Dispatcher {
	t.Helper()
	return New(queue, sender, Config{SweepSchedule: "@every 1m"}, logger.NewTestLogger(t))
}

// ==========================
// Drain Tests
// ==========================

func TestDispatcher_DrainApplicant(t *testing.T) {
	queue := &fakeQueue{rows: []store.OutboxRow{
		pendingRow(t, 1, "app-1", mailer.EventHired, "jane@example.com"),
		pendingRow(t, 2, "app-2", mailer.EventRejected, "john@example.com"),
	}}
	sender := &fakeSender{}
	d := newDispatcher(t, queue, sender)

	sent, err := d.DrainApplicant(context.Background(), "app-1")

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"hired|jane@example.com"}, sender.sent)
	assert.Equal(t, []int64{1}, queue.sent)
}

func TestDispatcher_SharedEmailDeduplication(t *testing.T) {
	// Two queued rows for the same event and address collapse to one send;
	// the duplicate row is still finalized so the sweep will not retry it.
	queue := &fakeQueue{rows: []store.OutboxRow{
		pendingRow(t, 1, "app-1", mailer.EventRejected, "shared@example.com"),
		pendingRow(t, 2, "app-1", mailer.EventRejected, "shared@example.com"),
	}}
	sender := &fakeSender{}
	d := newDispatcher(t, queue, sender)

	sent, err := d.DrainApplicant(context.Background(), "app-1")

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Len(t, sender.sent, 1)
	assert.ElementsMatch(t, []int64{1, 2}, queue.sent)
	assert.Empty(t, queue.failed)
}

func TestDispatcher_DifferentEventsSameAddressBothSend(t *testing.T) {
	queue := &fakeQueue{rows: []store.OutboxRow{
		pendingRow(t, 1, "app-1", mailer.EventInReview, "jane@example.com"),
		pendingRow(t, 2, "app-1", mailer.EventRejected, "jane@example.com"),
	}}
	sender := &fakeSender{}
	d := newDispatcher(t, queue, sender)

	sent, err := d.DrainApplicant(context.Background(), "app-1")

	require.NoError(t, err)
	assert.Equal(t, 2, sent)
}

func TestDispatcher_FailedSendIsMarkedAndOthersContinue(t *testing.T) {
	queue := &fakeQueue{rows: []store.OutboxRow{
		pendingRow(t, 1, "app-1", mailer.EventHired, "bad@example.com"),
		pendingRow(t, 2, "app-1", mailer.EventRejected, "jane@example.com"),
	}}
	sender := &fakeSender{fail: map[string]error{
		"hired|bad@example.com": errors.New("mailbox unavailable"),
	}}
	d := newDispatcher(t, queue, sender)

	sent, err := d.DrainApplicant(context.Background(), "app-1")

	assert.Error(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []int64{1}, queue.failed)
	assert.Equal(t, []int64{2}, queue.sent)
}

func TestDispatcher_CorruptPayloadIsMarkedFailed(t *testing.T) {
	row := pendingRow(t, 1, "app-1", mailer.EventHired, "jane@example.com")
	row.Payload = []byte("{not json")
	queue := &fakeQueue{rows: []store.OutboxRow{row}}
	sender := &fakeSender{}
	d := newDispatcher(t, queue, sender)

	sent, err := d.DrainApplicant(context.Background(), "app-1")

	assert.Error(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, []int64{1}, queue.failed)
	assert.Empty(t, sender.sent)
}

// ==========================
// Sweep Tests
// ==========================

func TestDispatcher_Sweep(t *testing.T) {
	queue := &fakeQueue{rows: []store.OutboxRow{
		pendingRow(t, 1, "app-1", mailer.EventHired, "jane@example.com"),
		pendingRow(t, 2, "app-2", mailer.EventRejected, "john@example.com"),
	}}
	sender := &fakeSender{}
	d := newDispatcher(t, queue, sender)

	sent, err := d.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.ElementsMatch(t, []int64{1, 2}, queue.sent)
}

func TestDispatcher_SweepSkipsExhaustedRows(t *testing.T) {
	exhausted := pendingRow(t, 1, "app-1", mailer.EventHired, "jane@example.com")
	exhausted.Attempts = 5
	queue := &fakeQueue{rows: []store.OutboxRow{exhausted}}
	sender := &fakeSender{}
	d := newDispatcher(t, queue, sender)

	sent, err := d.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Empty(t, sender.sent)
}

func TestDispatcher_ConfigDefaults(t *testing.T) {
	d := New(&fakeQueue{}, &fakeSender{}, Config{SweepSchedule: "@every 1m"}, logger.NewNoOpLogger())
	assert.Equal(t, 2*time.Minute, d.config.SweepMinAge)
	assert.Equal(t, 50, d.config.BatchSize)
	assert.Equal(t, 5, d.config.MaxAttempts)
}
