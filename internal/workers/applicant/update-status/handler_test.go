// internal/workers/applicant/update-status/handler_test.go
package updatestatus

import (
	"context"
	"errors"
	"testing"
	"time"

	"careeragent-workers/internal/common/logger"
	"careeragent-workers/internal/models"
	"careeragent-workers/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type notifyCall struct {
	recipientID   string
	recipientType string
	note          models.Notification
}

type fakeNotifier struct {
	calls []notifyCall
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, recipientID, recipientType string, n models.Notification) error {
	f.calls = append(f.calls, notifyCall{recipientID, recipientType, n})
	return f.err
}

var applicantCols = []string{
	"id", "name", "email", "phone", "status",
	"job_id", "recruiter_id", "job_seeker_id", "job_title",
	"interview_id", "applied_at",
	"job_role", "company", "location", "company_website",
	"l_recruiter_id", "recruiter_name", "l_status",
}

func applicantRow(rows *sqlmock.Rows, id, status, interviewID string) *sqlmock.Rows {
	return rows.AddRow(
		id, "Jane Doe", id+"@example.com", "", status,
		"job-1", "rec-1", "seeker-"+id, "Backend Engineer",
		interviewID, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		"Backend Engineer", "Acme", "Berlin", "https://acme.example",
		"rec-1", "Rita Recruiter", models.ListingActive,
	)
}

func setup(t *testing.T) (*Handler, sqlmock.Sqlmock, *fakeNotifier, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	h := NewHandler(LoadConfig(), store.New(db), notifier, logger.NewTestLogger(t))
	return h, mock, notifier, func() { db.Close() }
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_InReview(t *testing.T) {
	h, mock, notifier, done := setup(t)
	defer done()

	mock.ExpectQuery(`FROM applicants a`).
		WithArgs("app-1").
		WillReturnRows(applicantRow(sqlmock.NewRows(applicantCols), "app-1", models.StatusApplied, ""))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applicants SET status`).
		WithArgs("app-1", models.StatusInReview, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO email_outbox`).
		WithArgs("app-1", "in-review", "app-1@example.com", sqlmock.AnyArg(), "pending").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	output, err := h.Execute(context.Background(), &Input{ApplicantID: "app-1", Status: models.StatusInReview})

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, models.StatusInReview, output.Applicant.Status)
	assert.Empty(t, output.Applicant.InterviewID)
	assert.NotNil(t, output.OtherApplicants)
	assert.Len(t, output.OtherApplicants, 0)

	_, err = time.Parse(time.RFC3339, output.UpdatedAt)
	assert.NoError(t, err)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "seeker-app-1", notifier.calls[0].recipientID)
	assert.Equal(t, models.RecipientJobSeeker, notifier.calls[0].recipientType)
	assert.Equal(t, models.NotificationApplicationStatus, notifier.calls[0].note.Type)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InvalidStatus(t *testing.T) {
	h, mock, _, done := setup(t)
	defer done()

	output, err := h.Execute(context.Background(), &Input{ApplicantID: "app-1", Status: "Shortlisted"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Shortlisted")
	assert.Nil(t, output)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ApplicantNotFound(t *testing.T) {
	h, mock, _, done := setup(t)
	defer done()

	mock.ExpectQuery(`FROM applicants a`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(applicantCols))

	output, err := h.Execute(context.Background(), &Input{ApplicantID: "ghost", Status: models.StatusInReview})

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InterviewDone_TearsDownInterview(t *testing.T) {
	h, mock, _, done := setup(t)
	defer done()

	mock.ExpectQuery(`FROM applicants a`).
		WithArgs("app-1").
		WillReturnRows(applicantRow(sqlmock.NewRows(applicantCols), "app-1", models.StatusInterviewScheduled, "iv-9"))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM interviews`).
		WithArgs("iv-9").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE applicants SET status`).
		WithArgs("app-1", models.StatusInterviewDone, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	output, err := h.Execute(context.Background(), &Input{ApplicantID: "app-1", Status: models.StatusInterviewDone})

	require.NoError(t, err)
	assert.Equal(t, models.StatusInterviewDone, output.Applicant.Status)
	assert.Empty(t, output.Applicant.InterviewID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_Rejected_TearsDownInterviewAndQueuesEmail(t *testing.T) {
	h, mock, _, done := setup(t)
	defer done()

	mock.ExpectQuery(`FROM applicants a`).
		WithArgs("app-1").
		WillReturnRows(applicantRow(sqlmock.NewRows(applicantCols), "app-1", models.StatusInterviewScheduled, "iv-9"))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM interviews`).
		WithArgs("iv-9").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE applicants SET status`).
		WithArgs("app-1", models.StatusRejected, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO email_outbox`).
		WithArgs("app-1", "rejected", "app-1@example.com", sqlmock.AnyArg(), "pending").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	output, err := h.Execute(context.Background(), &Input{ApplicantID: "app-1", Status: models.StatusRejected})

	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, output.Applicant.Status)
	assert.Empty(t, output.Applicant.InterviewID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_UpdateFails_RollsBack(t *testing.T) {
	h, mock, notifier, done := setup(t)
	defer done()

	mock.ExpectQuery(`FROM applicants a`).
		WithArgs("app-1").
		WillReturnRows(applicantRow(sqlmock.NewRows(applicantCols), "app-1", models.StatusApplied, ""))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applicants SET status`).
		WithArgs("app-1", models.StatusInReview, "").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	output, err := h.Execute(context.Background(), &Input{ApplicantID: "app-1", Status: models.StatusInReview})

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.Empty(t, notifier.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Hire Cascade Tests
// ==========================

func TestHandler_Execute_Hired_RejectsAllSiblings(t *testing.T) {
	h, mock, notifier, done := setup(t)
	defer done()

	mock.ExpectQuery(`FROM applicants a`).
		WithArgs("app-1").
		WillReturnRows(applicantRow(sqlmock.NewRows(applicantCols), "app-1", models.StatusInterviewDone, ""))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applicants SET status`).
		WithArgs("app-1", models.StatusHired, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO email_outbox`).
		WithArgs("app-1", "hired", "app-1@example.com", sqlmock.AnyArg(), "pending").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	// Already-Rejected applicants never show up here; the store query excludes
	// them, which is what makes re-running the cascade converge.
	siblings := applicantRow(sqlmock.NewRows(applicantCols), "app-2", models.StatusInReview, "")
	siblings = applicantRow(siblings, "app-3", models.StatusInterviewScheduled, "iv-3")
	mock.ExpectQuery(`FROM applicants a`).
		WithArgs("job-1", "app-1", models.StatusRejected).
		WillReturnRows(siblings)

	// Sibling app-2: no interview to tear down.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applicants SET status`).
		WithArgs("app-2", models.StatusRejected).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO email_outbox`).
		WithArgs("app-2", "rejected", "app-2@example.com", sqlmock.AnyArg(), "pending").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	// Sibling app-3: linked interview is deleted inside the same transaction.
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM interviews`).
		WithArgs("iv-3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE applicants SET status`).
		WithArgs("app-3", models.StatusRejected).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO email_outbox`).
		WithArgs("app-3", "rejected", "app-3@example.com", sqlmock.AnyArg(), "pending").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	output, err := h.Execute(context.Background(), &Input{ApplicantID: "app-1", Status: models.StatusHired})

	require.NoError(t, err)
	assert.Equal(t, models.StatusHired, output.Applicant.Status)
	require.Len(t, output.OtherApplicants, 2)
	for _, sibling := range output.OtherApplicants {
		assert.Equal(t, models.StatusRejected, sibling.Status)
		assert.Empty(t, sibling.InterviewID)
	}

	// One push for the hired applicant, one per rejected sibling.
	assert.Len(t, notifier.calls, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_Hired_SiblingFailureDoesNotStopCascade(t *testing.T) {
	h, mock, _, done := setup(t)
	defer done()

	mock.ExpectQuery(`FROM applicants a`).
		WithArgs("app-1").
		WillReturnRows(applicantRow(sqlmock.NewRows(applicantCols), "app-1", models.StatusInterviewDone, ""))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applicants SET status`).
		WithArgs("app-1", models.StatusHired, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO email_outbox`).
		WithArgs("app-1", "hired", "app-1@example.com", sqlmock.AnyArg(), "pending").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	siblings := applicantRow(sqlmock.NewRows(applicantCols), "app-2", models.StatusInReview, "")
	siblings = applicantRow(siblings, "app-3", models.StatusApplied, "")
	mock.ExpectQuery(`FROM applicants a`).
		WithArgs("job-1", "app-1", models.StatusRejected).
		WillReturnRows(siblings)

	// app-2 fails mid-transaction and is rolled back.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applicants SET status`).
		WithArgs("app-2", models.StatusRejected).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	// app-3 is still processed.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applicants SET status`).
		WithArgs("app-3", models.StatusRejected).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO email_outbox`).
		WithArgs("app-3", "rejected", "app-3@example.com", sqlmock.AnyArg(), "pending").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	output, err := h.Execute(context.Background(), &Input{ApplicantID: "app-1", Status: models.StatusHired})

	require.NoError(t, err)
	require.Len(t, output.OtherApplicants, 1)
	assert.Equal(t, "app-3", output.OtherApplicants[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_Hired_NoSiblings(t *testing.T) {
	h, mock, notifier, done := setup(t)
	defer done()

	mock.ExpectQuery(`FROM applicants a`).
		WithArgs("app-1").
		WillReturnRows(applicantRow(sqlmock.NewRows(applicantCols), "app-1", models.StatusInterviewDone, ""))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applicants SET status`).
		WithArgs("app-1", models.StatusHired, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO email_outbox`).
		WithArgs("app-1", "hired", "app-1@example.com", sqlmock.AnyArg(), "pending").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`FROM applicants a`).
		WithArgs("job-1", "app-1", models.StatusRejected).
		WillReturnRows(sqlmock.NewRows(applicantCols))

	output, err := h.Execute(context.Background(), &Input{ApplicantID: "app-1", Status: models.StatusHired})

	require.NoError(t, err)
	assert.NotNil(t, output.OtherApplicants)
	assert.Len(t, output.OtherApplicants, 0)
	assert.Len(t, notifier.calls, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NotifierFailureDoesNotFailJob(t *testing.T) {
	h, mock, notifier, done := setup(t)
	defer done()
	notifier.err = errors.New("redis unavailable")

	mock.ExpectQuery(`FROM applicants a`).
		WithArgs("app-1").
		WillReturnRows(applicantRow(sqlmock.NewRows(applicantCols), "app-1", models.StatusApplied, ""))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applicants SET status`).
		WithArgs("app-1", models.StatusInReview, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO email_outbox`).
		WithArgs("app-1", "in-review", "app-1@example.com", sqlmock.AnyArg(), "pending").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	output, err := h.Execute(context.Background(), &Input{ApplicantID: "app-1", Status: models.StatusInReview})

	require.NoError(t, err)
	assert.Equal(t, models.StatusInReview, output.Applicant.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ExplicitInterviewIDFollowsPayload(t *testing.T) {
	h, mock, _, done := setup(t)
	defer done()

	mock.ExpectQuery(`FROM applicants a`).
		WithArgs("app-1").
		WillReturnRows(applicantRow(sqlmock.NewRows(applicantCols), "app-1", models.StatusInReview, ""))

	interviewID := "iv-42"
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applicants SET status`).
		WithArgs("app-1", models.StatusInterviewScheduled, "iv-42").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	output, err := h.Execute(context.Background(), &Input{
		ApplicantID: "app-1",
		Status:      models.StatusInterviewScheduled,
		InterviewID: &interviewID,
	})

	require.NoError(t, err)
	assert.Equal(t, "iv-42", output.Applicant.InterviewID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
