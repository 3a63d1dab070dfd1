// internal/workers/applicant/update-status/handler.go
package updatestatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cerrors "careeragent-workers/internal/common/errors"
	"careeragent-workers/internal/common/logger"
	"careeragent-workers/internal/common/metrics"
	"careeragent-workers/internal/mailer"
	"careeragent-workers/internal/models"
	"careeragent-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "update-applicant-status"
)

// Notifier appends a durable notification and pushes it to connected clients.
type Notifier interface {
	Notify(ctx context.Context, recipientID, recipientType string, n models.Notification) error
}

type Handler struct {
	store    *store.Store
	notifier Notifier
	errs     *cerrors.ErrorHandler
	config   *Config
	logger   logger.Logger
}

func NewHandler(config *Config, st *store.Store, notifier Notifier, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		store:    st,
		notifier: notifier,
		errs:     cerrors.NewErrorHandler(l),
		config:   config,
		logger:   l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	if err := inputSchema.ValidateBytes([]byte(job.Variables)); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(cerrors.ErrCodeInvalidInput)).Inc()
		h.errs.HandleJobError(ctx, client, job, cerrors.NewInvalidInputError(err.Error()))
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(cerrors.ErrCodeInvalidInput)).Inc()
		h.errs.HandleJobError(ctx, client, job, cerrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		var stdErr *cerrors.StandardError
		code := "INTERNAL_ERROR"
		if errors.As(err, &stdErr) {
			code = string(stdErr.Code)
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
		h.errs.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if !models.IsRecognizedStatus(input.Status) {
		return nil, cerrors.NewInvalidStatusError(input.Status)
	}

	applicant, err := h.store.GetApplicant(ctx, input.ApplicantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, cerrors.NewApplicantNotFoundError(input.ApplicantID)
		}
		return nil, cerrors.NewDatabaseUpdateFailedError(err)
	}

	// The interview link follows the payload when present, otherwise it is
	// preserved. Entering Interview Done or Rejected always tears it down.
	interviewID := applicant.InterviewID
	if input.InterviewID != nil {
		interviewID = *input.InterviewID
	}
	teardownID := ""
	if models.ClearsInterview(input.Status) {
		teardownID = applicant.InterviewID
		interviewID = ""
	}

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return nil, cerrors.NewDatabaseConnectionFailedError(err)
	}
	txStore := h.store.WithTx(tx)

	if teardownID != "" {
		if err := txStore.DeleteInterview(ctx, teardownID); err != nil {
			tx.Rollback()
			return nil, cerrors.NewDatabaseUpdateFailedError(err)
		}
	}

	if err := txStore.UpdateApplicantStatus(ctx, applicant.ID, input.Status, interviewID); err != nil {
		tx.Rollback()
		if errors.Is(err, store.ErrNotFound) {
			return nil, cerrors.NewApplicantNotFoundError(applicant.ID)
		}
		return nil, cerrors.NewDatabaseUpdateFailedError(err)
	}

	// The email side effect rides in the same transaction as the transition,
	// so a crash between the two can never lose or orphan it.
	if event := statusEmailEvent(input.Status); event != "" {
		if err := enqueueStatusEmail(ctx, txStore, applicant, event); err != nil {
			tx.Rollback()
			return nil, cerrors.NewDatabaseInsertFailedError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, cerrors.NewDatabaseUpdateFailedError(err)
	}

	applicant.Status = input.Status
	applicant.InterviewID = interviewID

	h.notifySeeker(ctx, applicant)

	otherApplicants := []models.Applicant{}
	if input.Status == models.StatusHired {
		otherApplicants = h.rejectSiblings(ctx, applicant)
	}

	h.logger.Info("applicant status updated", map[string]interface{}{
		"applicantId":     applicant.ID,
		"status":          applicant.Status,
		"jobId":           applicant.JobID,
		"cascadeRejected": len(otherApplicants),
	})

	return &Output{
		Applicant:       applicant,
		OtherApplicants: otherApplicants,
		UpdatedAt:       time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// statusEmailEvent maps a status to its email event type. Statuses without an
// email phase map to "".
func statusEmailEvent(status string) string {
	switch status {
	case models.StatusInReview:
		return mailer.EventInReview
	case models.StatusHired:
		return mailer.EventHired
	case models.StatusRejected:
		return mailer.EventRejected
	default:
		return ""
	}
}

func enqueueStatusEmail(ctx context.Context, txStore *store.Store, a *models.Applicant, event string) error {
	emailCtx := emailContextFor(a)
	payload, err := emailCtx.Marshal()
	if err != nil {
		return err
	}
	return txStore.EnqueueEmail(ctx, a.ID, event, a.Email, payload)
}

func emailContextFor(a *models.Applicant) mailer.EmailContext {
	ctx := mailer.EmailContext{
		RecipientName: a.Name,
		CandidateName: a.Name,
		JobRole:       a.JobTitle,
	}
	if l := a.JobListing; l != nil {
		ctx.JobRole = l.JobRole
		ctx.Company = l.Company
		ctx.Location = l.Location
		ctx.RecruiterName = l.RecruiterName
	}
	return ctx
}

// notifySeeker is a side effect: append failures are logged, never surfaced.
func (h *Handler) notifySeeker(ctx context.Context, a *models.Applicant) {
	jobRole, company := a.JobTitle, ""
	if a.JobListing != nil {
		jobRole, company = a.JobListing.JobRole, a.JobListing.Company
	}

	note := models.Notification{
		Type:    models.NotificationApplicationStatus,
		Message: fmt.Sprintf("Your application for %s at %s is now %s", jobRole, company, a.Status),
		ExtraData: models.ExtraData{
			GoToRoute: "/dashboard",
			StateAddition: map[string]interface{}{
				"applicantId": a.ID,
				"jobId":       a.JobID,
				"status":      a.Status,
			},
		},
	}

	if err := h.notifier.Notify(ctx, a.JobSeekerID, models.RecipientJobSeeker, note); err != nil {
		h.logger.Error("failed to notify job seeker", map[string]interface{}{
			"jobSeekerId": a.JobSeekerID,
			"applicantId": a.ID,
			"error":       err.Error(),
		})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	} else {
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

// Execute exposes the core logic for tests and in-process callers.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
