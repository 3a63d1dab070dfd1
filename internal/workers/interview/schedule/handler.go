// internal/workers/interview/schedule/handler.go
package scheduleinterview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cerrors "careeragent-workers/internal/common/errors"
	"careeragent-workers/internal/common/logger"
	"careeragent-workers/internal/common/metrics"
	"careeragent-workers/internal/common/validation"
	"careeragent-workers/internal/mailer"
	"careeragent-workers/internal/models"
	"careeragent-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "schedule-interview"
)

// Notifier appends a durable notification and pushes it to connected clients.
type Notifier interface {
	Notify(ctx context.Context, recipientID, recipientType string, n models.Notification) error
}

// Sender sends interview emails and SMS. Satisfied by *mailer.Mailer.
type Sender interface {
	Dispatch(ctx context.Context, eventType, recipientEmail string, data mailer.EmailContext) error
	SendSMS(ctx context.Context, phone, message string) error
}

type Handler struct {
	store    *store.Store
	notifier Notifier
	mailer   Sender
	errs     *cerrors.ErrorHandler
	config   *Config
	logger   logger.Logger
}

func NewHandler(config *Config, st *store.Store, notifier Notifier, sender Sender, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		store:    st,
		notifier: notifier,
		mailer:   sender,
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
		h.errs.HandleJobError(ctx, client, job, cerrors.NewInvalidInputError("at least two participants and scheduledTime are required"))
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
	scheduledTime, err := time.Parse(time.RFC3339, input.ScheduledTime)
	if err != nil {
		return nil, cerrors.NewInvalidInputError(fmt.Sprintf("scheduledTime must be a valid ISO 8601 timestamp: %v", err))
	}

	// The pair type holds exactly one participant per role. A list that
	// cannot form a pair is rejected before anything is written.
	pair, err := models.PairFromList(input.Participants)
	if err != nil {
		return nil, cerrors.NewInvalidInputError(err.Error())
	}

	applicant, err := h.store.GetApplicant(ctx, input.ApplicantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, cerrors.NewApplicantNotFoundError(input.ApplicantID)
		}
		return nil, cerrors.NewDatabaseUpdateFailedError(err)
	}

	interview := &models.Interview{
		ID:            uuid.New().String(),
		JobListingID:  applicant.JobID,
		ApplicantID:   applicant.ID,
		Participants:  pair,
		ScheduledTime: scheduledTime.UTC(),
		MeetingLink:   input.MeetingLink,
		Status:        models.InterviewScheduled,
	}

	if err := h.store.InsertInterview(ctx, interview); err != nil {
		return nil, cerrors.NewDatabaseInsertFailedError(err)
	}

	// Participant ids are caller-supplied tags; a stale id must not undo the
	// interview that was just created. Unresolved participants downgrade the
	// operation to a partial success: the interview row stays, the applicant
	// keeps its current status, and no side effects run.
	seeker, seekerErr := h.store.GetJobSeeker(ctx, pair.JobSeeker.UserID)
	recruiter, recruiterErr := h.store.GetRecruiter(ctx, pair.Recruiter.UserID)
	if seekerErr != nil || recruiterErr != nil {
		h.logger.Warn("participant did not resolve, skipping notifications and emails", map[string]interface{}{
			"interviewId":  interview.ID,
			"jobSeekerId":  pair.JobSeeker.UserID,
			"recruiterId":  pair.Recruiter.UserID,
			"seekerError":  errString(seekerErr),
			"recruitError": errString(recruiterErr),
		})
		return &Output{
			Interview:            interview,
			ParticipantsResolved: false,
			ScheduledAt:          time.Now().UTC().Format(time.RFC3339),
		}, nil
	}

	if err := h.store.UpdateApplicantStatus(ctx, applicant.ID, models.StatusInterviewScheduled, interview.ID); err != nil {
		return nil, cerrors.NewDatabaseUpdateFailedError(err)
	}
	applicant.Status = models.StatusInterviewScheduled
	applicant.InterviewID = interview.ID

	h.notifySeeker(ctx, seeker, applicant, interview)

	if err := h.store.IncInterviewsScheduled(ctx, seeker.ID); err != nil {
		h.logger.Error("failed to increment interviews scheduled counter", map[string]interface{}{
			"jobSeekerId": seeker.ID,
			"error":       err.Error(),
		})
	}

	h.sendInterviewEmails(ctx, applicant, interview, seeker, recruiter)

	h.logger.Info("interview scheduled", map[string]interface{}{
		"interviewId": interview.ID,
		"applicantId": applicant.ID,
		"jobSeekerId": seeker.ID,
		"recruiterId": recruiter.ID,
	})

	return &Output{
		Interview:            interview,
		ParticipantsResolved: true,
		ScheduledAt:          time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) notifySeeker(ctx context.Context, seeker *models.JobSeeker, a *models.Applicant, iv *models.Interview) {
	jobRole, company := a.JobTitle, ""
	if a.JobListing != nil {
		jobRole, company = a.JobListing.JobRole, a.JobListing.Company
	}

	note := models.Notification{
		Type:    models.NotificationInterviewScheduled,
		Message: fmt.Sprintf("Interview scheduled for %s at %s", jobRole, company),
		ExtraData: models.ExtraData{
			GoToRoute: "/interviews",
			StateAddition: map[string]interface{}{
				"interviewId": iv.ID,
			},
		},
	}

	if err := h.notifier.Notify(ctx, seeker.ID, models.RecipientJobSeeker, note); err != nil {
		h.logger.Error("failed to notify job seeker", map[string]interface{}{
			"jobSeekerId": seeker.ID,
			"interviewId": iv.ID,
			"error":       err.Error(),
		})
	}
}

// sendInterviewEmails emails both participants, collapsing shared addresses
// to a single send. Failures are logged; the interview already exists.
func (h *Handler) sendInterviewEmails(ctx context.Context, a *models.Applicant, iv *models.Interview, seeker *models.JobSeeker, recruiter *models.Recruiter) {
	base := mailer.EmailContext{
		CandidateName: seeker.FullName,
		ScheduledTime: iv.ScheduledTime.Format(time.RFC1123),
		MeetingLink:   iv.MeetingLink,
	}
	if l := a.JobListing; l != nil {
		base.JobRole = l.JobRole
		base.Company = l.Company
		base.Location = l.Location
		base.RecruiterName = l.RecruiterName
	}

	sent := make(map[string]bool)

	if seeker.EmailNotificationsEnabled {
		seekerCtx := base
		seekerCtx.RecipientName = seeker.FullName
		if err := h.mailer.Dispatch(ctx, mailer.EventInterviewScheduled, seeker.Email, seekerCtx); err != nil {
			h.logger.Error("failed to email job seeker", map[string]interface{}{
				"jobSeekerId": seeker.ID,
				"error":       err.Error(),
			})
		} else {
			sent[seeker.Email] = true
		}
	}

	if !sent[recruiter.Email] {
		recruiterCtx := base
		recruiterCtx.RecipientName = recruiter.FullName
		if err := h.mailer.Dispatch(ctx, mailer.EventInterviewScheduled, recruiter.Email, recruiterCtx); err != nil {
			h.logger.Error("failed to email recruiter", map[string]interface{}{
				"recruiterId": recruiter.ID,
				"error":       err.Error(),
			})
		}
	}

	if seeker.Phone != "" && validation.ValidatePhone(seeker.Phone) {
		msg := fmt.Sprintf("CareerAgent: interview for %s scheduled at %s", base.JobRole, base.ScheduledTime)
		if err := h.mailer.SendSMS(ctx, seeker.Phone, msg); err != nil {
			h.logger.Warn("failed to send interview SMS", map[string]interface{}{
				"jobSeekerId": seeker.ID,
				"error":       err.Error(),
			})
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
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
