// internal/workers/applicant/email-updates/handler.go
package emailupdates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"careeragent-workers/internal/common/logger"
	"careeragent-workers/internal/common/metrics"
	"careeragent-workers/internal/models"
	"careeragent-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "handle-email-updates"
)

var (
	ErrJobSeekerNotFound    = errors.New("JOB_SEEKER_NOT_FOUND")
	ErrEmailDispatchFailed  = errors.New("EMAIL_DISPATCH_FAILED")
	ErrDatabaseUpdateFailed = errors.New("DATABASE_UPDATE_FAILED")
)

// Drainer sends an applicant's queued outbox emails. Satisfied by
// *outbox.Dispatcher.
type Drainer interface {
	DrainApplicant(ctx context.Context, applicantID string) (int, error)
}

type Handler struct {
	store   *store.Store
	drainer Drainer
	config  *Config
	logger  logger.Logger
}

func NewHandler(config *Config, st *store.Store, drainer Drainer, log logger.Logger) *Handler {
	return &Handler{
		store:   st,
		drainer: drainer,
		config:  config,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "INVALID_INPUT").Inc()
		h.failJob(client, job, "INVALID_INPUT", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		retries := int32(0)
		if errors.Is(err, ErrJobSeekerNotFound) {
			errorCode = "JOB_SEEKER_NOT_FOUND"
			retries = 0
		} else if errors.Is(err, ErrEmailDispatchFailed) {
			errorCode = "EMAIL_DISPATCH_FAILED"
			retries = 2
		} else if errors.Is(err, ErrDatabaseUpdateFailed) {
			errorCode = "DATABASE_UPDATE_FAILED"
			retries = 3
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var sent int

	switch input.Status {
	case models.StatusInReview:
		if err := h.store.IncReviewedApplications(ctx, input.Applicant.JobSeekerID); err != nil {
			return nil, fmt.Errorf("%w: reviewed applications counter: %v", ErrDatabaseUpdateFailed, err)
		}
		n, err := h.drainFor(ctx, &input.Applicant)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmailDispatchFailed, err)
		}
		sent = n

	case models.StatusHired:
		// The hired path requires the job seeker to exist; the congratulation
		// email and the account it belongs to are the point of the operation.
		if _, err := h.store.GetJobSeeker(ctx, input.Applicant.JobSeekerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: jobSeekerId %s", ErrJobSeekerNotFound, input.Applicant.JobSeekerID)
			}
			return nil, fmt.Errorf("%w: job seeker lookup: %v", ErrDatabaseUpdateFailed, err)
		}

		n, err := h.drainFor(ctx, &input.Applicant)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmailDispatchFailed, err)
		}
		sent = n

		// Cascade rejection emails are independent side effects: one failing
		// sibling is logged and the rest still go out.
		for i := range input.OtherApplicants {
			sibling := &input.OtherApplicants[i]
			n, err := h.drainFor(ctx, sibling)
			if err != nil {
				h.logger.Error("failed to send rejection email for sibling, continuing", map[string]interface{}{
					"applicantId": sibling.ID,
					"error":       err.Error(),
				})
				continue
			}
			sent += n
		}

	case models.StatusRejected:
		n, err := h.drainFor(ctx, &input.Applicant)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmailDispatchFailed, err)
		}
		sent = n

	default:
		// Applied and the interview statuses have no email phase here.
		h.logger.Debug("no email phase for status", map[string]interface{}{
			"status":      input.Status,
			"applicantId": input.Applicant.ID,
		})
	}

	h.logger.Info("email updates handled", map[string]interface{}{
		"status":      input.Status,
		"applicantId": input.Applicant.ID,
		"emailsSent":  sent,
	})

	return &Output{
		EmailsSent: sent,
		HandledAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// drainFor drains an applicant's outbox, honoring the owning job seeker's
// email preference. A disabled preference marks the rows skipped; the durable
// notification has already been appended by the status worker.
func (h *Handler) drainFor(ctx context.Context, a *models.Applicant) (int, error) {
	seeker, err := h.store.GetJobSeeker(ctx, a.JobSeekerID)
	switch {
	case err == nil && !seeker.EmailNotificationsEnabled:
		h.logger.Info("email notifications disabled, skipping queued emails", map[string]interface{}{
			"jobSeekerId": a.JobSeekerID,
			"applicantId": a.ID,
		})
		if err := h.store.SkipPendingEmails(ctx, a.ID); err != nil {
			h.logger.Warn("failed to mark queued emails skipped", map[string]interface{}{
				"applicantId": a.ID,
				"error":       err.Error(),
			})
		}
		return 0, nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		h.logger.Warn("job seeker preference lookup failed, sending anyway", map[string]interface{}{
			"jobSeekerId": a.JobSeekerID,
			"error":       err.Error(),
		})
	}

	return h.drainer.DrainApplicant(ctx, a.ID)
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      retries,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

// Execute exposes the core logic for tests and in-process callers.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
