// internal/workers/applicant/create-record/handler.go
package createrecord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

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
	TaskType = "create-applicant-record"
)

var (
	ErrInvalidInput         = errors.New("INVALID_INPUT")
	ErrJobListingNotFound   = errors.New("JOB_LISTING_NOT_FOUND")
	ErrJobListingNotActive  = errors.New("JOB_LISTING_NOT_ACTIVE")
	ErrDuplicateApplication = errors.New("DUPLICATE_APPLICATION")
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
)

// Notifier appends a durable notification and pushes it to connected clients.
type Notifier interface {
	Notify(ctx context.Context, recipientID, recipientType string, n models.Notification) error
}

type Handler struct {
	store    *store.Store
	notifier Notifier
	config   *Config
	logger   logger.Logger
}

func NewHandler(config *Config, st *store.Store, notifier Notifier, log logger.Logger) *Handler {
	return &Handler{
		store:    st,
		notifier: notifier,
		config:   config,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		switch {
		case errors.Is(err, ErrInvalidInput):
			errorCode = "INVALID_INPUT"
		case errors.Is(err, ErrJobListingNotFound):
			errorCode = "JOB_LISTING_NOT_FOUND"
		case errors.Is(err, ErrJobListingNotActive):
			errorCode = "JOB_LISTING_NOT_ACTIVE"
		case errors.Is(err, ErrDuplicateApplication):
			errorCode = "DUPLICATE_APPLICATION"
		case errors.Is(err, ErrDatabaseInsertFailed):
			errorCode = "DATABASE_INSERT_FAILED"
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
	if input.Name == "" || input.JobID == "" || input.JobSeekerID == "" || input.RecruiterID == "" {
		return nil, fmt.Errorf("%w: name, jobId, jobSeekerId and recruiterId are required", ErrInvalidInput)
	}
	if !validation.ValidateEmail(input.Email) {
		return nil, fmt.Errorf("%w: invalid email %q", ErrInvalidInput, input.Email)
	}

	listing, err := h.store.GetJobListing(ctx, input.JobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: jobId %s", ErrJobListingNotFound, input.JobID)
		}
		return nil, fmt.Errorf("%w: listing lookup: %v", ErrDatabaseInsertFailed, err)
	}
	if listing.Status != models.ListingActive {
		return nil, fmt.Errorf("%w: jobId %s has status %s", ErrJobListingNotActive, listing.ID, listing.Status)
	}

	// One application per job seeker per listing.
	exists, err := h.store.ApplicantExists(ctx, input.JobID, input.JobSeekerID)
	if err != nil {
		return nil, fmt.Errorf("%w: duplicate check failed: %v", ErrDatabaseInsertFailed, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: job seeker %s already applied to listing %s",
			ErrDuplicateApplication, input.JobSeekerID, input.JobID)
	}

	applicant := &models.Applicant{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		Status:      models.StatusApplied,
		JobID:       listing.ID,
		RecruiterID: input.RecruiterID,
		JobSeekerID: input.JobSeekerID,
		JobTitle:    listing.JobRole,
		JobListing:  listing,
	}

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", ErrDatabaseInsertFailed, err)
	}
	txStore := h.store.WithTx(tx)

	if err := txStore.InsertApplicant(ctx, applicant); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}

	// The acknowledgement email rides in the intake transaction and is
	// delivered by the outbox sweep.
	emailCtx := mailer.EmailContext{
		RecipientName: applicant.Name,
		JobRole:       listing.JobRole,
		Company:       listing.Company,
		Location:      listing.Location,
		RecruiterName: listing.RecruiterName,
	}
	payload, err := emailCtx.Marshal()
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("%w: marshal email context: %v", ErrDatabaseInsertFailed, err)
	}
	if err := txStore.EnqueueEmail(ctx, applicant.ID, mailer.EventApplicationReceived, applicant.Email, payload); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", ErrDatabaseInsertFailed, err)
	}

	// Follow-ups are non-critical: log errors and keep the created record.
	if err := h.store.IncApplicationsSent(ctx, input.JobSeekerID); err != nil {
		h.logger.Warn("failed to increment applications sent counter", map[string]interface{}{
			"jobSeekerId": input.JobSeekerID,
			"error":       err.Error(),
		})
	}

	note := models.Notification{
		Type:    models.NotificationNewApplicant,
		Message: fmt.Sprintf("%s applied for %s", applicant.Name, listing.JobRole),
		ExtraData: models.ExtraData{
			GoToRoute: "/dashboard",
			StateAddition: map[string]interface{}{
				"applicantId": applicant.ID,
				"jobId":       listing.ID,
			},
		},
	}
	if err := h.notifier.Notify(ctx, listing.RecruiterID, models.RecipientRecruiter, note); err != nil {
		h.logger.Error("failed to notify recruiter", map[string]interface{}{
			"recruiterId": listing.RecruiterID,
			"applicantId": applicant.ID,
			"error":       err.Error(),
		})
	}

	h.logger.Info("applicant record created", map[string]interface{}{
		"applicantId": applicant.ID,
		"jobId":       listing.ID,
		"jobSeekerId": input.JobSeekerID,
	})

	return &Output{
		ApplicantID: applicant.ID,
		Status:      models.StatusApplied,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
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
