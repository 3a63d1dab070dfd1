// internal/workers/applicant/update-status/cascade.go
package updatestatus

import (
	"context"

	"careeragent-workers/internal/mailer"
	"careeragent-workers/internal/models"
)

// rejectSiblings rejects every non-Rejected applicant for the hired
// applicant's listing. Each sibling is handled in its own transaction and a
// failure on one never stops the rest; re-running after a partial failure
// converges because already-Rejected rows are excluded from the listing.
func (h *Handler) rejectSiblings(ctx context.Context, hired *models.Applicant) []models.Applicant {
	siblings, err := h.store.ListActiveSiblings(ctx, hired.JobID, hired.ID)
	if err != nil {
		h.logger.Error("failed to list siblings for cascade rejection", map[string]interface{}{
			"jobId":       hired.JobID,
			"applicantId": hired.ID,
			"error":       err.Error(),
		})
		return []models.Applicant{}
	}

	rejected := make([]models.Applicant, 0, len(siblings))
	for _, sibling := range siblings {
		sibling := sibling
		if err := h.rejectOne(ctx, &sibling); err != nil {
			h.logger.Error("cascade rejection failed for sibling, continuing", map[string]interface{}{
				"applicantId": sibling.ID,
				"jobId":       sibling.JobID,
				"error":       err.Error(),
			})
			continue
		}
		rejected = append(rejected, sibling)
	}
	return rejected
}

func (h *Handler) rejectOne(ctx context.Context, sibling *models.Applicant) error {
	tx, err := h.store.Begin(ctx)
	if err != nil {
		return err
	}
	txStore := h.store.WithTx(tx)

	if sibling.InterviewID != "" {
		if err := txStore.DeleteInterview(ctx, sibling.InterviewID); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := txStore.RejectApplicant(ctx, sibling.ID); err != nil {
		tx.Rollback()
		return err
	}

	if err := enqueueStatusEmail(ctx, txStore, sibling, mailer.EventRejected); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	sibling.Status = models.StatusRejected
	sibling.InterviewID = ""
	h.notifySeeker(ctx, sibling)
	return nil
}
