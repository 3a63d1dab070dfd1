// internal/workers/applicant/email-updates/models.go
package emailupdates

import "careeragent-workers/internal/models"

type Input struct {
	Status          string             `json:"status"`
	Applicant       models.Applicant   `json:"applicant"`
	OtherApplicants []models.Applicant `json:"otherApplicants,omitempty"`
}

type Output struct {
	EmailsSent int    `json:"emailsSent"`
	HandledAt  string `json:"handledAt"` // ISO 8601
}
