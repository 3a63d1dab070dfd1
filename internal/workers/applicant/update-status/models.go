// internal/workers/applicant/update-status/models.go
package updatestatus

import (
	"careeragent-workers/internal/common/validation"
	"careeragent-workers/internal/models"
)

type Input struct {
	ApplicantID string  `json:"applicantId"`
	Status      string  `json:"status"`
	InterviewID *string `json:"interviewId,omitempty"` // nil keeps the current link
}

type Output struct {
	Applicant       *models.Applicant  `json:"applicant"`
	OtherApplicants []models.Applicant `json:"otherApplicants"`
	UpdatedAt       string             `json:"updatedAt"` // ISO 8601
}

// inputSchema validates raw job variables before unmarshal. Process variables
// beyond these are allowed; Camunda carries the whole scope in every job.
var inputSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"applicantId", "status"},
	"properties": map[string]interface{}{
		"applicantId": map[string]interface{}{"type": "string", "minLength": 1},
		"status":      map[string]interface{}{"type": "string", "minLength": 1},
		"interviewId": map[string]interface{}{"type": []interface{}{"string", "null"}},
	},
})
