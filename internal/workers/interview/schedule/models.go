// internal/workers/interview/schedule/models.go
package scheduleinterview

import (
	"careeragent-workers/internal/common/validation"
	"careeragent-workers/internal/models"
)

type Input struct {
	ApplicantID   string               `json:"applicantId"`
	Participants  []models.Participant `json:"participants"`
	ScheduledTime string               `json:"scheduledTime"` // ISO 8601
	MeetingLink   string               `json:"meetingLink,omitempty"`
}

type Output struct {
	Interview *models.Interview `json:"interview"`
	// ParticipantsResolved is false when a tagged participant id did not
	// resolve; the interview exists but its notifications and emails were
	// skipped, and downstream steps can branch on the flag.
	ParticipantsResolved bool   `json:"participantsResolved"`
	ScheduledAt          string `json:"scheduledAt"` // ISO 8601
}

var inputSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"applicantId", "participants", "scheduledTime"},
	"properties": map[string]interface{}{
		"applicantId":   map[string]interface{}{"type": "string", "minLength": 1},
		"scheduledTime": map[string]interface{}{"type": "string", "minLength": 1},
		"meetingLink":   map[string]interface{}{"type": "string"},
		"participants": map[string]interface{}{
			"type":     "array",
			"minItems": 2,
			"maxItems": 2,
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"userId", "role"},
				"properties": map[string]interface{}{
					"userId": map[string]interface{}{"type": "string", "minLength": 1},
					"name":   map[string]interface{}{"type": "string"},
					"role":   map[string]interface{}{"type": "string", "enum": []interface{}{"JobSeeker", "Recruiter"}},
				},
			},
		},
	},
})
