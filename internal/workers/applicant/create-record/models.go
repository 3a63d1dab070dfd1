// internal/workers/applicant/create-record/models.go
package createrecord

type Input struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	JobID       string `json:"jobId"`
	RecruiterID string `json:"recruiterId"`
	JobSeekerID string `json:"jobSeekerId"`
}

type Output struct {
	ApplicantID string `json:"applicantId"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"` // ISO 8601
}
