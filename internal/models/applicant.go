// internal/models/applicant.go
package models

// Applicant statuses recognized by the lifecycle core.
const (
	StatusApplied            = "Applied"
	StatusInReview           = "In Review"
	StatusInterviewScheduled = "Interview Scheduled"
	StatusInterviewDone      = "Interview Done"
	StatusHired              = "Hired"
	StatusRejected           = "Rejected"
)

var recognizedStatuses = map[string]bool{
	StatusApplied:            true,
	StatusInReview:           true,
	StatusInterviewScheduled: true,
	StatusInterviewDone:      true,
	StatusHired:              true,
	StatusRejected:           true,
}

// IsRecognizedStatus reports whether s is one of the applicant statuses.
func IsRecognizedStatus(s string) bool {
	return recognizedStatuses[s]
}

// IsTerminalStatus reports whether s ends the lifecycle.
func IsTerminalStatus(s string) bool {
	return s == StatusHired || s == StatusRejected
}

// ClearsInterview reports whether entering s must tear down a linked interview.
func ClearsInterview(s string) bool {
	return s == StatusInterviewDone || s == StatusRejected
}

// Applicant is one job seeker's application to one job listing.
// JobID, RecruiterID and JobSeekerID are immutable after creation;
// InterviewID is non-empty only while an interview is active.
type Applicant struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone,omitempty"`
	Status      string      `json:"status"`
	JobID       string      `json:"jobId"`
	RecruiterID string      `json:"recruiterId"`
	JobSeekerID string      `json:"jobSeekerId"`
	JobTitle    string      `json:"jobTitle,omitempty"`
	InterviewID string      `json:"interviewId,omitempty"`
	AppliedAt   string      `json:"appliedAt,omitempty"` // ISO 8601
	JobListing  *JobListing `json:"jobListing,omitempty"`
}
