// internal/models/recipient.go
package models

// Recipient types for notifications and email contact lookup.
const (
	RecipientJobSeeker = "jobSeeker"
	RecipientRecruiter = "recruiter"
)

// JobSeeker owns the activity counters; they only ever move forward.
type JobSeeker struct {
	ID                        string `json:"id"`
	FullName                  string `json:"fullName"`
	Email                     string `json:"email"`
	Phone                     string `json:"phone,omitempty"`
	ProfilePic                string `json:"profilePic,omitempty"`
	EmailNotificationsEnabled bool   `json:"emailNotificationsEnabled"`
	NumOfApplicationsSent     int    `json:"numOfApplicationsSent"`
	NumOfReviewedApplications int    `json:"numOfReviewedApplications"`
	NumOfInterviewsScheduled  int    `json:"numOfInterviewsScheduled"`
}

type Recruiter struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName,omitempty"`
	ProfilePic  string `json:"profilePic,omitempty"`
}
