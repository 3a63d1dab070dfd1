// internal/models/joblisting.go
package models

// Job listing statuses.
const (
	ListingActive = "Active"
	ListingClosed = "Closed"
	ListingPaused = "Paused"
)

type JobListing struct {
	ID             string `json:"id"`
	JobRole        string `json:"jobRole"`
	Company        string `json:"company"`
	Location       string `json:"location,omitempty"`
	CompanyWebsite string `json:"companyWebsite,omitempty"`
	RecruiterID    string `json:"recruiterId"`
	RecruiterName  string `json:"recruiterName,omitempty"`
	Status         string `json:"status"`
}
