// internal/models/notification.go
package models

import "time"

// Notification types pushed to clients.
const (
	NotificationInterviewScheduled = "interviewScheduled"
	NotificationApplicationStatus  = "applicationStatus"
	NotificationNewApplicant       = "newApplicant"
)

// ExtraData carries opaque client routing hints. The payload is stored and
// delivered field-for-field as produced; the core never interprets it.
type ExtraData struct {
	GoToRoute     string                 `json:"goToRoute,omitempty"`
	StateAddition map[string]interface{} `json:"stateAddition,omitempty"`
}

type Notification struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	ExtraData ExtraData `json:"extraData"`
	Timestamp time.Time `json:"timestamp"`
}
