// internal/mailer/templates.go
package mailer

import "strings"

// Email event types. Every templated send names one of these; an unknown
// event type is a programming error and fails the dispatch.
const (
	EventApplicationReceived = "application-received"
	EventInReview            = "in-review"
	EventInterviewScheduled  = "interview-scheduled"
	EventHired               = "hired"
	EventRejected            = "rejected"
)

type emailTemplate struct {
	Subject string
	Body    string
}

// templateMap keys subjects and bodies by event type. Placeholders use
// {{name}} and are filled from EmailContext.
var templateMap = map[string]emailTemplate{
	EventApplicationReceived: {
		Subject: "Application Received: {{jobRole}} at {{company}}",
		Body: "Hi {{recipientName}},\n\n" +
			"We received your application for the {{jobRole}} position at {{company}}.\n" +
			"The recruiting team will review it and keep you posted here.\n\n" +
			"Good luck!\nThe CareerAgent Team",
	},
	EventInReview: {
		Subject: "Your Application for {{jobRole}} at {{company}} is Under Review",
		Body: "Hi {{recipientName}},\n\n" +
			"Good news! Your application for the {{jobRole}} position at {{company}} is now under review.\n" +
			"{{recruiterName}} is looking at your profile and you will hear back soon.\n\n" +
			"The CareerAgent Team",
	},
	EventInterviewScheduled: {
		Subject: "Interview Scheduled: {{jobRole}} at {{company}}",
		Body: "Hi {{recipientName}},\n\n" +
			"An interview has been scheduled for the {{jobRole}} position at {{company}}.\n" +
			"When: {{scheduledTime}}\n" +
			"Meeting link: {{meetingLink}}\n\n" +
			"Candidate: {{candidateName}}\n\n" +
			"The CareerAgent Team",
	},
	EventHired: {
		Subject: "Congratulations! You're Hired at {{company}}",
		Body: "Hi {{recipientName}},\n\n" +
			"Congratulations! You have been hired for the {{jobRole}} position at {{company}}.\n" +
			"{{recruiterName}} will reach out with next steps.\n\n" +
			"Welcome aboard!\nThe CareerAgent Team",
	},
	EventRejected: {
		Subject: "Application Update for {{jobRole}} at {{company}}",
		Body: "Hi {{recipientName}},\n\n" +
			"Thank you for your interest in the {{jobRole}} position at {{company}}.\n" +
			"After careful consideration, the team has decided to move forward with other candidates.\n" +
			"We encourage you to apply to future openings that match your profile.\n\n" +
			"The CareerAgent Team",
	},
}

// renderTemplate replaces {{placeholder}} tokens with values and strips any
// leftover tokens so an incomplete context never leaks braces to a recipient.
func renderTemplate(tmpl string, data map[string]string) string {
	out := tmpl
	for key, value := range data {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}

	// Remove unreplaced placeholders
	for {
		start := strings.Index(out, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(out[start:], "}}")
		if end < 0 {
			break
		}
		out = out[:start] + out[start+end+2:]
	}
	return out
}
