// Package mailer renders templated lifecycle emails and sends them through
// SES, with optional SMS notifications through SNS.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"careeragent-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SESService abstracts the SES client for testing.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SNSService abstracts the SNS client for testing.
type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// EmailContext carries the values substituted into email templates. It
// round-trips through the outbox payload as JSON.
type EmailContext struct {
	RecipientName string `json:"recipientName"`
	JobRole       string `json:"jobRole"`
	Company       string `json:"company"`
	Location      string `json:"location,omitempty"`
	RecruiterName string `json:"recruiterName,omitempty"`
	CandidateName string `json:"candidateName,omitempty"`
	ScheduledTime string `json:"scheduledTime,omitempty"`
	MeetingLink   string `json:"meetingLink,omitempty"`
}

func (c EmailContext) data() map[string]string {
	return map[string]string{
		"recipientName": c.RecipientName,
		"jobRole":       c.JobRole,
		"company":       c.Company,
		"location":      c.Location,
		"recruiterName": c.RecruiterName,
		"candidateName": c.CandidateName,
		"scheduledTime": c.ScheduledTime,
		"meetingLink":   c.MeetingLink,
	}
}

// Marshal serializes the context for outbox storage.
func (c EmailContext) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalEmailContext restores a context from an outbox payload.
func UnmarshalEmailContext(payload []byte) (EmailContext, error) {
	var c EmailContext
	err := json.Unmarshal(payload, &c)
	return c, err
}

type Config struct {
	FromEmail    string
	EmailEnabled bool
	SMSEnabled   bool
}

type Mailer struct {
	ses    SESService
	sns    SNSService
	config Config
	logger logger.Logger
}

func New(sesClient SESService, snsClient SNSService, cfg Config, log logger.Logger) *Mailer {
	return &Mailer{
		ses:    sesClient,
		sns:    snsClient,
		config: cfg,
		logger: log,
	}
}

// Dispatch renders the template for eventType and sends it to recipientEmail.
func (m *Mailer) Dispatch(ctx context.Context, eventType, recipientEmail string, data EmailContext) error {
	tmpl, ok := templateMap[eventType]
	if !ok {
		return fmt.Errorf("no email template for event type %q", eventType)
	}

	if !m.config.EmailEnabled {
		m.logger.Debug("Email sending disabled, skipping dispatch", map[string]interface{}{
			"eventType": eventType,
			"recipient": recipientEmail,
		})
		return nil
	}

	subject := renderTemplate(tmpl.Subject, data.data())
	body := renderTemplate(tmpl.Body, data.data())

	input := &ses.SendEmailInput{
		Source: aws.String(m.config.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{recipientEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	}

	if _, err := m.ses.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send %s to %s: %w", eventType, recipientEmail, err)
	}

	m.logger.Info("Email sent", map[string]interface{}{
		"eventType": eventType,
		"recipient": recipientEmail,
	})
	return nil
}

// SendSMS sends a short text message. Disabled configs make this a no-op.
func (m *Mailer) SendSMS(ctx context.Context, phone, message string) error {
	if !m.config.SMSEnabled {
		m.logger.Debug("SMS sending disabled, skipping", map[string]interface{}{"phone": phone})
		return nil
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(message),
	}
	if _, err := m.sns.Publish(ctx, input); err != nil {
		return fmt.Errorf("sns publish to %s: %w", phone, err)
	}

	m.logger.Info("SMS sent", map[string]interface{}{"phone": phone})
	return nil
}
