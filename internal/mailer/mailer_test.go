// internal/mailer/mailer_test.go
package mailer

import (
	"context"
	"errors"
	"testing"

	"careeragent-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, input)
	return &ses.SendEmailOutput{}, nil
}

type fakeSNS struct {
	inputs []*sns.PublishInput
}

func (f *fakeSNS) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, input)
	return &sns.PublishOutput{}, nil
}

func testMailer(t *testing.T, sesClient SESService, snsClient SNSService, emailEnabled, smsEnabled bool) *Mailer {
	t.Helper()
	return New(sesClient, snsClient, Config{
		FromEmail:    "noreply@careeragent.example",
		EmailEnabled: emailEnabled,
		SMSEnabled:   smsEnabled,
	}, logger.NewTestLogger(t))
}

func testContext() EmailContext {
	return EmailContext{
		RecipientName: "Jane Doe",
		JobRole:       "Backend Engineer",
		Company:       "Acme",
		Location:      "Berlin",
		RecruiterName: "Rita Recruiter",
	}
}

func TestMailer_Dispatch_RendersTemplate(t *testing.T) {
	sesClient := &fakeSES{}
	m := testMailer(t, sesClient, &fakeSNS{}, true, false)

	err := m.Dispatch(context.Background(), EventHired, "jane@example.com", testContext())

	require.NoError(t, err)
	require.Len(t, sesClient.inputs, 1)

	input := sesClient.inputs[0]
	assert.Equal(t, "noreply@careeragent.example", *input.Source)
	assert.Equal(t, []string{"jane@example.com"}, input.Destination.ToAddresses)

	subject := *input.Message.Subject.Data
	body := *input.Message.Body.Text.Data
	assert.Contains(t, subject, "Acme")
	assert.NotContains(t, subject, "{{")
	assert.Contains(t, body, "Jane Doe")
	assert.Contains(t, body, "Backend Engineer")
	assert.NotContains(t, body, "{{")
}

func TestMailer_Dispatch_EveryLifecycleEventHasATemplate(t *testing.T) {
	sesClient := &fakeSES{}
	m := testMailer(t, sesClient, &fakeSNS{}, true, false)

	events := []string{
		EventApplicationReceived,
		EventInReview,
		EventInterviewScheduled,
		EventHired,
		EventRejected,
	}
	for _, event := range events {
		assert.NoError(t, m.Dispatch(context.Background(), event, "jane@example.com", testContext()), event)
	}
	assert.Len(t, sesClient.inputs, len(events))
}

func TestMailer_Dispatch_UnknownEventType(t *testing.T) {
	sesClient := &fakeSES{}
	m := testMailer(t, sesClient, &fakeSNS{}, true, false)

	err := m.Dispatch(context.Background(), "promoted", "jane@example.com", testContext())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "promoted")
	assert.Empty(t, sesClient.inputs)
}

func TestMailer_Dispatch_DisabledIsNoOp(t *testing.T) {
	sesClient := &fakeSES{}
	m := testMailer(t, sesClient, &fakeSNS{}, false, false)

	err := m.Dispatch(context.Background(), EventHired, "jane@example.com", testContext())

	assert.NoError(t, err)
	assert.Empty(t, sesClient.inputs)
}

func TestMailer_Dispatch_SESFailure(t *testing.T) {
	sesClient := &fakeSES{err: errors.New("throttled")}
	m := testMailer(t, sesClient, &fakeSNS{}, true, false)

	err := m.Dispatch(context.Background(), EventRejected, "jane@example.com", testContext())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestMailer_SendSMS_DisabledIsNoOp(t *testing.T) {
	snsClient := &fakeSNS{}
	m := testMailer(t, &fakeSES{}, snsClient, true, false)

	assert.NoError(t, m.SendSMS(context.Background(), "+49123456", "interview scheduled"))
	assert.Empty(t, snsClient.inputs)
}

func TestMailer_SendSMS_Enabled(t *testing.T) {
	snsClient := &fakeSNS{}
	m := testMailer(t, &fakeSES{}, snsClient, true, true)

	require.NoError(t, m.SendSMS(context.Background(), "+49123456", "interview scheduled"))
	require.Len(t, snsClient.inputs, 1)
	assert.Equal(t, "+49123456", *snsClient.inputs[0].PhoneNumber)
	assert.Equal(t, "interview scheduled", *snsClient.inputs[0].Message)
}

func TestEmailContext_RoundTripsThroughPayload(t *testing.T) {
	original := testContext()
	original.ScheduledTime = "Thu, 10 Sep 2026 14:00:00 UTC"
	original.MeetingLink = "https://meet.example/iv"

	payload, err := original.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalEmailContext(payload)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestRenderTemplate_StripsUnknownTokens(t *testing.T) {
	out := renderTemplate("Hello {{recipientName}}, {{unknownToken}}!", map[string]string{
		"recipientName": "Jane",
	})
	assert.Equal(t, "Hello Jane, !", out)
}
