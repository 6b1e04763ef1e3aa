package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"rumble-survey/internal/common/errors"
	"rumble-survey/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func submission(loc models.Location) models.SessionSubmission {
	return models.SessionSubmission{
		SubmissionID:   "sub-1",
		ValidationCode: "ZX81QP",
		Demographics:   models.Demographics{Location: loc, AgeRange: models.Age36to45, Frequency: models.FrequencyNever},
		Responses:      make([]models.ResponseRecord, 8),
		DeviceType:     models.DeviceMobile,
	}
}

func TestNotify_BothChannels(t *testing.T) {
	var published *sns.PublishInput
	var emailed *ses.SendEmailInput

	n := NewAWS(
		&MockSNSService{PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			published = params
			return &sns.PublishOutput{}, nil
		}},
		&MockSESService{SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			emailed = params
			return &ses.SendEmailOutput{}, nil
		}},
		Config{
			TopicARN:  "arn:aws:sns:us-east-1:123456789012:survey-completed",
			FromEmail: "kiosk@rumble.example",
			// viper lowercases map keys
			FrontDesk: map[string]string{"short hills": "desk-sh@rumble.example"},
		},
	)

	require.NoError(t, n.Notify(context.Background(), submission(models.LocationShortHills)))

	require.NotNil(t, published)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:survey-completed", aws.ToString(published.TopicArn))
	var msg completionMessage
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(published.Message)), &msg))
	assert.Equal(t, "ZX81QP", msg.ValidationCode)
	assert.Equal(t, 8, msg.Responses)
	assert.Equal(t, "Short Hills", aws.ToString(published.MessageAttributes["location"].StringValue))

	require.NotNil(t, emailed)
	assert.Equal(t, []string{"desk-sh@rumble.example"}, emailed.Destination.ToAddresses)
	assert.Contains(t, aws.ToString(emailed.Message.Body.Text.Data), "Validation code: ZX81QP")
	assert.Equal(t, "Survey completed at Short Hills", aws.ToString(emailed.Message.Subject.Data))
}

func TestNotify_NoDeskForLocationSkipsEmail(t *testing.T) {
	n := NewAWS(nil, &MockSESService{SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		t.Fatal("no email expected")
		return nil, nil
	}}, Config{FromEmail: "kiosk@rumble.example", FrontDesk: map[string]string{"Montclair": "desk@rumble.example"}})

	assert.NoError(t, n.Notify(context.Background(), submission(models.LocationLivingston)))
}

func TestNotify_FailuresAreJoined(t *testing.T) {
	n := NewAWS(
		&MockSNSService{PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, stderrors.New("AuthorizationError")
		}},
		&MockSESService{SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, stderrors.New("Throttling")
		}},
		Config{TopicARN: "arn", FromEmail: "kiosk@rumble.example", FrontDesk: map[string]string{"montclair": "desk@rumble.example"}},
	)

	err := n.Notify(context.Background(), submission(models.LocationMontclair))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotificationSendFailed))
	assert.Contains(t, err.Error(), "channel: sns")
	assert.Contains(t, err.Error(), "channel: ses")
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Notify(context.Background(), submission(models.LocationMontclair)))
}
