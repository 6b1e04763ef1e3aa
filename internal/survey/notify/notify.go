// Package notify tells the front desk that a respondent finished the survey.
// Delivery is best effort.
package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	awsclients "rumble-survey/internal/common/aws"
	"rumble-survey/internal/common/errors"
	"rumble-survey/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sesTypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Notifier announces a stored submission.
type Notifier interface {
	Notify(ctx context.Context, sub models.SessionSubmission) error
}

// Nop is used when no channel is enabled.
type Nop struct{}

func (Nop) Notify(context.Context, models.SessionSubmission) error { return nil }

// Config selects the enabled channels.
type Config struct {
	TopicARN  string
	FromEmail string
	// FrontDesk maps a location to its desk address. Keys are matched
	// case-insensitively.
	FrontDesk map[string]string
}

// AWS publishes completions to an SNS topic and emails the location's front desk via SES.
// Either client may be nil to disable that channel.
type AWS struct {
	sns       awsclients.SNSAPI
	ses       awsclients.SESAPI
	cfg       Config
	frontDesk map[string]string
}

func NewAWS(snsClient awsclients.SNSAPI, sesClient awsclients.SESAPI, cfg Config) *AWS {
	desk := make(map[string]string, len(cfg.FrontDesk))
	for loc, addr := range cfg.FrontDesk {
		desk[strings.ToLower(loc)] = addr
	}
	return &AWS{sns: snsClient, ses: sesClient, cfg: cfg, frontDesk: desk}
}

type completionMessage struct {
	SubmissionID   string `json:"submissionId"`
	ValidationCode string `json:"validationCode"`
	Location       string `json:"location"`
	DeviceType     string `json:"deviceType"`
	Responses      int    `json:"responses"`
}

// Notify tries every enabled channel and returns their failures joined.
func (n *AWS) Notify(ctx context.Context, sub models.SessionSubmission) error {
	var errs []error
	if n.sns != nil && n.cfg.TopicARN != "" {
		if err := n.publish(ctx, sub); err != nil {
			errs = append(errs, errors.NewNotificationSendFailedError("sns", err))
		}
	}
	if n.ses != nil && n.cfg.FromEmail != "" {
		if err := n.email(ctx, sub); err != nil {
			errs = append(errs, errors.NewNotificationSendFailedError("ses", err))
		}
	}
	return stderrors.Join(errs...)
}

func (n *AWS) publish(ctx context.Context, sub models.SessionSubmission) error {
	body, err := json.Marshal(completionMessage{
		SubmissionID:   sub.SubmissionID,
		ValidationCode: sub.ValidationCode,
		Location:       string(sub.Demographics.Location),
		DeviceType:     string(sub.DeviceType),
		Responses:      len(sub.Responses),
	})
	if err != nil {
		return err
	}

	_, err = n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.cfg.TopicARN),
		Message:  aws.String(string(body)),
		Subject:  aws.String("Survey completed"),
		MessageAttributes: map[string]snsTypes.MessageAttributeValue{
			"location": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(sub.Demographics.Location)),
			},
		},
	})
	return err
}

func (n *AWS) email(ctx context.Context, sub models.SessionSubmission) error {
	to, ok := n.frontDesk[strings.ToLower(string(sub.Demographics.Location))]
	if !ok {
		// no desk configured for this location
		return nil
	}

	subject := fmt.Sprintf("Survey completed at %s", sub.Demographics.Location)
	body := fmt.Sprintf(
		"A guest completed the membership survey.\n\nValidation code: %s\nLocation: %s\nDevice: %s\n\nRedeem one free class or retail credit when the guest shows this code.",
		sub.ValidationCode, sub.Demographics.Location, sub.DeviceType,
	)

	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sesTypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sesTypes.Message{
			Subject: &sesTypes.Content{Data: aws.String(subject)},
			Body: &sesTypes.Body{
				Text: &sesTypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.FromEmail),
	})
	return err
}
