package external

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

// sesAPI is the part of the SES v2 client the adapter uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESEmailProviderAdapter implements EmailProvider port using AWS SES v2
type SESEmailProviderAdapter struct {
	client   sesAPI
	fromName string
	fromAddr string
}

// NewSESEmailProviderAdapter creates an SES adapter. Static credentials are used
// when both keys are set; otherwise the default AWS credential chain applies.
func NewSESEmailProviderAdapter(ctx context.Context, config ports.EmailConfig) (*SESEmailProviderAdapter, error) {
	region := config.SESRegion
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if config.SESAccessKey != "" && config.SESSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.SESAccessKey, config.SESSecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.NewConfigurationError("failed to initialize AWS config", err)
	}

	return newSESEmailProviderAdapter(sesv2.NewFromConfig(awsCfg), config.FromName, config.FromAddress), nil
}

func newSESEmailProviderAdapter(client sesAPI, fromName, fromAddr string) *SESEmailProviderAdapter {
	return &SESEmailProviderAdapter{
		client:   client,
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

// SendEmail delivers one message through SES and returns the SES message id
func (s *SESEmailProviderAdapter) SendEmail(ctx context.Context, message ports.EmailMessage) (string, error) {
	if err := validateMessage(message); err != nil {
		return "", err
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromAddr)),
		Destination:      &types.Destination{ToAddresses: []string{message.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(message.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(message.HTMLBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if message.TextBody != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(message.TextBody), Charset: aws.String("UTF-8")}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return "", errors.NewEmailError("SES send failed", err)
	}

	return aws.ToString(result.MessageId), nil
}
