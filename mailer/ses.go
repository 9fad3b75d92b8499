package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	goerrors "github.com/goliatone/go-errors"
)

// SESClient is the part of the sesv2 client we use
type SESClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES sends messages through the AWS SES v2 API
type SES struct {
	client SESClient
}

// NewSES loads the default AWS configuration for opts.Region. Static
// credentials are used when both keys are set.
func NewSES(ctx context.Context, opts Options) (*SES, error) {
	if opts.Region == "" {
		return nil, goerrors.New("aws-ses provider requires a region", goerrors.CategoryValidation).
			WithTextCode("CONFIG_ERROR")
	}

	loadOpts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(opts.Region),
	}

	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load aws configuration")
	}

	return NewSESWithClient(sesv2.NewFromConfig(cfg)), nil
}

// NewSESWithClient wraps an existing client
func NewSESWithClient(client SESClient) *SES {
	return &SES{client: client}
}

// Send delivers msg as a simple HTML email
func (s *SES) Send(ctx context.Context, msg Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}

	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%q <%s>", msg.FromName, msg.From)
	}

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML)},
				},
			},
		},
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send email").
			WithMetadata(map[string]any{"to": msg.To})
	}

	return nil
}
