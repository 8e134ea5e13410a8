package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/authgate/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESClient is the subset of the SES API used to send mail
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier sends plain-text email through AWS SES
type SESNotifier struct {
	client      SESClient
	fromAddress string
	logger      *slog.Logger
}

// NewSESNotifier loads the default AWS configuration for region
func NewSESNotifier(ctx context.Context, region, fromAddress string, logger *slog.Logger) (*SESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewSESNotifierWithClient(ses.NewFromConfig(cfg), fromAddress, logger), nil
}

func NewSESNotifierWithClient(client SESClient, fromAddress string, logger *slog.Logger) *SESNotifier {
	return &SESNotifier{
		client:      client,
		fromAddress: fromAddress,
		logger:      logger,
	}
}

func (n *SESNotifier) SendEmail(ctx context.Context, recipient models.Email, subject, content string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{recipient.String()},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(content),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	result, err := n.client.SendEmail(ctx, input)
	if err != nil {
		n.logger.Error("failed to send email via SES",
			slog.Any("recipient", recipient),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("email sent",
		slog.Any("recipient", recipient),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
