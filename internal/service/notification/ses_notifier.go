package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const (
	defaultRegion = "us-east-1"
	charsetUTF8   = "UTF-8"
)

// ErrSenderRequired - не задан адрес отправителя.
var ErrSenderRequired = errors.New("email sender address is required")

// sesAPI - часть клиента SES, которая нам нужна.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig описывает подключение к AWS SES.
type SESConfig struct {
	From      string
	Region    string
	AccessKey string
	SecretKey string
}

// SESNotifier отправляет письма через AWS SES v2.
type SESNotifier struct {
	client sesAPI
	from   string
	logger *log.Entry
}

// NewSESNotifier создаёт notifier. Без статических ключей используется
// стандартная цепочка учётных данных AWS.
func NewSESNotifier(ctx context.Context, cfg SESConfig, logger *log.Entry) (*SESNotifier, error) {
	if cfg.From == "" {
		return nil, ErrSenderRequired
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newSESNotifier(sesv2.NewFromConfig(awsCfg), cfg.From, logger), nil
}

func newSESNotifier(client sesAPI, from string, logger *log.Entry) *SESNotifier {
	if logger == nil {
		logger = log.New().WithField("component", "email-ses")
	}
	return &SESNotifier{client: client, from: from, logger: logger}
}

// SendEmail отправляет текстовое письмо одному получателю.
func (n *SESNotifier) SendEmail(ctx context.Context, recipient, subject, body string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination:      &types.Destination{ToAddresses: []string{recipient}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String(charsetUTF8)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String(charsetUTF8)},
				},
			},
		},
	}

	out, err := n.client.SendEmail(ctx, input)
	if err != nil {
		n.logger.WithError(err).WithField("recipient", recipient).Error("ses send failed")
		return fmt.Errorf("ses send email: %w", err)
	}

	messageID := ""
	if out != nil && out.MessageId != nil {
		messageID = *out.MessageId
	}
	n.logger.WithFields(log.Fields{
		"recipient":  recipient,
		"message_id": messageID,
	}).Info("confirmation email sent")
	return nil
}

var _ domain.EmailNotifier = (*SESNotifier)(nil)
