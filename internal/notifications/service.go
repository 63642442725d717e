// Package notifications sends the transactional mail the portal produces.
// Today that is a single message: the generated login credentials for a new
// account.
package notifications

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

const credentialsSubject = "Your verification portal login"

// Service sends email through SES.
type Service struct {
	ses    *sesv2.Client
	sender string
	logger *zap.Logger
}

// NewService builds the SES-backed mail service. Explicit keys take
// precedence; otherwise the default AWS credential chain applies.
func NewService(ctx context.Context, region, sender, accessKey, secretKey string, logger *zap.Logger) (*Service, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Service{ses: sesv2.NewFromConfig(cfg), sender: sender, logger: logger}, nil
}

// SendLoginCredentials mails the generated password to a freshly registered
// account.
func (s *Service) SendLoginCredentials(ctx context.Context, email, password string) error {
	body := fmt.Sprintf(
		"An account has been created for you on the verification portal.\r\n\r\n"+
			"Login email: %s\r\nPassword: %s\r\n\r\n"+
			"Please change your password after the first login.\r\n",
		email, password,
	)

	_, err := s.ses.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.sender),
		Destination:      &types.Destination{ToAddresses: []string{email}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(credentialsSubject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send credentials email to %s: %w", email, err)
	}
	s.logger.Info("credentials email sent", zap.String("email", email))
	return nil
}
