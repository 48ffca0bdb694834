package service

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// Mailer delivers transactional email
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetLink string) error
}

// sesAPI is the part of the SES client used to send mail
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailConfig holds the sender settings for EmailService
type EmailConfig struct {
	AWSRegion string
	FromEmail string
	FromName  string
	// LinkTTL is how long reset links stay valid; it is stated in the message
	LinkTTL time.Duration
	Debug   bool
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client    sesAPI
	fromEmail string
	fromName  string
	linkTTL   time.Duration
	enabled   bool
	debug     bool
	log       *zap.Logger
}

// NewEmailService creates a new email service. Without a sender address the
// service is disabled and only logs what it would have sent.
func NewEmailService(ctx context.Context, cfg EmailConfig, log *zap.Logger) (*EmailService, error) {
	log = log.Named("email")

	// If fromEmail is empty, create a disabled service
	if cfg.FromEmail == "" {
		log.Warn("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{
			linkTTL: cfg.LinkTTL,
			enabled: false,
			debug:   cfg.Debug,
			log:     log,
		}, nil
	}

	log.Debug("initializing email service",
		zap.String("region", cfg.AWSRegion),
		zap.String("from_email", cfg.FromEmail),
		zap.String("from_name", cfg.FromName),
	)

	// Load AWS configuration
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("email service enabled", zap.String("from", cfg.FromEmail), zap.String("region", cfg.AWSRegion))

	return newEmailServiceWithClient(sesv2.NewFromConfig(awsCfg), cfg, log), nil
}

func newEmailServiceWithClient(client sesAPI, cfg EmailConfig, log *zap.Logger) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		linkTTL:   cfg.LinkTTL,
		enabled:   true,
		debug:     cfg.Debug,
		log:       log,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendPasswordResetEmail sends a password reset email with a reset link
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetLink string) error {
	if !s.enabled {
		fields := []zap.Field{zap.String("to", toEmail)}
		if s.debug {
			fields = append(fields, zap.String("reset_link", resetLink))
		}
		s.log.Info("skipping email send (service disabled): password reset", fields...)
		return nil
	}

	validity := describeDuration(s.linkTTL)
	subject := "Reset Password - Kawan UMKM"
	safeName := html.EscapeString(toName)
	safeLink := html.EscapeString(resetLink)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif;">
	<div style="max-width: 600px; margin: 0 auto;">
		<div style="background: #667eea; padding: 20px; text-align: center; color: white;">
			<h1>KAWAN UMKM</h1>
			<p>Reset Password Request</p>
		</div>
		<div style="padding: 20px; background: white;">
			<h2>Halo %s!</h2>
			<p>Kami menerima permintaan reset password untuk akun Anda.</p>
			<div style="text-align: center; margin: 30px 0;">
				<a href="%s" style="background: #667eea; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; display: inline-block;">Reset Password</a>
			</div>
			<p>Atau copy link berikut ke browser Anda:</p>
			<div style="background: #f5f5f5; padding: 10px; border-radius: 5px; word-break: break-all; font-family: monospace;">%s</div>
			<p style="color: #666; font-size: 14px; margin-top: 20px;">
				<strong>Penting:</strong> Link ini berlaku %s dan hanya dapat digunakan satu kali.<br>
				Jika Anda tidak meminta reset password, abaikan email ini.
			</p>
		</div>
		<div style="background: #f9f9f9; padding: 15px; text-align: center; color: #666; font-size: 12px;">
			<p>Email ini dikirim otomatis oleh Kawan UMKM. Mohon tidak membalas.</p>
		</div>
	</div>
</body>
</html>
`, safeName, safeLink, safeLink, validity)

	textBody := fmt.Sprintf(`Reset Password - Kawan UMKM

Halo %s,

Kami menerima permintaan reset password untuk akun Anda.

Silakan klik link berikut untuk reset password:
%s

Link ini berlaku %s dan hanya dapat digunakan satu kali.

Jika Anda tidak meminta reset password, abaikan email ini.

Terima kasih,
Tim Kawan UMKM
`, toName, resetLink, validity)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	s.log.Info("email sent", zap.String("to", toEmail), zap.String("subject", subject), zap.Stringp("message_id", result.MessageId))
	return nil
}

// describeDuration renders a link lifetime in Indonesian, e.g. "1 jam" or "30 menit"
func describeDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "sementara"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d jam", int(d/time.Hour))
	case d >= time.Minute:
		return fmt.Sprintf("%d menit", int(d/time.Minute))
	default:
		return fmt.Sprintf("%d detik", int(d/time.Second))
	}
}
