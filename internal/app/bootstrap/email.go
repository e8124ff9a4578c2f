package bootstrap

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/t5fueling/t5fueling-web/internal/config"
	"github.com/t5fueling/t5fueling-web/internal/http/handlers"
	"github.com/t5fueling/t5fueling-web/internal/notify"
	"github.com/t5fueling/t5fueling-web/pkg/logging"
)

// Email bundles the wired email provider.
type Email struct {
	Provider string
	// Sender retries transient failures.
	Sender notify.EmailSender
	// Quota is nil unless the provider can report a send quota.
	Quota handlers.QuotaReporter
}

// BuildEmail wires the sender for cfg.EmailProvider. awsCfg is only read
// for the ses provider.
func BuildEmail(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (*Email, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	out := &Email{Provider: cfg.EmailProvider}
	var base notify.EmailSender

	switch cfg.EmailProvider {
	case notify.ProviderSES:
		ses := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		base, out.Quota = ses, ses
	case notify.ProviderSendGrid:
		sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sg == nil {
			return nil, fmt.Errorf("bootstrap: SENDGRID_API_KEY is required for the sendgrid provider")
		}
		base = sg
	case notify.ProviderSMTP:
		smtp := notify.NewSMTPSender(notify.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		if smtp == nil {
			return nil, fmt.Errorf("bootstrap: SMTP_HOST is required for the smtp provider")
		}
		base = smtp
	case notify.ProviderStub:
		base = notify.NewStubEmailSender(logger)
	default:
		return nil, fmt.Errorf("bootstrap: unknown email provider %q", cfg.EmailProvider)
	}

	out.Sender = notify.NewRetryingSender(base, cfg.EmailMaxRetries, cfg.EmailRetryBaseDelay, logger)
	logger.Info("email provider configured", "provider", cfg.EmailProvider, "max_retries", cfg.EmailMaxRetries)
	return out, nil
}

// BuildLeadNotifier wires the staff notifier on top of email.
func BuildLeadNotifier(cfg *appconfig.Config, email *Email, logger *logging.Logger) *notify.LeadNotifier {
	var loc *time.Location
	if cfg != nil {
		loc = LoadLocation(cfg.BusinessTimezone, logger)
	}
	recipient := ""
	if cfg != nil {
		recipient = cfg.ContactEmail
	}
	return notify.NewLeadNotifier(email.Sender, notify.LeadNotifierConfig{
		Provider:  email.Provider,
		Recipient: recipient,
		Location:  loc,
	}, logger)
}
