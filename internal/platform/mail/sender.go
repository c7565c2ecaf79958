package mail

import "github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/config"

// NewSenderFromConfig returns nil when the mail transport is not configured.
func NewSenderFromConfig(cfg *config.Config) Sender {
	if !cfg.MailConfigured() {
		return nil
	}
	switch cfg.MailDriver {
	case config.MailDriverSendGrid:
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.AppName, cfg.MailFromName, cfg.MailFrom)
	default:
		return NewConsoleSender(cfg.AppName, cfg.MailFrom)
	}
}
