package notify

import (
	"context"
	"log/slog"
)

// Transport sends a rendered message over one channel. Concrete email/SMS
// gateways live outside this service; the log transport ships as the
// default so a bare deployment still records every outbound message.
type Transport interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

// NewTransport selects a transport for the configured provider. Unknown
// providers fall back to the log transport so no message is dropped.
func NewTransport(cfg *Config, logger *slog.Logger) Transport {
	switch cfg.Provider {
	case ProviderLog:
		return &logTransport{logger: logger, sender: cfg.SenderEmail}
	default:
		logger.Warn("unknown notify provider, falling back to log transport",
			slog.String("provider", cfg.Provider))
		return &logTransport{logger: logger, sender: cfg.SenderEmail}
	}
}

type logTransport struct {
	logger *slog.Logger
	sender string
}

func (t *logTransport) SendEmail(ctx context.Context, to, subject, body string) error {
	t.logger.Info("email out",
		slog.String("from", t.sender),
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}

func (t *logTransport) SendSMS(ctx context.Context, to, body string) error {
	t.logger.Info("sms out",
		slog.String("to", to),
		slog.String("body", body),
	)
	return nil
}
