package notification

import (
	"context"
	"log/slog"
)

// logEmailSender writes emails to the log instead of delivering them.
// Used when no SMTP host is configured (local development).
type logEmailSender struct {
	log *slog.Logger
}

// NewLogEmailSender creates a sender that only logs.
func NewLogEmailSender(log *slog.Logger) EmailSender {
	return &logEmailSender{log: log}
}

func (s *logEmailSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	s.log.Info("DUMMY SEND: email would be sent", "to", to, "subject", subject, "body", textBody)
	return nil
}
