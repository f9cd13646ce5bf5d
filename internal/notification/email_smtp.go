package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mail "github.com/xhit/go-simple-mail/v2"

	"github.com/delordemm1/realestate-api/internal/config"
)

const smtpTimeout = 10 * time.Second

type smtpEmailSender struct {
	server *mail.SMTPServer
	from   string
	log    *slog.Logger
}

// NewEmailSender returns the SMTP sender, or the log sender when no SMTP host
// is configured.
func NewEmailSender(cfg config.SMTPConfig, log *slog.Logger) EmailSender {
	if cfg.Host == "" {
		log.Warn("SMTP_HOST is empty, emails will only be logged")
		return NewLogEmailSender(log)
	}
	return NewSMTPEmailSender(cfg, log)
}

// NewSMTPEmailSender opens a connection per message. Port 465 uses implicit
// TLS, port 25 plain SMTP, anything else STARTTLS. There are no retries.
func NewSMTPEmailSender(cfg config.SMTPConfig, log *slog.Logger) EmailSender {
	server := mail.NewSMTPClient()
	server.Host = cfg.Host
	server.Port = cfg.Port
	server.Username = cfg.Username
	server.Password = cfg.Password
	server.Encryption = encryptionFor(cfg.Port)
	server.KeepAlive = false
	server.ConnectTimeout = smtpTimeout
	server.SendTimeout = smtpTimeout

	return &smtpEmailSender{server: server, from: cfg.From, log: log}
}

func encryptionFor(port int) mail.Encryption {
	switch port {
	case 465:
		return mail.EncryptionSSLTLS
	case 25:
		return mail.EncryptionNone
	}
	return mail.EncryptionSTARTTLS
}

func (s *smtpEmailSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := buildMessage(s.from, to, subject, htmlBody, textBody)
	if err != nil {
		return err
	}

	client, err := s.server.Connect()
	if err != nil {
		return fmt.Errorf("connect to smtp server: %w", err)
	}
	defer client.Close()

	if err := msg.Send(client); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	s.log.Info("email sent via smtp", "to", to)
	return nil
}

// buildMessage prefers HTML with a plain-text alternative.
func buildMessage(from, to, subject, htmlBody, textBody string) (*mail.Email, error) {
	msg := mail.NewMSG()
	msg.SetFrom(from).AddTo(to).SetSubject(subject)
	switch {
	case htmlBody != "":
		msg.SetBody(mail.TextHTML, htmlBody)
		if textBody != "" {
			msg.AddAlternative(mail.TextPlain, textBody)
		}
	default:
		msg.SetBody(mail.TextPlain, textBody)
	}
	if msg.Error != nil {
		return nil, fmt.Errorf("build email: %w", msg.Error)
	}
	return msg, nil
}
