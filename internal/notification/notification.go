package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/delordemm1/realestate-api/internal/notification/templates"
)

// Content holds the rendered email for a notification.
type Content struct {
	EmailSubject  string
	EmailHTMLBody string
	EmailTextBody string
}

// Notification is the universal object used to send any notification.
type Notification struct {
	Recipient string // email address
	Content   Content
}

// EmailSender is implemented by the SMTP and log senders.
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// Service is the main interface for the notification system.
type Service interface {
	// Send delivers the notification synchronously and reports transport failures.
	Send(ctx context.Context, n Notification) error
}

type service struct {
	log         *slog.Logger
	emailSender EmailSender
}

// NewService creates a new notification service.
func NewService(log *slog.Logger, emailSender EmailSender) Service {
	return &service{
		log:         log,
		emailSender: emailSender,
	}
}

func (s *service) Send(ctx context.Context, n Notification) error {
	if n.Recipient == "" {
		return errors.New("notification has no recipient")
	}
	s.log.Info("dispatching email notification", "recipient", n.Recipient, "subject", n.Content.EmailSubject)
	if err := s.emailSender.Send(ctx, n.Recipient, n.Content.EmailSubject, n.Content.EmailHTMLBody, n.Content.EmailTextBody); err != nil {
		s.log.Error("failed to send notification", "recipient", n.Recipient, "error", err)
		return err
	}
	return nil
}

// SendTemplate renders a typed template scenario and sends it to the recipient.
func SendTemplate[T any](ctx context.Context, svc Service, engine *templates.Engine, h templates.Handle[T], to string, data T) error {
	rendered, err := templates.Render(ctx, engine, h, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", h.ID(), err)
	}
	return svc.Send(ctx, Notification{
		Recipient: to,
		Content: Content{
			EmailSubject:  rendered.Subject,
			EmailHTMLBody: rendered.EmailHTML,
			EmailTextBody: rendered.EmailText,
		},
	})
}
