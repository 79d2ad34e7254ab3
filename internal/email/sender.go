// Package email delivers transactional mail for appointment events.
package email

import (
	"context"

	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

// Message represents an email to be sent.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string // plain text body
	HTML    string // optional HTML body
}

// Sender defines the interface for sending emails. Implementations can
// be swapped (SendGrid, SES) without changing callers.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// StubSender is a no-op sender for tests or when email is disabled.
type StubSender struct {
	logger *logging.Logger
}

// NewStubSender creates a stub email sender that logs but doesn't send.
func NewStubSender(logger *logging.Logger) *StubSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSender{logger: logger}
}

var _ Sender = (*StubSender)(nil)

func (s *StubSender) Name() string { return "stub" }

// Send logs the email but doesn't actually send it.
func (s *StubSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("stub email sender: would send email", "to", msg.To, "subject", msg.Subject)
	return nil
}
