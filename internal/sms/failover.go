package sms

import (
	"context"
	"errors"

	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

// Failover attempts a primary send, then falls back to a secondary
// provider on any error. Send reports which provider handled (or last
// attempted) the message so callers can record it.
type Failover struct {
	primary   Sender
	secondary Sender
	logger    *logging.Logger
}

// NewFailover builds a failover sender. secondary may be nil.
func NewFailover(primary, secondary Sender, logger *logging.Logger) *Failover {
	if logger == nil {
		logger = logging.Default()
	}
	return &Failover{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

// Send tries the primary provider first, then the secondary on failure.
// The returned provider name is the one that succeeded, or the last one
// attempted when both fail.
func (f *Failover) Send(ctx context.Context, to, body string) (string, error) {
	if f == nil || f.primary == nil {
		return "", errors.New("sms: failover primary sender not configured")
	}
	err := f.primary.Send(ctx, to, body)
	if err == nil {
		return f.primary.Name(), nil
	}
	if f.secondary == nil {
		return f.primary.Name(), err
	}
	f.logger.Warn("primary sms send failed; attempting fallback",
		"provider", f.primary.Name(),
		"fallback", f.secondary.Name(),
		"error", err,
		"to", to,
	)
	if fallbackErr := f.secondary.Send(ctx, to, body); fallbackErr != nil {
		f.logger.Error("fallback sms send failed",
			"provider", f.secondary.Name(),
			"error", fallbackErr,
			"to", to,
		)
		return f.secondary.Name(), fallbackErr
	}
	return f.secondary.Name(), nil
}
