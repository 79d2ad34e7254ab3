package sms

import "context"

// Sender delivers a single SMS. Implementations apply their own
// phone-number convention before calling the gateway.
type Sender interface {
	Name() string
	Send(ctx context.Context, to, body string) error
}
