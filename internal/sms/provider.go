package sms

import (
	"fmt"
	"strings"
	"time"

	"github.com/medconnect-gh/booking-platform/pkg/logging"
)

const (
	// ProviderAuto tries Arkesel first, then Twilio.
	ProviderAuto = "auto"
	// ProviderArkesel forces the Arkesel sender when credentials exist.
	ProviderArkesel = "arkesel"
	// ProviderTwilio forces the Twilio sender when credentials exist.
	ProviderTwilio = "twilio"
)

// SelectionConfig captures the credentials required to build SMS senders.
type SelectionConfig struct {
	Preference       string
	ArkeselAPIKey    string
	ArkeselSenderID  string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// SendTimeout bounds each provider HTTP call.
	SendTimeout time.Duration
}

// BuildFailover instantiates the configured provider pair. It returns the
// failover sender, a label naming the active providers, and a reason when
// no provider could be initialized.
func BuildFailover(cfg SelectionConfig, logger *logging.Logger) (*Failover, string, string) {
	if logger == nil {
		logger = logging.Default()
	}
	preference := strings.ToLower(strings.TrimSpace(cfg.Preference))
	if preference == "" {
		preference = ProviderAuto
	}

	missing := map[string]string{}
	var arkesel Sender
	var twilio Sender

	if cfg.ArkeselAPIKey != "" {
		arkesel = NewArkeselSender(cfg.ArkeselAPIKey, cfg.ArkeselSenderID, cfg.SendTimeout, logger)
	} else {
		missing[ProviderArkesel] = "ARKESEL_API_KEY missing"
	}

	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" {
		twilio = NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.SendTimeout, logger)
	} else {
		var reasons []string
		if cfg.TwilioAccountSID == "" {
			reasons = append(reasons, "TWILIO_ACCOUNT_SID missing")
		}
		if cfg.TwilioAuthToken == "" {
			reasons = append(reasons, "TWILIO_AUTH_TOKEN missing")
		}
		if cfg.TwilioFromNumber == "" {
			reasons = append(reasons, "TWILIO_FROM_NUMBER missing")
		}
		missing[ProviderTwilio] = strings.Join(reasons, ", ")
	}

	switch preference {
	case ProviderArkesel:
		if arkesel != nil {
			return NewFailover(arkesel, nil, logger), ProviderArkesel, ""
		}
		return nil, "", missing[ProviderArkesel]
	case ProviderTwilio:
		if twilio != nil {
			return NewFailover(twilio, nil, logger), ProviderTwilio, ""
		}
		return nil, "", missing[ProviderTwilio]
	}

	if arkesel != nil && twilio != nil {
		return NewFailover(arkesel, twilio, logger), ProviderArkesel + "+" + ProviderTwilio, ""
	}
	if arkesel != nil {
		return NewFailover(arkesel, nil, logger), ProviderArkesel, ""
	}
	if twilio != nil {
		return NewFailover(twilio, nil, logger), ProviderTwilio, ""
	}

	var reasons []string
	for _, provider := range []string{ProviderArkesel, ProviderTwilio} {
		if msg := missing[provider]; msg != "" {
			reasons = append(reasons, fmt.Sprintf("%s: %s", provider, msg))
		}
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "no SMS providers configured")
	}
	return nil, "", strings.Join(reasons, "; ")
}
