package sms

import "strings"

// GhanaCountryCode is the international dialing prefix for Ghana.
const GhanaCountryCode = "233"

func sanitizePhone(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatGhanaPhone rewrites a phone number into the bare international
// form the primary gateway expects, e.g. 0244123456 -> 233244123456.
// Already-international numbers pass through unchanged.
func FormatGhanaPhone(value string) string {
	digits := sanitizePhone(strings.TrimSpace(value))
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, GhanaCountryCode) {
		return digits
	}
	if strings.HasPrefix(digits, "0") {
		return GhanaCountryCode + digits[1:]
	}
	return digits
}

// FormatE164 rewrites a phone number into +233... form for providers that
// require a leading plus.
func FormatE164(value string) string {
	digits := FormatGhanaPhone(value)
	if digits == "" {
		return ""
	}
	return "+" + digits
}
