package appointments

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

var refPattern = regexp.MustCompile(`^APT-\d{8}-[A-Z0-9]{5}$`)

func TestNewReferenceNumberFormat(t *testing.T) {
	date := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		ref := NewReferenceNumber(date)
		if !refPattern.MatchString(ref) {
			t.Fatalf("reference %q does not match expected shape", ref)
		}
		if !strings.HasPrefix(ref, "APT-20260210-") {
			t.Fatalf("reference %q does not embed the appointment date", ref)
		}
		suffix := ref[len("APT-20260210-"):]
		for _, c := range suffix {
			if strings.ContainsRune("0O1IL", c) {
				t.Fatalf("reference %q contains easily confused character %q", ref, c)
			}
		}
	}
}

func TestNewReferenceNumberVariety(t *testing.T) {
	date := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		seen[NewReferenceNumber(date)] = true
	}
	// 31^5 possible suffixes; 200 draws colliding down to a handful
	// would mean the generator is broken.
	if len(seen) < 195 {
		t.Fatalf("only %d distinct references out of 200", len(seen))
	}
}
