package appointments

import (
	"crypto/rand"
	"fmt"
	"time"
)

// refAlphabet excludes easily confused characters (0/O, 1/I/L).
const refAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewReferenceNumber generates a patient-facing reference such as
// APT-20260210-K7R2M. Uniqueness is backed by the database constraint;
// collisions at this length are vanishingly rare and surface as an
// insert error the caller retries.
func NewReferenceNumber(date time.Time) string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure means the process is in a bad state;
		// fall back to a timestamp suffix rather than crash a booking.
		return fmt.Sprintf("APT-%s-%d", date.Format("20060102"), time.Now().UnixNano()%100000)
	}
	for i, b := range buf {
		buf[i] = refAlphabet[int(b)%len(refAlphabet)]
	}
	return fmt.Sprintf("APT-%s-%s", date.Format("20060102"), string(buf))
}
