package checkout

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// NewOrderReference generates a human-readable reference of the form
// PM-YYYYMMDD-NNNN, e.g. PM-20240315-0482. The 4-digit suffix is random,
// so references are best-effort unique, not guaranteed: the reference is
// an email-thread key, never a database key. Each submission attempt gets
// a fresh reference.
func NewOrderReference(now time.Time) string {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Fall back to the clock; worse distribution, same format.
		return fmt.Sprintf("PM-%s-%04d", now.Format("20060102"), now.UnixNano()%10000)
	}
	n := binary.BigEndian.Uint16(buf[:]) % 10000
	return fmt.Sprintf("PM-%s-%04d", now.Format("20060102"), n)
}
