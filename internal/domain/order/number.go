package order

import (
	"crypto/rand"
	"regexp"
	"time"
)

// Order numbers look like AP-250314-K7Q2MZ: a date stamp plus six random
// characters from an alphabet without look-alike glyphs.
const numberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var numberPattern = regexp.MustCompile(`^AP-\d{6}-[A-Z0-9]{6}$`)

// NewOrderNumber generates a random order number for the given date
func NewOrderNumber(now time.Time) string {
	var buf [6]byte
	_, _ = rand.Read(buf[:])
	suffix := make([]byte, len(buf))
	for i, b := range buf {
		suffix[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return "AP-" + now.UTC().Format("060102") + "-" + string(suffix)
}

// IsValidOrderNumber checks the order number format
func IsValidOrderNumber(s string) bool {
	return numberPattern.MatchString(s)
}
