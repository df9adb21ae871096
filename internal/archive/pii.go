package archive

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode"
)

// HashPatient returns the hex-encoded SHA-256 of the normalized patient name
// and phone digits, so manifest lines can be grouped per patient without
// storing who they are.
func HashPatient(name, phone string) string {
	key := strings.ToLower(strings.Join(strings.Fields(name), " ")) + "|" + digits(phone)
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// MaskPhone keeps only the last four digits, e.g. "+91 98765 43210" ->
// "********3210". Numbers with fewer than seven digits are masked completely.
func MaskPhone(phone string) string {
	d := digits(phone)
	if len(d) < 7 {
		return strings.Repeat("*", len(d))
	}
	return strings.Repeat("*", len(d)-4) + d[len(d)-4:]
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
