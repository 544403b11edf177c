package utils

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

var usernameStrip = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateUsername derives a URL-safe username from a display name:
// lowercase, non-alphanumerics collapsed, with a random 4-digit suffix
// so collisions between same-named users are unlikely. Callers still
// retry on a unique-constraint violation.
func GenerateUsername(name string) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = usernameStrip.ReplaceAllString(base, "")
	if base == "" {
		base = "user"
	}
	if r := []rune(base); len(r) > 20 {
		base = string(r[:20])
	}
	return base + randomDigits(4)
}

func randomDigits(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteByte('0')
			continue
		}
		b.WriteByte(byte('0' + v.Int64()))
	}
	return b.String()
}
