package utils

import "strings"

// NormalizePhone strips spaces, dashes and parentheses, keeping digits
// and a single leading plus sign. Phone matching for guest lookups and
// identity adoption always goes through this so "+966 50-123 4567" and
// "+966501234567" compare equal.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
