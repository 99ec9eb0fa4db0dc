package donations

import "strings"

// FormatPhoneNumber normalizes a phone number to E.164-ish form, defaulting
// to Tanzania's +255 country code for local numbers.
func FormatPhoneNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	switch {
	case strings.HasPrefix(cleaned, "0"):
		return "+255" + cleaned[1:]
	case len(cleaned) == 9:
		return "+255" + cleaned
	default:
		return "+" + cleaned
	}
}
