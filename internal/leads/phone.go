package leads

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	// MinPhoneDigits is the least number of digits a phone must contain once
	// spaces and punctuation are ignored.
	MinPhoneDigits = 10

	phoneRegion = "US"
)

var phoneCharsRegex = regexp.MustCompile(`^[\d ().-]+$`)

// PhoneDigitCount counts the ASCII digits in s.
func PhoneDigitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// ValidPhone reports whether s uses only digits, spaces, parentheses,
// hyphens and periods and holds at least MinPhoneDigits digits.
func ValidPhone(s string) bool {
	return phoneCharsRegex.MatchString(s) && PhoneDigitCount(s) >= MinPhoneDigits
}

// PhoneE164 formats a US phone number as E.164. ok is false when the number
// cannot be parsed as a valid number.
func PhoneE164(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", false
	}
	num, err := phonenumbers.Parse(trimmed, phoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}
