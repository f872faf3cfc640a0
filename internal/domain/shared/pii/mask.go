// Package pii holds the masking rules for patient identifiers shown to
// actors that do not hold the unmask permission.
package pii

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Mask is the fill used for hidden characters.
const Mask = "***"

// Redacted replaces free text that may contain identifiers.
const Redacted = "[redacted]"

// MaskName keeps the first letter only. The output length does not depend
// on the input length.
func MaskName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + Mask
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return Mask
	}
	r, _ := utf8.DecodeRuneInString(email)
	return string(r) + Mask + email[at:]
}

// MaskPhone keeps the last four digits.
func MaskPhone(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return ""
	}
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) <= 4 {
		return Mask
	}
	return Mask + string(digits[len(digits)-4:])
}

// MaskDate keeps the year.
func MaskDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006") + "-**-**"
}

// MaskPostcode keeps the outward code (the part before the space). For
// postcodes written without a space only the first two characters remain.
func MaskPostcode(postcode string) string {
	postcode = strings.ToUpper(strings.TrimSpace(postcode))
	if postcode == "" {
		return ""
	}
	if i := strings.IndexByte(postcode, ' '); i > 0 {
		return postcode[:i] + " " + Mask
	}
	if len(postcode) <= 2 {
		return Mask
	}
	return postcode[:2] + Mask
}

// MaskFreeText hides free text entirely.
func MaskFreeText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return Redacted
}
