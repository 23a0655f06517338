// Package sanitize strips HTML from plain-text input fields before they are
// stored or echoed back. Name fields must never carry markup.
package sanitize

import "strings"

// StripTags removes anything between '<' and '>' (inclusive) and trims the
// result. An unterminated tag drops the remainder of the string, which is the
// safe direction for stored text.
func StripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Email lower-cases and strips markup from an email address. Login, signup
// and OTP flows all key on this normalized form.
func Email(s string) string {
	return strings.ToLower(StripTags(s))
}
