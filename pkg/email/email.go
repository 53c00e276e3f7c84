// Package email derives display names from email addresses for members whose
// profile never set one.
package email

import (
	"strings"
	"unicode"
)

// DisplayName builds a readable name from the address local part, so
// "maria.santos@example.com" renders as "Maria Santos" in feeds and rollups.
// Input with no usable local part returns "" and the caller keeps its own
// placeholder.
func DisplayName(address string) string {
	localPart := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return ""
	}

	// Trailing digit runs are usually disambiguators (maria.santos99), not
	// name material.
	words := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimRightFunc(p, unicode.IsDigit)
		if p == "" {
			continue
		}
		words = append(words, capitalize(p))
	}
	if len(words) == 0 {
		return ""
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
