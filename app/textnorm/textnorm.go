// Package textnorm folds Vietnamese text down to the plain ASCII letters a
// thermal printer without an extended font table can print.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ and Đ carry a stroke, not a combining mark, so NFD leaves them intact.
var strokeReplacer = strings.NewReplacer("đ", "d", "Đ", "D")

// StripDiacritics decomposes s (NFD), drops every combining mark and maps đ/Đ to d/D.
func StripDiacritics(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strokeReplacer.Replace(out)
}

// AlphanumericOnly keeps ASCII letters and digits, plus spaces when keepSpace is set.
func AlphanumericOnly(s string, keepSpace bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' && keepSpace:
			b.WriteRune(r)
		}
	}
	return b.String()
}
