package receipt

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"PosPrint/app/textnorm"
)

// DefaultWidth is the number of columns of an 80mm printer in font A (Xprinter K80)
const DefaultWidth = 46

// Normalize folds text to what the printer font can render
func Normalize(s string) string {
	return textnorm.StripDiacritics(s)
}

// FormatRow lays out left and right on one width-column line. When they do not
// fit, left goes on its own line and right is pushed to the end of a second one.
// The result always ends in a newline.
func FormatRow(left, right string, width int) string {
	l := Normalize(left)
	r := Normalize(right)
	lw := utf8.RuneCountInString(l)
	rw := utf8.RuneCountInString(r)

	gap := width - lw - rw
	if gap < 1 {
		return l + "\n" + strings.Repeat(" ", max(0, width-rw)) + r + "\n"
	}
	return l + strings.Repeat(" ", gap) + r + "\n"
}

// DrawLine returns a full-width rule made of ch
func DrawLine(ch string, width int) string {
	return strings.Repeat(ch, width) + "\n"
}

// FormatMoney groups thousands the Vietnamese way (100000 -> "100.000")
func FormatMoney(amount int64) string {
	return message.NewPrinter(language.Vietnamese).Sprintf("%d", amount)
}
