// Package fields extracts best-effort component fields from recognized text.
package fields

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Keys of the map returned by Parse.
const (
	KeyValue       = "value"
	KeyQty         = "qty"
	KeyPrice       = "price"
	KeyDescription = "description"
)

// MaxDescriptionLen is the rune limit applied to the description field.
const MaxDescriptionLen = 120

var (
	// Both the Ohm sign (U+2126) and Greek capital omega (U+03A9) appear in
	// recognized text.
	valuePattern = regexp.MustCompile(`\d+(?:\.\d+)?(?: ?[pnuµμmkKMG]?(?:(?i:ohms|ohm)|\x{03A9}|\x{2126}|F|H)| ?%)`)
	qtyPattern   = regexp.MustCompile(`(?i)\b(\d+)\s*(?:pcs|pc|pieces|piece|units|unit)\b`)
	pricePattern = regexp.MustCompile(`[$€£¥]\s?\d+(?:[.,]\d+)?`)
)

// Parse extracts value, qty, price and description from text. A field that
// does not match is absent from the result, never an empty string.
func Parse(text string) map[string]string {
	out := make(map[string]string)

	if v := findValue(text); v != "" {
		out[KeyValue] = v
	}
	if m := qtyPattern.FindStringSubmatch(text); m != nil {
		out[KeyQty] = m[1]
	}
	if p := pricePattern.FindString(text); p != "" {
		out[KeyPrice] = strings.ReplaceAll(p, " ", "")
	}
	if d := firstLine(text); d != "" {
		out[KeyDescription] = truncate(d, MaxDescriptionLen)
	}

	return out
}

// findValue returns the first measurement token that is not immediately
// followed by an ASCII letter, so "5 Fahrenheit" or "10 Hz" do not match.
func findValue(text string) string {
	for _, loc := range valuePattern.FindAllStringIndex(text, -1) {
		if loc[1] < len(text) && isASCIILetter(text[loc[1]]) {
			continue
		}
		if loc[0] > 0 && isASCIILetter(text[loc[0]-1]) {
			continue
		}
		return text[loc[0]:loc[1]]
	}
	return ""
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			return l
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
