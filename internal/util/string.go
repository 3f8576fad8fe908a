package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TruncateString truncates a string to maxRunes characters and appends "..."
// when something was cut.
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// Normalize lowercases and trims.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FoldKey turns a name or guess into a comparison key: accents stripped,
// lowercased, punctuation dropped and inner whitespace collapsed.
// "  Penélope   CRUZ! " and "penelope cruz" share a key.
func FoldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var builder strings.Builder
	for _, word := range strings.Fields(strings.ToLower(folded)) {
		cleaned := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, word)
		if cleaned == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(cleaned)
	}
	return builder.String()
}

// CollapseSpaces trims and reduces inner whitespace runs to a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FirstWord returns the first whitespace-separated word of s.
func FirstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ContainsFold reports whether slice holds item under FoldKey equality.
func ContainsFold(slice []string, item string) bool {
	key := FoldKey(item)
	for _, s := range slice {
		if FoldKey(s) == key {
			return true
		}
	}
	return false
}
