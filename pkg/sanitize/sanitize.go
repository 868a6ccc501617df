package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var newlinePattern = regexp.MustCompile(`[\r\n]`)

// LogString flattens newlines so unauthenticated header or body values cannot forge log lines
func LogString(s string) string {
	return newlinePattern.ReplaceAllString(s, " ")
}

// LogField is LogString capped at max bytes, cut on a rune boundary
func LogField(s string, max int) string {
	s = LogString(strings.TrimSpace(s))
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
