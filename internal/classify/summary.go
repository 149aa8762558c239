package classify

import (
	"strings"
	"unicode"
)

// Lead-in phrases small local models like to prepend despite instructions.
var boilerplatePrefixes = []string{
	"here is a summary of the article:",
	"here is a summary:",
	"here's a summary:",
	"here is the summary:",
	"here's the summary:",
	"here is a 1-2 sentence summary:",
	"summary:",
	"sure, here is a summary:",
	"the article summarizes:",
}

// CleanSummary normalizes a model-produced summary: boilerplate lead-ins and
// wrapping quotes are stripped, the first letter capitalized, and the result
// truncated to maxLen at a word boundary.
func CleanSummary(raw string, maxLen int) string {
	s := strings.TrimSpace(raw)

	for _, prefix := range boilerplatePrefixes {
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}

	s = stripWrappingQuotes(s)
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})

	if s == "" {
		return ""
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return truncate(string(runes), maxLen)
}

func stripWrappingQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
