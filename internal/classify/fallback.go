package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sudamana23/NewsFlow-AI/internal/domain"
)

// Deterministic keyword scoring used whenever the model call fails, times
// out, or returns a label outside the closed category set.

const (
	titleWeight     = 5
	contentWeight   = 2
	contentWindow   = 500
	minSentenceLen  = 20
	defaultTruncate = 150
)

var categoryKeywords = map[domain.Category][]string{
	domain.CategoryUkraine:       {"ukraine", "ukrainian", "kyiv", "zelensky", "russia", "russian", "putin", "donbas", "crimea", "kharkiv"},
	domain.CategoryGaza:          {"gaza", "israel", "israeli", "palestinian", "hamas", "idf", "netanyahu", "rafah", "west bank"},
	domain.CategorySwiss:         {"switzerland", "swiss", "zurich", "geneva", "bern", "basel", "lausanne"},
	domain.CategoryEurope:        {"europe", "european", "brussels", "germany", "france", "italy", "spain", "poland", "european union"},
	domain.CategoryAI:            {"artificial intelligence", "machine learning", "openai", "chatgpt", "llm", "neural network", "deepmind", "anthropic"},
	domain.CategoryTech:          {"software", "startup", "apple", "google", "microsoft", "smartphone", "semiconductor", "chip", "cybersecurity"},
	domain.CategoryCrypto:        {"crypto", "bitcoin", "ethereum", "blockchain", "stablecoin", "defi", "binance"},
	domain.CategoryFinance:       {"market", "stocks", "inflation", "economy", "bank", "interest rate", "earnings", "bond", "currency"},
	domain.CategoryScience:       {"research", "study", "scientists", "space", "nasa", "physics", "climate", "telescope"},
	domain.CategoryHealth:        {"health", "medical", "vaccine", "hospital", "disease", "drug", "cancer", "pandemic"},
	// Bare "election" is excluded: generic local-election headlines carry
	// no strong signal and fall through to world.
	domain.CategoryPolitics:      {"parliament", "senate", "congress", "minister", "president", "policy", "vote"},
	domain.CategoryWorld:         {"world", "international", "united nations", "global", "diplomatic"},
	domain.CategoryPremierLeague: {"premier league", "arsenal", "liverpool", "chelsea", "tottenham", "manchester united", "manchester city", "football"},
}

// Conflict coverage outranks everything else; local coverage outranks the rest.
var priorityMultiplier = map[domain.Category]int{
	domain.CategoryUkraine: 3,
	domain.CategoryGaza:    3,
	domain.CategorySwiss:   2,
}

var sourceHints = []struct {
	needle   string
	category domain.Category
}{
	{"nzz", domain.CategorySwiss},
	{"tagesanzeiger", domain.CategorySwiss},
	{"r/switzerland", domain.CategorySwiss},
	{"r/ukraine", domain.CategoryUkraine},
	{"r/artificial", domain.CategoryAI},
	{"r/machinelearning", domain.CategoryAI},
	{"r/technology", domain.CategoryTech},
	{"arstechnica", domain.CategoryTech},
	{"ars technica", domain.CategoryTech},
	{"verge", domain.CategoryTech},
	{"bloomberg", domain.CategoryFinance},
	{"financial times", domain.CategoryFinance},
	{"r/worldnews", domain.CategoryWorld},
}

// KeywordCategorize scores every category against the title and a bounded
// content window and returns the best match. It is a pure function: the same
// input always yields the same category.
func KeywordCategorize(title, content, source string) domain.Category {
	window := clip(content, contentWindow)

	titleTokens := tokenize(title)
	windowTokens := tokenize(window)
	titleText := strings.ToLower(title)
	windowText := strings.ToLower(window)

	best := domain.Category("")
	bestScore := 0

	for _, cat := range domain.Categories {
		score := 0
		for _, kw := range categoryKeywords[cat] {
			score += hits(kw, titleTokens, titleText) * titleWeight
			score += hits(kw, windowTokens, windowText) * contentWeight
		}
		if mult, ok := priorityMultiplier[cat]; ok {
			score *= mult
		}
		if score > bestScore {
			bestScore = score
			best = cat
		}
	}

	if bestScore > 0 {
		return best
	}
	if cat := sourceCategory(source); cat != "" {
		return cat
	}
	return domain.CategoryWorld
}

// FallbackSummary builds a summary without the model: the first sentence when
// it carries enough signal, otherwise a word-boundary truncation, otherwise a
// generic line naming the source.
func FallbackSummary(content, source string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = defaultTruncate
	}

	content = strings.TrimSpace(content)
	if content == "" {
		if source == "" {
			source = "Unknown source"
		}
		return "News from " + source
	}

	if first, _, found := strings.Cut(content, ". "); found && len(first) > minSentenceLen {
		return truncate(first+".", maxLen)
	}
	return truncate(content, maxLen)
}

func sourceCategory(source string) domain.Category {
	s := strings.ToLower(source)
	if s == "" {
		return ""
	}
	for _, hint := range sourceHints {
		if strings.Contains(s, hint.needle) {
			return hint.category
		}
	}
	return ""
}

// hits counts keyword occurrences: single words by token equality, phrases by
// substring count, so short keywords never match inside longer words.
func hits(keyword string, tokens []string, text string) int {
	if strings.ContainsRune(keyword, ' ') {
		return strings.Count(text, keyword)
	}
	n := 0
	for _, tok := range tokens {
		if tok == keyword {
			n++
		}
	}
	return n
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// clip bounds s to max bytes, backing off to a rune boundary so the cut
// never splits a UTF-8 sequence.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// truncate cuts s to at most maxLen runes at a word boundary, appending an
// ellipsis marker when anything was dropped.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}

	cut := string(runes[:maxLen-3])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}
