package extract

import (
	"strings"
	"unicode/utf8"
)

// Bounds for an extracted title, counted in characters.
const (
	MinTitleLen = 10
	MaxTitleLen = 300
)

const titleCutset = " :;\t\n"

// DefaultStartPhrases open the actual title of a bill.
var DefaultStartPhrases = []string{
	"проект закону",
	"проєкт закону",
	"проект постанови",
	"проєкт постанови",
	"закон україни",
	"закон украины",
	"draft law",
	"draft resolution",
	"law of ukraine",
}

// DefaultStopPhrases mark the boilerplate that follows the title.
var DefaultStopPhrases = []string{
	"номер, дата реєстрац",
	"номер, дата реєстрацi",
	"номер реєстрацiї",
	"номер реєстрації",
	"registration number",
}

// TitleRules bounds the title window with start and stop phrases.
type TitleRules struct {
	start [][]rune
	stop  [][]rune
	raw   []string
}

// NewTitleRules lowercases the phrases; empty lists fall back to the defaults.
func NewTitleRules(start, stop []string) TitleRules {
	if len(start) == 0 {
		start = DefaultStartPhrases
	}
	if len(stop) == 0 {
		stop = DefaultStopPhrases
	}

	rules := TitleRules{}
	for _, p := range start {
		p = NormalizeSpace(p)
		if p == "" {
			continue
		}
		rules.start = append(rules.start, lowerRunes(p))
		rules.raw = append(rules.raw, string(lowerRunes(p)))
	}
	for _, p := range stop {
		p = NormalizeSpace(p)
		if p == "" {
			continue
		}
		rules.stop = append(rules.stop, lowerRunes(p))
	}
	return rules
}

// DefaultTitleRules uses the built-in phrase lists.
func DefaultTitleRules() TitleRules {
	return NewTitleRules(nil, nil)
}

// IsCandidate reports whether text mentions any start phrase.
func (r TitleRules) IsCandidate(text string) bool {
	low := string(lowerRunes(NormalizeSpace(text)))
	for _, p := range r.raw {
		if strings.Contains(low, p) {
			return true
		}
	}
	return false
}

// Clean cuts the title out of raw text: from the earliest start phrase up to the earliest
// stop phrase after it (or the end), trimmed. Text without a start phrase yields "".
func (r TitleRules) Clean(raw string) string {
	text := []rune(NormalizeSpace(raw))
	if len(text) == 0 {
		return ""
	}
	low := lowerRunes(string(text))

	start := -1
	for _, p := range r.start {
		if i := indexRunes(low, p, 0); i != -1 && (start == -1 || i < start) {
			start = i
		}
	}
	if start == -1 {
		return ""
	}

	end := len(text)
	for _, p := range r.stop {
		if j := indexRunes(low, p, start); j != -1 && j < end {
			end = j
		}
	}

	return strings.Trim(string(text[start:end]), titleCutset)
}

// Best cleans every candidate and returns the longest one within the length bounds.
// The second result is false when no candidate qualifies.
func (r TitleRules) Best(candidates []string) (string, bool) {
	best := ""
	bestLen := 0
	for _, c := range candidates {
		title := r.Clean(c)
		n := utf8.RuneCountInString(title)
		if n < MinTitleLen || n > MaxTitleLen {
			continue
		}
		if n > bestLen {
			best, bestLen = title, n
		}
	}
	return best, bestLen > 0
}

// CleanTitle applies the default rules to raw text.
func CleanTitle(raw string) string {
	return DefaultTitleRules().Clean(raw)
}
