package filter

import "strings"

// DefaultKeywords is the topical taxonomy bills are matched against. Entries are stems,
// so inflected forms match as substrings.
var DefaultKeywords = []string{
	// taxation
	"податк", "податков", "оподаткуван",
	"податковий", "податкова", "податкового кодексу",
	"tax",

	// codes and amendments to codes
	"кодекс", "зміни до кодексу", "внести зміни до кодексу",
	"внесення змін до кодексу", "кримінального кодексу",
	"цивільного кодексу", "бюджетного кодексу", "митного кодексу",
	"code",

	// export
	"експорт", "експортн", "експортний", "експортерам",
	"export",

	// import
	"імпорт", "імпортн", "імпортний", "імпортер",
	"import",

	// licensing
	"ліценз", "ліцензійн", "ліцензія", "ліцензування",
	"ліцензованої діяльності",
	"licens",

	// legal entities
	"юридичн", "юридична особа", "юридичні особи",
	"юрособ", "суб'єкт господарювання", "суб’єкти господарювання",
	"legal entit", "business entit",
}

// Matcher checks bill titles against a keyword list.
type Matcher struct {
	keywords []string
}

// NewMatcher lowercases and deduplicates keywords; an empty list selects DefaultKeywords.
func NewMatcher(keywords []string) *Matcher {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}

	seen := make(map[string]struct{}, len(keywords))
	m := &Matcher{keywords: make([]string, 0, len(keywords))}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		m.keywords = append(m.keywords, k)
	}
	return m
}

// Match reports whether the title contains any keyword, ignoring case.
func (m *Matcher) Match(title string) bool {
	if title == "" {
		return false
	}
	low := strings.ToLower(title)
	for _, k := range m.keywords {
		if strings.Contains(low, k) {
			return true
		}
	}
	return false
}

// Keywords returns the normalized keyword list.
func (m *Matcher) Keywords() []string {
	out := make([]string, len(m.keywords))
	copy(out, m.keywords)
	return out
}
