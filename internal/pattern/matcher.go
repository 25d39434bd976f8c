package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/leech-actions/internal/model"
)

// MatcherImpl implements RuleMatcher over a fixed, ordered rule list.
type MatcherImpl struct {
	rules    []Rule
	compiled []compiledRule
}

type compiledRule struct {
	deck     *regexp.Regexp
	noteType *regexp.Regexp
}

// NewMatcher creates a matcher for the given rules, compiling every pattern up front.
func NewMatcher(rules []Rule) (*MatcherImpl, error) {
	m := &MatcherImpl{
		rules:    rules,
		compiled: make([]compiledRule, len(rules)),
	}

	for i, rule := range rules {
		deck, err := CompileDeckPattern(rule.Deck)
		if err != nil {
			return nil, fmt.Errorf("rule %d deck pattern: %w", i+1, err)
		}
		noteType, err := CompileNoteTypePattern(rule.NoteType)
		if err != nil {
			return nil, fmt.Errorf("rule %d note type pattern: %w", i+1, err)
		}
		m.compiled[i] = compiledRule{deck: deck, noteType: noteType}
	}

	return m, nil
}

// Match evaluates rules in list order and returns the first one matching both patterns.
func (m *MatcherImpl) Match(deck, noteType string) (Rule, int, bool) {
	for i, c := range m.compiled {
		if matches(c.deck, deck) && matches(c.noteType, noteType) {
			return m.rules[i], i, true
		}
	}
	return Rule{}, -1, false
}

// Match is a convenience for one-off lookups.
func Match(deck, noteType string, rules []Rule) (Rule, int, bool, error) {
	m, err := NewMatcher(rules)
	if err != nil {
		return Rule{}, -1, false, err
	}
	rule, idx, ok := m.Match(deck, noteType)
	return rule, idx, ok, nil
}

// a nil expression stands for the Any sentinel.
func matches(re *regexp.Regexp, value string) bool {
	if re == nil {
		return true
	}
	return re.MatchString(value)
}

// IsGlob reports whether p uses glob metacharacters.
func IsGlob(p string) bool {
	return strings.ContainsAny(p, "*?")
}

// CompileDeckPattern compiles a deck pattern.
// A literal deck name also matches its sub-decks ("Kanji" matches "Kanji::N5").
func CompileDeckPattern(p string) (*regexp.Regexp, error) {
	p = model.NormalizePattern(p)
	if p == model.AnyPattern {
		return nil, nil
	}
	if IsGlob(p) {
		return regexp.Compile("^" + globToRegex(p) + "$")
	}
	quoted := regexp.QuoteMeta(p)
	return regexp.Compile("^" + quoted + "(?:" + regexp.QuoteMeta(model.DeckSeparator) + ".*)?$")
}

// CompileNoteTypePattern compiles a note type pattern. Literal names match exactly.
func CompileNoteTypePattern(p string) (*regexp.Regexp, error) {
	p = model.NormalizePattern(p)
	if p == model.AnyPattern {
		return nil, nil
	}
	return regexp.Compile("^" + globToRegex(p) + "$")
}

// globToRegex translates * and ? and quotes everything else.
// * spans deck separators.
func globToRegex(p string) string {
	var b strings.Builder
	for _, r := range p {
		switch r {
		case '*':
			b.WriteString("(?s:.*)")
		case '?':
			b.WriteString("(?s:.)")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}
