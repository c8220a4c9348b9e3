// Package matcher compiles the description patterns used to recognise
// non-item rows in a bill (subtotals, section totals, summary lines). Patterns
// may be plain phrases, shell-style globs or regular expressions.
package matcher

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternType represents the type of pattern matching to use.
type PatternType int

const (
	// Phrase matches when the input contains the pattern.
	Phrase PatternType = iota
	// Glob uses shell-style glob patterns (*, ?, []) over the whole input.
	Glob
	// Regex uses regular expressions.
	Regex
	// Auto attempts to detect the pattern type.
	Auto
)

// String returns a string representation of the PatternType.
func (pt PatternType) String() string {
	switch pt {
	case Phrase:
		return "phrase"
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// Matcher matches a single pattern against row descriptions.
type Matcher interface {
	// Match checks if the input matches the pattern
	Match(input string) bool
	// Pattern returns the original pattern string.
	Pattern() string
	// Type returns the pattern type being used.
	Type() PatternType
}

// Options configures the matcher behavior.
type Options struct {
	// CaseInsensitive makes matching case-insensitive
	CaseInsensitive bool
	// CollapseSpace reduces runs of whitespace in the input to one space before matching
	CollapseSpace bool
}

// DefaultOptions returns options suited to spreadsheet descriptions.
func DefaultOptions() *Options {
	return &Options{CaseInsensitive: true, CollapseSpace: true}
}

type matcher struct {
	pattern     string
	patternType PatternType
	compiled    *regexp.Regexp
	collapse    bool
}

// New creates a new Matcher with the specified pattern and type.
func New(patternType PatternType, pattern string, opts ...*Options) (Matcher, error) {
	options := DefaultOptions()
	if len(opts) > 0 && opts[0] != nil {
		options = opts[0]
	}
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("empty pattern")
	}

	m := &matcher{pattern: pattern, patternType: patternType, collapse: options.CollapseSpace}
	if patternType == Auto {
		m.patternType = detectPatternType(pattern)
	}

	var expr string
	switch m.patternType {
	case Phrase:
		expr = regexp.QuoteMeta(collapseSpace(pattern))
	case Glob:
		expr = GlobToRegex(pattern)
	case Regex:
		expr = pattern
	default:
		return nil, fmt.Errorf("unsupported pattern type: %v", m.patternType)
	}
	if options.CaseInsensitive && !strings.HasPrefix(expr, "(?i)") {
		expr = "(?i)" + expr
	}

	compiled, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %q: %w", pattern, err)
	}
	m.compiled = compiled
	return m, nil
}

// MustNew creates a new Matcher and panics if there's an error.
func MustNew(patternType PatternType, pattern string, opts ...*Options) Matcher {
	m, err := New(patternType, pattern, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Match checks if the input matches the pattern.
func (m *matcher) Match(input string) bool {
	if m.collapse {
		input = collapseSpace(input)
	}
	return m.compiled.MatchString(input)
}

// Pattern returns the original pattern string.
func (m *matcher) Pattern() string {
	return m.pattern
}

// Type returns the pattern type being used.
func (m *matcher) Type() PatternType {
	return m.patternType
}

// Set is an ordered collection of matchers. It is read-only once built and
// safe for concurrent use.
type Set struct {
	matchers []Matcher
}

// NewSet compiles every pattern with Auto detection.
func NewSet(patterns []string, opts ...*Options) (*Set, error) {
	s := &Set{matchers: make([]Matcher, 0, len(patterns))}
	for _, p := range patterns {
		m, err := New(Auto, p, opts...)
		if err != nil {
			return nil, err
		}
		s.matchers = append(s.matchers, m)
	}
	return s, nil
}

// Match returns true if any pattern matches.
func (s *Set) Match(input string) bool {
	_, ok := s.First(input)
	return ok
}

// First returns the first pattern matching input.
func (s *Set) First(input string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, m := range s.matchers {
		if m.Match(input) {
			return m.Pattern(), true
		}
	}
	return "", false
}

// Patterns returns the source patterns in order.
func (s *Set) Patterns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.matchers))
	for i, m := range s.matchers {
		out[i] = m.Pattern()
	}
	return out
}

// Len returns the number of patterns.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.matchers)
}

// detectPatternType classifies a pattern: regex metacharacters win, then glob
// wildcards, and anything else is a phrase.
func detectPatternType(pattern string) PatternType {
	regexIndicators := []string{
		"^", "$", "\\d", "\\w", "\\s", "\\b", "\\D", "\\W", "\\S",
		"(?:", "(?i)", "{", "}", "+", "|", "(", ")",
	}
	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}
	if strings.ContainsAny(pattern, "*?[") {
		return Glob
	}
	return Phrase
}

// GlobToRegex converts a glob pattern to an anchored regex pattern. Unlike
// path globs, * also crosses "/" since descriptions are not paths.
func GlobToRegex(glob string) string {
	var regex strings.Builder
	regex.WriteString("^")

	for i := 0; i < len(glob); i++ {
		switch glob[i] {
		case '*':
			regex.WriteString(".*")
		case '?':
			regex.WriteString(".")
		case '[':
			j := i + 1
			if j < len(glob) && (glob[j] == '!' || glob[j] == '^') {
				regex.WriteString("[^")
				j++
			} else {
				regex.WriteString("[")
			}
			for ; j < len(glob) && glob[j] != ']'; j++ {
				if glob[j] == '\\' && j+1 < len(glob) {
					regex.WriteByte(glob[j])
					j++
				}
				regex.WriteByte(glob[j])
			}
			if j < len(glob) {
				regex.WriteString("]")
				i = j
			}
		case '\\':
			if i+1 < len(glob) {
				i++
				regex.WriteString(regexp.QuoteMeta(string(glob[i])))
			}
		default:
			regex.WriteString(regexp.QuoteMeta(string(glob[i])))
		}
	}

	regex.WriteString("$")
	return regex.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
