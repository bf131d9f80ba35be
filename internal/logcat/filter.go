package logcat

import (
	"regexp"
	"strings"

	"github.com/loglens/loglens/internal/domain"
)

// Matcher evaluates a FilterCondition against records. The regex pattern is
// compiled once at construction; a pattern that fails to compile is treated
// as accept-all so the operator is never blocked by a half-typed expression.
type Matcher struct {
	cond *domain.FilterCondition
	re   *regexp.Regexp
}

// NewMatcher builds a matcher for the condition. A nil condition matches
// everything. NewMatcher never fails.
func NewMatcher(cond *domain.FilterCondition) *Matcher {
	m := &Matcher{cond: cond}
	if cond != nil && strings.TrimSpace(cond.Regex) != "" {
		if re, err := regexp.Compile(cond.Regex); err == nil {
			m.re = re
		}
		// compile failure: m.re stays nil and the predicate passes
	}
	return m
}

// Matches reports whether the record satisfies every present predicate.
// Evaluation short-circuits on the first failing predicate.
func (m *Matcher) Matches(r domain.Record) bool {
	c := m.cond
	if c == nil {
		return true
	}
	if !levelMatches(r, c.Levels) {
		return false
	}
	if !tagIncludeMatches(r, c.TagInclude) {
		return false
	}
	if !tagExcludeMatches(r, c.TagExclude) {
		return false
	}
	if !pidMatches(r, c.PIDs) {
		return false
	}
	if !textMatches(r, c.Text) {
		return false
	}
	if m.re != nil && !m.re.MatchString(r.Raw) && !m.re.MatchString(r.Message) {
		return false
	}
	return true
}

func levelMatches(r domain.Record, levels []domain.Level) bool {
	if len(levels) == 0 {
		return true
	}
	for _, l := range levels {
		if r.Level == l {
			return true
		}
	}
	return false
}

func tagIncludeMatches(r domain.Record, sub string) bool {
	if strings.TrimSpace(sub) == "" {
		return true
	}
	return strings.Contains(r.Tag, sub)
}

func tagExcludeMatches(r domain.Record, sub string) bool {
	if strings.TrimSpace(sub) == "" {
		return true
	}
	return !strings.Contains(r.Tag, sub)
}

func pidMatches(r domain.Record, pids []int) bool {
	if len(pids) == 0 {
		return true
	}
	for _, pid := range pids {
		if r.PID == pid {
			return true
		}
	}
	return false
}

func textMatches(r domain.Record, text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	lower := strings.ToLower(text)
	return strings.Contains(strings.ToLower(r.Message), lower) ||
		strings.Contains(strings.ToLower(r.Tag), lower) ||
		strings.Contains(strings.ToLower(r.Raw), lower)
}

// Matches reports whether a single record satisfies the condition. A nil
// condition matches everything.
func Matches(r domain.Record, cond *domain.FilterCondition) bool {
	return NewMatcher(cond).Matches(r)
}

// Filter returns the stable, order-preserving subsequence of records
// satisfying the condition. It is equivalent to filtering element-wise with
// Matches.
func Filter(records []domain.Record, cond *domain.FilterCondition) []domain.Record {
	if cond.IsEmpty() {
		out := make([]domain.Record, len(records))
		copy(out, records)
		return out
	}
	m := NewMatcher(cond)
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if m.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
