package linkcheck

import (
	"context"
	"regexp"
)

// skipMatcher decides whether a URL should be skipped via a list of regular
// expressions or a user predicate, evaluated short-circuit in that order.
type skipMatcher struct {
	patterns  []*regexp.Regexp
	predicate SkipPredicate
}

func newSkipMatcher(patterns []*regexp.Regexp, predicate SkipPredicate) *skipMatcher {
	return &skipMatcher{patterns: patterns, predicate: predicate}
}

// Skip reports whether rawURL matches any configured regex or predicate.
// Predicate errors are swallowed and treated as a skip, never as BROKEN, per
// the spec's skip-predicate-failure error category.
func (m *skipMatcher) Skip(ctx context.Context, rawURL string) bool {
	if m == nil {
		return false
	}
	for _, re := range m.patterns {
		if re.MatchString(rawURL) {
			return true
		}
	}
	if m.predicate == nil {
		return false
	}
	skip, err := m.predicate(ctx, rawURL)
	if err != nil {
		return true
	}
	return skip
}
