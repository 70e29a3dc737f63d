package linkcheck

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkipMatcherPatterns(t *testing.T) {
	m := newSkipMatcher([]*regexp.Regexp{regexp.MustCompile(`\.pdf$`)}, nil)
	assert.True(t, m.Skip(context.Background(), "https://example.com/report.pdf"))
	assert.False(t, m.Skip(context.Background(), "https://example.com/index.html"))
}

func TestSkipMatcherPredicate(t *testing.T) {
	m := newSkipMatcher(nil, func(_ context.Context, rawURL string) (bool, error) {
		return rawURL == "https://skip.example/page", nil
	})
	assert.True(t, m.Skip(context.Background(), "https://skip.example/page"))
	assert.False(t, m.Skip(context.Background(), "https://keep.example/page"))
}

func TestSkipMatcherPredicateErrorTreatedAsSkip(t *testing.T) {
	m := newSkipMatcher(nil, func(_ context.Context, rawURL string) (bool, error) {
		return false, errors.New("boom")
	})
	assert.True(t, m.Skip(context.Background(), "https://example.com"))
}

func TestNilSkipMatcherNeverSkips(t *testing.T) {
	var m *skipMatcher
	assert.False(t, m.Skip(context.Background(), "https://example.com"))
}
