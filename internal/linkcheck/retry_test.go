package linkcheck

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRetryAfter(t *testing.T) {
	d, ok := parseRetryAfter("120")
	require.True(t, ok)
	assert.Equal(t, 120*time.Second, d)

	_, ok = parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT")
	assert.False(t, ok, "HTTP-date form is treated as absent")

	_, ok = parseRetryAfter("")
	assert.False(t, ok)

	_, ok = parseRetryAfter("-5")
	assert.False(t, ok)
}

func TestErrorBackoffGrowsWithAttempt(t *testing.T) {
	first := errorBackoff(1, 0)
	second := errorBackoff(2, 0)
	assert.Greater(t, second, first)
}

func TestUniformJitterBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := uniformJitter(100 * time.Millisecond)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 100*time.Millisecond)
	}
	assert.Equal(t, time.Duration(0), uniformJitter(0))
}

func TestRetrySchedulerOrdersByDueTime(t *testing.T) {
	s := newRetryScheduler()
	now := time.Now()
	s.Schedule(retryEntry{item: workItem{urlStr: "late"}, dueAt: now.Add(time.Hour)})
	s.Schedule(retryEntry{item: workItem{urlStr: "early"}, dueAt: now.Add(-time.Hour)})

	require.Equal(t, 2, s.Len())
	due := s.PopDue(now)
	require.Len(t, due, 1)
	assert.Equal(t, "early", due[0].item.urlStr)
	assert.Equal(t, 1, s.Len())

	next, ok := s.NextDue()
	require.True(t, ok)
	assert.True(t, next.After(now))
}

func TestHTTPHeaderRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "30")
	d, ok := httpHeaderRetryAfter(h)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, d)

	_, ok = httpHeaderRetryAfter(nil)
	assert.False(t, ok)
}
