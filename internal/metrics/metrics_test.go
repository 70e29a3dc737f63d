package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeSite(tc.input))
		})
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	assert.NotPanics(t, func() {
		ObserveLink("https://example.com", "OK")
		ObserveFetch("GET", 10*time.Millisecond)
		ObserveRetry("error")
		IncActiveFetches()
		DecActiveFetches()
		ObserveCrawlDuration(time.Second)
	})
}

func TestObserveLinkIncrementsCounter(t *testing.T) {
	Init()
	before := testutil.ToFloat64(linksCheckedTotal.WithLabelValues("metrics-test.example", "BROKEN"))
	ObserveLink("https://metrics-test.example/page", "BROKEN")
	after := testutil.ToFloat64(linksCheckedTotal.WithLabelValues("metrics-test.example", "BROKEN"))
	assert.Equal(t, before+1, after)
}

func FuzzSanitizeSite(f *testing.F) {
	for _, tc := range []string{"http://example.com", "https://google.com", "ftp://example.com"} {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		if SanitizeSite(orig) == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
