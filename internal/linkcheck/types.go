package linkcheck

import (
	"net/http"
	"regexp"
)

// State is the terminal classification of a checked URL.
type State string

// Terminal states a LinkResult can reach.
const (
	StateOK      State = "OK"
	StateBroken  State = "BROKEN"
	StateSkipped State = "SKIPPED"
)

// FailureDetail captures one failed attempt against a URL. Retries append to
// the owning LinkResult's FailureDetails; they are never replaced.
type FailureDetail struct {
	Attempt     int         `json:"attempt"`
	Status      int         `json:"status,omitempty"`
	Headers     http.Header `json:"headers,omitempty"`
	BodyExcerpt string      `json:"bodyExcerpt,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// LinkResult is the record produced for every URL visited during a crawl.
type LinkResult struct {
	URL            string          `json:"url"`
	Status         int             `json:"status,omitempty"`
	State          State           `json:"state"`
	Parent         string          `json:"parent,omitempty"`
	FailureDetails []FailureDetail `json:"failureDetails,omitempty"`
}

// CrawlResult is the aggregate returned by Check.
type CrawlResult struct {
	Passed bool         `json:"passed"`
	Links  []LinkResult `json:"links"`
}

// RetryInfo is emitted as a "retry" event whenever a URL is (re-)scheduled.
type RetryInfo struct {
	URL               string  `json:"url"`
	SecondsUntilRetry float64 `json:"secondsUntilRetry"`
	Status            int     `json:"status"`
}

// UrlRewriteRule rewrites a raw URL string before it is classified.
type UrlRewriteRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Apply runs the rewrite against raw and returns the rewritten string.
func (r UrlRewriteRule) Apply(raw string) string {
	if r.Pattern == nil {
		return raw
	}
	return r.Pattern.ReplaceAllString(raw, r.Replacement)
}
