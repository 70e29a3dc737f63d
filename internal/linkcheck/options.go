package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"
)

// Default values applied by DefaultOptions / Validate, matching the values
// documented in the options table.
const (
	DefaultConcurrency        = 100
	DefaultRetryNoHeaderCount = 3
	DefaultRetryNoHeaderDelay = 100 * time.Millisecond
	DefaultRetryErrorsCount   = 3
	DefaultRetryErrorsJitter  = 500 * time.Millisecond
	DefaultUserAgent          = "linksweep/1.0"
)

// SkipPredicate is the async predicate form of CheckOptions.LinksToSkip.
// An error is treated as "skip" per the spec's skip-predicate-failure rule;
// it is never surfaced as a BROKEN link.
type SkipPredicate func(ctx context.Context, rawURL string) (bool, error)

// CheckOptions is the validated, defaulted configuration consumed by Check.
type CheckOptions struct {
	// Path holds one or more seed URLs or local filesystem paths. Required.
	Path []string

	// Concurrency bounds the number of in-flight fetches/filesystem checks.
	Concurrency int

	// Timeout is the per-request deadline; zero disables it.
	Timeout time.Duration

	// Recurse follows links discovered on a seed's origin.
	Recurse bool

	// Markdown treats on-disk .md files (and text/markdown responses) as
	// HTML-equivalent inputs for extraction.
	Markdown bool

	// DirectoryListing serves generated index pages for directories on the
	// ephemeral static server.
	DirectoryListing bool

	// ServerRoot overrides the filesystem root served by the static server;
	// it defaults to the first filesystem seed when that seed is a
	// directory, else to the directory containing it.
	ServerRoot string

	// LinksToSkip is the regex-vector form of the skip matcher. Mutually
	// usable alongside SkipPredicate; both are consulted if both are set.
	LinksToSkip []string
	// SkipPredicate is the predicate form of the skip matcher.
	SkipPredicate SkipPredicate

	// Retry enables 429 retry-after based retries.
	Retry bool
	// RetryNoHeader enables retrying 429 responses lacking retry-after.
	RetryNoHeader bool
	// RetryNoHeaderCount bounds no-header 429 retries; -1 means unbounded.
	RetryNoHeaderCount int
	// RetryNoHeaderDelay is the fixed delay used for no-header 429 retries.
	RetryNoHeaderDelay time.Duration

	// RetryErrors enables retrying 5xx/network errors.
	RetryErrors bool
	// RetryErrorsCount bounds the number of error retries.
	RetryErrorsCount int
	// RetryErrorsJitter bounds the uniform jitter added atop exponential
	// backoff for error retries.
	RetryErrorsJitter time.Duration

	// ExtraHeaders are added to every outbound request.
	ExtraHeaders http.Header
	// UserAgent sets the request User-Agent header.
	UserAgent string

	// URLRewriteExpressions are applied, in order, to every discovered URL
	// before classification.
	URLRewriteExpressions []UrlRewriteRule

	compiledSkip []*regexp.Regexp
}

// DefaultOptions returns a CheckOptions populated with the documented
// defaults; callers still must set Path.
func DefaultOptions() CheckOptions {
	return CheckOptions{
		Concurrency:        DefaultConcurrency,
		RetryNoHeaderCount: DefaultRetryNoHeaderCount,
		RetryNoHeaderDelay: DefaultRetryNoHeaderDelay,
		RetryErrorsCount:   DefaultRetryErrorsCount,
		RetryErrorsJitter:  DefaultRetryErrorsJitter,
		UserAgent:          DefaultUserAgent,
		ExtraHeaders:       make(http.Header),
	}
}

// Validate defaults zero-valued fields and rejects malformed option shapes.
// It is the sole category-1 (option/validation) error source; it fails
// Check before any work starts.
func (o *CheckOptions) Validate() error {
	if len(o.Path) == 0 {
		return fmt.Errorf("linkcheck: at least one path is required")
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.ExtraHeaders == nil {
		o.ExtraHeaders = make(http.Header)
	}
	if o.RetryNoHeaderCount == 0 {
		o.RetryNoHeaderCount = DefaultRetryNoHeaderCount
	}
	if o.RetryNoHeaderDelay <= 0 {
		o.RetryNoHeaderDelay = DefaultRetryNoHeaderDelay
	}
	if o.RetryErrorsCount == 0 {
		o.RetryErrorsCount = DefaultRetryErrorsCount
	}
	if o.RetryErrorsJitter <= 0 {
		o.RetryErrorsJitter = DefaultRetryErrorsJitter
	}

	o.compiledSkip = o.compiledSkip[:0]
	for _, pattern := range o.LinksToSkip {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("linkcheck: invalid skip pattern %q: %w", pattern, err)
		}
		o.compiledSkip = append(o.compiledSkip, re)
	}
	return nil
}
