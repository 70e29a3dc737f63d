package linkcheck

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	clocksystem "github.com/websieve/linksweep/internal/clock/system"
	"github.com/websieve/linksweep/internal/metrics"
	"github.com/websieve/linksweep/internal/server"
)

// Clock returns the current time; the retry scheduler depends on this
// rather than calling time.Now directly so tests can control the clock.
type Clock interface {
	Now() time.Time
}

// workItem describes one URL admitted into the work queue, carrying enough
// context to finalize a LinkResult and to compute the retry backoff.
type workItem struct {
	target  *url.URL
	urlStr  string
	key     string
	parent  string
	isSeed  bool
	inScope bool
	attempt int
}

// engine is the concurrent crawler orchestrator: work queue, dedupe cache,
// concurrency-limited dispatcher, recursion policy, and lifecycle.
type engine struct {
	opts        CheckOptions
	logger      *zap.Logger
	bus         *eventBus
	fetcher     *fetcher
	skip        *skipMatcher
	seedOrigins map[string]struct{}
	clock       Clock

	ctx context.Context

	mu       sync.Mutex
	queue    []workItem
	dedupe   map[string]bool
	failures map[string][]FailureDetail
	results  []LinkResult
	inFlight int
	retryQ   *retryScheduler

	wg       sync.WaitGroup
	notifyCh chan struct{}
}

func newEngine(opts CheckOptions, logger *zap.Logger, bus *eventBus) *engine {
	metrics.Init()
	return &engine{
		opts:        opts,
		logger:      logger,
		bus:         bus,
		fetcher:     newFetcher(opts),
		skip:        newSkipMatcher(opts.compiledSkip, opts.SkipPredicate),
		seedOrigins: make(map[string]struct{}),
		clock:       clocksystem.New(),
		dedupe:      make(map[string]bool),
		failures:    make(map[string][]FailureDetail),
		retryQ:      newRetryScheduler(),
		notifyCh:    make(chan struct{}, 1),
	}
}

// run drives the engine until the work queue, in-flight set, and retry
// queue are all empty, or ctx is canceled.
func (e *engine) run(ctx context.Context) {
	e.ctx = ctx
	for {
		e.mu.Lock()
		now := e.clock.Now()
		for _, due := range e.retryQ.PopDue(now) {
			e.queue = append(e.queue, due.item)
		}
		for len(e.queue) > 0 && e.inFlight < e.opts.Concurrency {
			item := e.queue[0]
			e.queue = e.queue[1:]
			e.inFlight++
			e.wg.Add(1)
			go e.process(ctx, item)
		}
		finished := len(e.queue) == 0 && e.inFlight == 0 && e.retryQ.Len() == 0
		nextDue, hasNext := e.retryQ.NextDue()
		e.mu.Unlock()

		if finished {
			return
		}

		if hasNext {
			wait := time.Until(nextDue)
			if wait < 0 {
				wait = 0
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-e.notifyCh:
				timer.Stop()
			case <-timer.C:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-e.notifyCh:
		}
	}
}

func (e *engine) notify() {
	select {
	case e.notifyCh <- struct{}{}:
	default:
	}
}

func (e *engine) process(ctx context.Context, item workItem) {
	defer func() {
		e.mu.Lock()
		e.inFlight--
		e.mu.Unlock()
		e.wg.Done()
		e.notify()
	}()
	if ctx.Err() != nil {
		return
	}

	if ClassifyScheme(item.target) == SchemeFile {
		outcome := fetchFile(item.target, e.opts.DirectoryListing)
		if outcome.Status == http.StatusOK {
			e.finalize(item, StateOK, outcome.Status, nil)
		} else {
			e.finalize(item, StateBroken, outcome.Status, nil)
		}
		return
	}

	wantBody := item.isSeed || (e.opts.Recurse && item.inScope)
	metrics.IncActiveFetches()
	start := time.Now()
	outcome := e.fetcher.Fetch(ctx, item.urlStr, wantBody)
	metrics.ObserveFetch(fetchMethodLabel(wantBody), time.Since(start))
	metrics.DecActiveFetches()
	if ctx.Err() != nil {
		return
	}

	if outcome.err != nil {
		e.handleTransportError(item, outcome)
		return
	}
	e.handleResponse(item, outcome)
}

func fetchMethodLabel(wantBody bool) string {
	if wantBody {
		return "GET"
	}
	return "HEAD"
}

func (e *engine) handleTransportError(item workItem, outcome fetchOutcome) {
	detail := FailureDetail{Attempt: item.attempt, Message: outcome.err.Error()}
	if e.opts.RetryErrors && item.attempt <= e.opts.RetryErrorsCount {
		e.scheduleRetry(item, detail, errorBackoff(item.attempt, e.opts.RetryErrorsJitter), 0, "error")
		return
	}
	e.finalizeWithFailure(item, StateBroken, 0, detail)
}

func (e *engine) handleResponse(item workItem, outcome fetchOutcome) {
	status := outcome.Status
	switch {
	case status == http.StatusTooManyRequests:
		e.handle429(item, outcome)
	case status >= 500:
		e.handle5xx(item, outcome)
	case status >= 400:
		detail := FailureDetail{Attempt: item.attempt, Status: status, Headers: outcome.Headers}
		e.finalizeWithFailure(item, StateBroken, status, detail)
	default:
		e.finalize(item, StateOK, status, nil)
		e.maybeExtract(item, outcome)
	}
}

func (e *engine) handle429(item workItem, outcome fetchOutcome) {
	detail := FailureDetail{Attempt: item.attempt, Status: outcome.Status, Headers: outcome.Headers}
	if delay, ok := httpHeaderRetryAfter(outcome.Headers); ok && e.opts.Retry {
		if delay < time.Second {
			delay = time.Second
		}
		e.scheduleRetry(item, detail, delay, outcome.Status, "retry_after")
		return
	}
	if e.opts.RetryNoHeader && (e.opts.RetryNoHeaderCount == -1 || item.attempt <= e.opts.RetryNoHeaderCount) {
		e.scheduleRetry(item, detail, e.opts.RetryNoHeaderDelay, outcome.Status, "no_header")
		return
	}
	e.finalizeWithFailure(item, StateBroken, outcome.Status, detail)
}

func (e *engine) handle5xx(item workItem, outcome fetchOutcome) {
	detail := FailureDetail{Attempt: item.attempt, Status: outcome.Status, Headers: outcome.Headers}
	if e.opts.RetryErrors && item.attempt <= e.opts.RetryErrorsCount {
		e.scheduleRetry(item, detail, errorBackoff(item.attempt, e.opts.RetryErrorsJitter), outcome.Status, "error")
		return
	}
	e.finalizeWithFailure(item, StateBroken, outcome.Status, detail)
}

func (e *engine) scheduleRetry(item workItem, detail FailureDetail, delay time.Duration, status int, reason string) {
	e.mu.Lock()
	e.failures[item.key] = append(e.failures[item.key], detail)
	e.mu.Unlock()

	metrics.ObserveRetry(reason)
	next := item
	next.attempt++
	due := e.clock.Now().Add(delay)
	e.retryQ.Schedule(retryEntry{item: next, dueAt: due, status: status})
	e.bus.emitRetry(RetryInfo{URL: item.urlStr, SecondsUntilRetry: delay.Seconds(), Status: status})
	e.notify()
}

func (e *engine) finalizeWithFailure(item workItem, state State, status int, detail FailureDetail) {
	e.finalize(item, state, status, &detail)
}

func (e *engine) finalize(item workItem, state State, status int, immediate *FailureDetail) {
	e.mu.Lock()
	failures := e.failures[item.key]
	delete(e.failures, item.key)
	e.mu.Unlock()

	if immediate != nil {
		failures = append(failures, *immediate)
	}
	result := LinkResult{
		URL:            item.urlStr,
		Status:         status,
		State:          state,
		Parent:         item.parent,
		FailureDetails: failures,
	}

	e.mu.Lock()
	e.results = append(e.results, result)
	e.mu.Unlock()

	metrics.ObserveLink(item.urlStr, string(state))
	e.bus.emitLink(result)
}

// maybeExtract runs the link extractor over a successful HTML/Markdown
// response when the item is a seed or the recursion policy allows it, then
// admits every discovered URL.
func (e *engine) maybeExtract(item workItem, outcome fetchOutcome) {
	if len(outcome.Body) == 0 {
		return
	}
	wantRecurse := item.isSeed || (e.opts.Recurse && item.inScope)
	if !wantRecurse {
		return
	}

	markdown := e.opts.Markdown && (isMarkdownContentType(outcome.ContentType) || isMarkdownPath(item.target.Path))
	htmlLike := !markdown && (isHTMLContentType(outcome.ContentType) || outcome.ContentType == "")
	if !markdown && !htmlLike {
		return
	}

	var discovered []string
	yield := func(raw string) error {
		discovered = append(discovered, raw)
		return nil
	}

	var err error
	if markdown {
		err = extractMarkdown(bytes.NewReader(outcome.Body), yield)
	} else {
		err = extractHTML(bytes.NewReader(outcome.Body), yield)
	}
	if err != nil {
		e.logger.Warn("link extraction failed; the fetch status remains the source of truth",
			zap.String("url", item.urlStr), zap.Error(err))
		return
	}

	for _, raw := range discovered {
		e.admit(raw, item.urlStr, item.target)
	}
}

// admit resolves a discovered raw URL against its parent and, unless it is
// a duplicate, either finalizes it immediately as SKIPPED or enqueues it.
func (e *engine) admit(raw, parent string, parentURL *url.URL) {
	rewritten := ApplyRewrites(raw, e.opts.URLRewriteExpressions)
	target, err := Resolve(parentURL, rewritten)
	if err != nil {
		return
	}
	e.admitTarget(target, parent, false)
}

func (e *engine) admitSeed(target *url.URL) {
	e.admitTarget(target, "", true)
}

func (e *engine) admitTarget(target *url.URL, parent string, isSeed bool) {
	key := StructuralKey(target)

	e.mu.Lock()
	if e.dedupe[key] {
		e.mu.Unlock()
		return
	}
	e.dedupe[key] = true
	e.mu.Unlock()

	item := workItem{
		target: target,
		urlStr: target.String(),
		key:    key,
		parent: parent,
		isSeed: isSeed,
	}
	item.attempt = 1

	if !isSeed {
		if ClassifyScheme(target) == SchemeOther {
			e.finalize(item, StateSkipped, 0, nil)
			return
		}
		if e.skip.Skip(e.ctx, item.urlStr) {
			e.finalize(item, StateSkipped, 0, nil)
			return
		}
	}
	item.inScope = InScope(target, e.seedOrigins)

	e.mu.Lock()
	e.queue = append(e.queue, item)
	e.mu.Unlock()
	e.notify()
}

func isHTMLContentType(ct string) bool {
	return strings.Contains(strings.ToLower(ct), "html")
}

// resolveServerRoot picks the directory the static file server will serve,
// per section 4.5: ServerRoot if set, else the (single) directory implied
// by the filesystem seeds.
func resolveServerRoot(configured string, fsSeeds []string) (string, error) {
	if configured != "" {
		return filepath.Abs(configured)
	}
	if len(fsSeeds) == 0 {
		return "", fmt.Errorf("linkcheck: no filesystem seeds to derive a server root from")
	}
	root, err := filepath.Abs(fsSeeds[0])
	if err != nil {
		return "", fmt.Errorf("linkcheck: resolve seed path: %w", err)
	}
	if isDir(root) {
		return root, nil
	}
	return filepath.Dir(root), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// seedLocalPath reports whether raw is a local filesystem seed rather than
// an absolute http(s) URL, and if so returns the filesystem path it names.
func seedLocalPath(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return raw, true
	}
	switch u.Scheme {
	case "http", "https":
		return "", false
	case "file":
		return u.Path, true
	case "":
		return raw, true
	default:
		return "", false
	}
}

// buildSeedTarget rewrites a local filesystem seed into the static server's
// origin plus its path relative to root.
func buildSeedTarget(baseURL, root, seedPath string) (*url.URL, error) {
	absSeed, err := filepath.Abs(seedPath)
	if err != nil {
		return nil, fmt.Errorf("linkcheck: resolve seed path: %w", err)
	}
	rel, err := filepath.Rel(root, absSeed)
	if err != nil {
		return nil, fmt.Errorf("linkcheck: relativize seed path: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		rel = ""
	}
	full := baseURL + "/" + rel
	u, err := url.Parse(full)
	if err != nil {
		return nil, fmt.Errorf("linkcheck: parse rewritten seed url: %w", err)
	}
	return u, nil
}

// staticServer is the subset of server.Server the engine depends on,
// narrowed for substitution in tests.
type staticServer interface {
	Start() error
	BaseURL() string
	Shutdown(ctx context.Context) error
}

var newStaticServer = func(root string, directoryListing bool, logger *zap.Logger) staticServer {
	return server.New(root, directoryListing, logger)
}
