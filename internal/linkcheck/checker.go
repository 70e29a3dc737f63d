package linkcheck

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/websieve/linksweep/internal/metrics"
)

// LinkChecker runs one or more crawls and lets callers observe individual
// URL outcomes as they are finalized, rather than only the final summary.
type LinkChecker struct {
	logger *zap.Logger
	bus    *eventBus
}

// New constructs a LinkChecker. A nil logger disables logging.
func New(logger *zap.Logger) *LinkChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkChecker{
		logger: logger,
		bus:    newEventBus(logger),
	}
}

// OnLink registers a listener invoked once per URL, after its final state
// is known. Register listeners before calling Check; a listener registered
// mid-run may miss earlier events.
func (c *LinkChecker) OnLink(fn func(LinkResult)) {
	c.bus.OnLink(fn)
}

// OnRetry registers a listener invoked each time a URL is scheduled for a
// retry attempt.
func (c *LinkChecker) OnRetry(fn func(RetryInfo)) {
	c.bus.OnRetry(fn)
}

// Check crawls opts.Path (and everything reachable from it, per the
// recursion policy) and returns once every admitted URL has either reached
// a terminal state or ctx is canceled.
func (c *LinkChecker) Check(ctx context.Context, opts CheckOptions) (CrawlResult, error) {
	if err := opts.Validate(); err != nil {
		return CrawlResult{}, fmt.Errorf("linkcheck: invalid options: %w", err)
	}
	start := time.Now()
	defer func() { metrics.ObserveCrawlDuration(time.Since(start)) }()

	var urlSeeds []string
	var fsSeeds []string
	for _, raw := range opts.Path {
		if localPath, isLocal := seedLocalPath(raw); isLocal {
			fsSeeds = append(fsSeeds, localPath)
		} else {
			urlSeeds = append(urlSeeds, raw)
		}
	}

	for _, seed := range fsSeeds {
		if _, err := os.Stat(seed); err != nil {
			return CrawlResult{}, fmt.Errorf("linkcheck: seed path %q does not exist: %w", seed, err)
		}
	}

	e := newEngine(opts, c.logger, c.bus)

	var srv staticServer
	var serverRoot string
	if len(fsSeeds) > 0 {
		root, err := resolveServerRoot(opts.ServerRoot, fsSeeds)
		if err != nil {
			return CrawlResult{}, err
		}
		serverRoot = root

		srv = newStaticServer(root, opts.DirectoryListing, c.logger)
		if err := srv.Start(); err != nil {
			return CrawlResult{}, fmt.Errorf("linkcheck: start static server: %w", err)
		}
		defer func() {
			if err := srv.Shutdown(context.Background()); err != nil {
				c.logger.Warn("static server shutdown failed", zap.Error(err))
			}
		}()
	}

	seedTargets := make([]*url.URL, 0, len(opts.Path))
	for _, raw := range opts.Path {
		if localPath, isLocal := seedLocalPath(raw); isLocal {
			target, err := buildSeedTarget(srv.BaseURL(), serverRoot, localPath)
			if err != nil {
				return CrawlResult{}, err
			}
			seedTargets = append(seedTargets, target)
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return CrawlResult{}, fmt.Errorf("linkcheck: parse seed url %q: %w", raw, err)
		}
		seedTargets = append(seedTargets, u)
	}

	for _, target := range seedTargets {
		e.seedOrigins[Origin(target)] = struct{}{}
	}
	for _, target := range seedTargets {
		e.admitSeed(target)
	}

	e.run(ctx)
	e.wg.Wait()

	e.mu.Lock()
	results := make([]LinkResult, len(e.results))
	copy(results, e.results)
	e.mu.Unlock()

	passed := true
	for _, r := range results {
		if r.State == StateBroken {
			passed = false
			break
		}
	}

	return CrawlResult{Passed: passed, Links: results}, nil
}

// Check runs a single crawl with a fresh, unobserved LinkChecker. Callers
// that need per-URL events should construct a LinkChecker with New instead.
func Check(ctx context.Context, opts CheckOptions) (CrawlResult, error) {
	return New(nil).Check(ctx, opts)
}
