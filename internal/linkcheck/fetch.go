package linkcheck

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"
)

// fetchOutcome is the result of a single logical fetch attempt.
type fetchOutcome struct {
	Status      int
	Headers     http.Header
	Body        []byte
	ContentType string
	// err is non-nil for transport-level failures (DNS, connect, TLS,
	// timeout); Status is meaningless in that case.
	err error
}

// retriableStatusesForGETFallback are HEAD responses that trigger a GET
// reissue per section 4.4 step 2.
var retriableStatusesForGETFallback = map[int]bool{
	http.StatusMethodNotAllowed: true,
	http.StatusNotImplemented:   true,
	http.StatusNotFound:         true,
}

// fetcher performs HTTP HEAD/GET attempts and resolves file:// targets
// against the local filesystem.
type fetcher struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	extraHeaders http.Header
}

func newFetcher(opts CheckOptions) *fetcher {
	return &fetcher{
		client: &http.Client{
			Transport: newTransport(),
			// Redirects are followed by the default client policy; the
			// final response's status is what the spec calls terminal.
		},
		timeout:      opts.Timeout,
		userAgent:    opts.UserAgent,
		extraHeaders: opts.ExtraHeaders,
	}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}

// Fetch runs one logical attempt against target: HEAD first, falling back
// to GET when the server rejects HEAD or answers 405/501/404. wantBody
// requests the full response body be read (used for HTML/Markdown targets
// that will be recursed into); otherwise only headers are consumed.
func (f *fetcher) Fetch(ctx context.Context, target string, wantBody bool) fetchOutcome {
	reqCtx := ctx
	var cancel context.CancelFunc
	if f.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	// HEAD never carries a body, so a caller that wants the body (to run
	// extraction) always needs the GET path.
	if wantBody {
		return f.attempt(reqCtx, http.MethodGet, target, true)
	}

	outcome := f.attempt(reqCtx, http.MethodHead, target, false)
	if outcome.err == nil && !retriableStatusesForGETFallback[outcome.Status] {
		return outcome
	}
	return f.attempt(reqCtx, http.MethodGet, target, false)
}

func (f *fetcher) attempt(ctx context.Context, method, target string, readBody bool) fetchOutcome {
	req, err := http.NewRequestWithContext(ctx, method, target, http.NoBody)
	if err != nil {
		return fetchOutcome{err: fmt.Errorf("linkcheck: build request: %w", err)}
	}
	f.applyHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return fetchOutcome{err: fmt.Errorf("linkcheck: %s %s: %w", method, target, err)}
	}
	defer resp.Body.Close()

	out := fetchOutcome{
		Status:      resp.StatusCode,
		Headers:     resp.Header.Clone(),
		ContentType: resp.Header.Get("Content-Type"),
	}
	if readBody {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fetchOutcome{err: fmt.Errorf("linkcheck: read body %s: %w", target, readErr)}
		}
		out.Body = body
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return out
}

func (f *fetcher) applyHeaders(req *http.Request) {
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	for key, values := range f.extraHeaders {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}

// fetchFile resolves a file:// URL against the local filesystem. It marks
// OK if the path exists (a file, or a directory when directoryListing is
// set), else BROKEN with a synthetic 404.
func fetchFile(u *url.URL, directoryListing bool) fetchOutcome {
	path := u.Path
	info, err := os.Stat(path)
	if err != nil {
		return fetchOutcome{Status: http.StatusNotFound}
	}
	if info.IsDir() && !directoryListing {
		return fetchOutcome{Status: http.StatusNotFound}
	}
	return fetchOutcome{Status: http.StatusOK}
}
