package linkcheck

import (
	"fmt"
	"net/url"
	"strings"
)

// Scheme classifies a resolved URL's transport for fetch dispatch.
type Scheme int

// Scheme classifications used by the admission pipeline.
const (
	SchemeHTTP Scheme = iota
	SchemeFile
	SchemeOther
)

// ClassifyScheme maps a resolved URL's scheme to a Scheme bucket. Anything
// outside {http, https, file} is SchemeOther and is always skipped.
func ClassifyScheme(u *url.URL) Scheme {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return SchemeHTTP
	case "file":
		return SchemeFile
	default:
		return SchemeOther
	}
}

// ApplyRewrites runs every rewrite rule, in order, against raw.
func ApplyRewrites(raw string, rules []UrlRewriteRule) string {
	for _, rule := range rules {
		raw = rule.Apply(raw)
	}
	return raw
}

// Resolve resolves raw against parent using RFC 3986 semantics and strips
// any fragment. parent may be nil for absolute seed URLs.
func Resolve(parent *url.URL, raw string) (*url.URL, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("linkcheck: parse url %q: %w", raw, err)
	}
	resolved := ref
	if parent != nil {
		resolved = parent.ResolveReference(ref)
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved, nil
}

// Origin returns the (scheme, host, port) tuple per RFC 6454, as a string
// suitable for equality comparison.
func Origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch scheme {
	case "http":
		host = strings.TrimSuffix(host, ":80")
	case "https":
		host = strings.TrimSuffix(host, ":443")
	}
	return scheme + "://" + host
}

// StructuralKey is the dedupe cache key: scheme/host/port/path/query,
// deliberately ignoring the fragment (already stripped by Resolve) and any
// trailing textual differences that don't change the resolved resource.
func StructuralKey(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	key := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + path
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}

// InScope reports whether target's origin matches any of the given seed
// origins, per the recursion policy in section 4.2 step 5.
func InScope(target *url.URL, seedOrigins map[string]struct{}) bool {
	_, ok := seedOrigins[Origin(target)]
	return ok
}
