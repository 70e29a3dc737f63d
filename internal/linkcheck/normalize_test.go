package linkcheck

import (
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyScheme(t *testing.T) {
	cases := map[string]Scheme{
		"http://example.com":   SchemeHTTP,
		"HTTPS://example.com":  SchemeHTTP,
		"file:///tmp/a.html":   SchemeFile,
		"mailto:a@example.com": SchemeOther,
		"tel:+15555550100":     SchemeOther,
	}
	for raw, want := range cases {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, want, ClassifyScheme(u), raw)
	}
}

func TestApplyRewrites(t *testing.T) {
	rules := []UrlRewriteRule{
		{Pattern: regexp.MustCompile(`^http://`), Replacement: "https://"},
	}
	assert.Equal(t, "https://example.com", ApplyRewrites("http://example.com", rules))
	assert.Equal(t, "https://example.com", ApplyRewrites("https://example.com", nil))
}

func TestResolve(t *testing.T) {
	parent, err := url.Parse("https://example.com/docs/index.html")
	require.NoError(t, err)

	resolved, err := Resolve(parent, "../about.html#team")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/about.html", resolved.String())

	absolute, err := Resolve(parent, "https://other.example/page")
	require.NoError(t, err)
	assert.Equal(t, "https://other.example/page", absolute.String())

	_, err = Resolve(nil, "https://example.com/root")
	require.NoError(t, err)
}

func TestOrigin(t *testing.T) {
	a, _ := url.Parse("HTTPS://Example.com:443/path")
	b, _ := url.Parse("https://example.com:443/other")
	assert.Equal(t, Origin(a), Origin(b))
}

func TestStructuralKey(t *testing.T) {
	a, _ := url.Parse("https://example.com/path?b=2&a=1")
	b, _ := url.Parse("https://example.com/path?b=2&a=1")
	assert.Equal(t, StructuralKey(a), StructuralKey(b))

	c, _ := url.Parse("https://example.com")
	assert.Equal(t, "https://example.com/", StructuralKey(c))
}

func TestInScope(t *testing.T) {
	seedOrigins := map[string]struct{}{"https://example.com": {}}
	inScope, _ := url.Parse("https://example.com/other")
	outOfScope, _ := url.Parse("https://elsewhere.example/other")

	assert.True(t, InScope(inScope, seedOrigins))
	assert.False(t, InScope(outOfScope, seedOrigins))
}
