package linkcheck

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectLinks(t *testing.T, extractor func(yield func(string) error) error) []string {
	t.Helper()
	var got []string
	err := extractor(func(raw string) error {
		got = append(got, raw)
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestExtractHTMLFindsTaggedAttributes(t *testing.T) {
	doc := `<html><body>
		<a href="/about">About</a>
		<img src="logo.png" srcset="logo-2x.png 2x, logo-3x.png 3x">
		<link rel="stylesheet" href="/style.css">
		<script src="/app.js"></script>
		<video src="movie.mp4" poster="poster.jpg"></video>
		<form action="/submit"></form>
	</body></html>`

	links := collectLinks(t, func(yield func(string) error) error {
		return extractHTML(strings.NewReader(doc), yield)
	})

	assert.Contains(t, links, "/about")
	assert.Contains(t, links, "logo.png")
	assert.Contains(t, links, "logo-2x.png")
	assert.Contains(t, links, "logo-3x.png")
	assert.Contains(t, links, "/style.css")
	assert.Contains(t, links, "/app.js")
	assert.Contains(t, links, "movie.mp4")
	assert.Contains(t, links, "poster.jpg")
	assert.Contains(t, links, "/submit")
}

func TestExtractHTMLToleratesMalformedMarkup(t *testing.T) {
	doc := `<html><body><a href="/ok">ok<div class=unclosed</body>`
	links := collectLinks(t, func(yield func(string) error) error {
		return extractHTML(strings.NewReader(doc), yield)
	})
	assert.Contains(t, links, "/ok")
}

func TestExtractMarkdownRendersThenExtracts(t *testing.T) {
	doc := "# Title\n\nSee the [docs](https://example.com/docs) and ![logo](logo.png).\n"
	links := collectLinks(t, func(yield func(string) error) error {
		return extractMarkdown(strings.NewReader(doc), yield)
	})
	assert.Contains(t, links, "https://example.com/docs")
	assert.Contains(t, links, "logo.png")
}

func TestParseSrcset(t *testing.T) {
	got := parseSrcset(" a.png 1x, b.png 2x,c.png")
	assert.Equal(t, []string{"a.png", "b.png", "c.png"}, got)
}

func TestIsMarkdownContentType(t *testing.T) {
	assert.True(t, isMarkdownContentType("text/markdown; charset=utf-8"))
	assert.True(t, isMarkdownContentType("text/x-markdown"))
	assert.False(t, isMarkdownContentType("text/html"))
}

func TestIsMarkdownPath(t *testing.T) {
	assert.True(t, isMarkdownPath("/docs/README.md"))
	assert.True(t, isMarkdownPath("/docs/notes.MARKDOWN"))
	assert.False(t, isMarkdownPath("/docs/index.html"))
}
