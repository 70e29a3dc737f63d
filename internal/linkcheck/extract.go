package linkcheck

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// srcAttrTags carries a single src-like attribute to extract per tag.
var srcAttrTags = map[atom.Atom]string{
	atom.Img:    "src",
	atom.Iframe: "src",
	atom.Script: "src",
	atom.Source: "src",
	atom.Track:  "src",
}

// hrefAttrTags carries a single href-like attribute to extract per tag.
var hrefAttrTags = map[atom.Atom]string{
	atom.A:    "href",
	atom.Area: "href",
	atom.Link: "href",
}

// mediaAttrTags carries multiple candidate attributes per tag.
var mediaAttrTags = map[atom.Atom][]string{
	atom.Video: {"src", "poster"},
	atom.Audio: {"src", "poster"},
	atom.Form:  {"action"},
}

// srcsetTags additionally carry a comma-separated srcset candidate list.
var srcsetTags = map[atom.Atom]bool{
	atom.Source: true,
	atom.Img:    true,
}

// extractHTML streams tag/attribute pairs from r, invoking yield with each
// discovered raw URL string in document order. It never buffers the whole
// document: it holds only the tokenizer's per-token buffer. Malformed
// markup never aborts extraction; extraction ends at stream end or on I/O
// error, which is propagated to the caller.
func extractHTML(r io.Reader, yield func(rawURL string) error) error {
	tokenizer := html.NewTokenizer(r)
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != nil && err != io.EOF {
				return fmt.Errorf("linkcheck: html tokenize: %w", err)
			}
			return nil
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if err := emitTagLinks(token, yield); err != nil {
				return err
			}
		}
	}
}

func emitTagLinks(token html.Token, yield func(string) error) error {
	tagAtom := token.DataAtom
	attrs := attrMap(token)

	if attr, ok := hrefAttrTags[tagAtom]; ok {
		if v, ok := attrs[attr]; ok && v != "" {
			if err := yield(v); err != nil {
				return err
			}
		}
	}
	if attr, ok := srcAttrTags[tagAtom]; ok {
		if v, ok := attrs[attr]; ok && v != "" {
			if err := yield(v); err != nil {
				return err
			}
		}
	}
	if attrList, ok := mediaAttrTags[tagAtom]; ok {
		for _, attr := range attrList {
			if v, ok := attrs[attr]; ok && v != "" {
				if err := yield(v); err != nil {
					return err
				}
			}
		}
	}
	if srcsetTags[tagAtom] {
		if v, ok := attrs["srcset"]; ok && v != "" {
			for _, candidate := range parseSrcset(v) {
				if err := yield(candidate); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func attrMap(token html.Token) map[string]string {
	m := make(map[string]string, len(token.Attr))
	for _, a := range token.Attr {
		m[strings.ToLower(a.Key)] = a.Val
	}
	return m
}

// parseSrcset splits a srcset attribute value into candidate URL strings,
// discarding the trailing width/density descriptor of each candidate.
func parseSrcset(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		out = append(out, fields[0])
	}
	return out
}

// extractMarkdown renders the Markdown source to HTML then runs it through
// extractHTML. Rendering requires the whole document in memory; the
// documents this backend handles (README-style files) are small relative to
// arbitrary HTML pages, and only the HTML backend carries the
// no-whole-document-buffering requirement.
func extractMarkdown(r io.Reader, yield func(rawURL string) error) error {
	source, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("linkcheck: read markdown: %w", err)
	}
	var buf bytes.Buffer
	if err := goldmark.Convert(source, &buf); err != nil {
		return fmt.Errorf("linkcheck: render markdown: %w", err)
	}
	return extractHTML(&buf, yield)
}

// isMarkdownContentType reports whether contentType names a Markdown MIME
// type, ignoring parameters like charset.
func isMarkdownContentType(contentType string) bool {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch base {
	case "text/markdown", "text/x-markdown":
		return true
	default:
		return false
	}
}

// isMarkdownPath reports whether path carries a Markdown file extension.
func isMarkdownPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}
