package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherHeadSucceedsWithoutBody(t *testing.T) {
	var sawMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newFetcher(CheckOptions{UserAgent: "test-agent"})
	outcome := f.Fetch(context.Background(), srv.URL, false)

	assert.Equal(t, http.StatusOK, outcome.Status)
	assert.Equal(t, "HEAD", sawMethod)
	assert.NoError(t, outcome.err)
}

func TestFetcherFallsBackToGETOn405(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newFetcher(CheckOptions{})
	outcome := f.Fetch(context.Background(), srv.URL, false)

	assert.Equal(t, http.StatusOK, outcome.Status)
	assert.Equal(t, 2, calls)
}

func TestFetcherWantBodySkipsHeadEntirely(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	f := newFetcher(CheckOptions{})
	outcome := f.Fetch(context.Background(), srv.URL, true)

	assert.Equal(t, http.StatusOK, outcome.Status)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "<html></html>", string(outcome.Body))
}

func TestFetcherAppliesExtraHeadersAndUserAgent(t *testing.T) {
	var gotUA, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Custom")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	headers := http.Header{}
	headers.Set("X-Custom", "value")
	f := newFetcher(CheckOptions{UserAgent: "linksweep-test", ExtraHeaders: headers})
	f.Fetch(context.Background(), srv.URL, false)

	assert.Equal(t, "linksweep-test", gotUA)
	assert.Equal(t, "value", gotCustom)
}

func TestFetcherReturnsTransportError(t *testing.T) {
	f := newFetcher(CheckOptions{})
	outcome := f.Fetch(context.Background(), "http://127.0.0.1:1", false)
	require.Error(t, outcome.err)
}

func TestFetchFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hi"), 0o644))

	fileURL, _ := url.Parse("file://" + filepath.Join(dir, "a.txt"))
	outcome := fetchFile(fileURL, false)
	assert.Equal(t, http.StatusOK, outcome.Status)

	missingURL, _ := url.Parse("file://" + filepath.Join(dir, "missing.txt"))
	outcome = fetchFile(missingURL, false)
	assert.Equal(t, http.StatusNotFound, outcome.Status)

	dirURL, _ := url.Parse("file://" + dir)
	outcome = fetchFile(dirURL, false)
	assert.Equal(t, http.StatusNotFound, outcome.Status)

	outcome = fetchFile(dirURL, true)
	assert.Equal(t, http.StatusOK, outcome.Status)
}
