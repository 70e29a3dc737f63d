// Package server hosts the ephemeral static file server used when a check
// target is a local filesystem path rather than a remote URL.
package server

import (
	"context"
	"fmt"
	"html"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/websieve/linksweep/internal/metrics"
)

// Server serves the contents of a single directory over plain HTTP on an
// OS-assigned loopback port. It exists only for the lifetime of one check
// run: Start binds the listener, BaseURL reports where it landed, and
// Shutdown force-closes it, including any keep-alive connections, so the
// process holds no listening sockets once a run completes.
type Server struct {
	root             string
	directoryListing bool
	logger           *zap.Logger

	listener net.Listener
	httpSrv  *http.Server
}

// New constructs a Server rooted at root. directoryListing controls whether
// requests for a directory without an index.html render a listing (true)
// or answer 404 (false), matching the CheckOptions.DirectoryListing flag.
func New(root string, directoryListing bool, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		root:             root,
		directoryListing: directoryListing,
		logger:           logger,
	}
}

// Start binds a loopback listener and begins serving in the background. It
// returns once the listener is bound; serve errors after that point are
// logged, not returned, since by then the caller has already begun using
// BaseURL.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("server: bind loopback listener: %w", err)
	}
	s.listener = ln

	router := chi.NewRouter()
	router.Use(requestIDMiddleware)
	router.Use(middleware.Recoverer)
	router.Get("/healthz", s.healthz)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())
	router.Get("/*", s.handleStatic)

	s.httpSrv = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Warn("static server exited", zap.Error(err))
		}
	}()

	s.logger.Debug("static server started", zap.String("root", s.root), zap.String("addr", ln.Addr().String()))
	return nil
}

// BaseURL returns the http://host:port origin the server is reachable at.
func (s *Server) BaseURL() string {
	return "http://" + s.listener.Addr().String()
}

// Shutdown forcibly closes the listener and every open connection,
// including idle keep-alives, rather than draining in-flight requests: the
// server has no client but the checker itself, and a graceful drain would
// only delay the crawl's own completion.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	if err := s.httpSrv.Close(); err != nil {
		return fmt.Errorf("server: close: %w", err)
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte("ok")); err != nil {
		s.logger.Warn("healthz write failed", zap.Error(err))
	}
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, reqID)))
	})
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	requested := path.Clean("/" + r.URL.Path)
	full := filepath.Join(s.root, filepath.FromSlash(requested))

	info, err := os.Stat(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if info.IsDir() {
		s.serveDir(w, r, full, requested)
		return
	}
	s.serveFile(w, r, full)
}

func (s *Server) serveDir(w http.ResponseWriter, r *http.Request, full, urlPath string) {
	index := filepath.Join(full, "index.html")
	if _, err := os.Stat(index); err == nil {
		s.serveFile(w, r, index)
		return
	}
	if !s.directoryListing {
		http.NotFound(w, r)
		return
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		http.Error(w, "directory read failed", http.StatusInternalServerError)
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>%s</title></head><body><ul>\n", html.EscapeString(urlPath))
	if urlPath != "/" {
		fmt.Fprintf(w, "<li><a href=\"..\">..</a></li>\n")
	}
	for _, entry := range entries {
		name := entry.Name()
		href := name
		if entry.IsDir() {
			href += "/"
		}
		fmt.Fprintf(w, "<li><a href=\"%s\">%s</a></li>\n", html.EscapeString(href), html.EscapeString(name))
	}
	fmt.Fprint(w, "</ul></body></html>")
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, full string) {
	f, err := os.Open(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentTypeFor(full))
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Warn("static file write failed", zap.String("path", full), zap.Error(err))
	}
}

// contentTypeFor maps a file extension to a MIME type, special-casing
// Markdown so the checker's content-sniffing can identify it without
// reading the file body first.
func contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".md", ".markdown":
		return "text/markdown; charset=utf-8"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
