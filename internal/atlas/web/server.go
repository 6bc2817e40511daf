package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/build-flow-labs/atlas/internal/atlas/report"
)

//go:embed templates/overview.html
var embeddedFS embed.FS

var overviewTmpl = template.Must(template.New("").Funcs(template.FuncMap{
	"score":   func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"timeAgo": timeAgo,
}).ParseFS(embeddedFS, "templates/overview.html"))

// Config holds report server configuration.
type Config struct {
	Addr       string
	StorageDir string
}

// Server serves the snapshot index over HTTP, as JSON and as HTML pages.
type Server struct {
	cfg    Config
	index  *Index
	gen    *report.Generator
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewServer creates a configured report server and indexes existing
// snapshots.
func NewServer(cfg Config, logger *slog.Logger) *Server {
	idx := NewIndex(cfg.StorageDir, logger)
	if err := idx.Load(); err != nil {
		logger.Warn("initial snapshot load failed", "error", err)
	}

	s := &Server{
		cfg:    cfg,
		index:  idx,
		gen:    report.NewGenerator(logger),
		logger: logger,
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/reports", s.handleAPIList)
	s.mux.HandleFunc("GET /api/reports/{name}", s.handleAPIReport)
	s.mux.HandleFunc("GET /ui", s.handleOverview)
	s.mux.HandleFunc("GET /ui/", s.handleOverview)
	s.mux.HandleFunc("GET /ui/report/{name}", s.handleReport)
	return s
}

// Handler exposes the server's routes (for testing).
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Refresh reloads the snapshot index from the storage directory.
func (s *Server) Refresh() {
	if err := s.index.Load(); err != nil {
		s.logger.Error("index refresh failed", "error", err)
	}
}

// Start begins serving. Blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("report server starting",
			"addr", s.cfg.Addr,
			"storage_dir", s.cfg.StorageDir,
			"snapshots", s.index.Count(),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down report server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
