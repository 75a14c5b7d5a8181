package dev

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vango-dev/pagegen/internal/build"
	"github.com/vango-dev/pagegen/internal/config"
	"github.com/vango-dev/pagegen/internal/errors"
	"github.com/vango-dev/pagegen/internal/metrics"
	"github.com/vango-dev/pagegen/pkg/pages"
)

// MetricsPath is where the preview server exposes generation metrics.
const MetricsPath = "/_pagegen/metrics"

// ServerOptions configures the preview server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Builder generates the artifact. Default: build.New(Config, ...).
	Builder *build.Builder

	// Logger receives server logs. Default: slog.Default().
	Logger *slog.Logger

	// Metrics is exposed at MetricsPath when set.
	Metrics *metrics.Metrics

	// OnRegenerate is called after every regeneration attempt.
	OnRegenerate func(a *pages.Artifact, err error)
}

// Server is the preview server. It serves the current artifact through a
// pages.Registry and swaps in a new one whenever the pages change.
type Server struct {
	config       *config.Config
	options      ServerOptions
	builder      *build.Builder
	watcher      *Watcher
	reloadServer *ReloadServer
	logger       *slog.Logger
	changeCh     chan []Change
	hotReload    bool

	// mu guards the served state.
	mu       sync.RWMutex
	site     http.Handler
	artifact *pages.Artifact
	lastErr  error

	runMu      sync.Mutex
	running    bool
	httpServer *http.Server
}

// NewServer creates a new preview server.
func NewServer(options ServerOptions) *Server {
	cfg := options.Config
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	builder := options.Builder
	if builder == nil {
		builder = build.New(cfg, build.Options{
			Logger:  logger,
			Metrics: options.Metrics,
		})
	}

	watcher := NewWatcher(WatcherConfig{
		Paths:    []string{builder.Input().Dir},
		Ignore:   append(append([]string{}, DefaultIgnore...), cfg.Preview.Ignore...),
		Interval: 100 * time.Millisecond,
	})

	var reloadServer *ReloadServer
	if cfg.Preview.HotReload {
		reloadServer = NewReloadServer()
	}

	return &Server{
		config:       cfg,
		options:      options,
		builder:      builder,
		watcher:      watcher,
		reloadServer: reloadServer,
		logger:       logger,
		hotReload:    cfg.Preview.HotReload,
	}
}

// Regenerate rebuilds the artifact from the pages directory. On failure the
// previous artifact stays in service and browsers are shown the error.
func (s *Server) Regenerate(ctx context.Context) error {
	a, found, err := s.builder.Generate(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()

		s.logger.Error("regeneration failed", "error", err)
		s.notifyError(err)
		if s.options.OnRegenerate != nil {
			s.options.OnRegenerate(nil, err)
		}
		return err
	}

	site := s.mount(a)

	s.mu.Lock()
	s.site = site
	s.artifact = a
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Info("pages regenerated", "pages", len(found), "routes", len(a.Routes))
	s.clearReloadError()
	s.notifyReload(len(found))
	if s.options.OnRegenerate != nil {
		s.options.OnRegenerate(a, nil)
	}
	return nil
}

// mount builds the router serving an artifact.
func (s *Server) mount(a *pages.Artifact) http.Handler {
	var inject template.HTML
	if s.reloadEnabled() {
		inject = template.HTML(DevClientScript)
	}

	reg := pages.NewRegistry(a)
	reg.Inject(inject)

	emit := s.builder.EmitOptions()
	notFound := notFoundHandler(reg, pages.Link{To: emit.Home, Text: emit.HomeText}, inject)

	reg.HandleFunc(emit.Home, indexHandler(reg, inject))
	for _, r := range a.Predefined() {
		if isCatchAll(r.Path) {
			reg.HandleFunc(r.Identifier, notFound)
		}
	}

	r := chi.NewRouter()
	reg.Mount(r)
	r.NotFound(notFound)
	return r
}

// Handler returns the preview server's HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	if s.reloadEnabled() {
		r.Get(ReloadPath, s.reloadServer.HandleWebSocket)
	}
	if s.options.Metrics != nil {
		r.Handle(MetricsPath, s.options.Metrics.Handler())
	}
	r.Mount("/", http.HandlerFunc(s.serveSite))
	return r
}

// serveSite serves the current artifact, or the last error if there has
// never been one.
func (s *Server) serveSite(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	site, lastErr := s.site, s.lastErr
	s.mu.RUnlock()

	if site != nil {
		site.ServeHTTP(w, r)
		return
	}

	var inject template.HTML
	if s.reloadEnabled() {
		inject = template.HTML(DevClientScript)
	}
	msg := "Generation has not run yet."
	if lastErr != nil {
		msg = errors.FromError(lastErr, "E140").FormatCompact()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	unavailableTemplate.Execute(w, struct {
		Error  string
		Inject template.HTML
	}{msg, inject})
}

// Start starts the preview server and blocks until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		return nil
	}
	s.running = true
	s.runMu.Unlock()

	// Initial generation. A failure is shown in the browser, not fatal.
	s.Regenerate(ctx)

	// Set up watcher callback
	s.changeCh = make(chan []Change, 16)
	s.watcher.OnChange(func(changes []Change) {
		select {
		case s.changeCh <- changes:
		default:
		}
	})

	go s.watcher.Start(ctx)
	go s.processChanges(ctx)

	s.runMu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.config.PreviewAddress(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.runMu.Unlock()

	s.logger.Info("preview server running", "url", s.config.PreviewURL(), "pages", s.builder.Input().Dir)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		if err != nil {
			return errors.New("E143").
				WithDetail("Listening on " + s.config.PreviewAddress()).
				Wrap(err)
		}
		return nil
	}
}

// Stop stops the preview server.
func (s *Server) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	s.watcher.Stop()
	if s.reloadServer != nil {
		s.reloadServer.Close()
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// processChanges serializes change handling and coalesces bursts.
func (s *Server) processChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case changes := <-s.changeCh:
			draining := true
			for draining {
				select {
				case next := <-s.changeCh:
					changes = append(changes, next...)
				default:
					draining = false
				}
			}
			s.handleChanges(ctx, changes)
		}
	}
}

// handleChanges regenerates after a batch of file changes.
func (s *Server) handleChanges(ctx context.Context, changes []Change) {
	if len(changes) == 0 {
		return
	}
	for _, change := range changes {
		s.logger.Debug("page changed", "path", change.Path, "change", change.Type.String())
	}
	s.Regenerate(ctx)
}

// Artifact returns the artifact currently served, or nil.
func (s *Server) Artifact() *pages.Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact
}

// LastError returns the error of the last regeneration, or nil if it
// succeeded.
func (s *Server) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Server) reloadEnabled() bool {
	return s.hotReload && s.reloadServer != nil
}

func (s *Server) notifyReload(pageCount int) {
	if !s.reloadEnabled() {
		return
	}
	s.reloadServer.NotifyReload(pageCount)
	s.logger.Debug("browsers reloaded", "clients", s.reloadServer.ClientCount())
}

func (s *Server) notifyError(err error) {
	if !s.reloadEnabled() {
		return
	}
	s.reloadServer.NotifyError(errors.FromError(err, "E140").FormatCompact())
}

func (s *Server) clearReloadError() {
	if !s.reloadEnabled() {
		return
	}
	s.reloadServer.ClearError()
}
