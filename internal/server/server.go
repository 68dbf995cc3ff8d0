// Package server serves the browser editor: the form, a live preview pane
// kept in sync through JSON patches, image uploads and the HTML export.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-portfolio/internal/config"
	"github.com/goliatone/go-portfolio/pkg/export"
	"github.com/goliatone/go-portfolio/pkg/imageload"
	"github.com/goliatone/go-portfolio/pkg/preview"
	rendertemplate "github.com/goliatone/go-portfolio/pkg/render/template"
	gotemplate "github.com/goliatone/go-portfolio/pkg/render/template/gotemplate"
	"github.com/goliatone/go-portfolio/pkg/renderers/vanilla"
	"github.com/goliatone/go-portfolio/pkg/state"
	"github.com/goliatone/go-portfolio/pkg/themes"
)

// CookieName carries the editor session id.
const CookieName = "portfolio_session"

// TabHeader carries the id of the editor page a request comes from. The id
// is issued with the page.
const TabHeader = "X-Portfolio-Tab"

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

//go:embed assets/*
var embeddedAssets embed.FS

type Options struct {
	Config   config.Config
	Logger   *slog.Logger
	Renderer *vanilla.Renderer
	Catalog  *themes.Catalog
	Loader   *imageload.Loader
	// Clock drives session expiry and project ids.
	Clock func() time.Time
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		Config: config.Default(),
		Logger: slog.Default(),
		Clock:  time.Now,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return opts
}

func WithConfig(cfg config.Config) OptionFn {
	return func(o *Options) {
		o.Config = cfg
	}
}

func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithRenderer(renderer *vanilla.Renderer) OptionFn {
	return func(o *Options) {
		o.Renderer = renderer
	}
}

func WithCatalog(catalog *themes.Catalog) OptionFn {
	return func(o *Options) {
		o.Catalog = catalog
	}
}

func WithLoader(loader *imageload.Loader) OptionFn {
	return func(o *Options) {
		o.Loader = loader
	}
}

func WithClock(clock func() time.Time) OptionFn {
	return func(o *Options) {
		o.Clock = clock
	}
}

// Server wires the editor routes to per-session state.
type Server struct {
	cfg          config.Config
	logger       *slog.Logger
	renderer     *vanilla.Renderer
	synchronizer *preview.Synchronizer
	catalog      *themes.Catalog
	loader       *imageload.Loader
	templates    rendertemplate.TemplateRenderer
	sessions     *SessionStore
	clock        func() time.Time

	exportMu  sync.Mutex
	exporters map[string]*export.Exporter
}

// New builds a Server with defaults for anything not supplied.
func New(fns ...OptionFn) (*Server, error) {
	opts := NewOptions(fns...)
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	renderer := opts.Renderer
	if renderer == nil {
		var err error
		if renderer, err = vanilla.New(); err != nil {
			return nil, fmt.Errorf("server: renderer: %w", err)
		}
	}
	synchronizer, err := preview.NewSynchronizer(renderer)
	if err != nil {
		return nil, fmt.Errorf("server: synchronizer: %w", err)
	}

	catalog := opts.Catalog
	if catalog == nil {
		if catalog, err = themes.NewCatalog(); err != nil {
			return nil, fmt.Errorf("server: themes: %w", err)
		}
	}
	if _, err := catalog.Select(opts.Config.Theme.Name, opts.Config.Theme.Variant); err != nil {
		return nil, fmt.Errorf("server: theme: %w", err)
	}

	loader := opts.Loader
	if loader == nil {
		loader = imageload.New(imageload.WithLimit(opts.Config.Upload.Limit), imageload.WithLogger(opts.Logger))
	}

	engine, err := gotemplate.New(gotemplate.WithFS(embeddedTemplates), gotemplate.WithExtension(".tmpl"))
	if err != nil {
		return nil, fmt.Errorf("server: templates: %w", err)
	}

	s := &Server{
		cfg:          opts.Config,
		logger:       opts.Logger,
		renderer:     renderer,
		synchronizer: synchronizer,
		catalog:      catalog,
		loader:       loader,
		templates:    engine,
		clock:        opts.Clock,
		exporters:    make(map[string]*export.Exporter),
	}
	s.sessions = newSessionStore(opts.Config.Session.TTL, opts.Clock, s.newSession, s.newMirror, opts.Logger)
	return s, nil
}

func (s *Server) newSession() *state.Session {
	return state.New(state.WithClock(s.clock))
}

func (s *Server) newMirror(session *state.Session) *preview.Mirror {
	return preview.NewMirror(context.Background(), session, s.synchronizer, s.logger)
}

// exporterFor returns the exporter for a theme variant, building it once.
func (s *Server) exporterFor(variant string) (*export.Exporter, error) {
	s.exportMu.Lock()
	defer s.exportMu.Unlock()

	if exporter, ok := s.exporters[variant]; ok {
		return exporter, nil
	}
	themeCfg, err := s.catalog.Resolve(s.cfg.Theme.Name, variant)
	if err != nil {
		return nil, StatusError{Code: http.StatusBadRequest, Err: err}
	}
	exporter, err := export.New(export.WithTheme(themeCfg))
	if err != nil {
		return nil, err
	}
	s.exporters[variant] = exporter
	return exporter, nil
}

// Sessions exposes the session store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// Routes returns the editor router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleEditor)
	r.Get("/healthz", handleHealth)
	r.Get("/preview", s.handlePreview)
	r.Get("/patches", s.handlePatches)
	r.Get("/export", s.handleExport)
	r.Post("/fields/{field}", s.handleField)
	r.Post("/image", s.handleImage)
	r.Post("/projects", s.handleAddProject)
	r.Post("/projects/{id}/{field}", s.handleUpdateProject)
	r.Delete("/projects/{id}", s.handleRemoveProject)

	r.Get("/assets/"+vanilla.StylesheetName, serveStylesheet)
	assets, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		assets = embeddedAssets
	}
	r.Handle("/assets/editor/*", http.StripPrefix("/assets/editor/", http.FileServer(http.FS(assets))))

	return r
}

// logRequests writes one debug line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// Run serves until ctx is done, then shuts down within the configured
// timeout. The session janitor runs alongside the listener.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("editor listening", "addr", s.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return s.sessions.Run(gCtx, s.cfg.Session.JanitorInterval)
	})
	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info("shutting down")
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		s.loader.Wait()
		return nil
	})
	return g.Wait()
}
