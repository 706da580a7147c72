// Package server exposes hosting sessions to a rendering surface over HTTP.
//
// The bridge lets a browser frontend (or any HTTP client) create sessions,
// build layouts and creators in them, place child widgets, send inbound
// messages such as dom_ready and read back the outbound event log. It also
// renders matrix documents statelessly through the pipeline.
//
// # Routes
//
//	GET    /healthz
//	POST   /api/sessions
//	GET    /api/sessions/{sid}
//	DELETE /api/sessions/{sid}
//	POST   /api/sessions/{sid}/layouts
//	POST   /api/sessions/{sid}/creators
//	POST   /api/sessions/{sid}/creators/{wid}/generate
//	POST   /api/sessions/{sid}/widgets
//	GET    /api/sessions/{sid}/widgets/{wid}
//	POST   /api/sessions/{sid}/widgets/{wid}/messages
//	POST   /api/sessions/{sid}/layouts/{wid}/children
//	GET    /api/sessions/{sid}/events?after=N
//	GET    /api/layouts
//	GET    /api/layouts/{name}
//	PUT    /api/layouts/{name}
//	DELETE /api/layouts/{name}
//	POST   /api/render?format=html
//
// Errors are JSON objects {"code", "message", "available"}. Validation
// failures map to 422, missing sessions, widgets and layouts to 404,
// unavailable features to 501 and everything else to 500.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/vizgrid/pkg/pipeline"
	"github.com/matzehuels/vizgrid/pkg/session"
	"github.com/matzehuels/vizgrid/pkg/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// shutdownTimeout bounds the graceful drain in ListenAndServe.
const shutdownTimeout = 5 * time.Second

// Server is the HTTP bridge.
type Server struct {
	sessions *session.Registry
	runner   *pipeline.Runner
	store    store.Store
	logger   *log.Logger
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithRunner sets the pipeline used by /api/render. Without one the route
// renders uncached.
func WithRunner(r *pipeline.Runner) Option {
	return func(s *Server) { s.runner = r }
}

// WithStore enables the /api/layouts routes and layout creation by name.
func WithStore(st store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a bridge over the sessions of reg.
func New(reg *session.Registry, opts ...Option) *Server {
	s := &Server{
		sessions: reg,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/render", s.handleRender)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{sid}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/layouts", s.handleCreateLayout)
				r.Post("/layouts/{wid}/children", s.handlePlace)
				r.Post("/creators", s.handleCreateCreator)
				r.Post("/creators/{wid}/generate", s.handleGenerate)
				r.Post("/widgets", s.handleCreateWidget)
				r.Get("/widgets/{wid}", s.handleGetWidget)
				r.Post("/widgets/{wid}/messages", s.handleMessage)
				r.Get("/events", s.handleEvents)
			})
		})

		r.Route("/layouts", func(r chi.Router) {
			r.Get("/", s.handleListLayouts)
			r.Get("/{name}", s.handleGetLayout)
			r.Put("/{name}", s.handlePutLayout)
			r.Delete("/{name}", s.handleDeleteLayout)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then drains in-flight
// requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	drain, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(drain); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
