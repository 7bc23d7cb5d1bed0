// Package httpserver exposes the request-time resolver over HTTP.
package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ironsheep/image-styles/internal/logfields"
	"github.com/ironsheep/image-styles/internal/resolver"
)

// Options configures a Server.
type Options struct {
	Addr     string
	Resolver *resolver.Resolver

	// Fallback handles requests the resolver passes through. Nil answers 404.
	Fallback http.Handler

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	// WriteTimeout must cover on-demand generation. Zero selects 60s.
	WriteTimeout time.Duration

	Logger *slog.Logger
}

// Server represents the image server.
type Server struct {
	Addr     string
	router   *chi.Mux
	server   *http.Server
	resolver *resolver.Resolver
	fallback http.Handler
	metrics  http.Handler
	logger   *slog.Logger
}

// New creates a new image server.
func New(opts Options) *Server {
	s := &Server{
		Addr:     opts.Addr,
		router:   chi.NewRouter(),
		resolver: opts.Resolver,
		fallback: opts.Fallback,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
	if s.fallback == nil {
		s.fallback = http.NotFoundHandler()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// setupRoutes configures all routes.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.GetHead)

	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}
	s.router.Get("/*", s.handleImage)
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Image server listening", slog.String("addr", s.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	resp := s.resolver.Resolve(r.Context(), r.URL.Path, r.URL.Query())

	switch resp.Outcome {
	case resolver.PassThrough:
		s.fallback.ServeHTTP(w, r)
	case resolver.Failed:
		http.Error(w, resp.ErrorMessage(), resp.Status)
	default:
		s.serveFile(w, r, resp)
	}
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, resp resolver.Response) {
	f, err := os.Open(resp.FilePath)
	if err != nil {
		s.logger.Error("Failed to open image", logfields.Target(resp.FilePath), logfields.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	for k, v := range resp.Headers {
		w.Header()[k] = v
	}
	http.ServeContent(w, r, filepath.Base(resp.FilePath), info.ModTime(), f)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.RequestURI()),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	})
}

// StaticFallback serves files below dir.
func StaticFallback(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}
