// Package resolver answers image requests: it serves the source, a cached
// derivative, or a derivative generated on demand.
package resolver

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ironsheep/image-styles/internal/derivative"
	"github.com/ironsheep/image-styles/internal/logfields"
	"github.com/ironsheep/image-styles/internal/metrics"
	"github.com/ironsheep/image-styles/internal/style"
)

// Outcome is the terminal state of one resolution.
type Outcome string

const (
	PassThrough     Outcome = "pass_through"
	ServedSource    Outcome = "served_source"
	ServedCached    Outcome = "served_cached"
	ServedGenerated Outcome = "served_generated"
	Failed          Outcome = "failed"
)

// DefaultCacheControl is sent with every served image unless overridden.
const DefaultCacheControl = "max-age=86400"

// Generator writes the derivative of src for a resolved style to target.
// *pipeline.Executor implements it.
type Generator interface {
	Generate(ctx context.Context, r *style.Resolved, src, target string) error
}

// Response describes what to send back. FilePath is empty for PassThrough
// and Failed.
type Response struct {
	Outcome  Outcome
	FilePath string
	MimeType string
	Headers  http.Header
	Status   int
	Err      error
}

// Options configures a Resolver.
type Options struct {
	Catalog   *style.Catalog
	Generator Generator
	Types     *derivative.Types

	// BaseDir holds the source images; StaticDir receives derivatives under
	// StaticDir/image-styles.
	BaseDir   string
	StaticDir string

	// Headers are merged over the defaults; keys set here win.
	Headers map[string]string

	Metrics metrics.Recorder
	Logger  *slog.Logger
}

// Resolver is safe for concurrent use. Concurrent requests for the same
// uncached derivative share one generation.
type Resolver struct {
	catalog   atomic.Pointer[style.Catalog]
	generator Generator
	types     *derivative.Types
	baseDir   string
	staticDir string
	headers   map[string]string
	metrics   metrics.Recorder
	logger    *slog.Logger

	flights singleflight.Group
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	r := &Resolver{
		generator: opts.Generator,
		types:     opts.Types,
		baseDir:   opts.BaseDir,
		staticDir: opts.StaticDir,
		headers:   opts.Headers,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
	if opts.Catalog == nil {
		opts.Catalog = style.NewCatalog(nil, nil)
	}
	r.catalog.Store(opts.Catalog)
	if r.types == nil {
		r.types = derivative.DefaultTypes()
	}
	if r.metrics == nil {
		r.metrics = metrics.NoopRecorder{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Catalog returns the catalog currently in use.
func (r *Resolver) Catalog() *style.Catalog { return r.catalog.Load() }

// SetCatalog replaces the catalog for subsequent requests.
func (r *Resolver) SetCatalog(c *style.Catalog) { r.catalog.Store(c) }

// Resolve walks the request through extension check, source lookup, style
// check and cache check. It never panics and never returns an error: failures
// are reported as a Failed response.
func (r *Resolver) Resolve(ctx context.Context, requestPath string, query url.Values) Response {
	resp := r.resolve(ctx, requestPath, query)
	r.metrics.IncRequest(string(resp.Outcome))
	return resp
}

func (r *Resolver) resolve(ctx context.Context, requestPath string, query url.Values) Response {
	mimeType, ok := r.types.Lookup(path.Ext(requestPath))
	if !ok {
		return Response{Outcome: PassThrough}
	}

	src := derivative.SourcePath(r.baseDir, requestPath)
	if !derivative.Exists(src) {
		return Response{Outcome: PassThrough}
	}

	styleName := query.Get("style")
	if styleName == "" {
		return r.serve(ServedSource, src, mimeType)
	}

	catalog := r.Catalog()
	if !catalog.Has(styleName) {
		r.logger.Warn("Unknown image style requested, serving source",
			logfields.Style(styleName), logfields.Source(requestPath))
		return r.serve(ServedSource, src, mimeType)
	}

	target := derivative.TargetPath(requestPath, styleName, r.staticDir)
	if derivative.Exists(target) {
		return r.serve(ServedCached, target, mimeType)
	}

	outcome, err := r.generate(ctx, catalog, styleName, src, target)
	if err != nil {
		return Response{
			Outcome: Failed,
			Status:  http.StatusInternalServerError,
			Err:     err,
		}
	}
	return r.serve(outcome, target, mimeType)
}

// generate produces target once per key no matter how many requests ask for
// it concurrently. The cache is checked again inside the flight so a request
// arriving just after a finished flight does not regenerate. The flight is
// detached from the cancellation of the request that started it; the
// generator's own timeout bounds it.
func (r *Resolver) generate(ctx context.Context, catalog *style.Catalog, styleName, src, target string) (Outcome, error) {
	key := src + "\x00" + styleName
	v, err, _ := r.flights.Do(key, func() (any, error) {
		if derivative.Exists(target) {
			return ServedCached, nil
		}
		resolved, err := catalog.Resolve(styleName)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		err = r.generator.Generate(context.WithoutCancel(ctx), resolved, src, target)
		r.metrics.ObserveGeneration(styleName, time.Since(start), err == nil)
		if err != nil {
			r.logger.Error("Failed to generate derivative",
				logfields.Style(styleName), logfields.Source(src), logfields.Target(target), logfields.Error(err))
			return nil, err
		}
		return ServedGenerated, nil
	})
	if err != nil {
		return Failed, err
	}
	return v.(Outcome), nil
}

func (r *Resolver) serve(outcome Outcome, file, mimeType string) Response {
	return Response{
		Outcome:  outcome,
		FilePath: file,
		MimeType: mimeType,
		Headers:  r.responseHeaders(mimeType),
		Status:   http.StatusOK,
	}
}

func (r *Resolver) responseHeaders(mimeType string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", mimeType)
	h.Set("Cache-Control", DefaultCacheControl)
	for k, v := range r.headers {
		h.Set(k, v)
	}
	return h
}

// ErrorMessage returns the message to send with a Failed response.
func (resp Response) ErrorMessage() string {
	if resp.Err == nil {
		return http.StatusText(http.StatusInternalServerError)
	}
	return resp.Err.Error()
}
