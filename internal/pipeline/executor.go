// Package pipeline applies resolved style pipelines to source images and
// writes the resulting derivatives.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ironsheep/image-styles/internal/derivative"
	serrors "github.com/ironsheep/image-styles/internal/errors"
	"github.com/ironsheep/image-styles/internal/imaging"
	"github.com/ironsheep/image-styles/internal/logfields"
	"github.com/ironsheep/image-styles/internal/style"
)

// DefaultTimeout bounds the work done for one derivative.
const DefaultTimeout = 30 * time.Second

// Options configures an Executor. Zero values select defaults.
type Options struct {
	Operations *imaging.Operations
	Loader     imaging.Loader
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Executor runs pipelines against the operation table.
type Executor struct {
	ops     *imaging.Operations
	loader  imaging.Loader
	timeout time.Duration
	logger  *slog.Logger
}

// New creates an Executor.
func New(opts Options) *Executor {
	e := &Executor{
		ops:     opts.Operations,
		loader:  opts.Loader,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
	if e.ops == nil {
		e.ops = imaging.DefaultOperations()
	}
	if e.loader == nil {
		e.loader = imaging.FileLoader{}
	}
	if e.timeout <= 0 {
		e.timeout = DefaultTimeout
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// WithLoader returns a copy of e that decodes sources through loader.
func (e *Executor) WithLoader(loader imaging.Loader) *Executor {
	c := *e
	c.loader = loader
	return &c
}

// Operations returns the operation table used by e.
func (e *Executor) Operations() *imaging.Operations { return e.ops }

// Result is the outcome of a successful Apply.
type Result struct {
	Style  string
	Canvas *imaging.Canvas
}

// Encode writes the result image in the format implied by ext.
func (r *Result) Encode(w io.Writer, ext string) error {
	return r.Canvas.Encode(w, ext)
}

// Apply runs the pipeline of r against the image at src.
//
// Every action is visited in order. An action naming no registered operation
// and an operation that fails are both recorded and the loop moves on. When
// anything was recorded, including the expansion errors carried by r, Apply
// returns an *Errors and no result.
func (e *Executor) Apply(ctx context.Context, r *style.Resolved, src string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.apply(ctx, r, src)
}

func (e *Executor) apply(ctx context.Context, r *style.Resolved, src string) (*Result, error) {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil, serrors.SourceNotFound(src)
	}
	img, err := e.loader.Load(src)
	if err != nil {
		return nil, serrors.ExecutionFailure(r.Style, "load", err).WithContext("path", src)
	}

	errs := append([]error(nil), r.Errors...)
	canvas := imaging.NewCanvas(img)

	for i, inv := range r.Actions {
		if err := ctx.Err(); err != nil {
			errs = append(errs, serrors.ExecutionFailure(r.Style, inv.Name, err))
			break
		}
		op, ok := e.ops.Lookup(inv.Name)
		if !ok {
			errs = append(errs, r.UnknownAction(i))
			continue
		}
		if err := op(canvas, inv.Args); err != nil {
			errs = append(errs, serrors.ExecutionFailure(r.Style, inv.String(), err))
		}
	}

	if len(errs) > 0 {
		for _, err := range errs {
			e.logger.Error("Image style pipeline error",
				logfields.Style(r.Style), logfields.Source(src), logfields.Error(err))
		}
		return nil, &Errors{Style: r.Style, errs: errs}
	}
	return &Result{Style: r.Style, Canvas: canvas}, nil
}

// Generate applies r to src and writes the derivative to target, creating
// target's directory when needed. It returns once the file is durably in
// place; nothing is written when the pipeline fails.
func (e *Executor) Generate(ctx context.Context, r *style.Resolved, src, target string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	ext := filepath.Ext(target)
	if _, err := imaging.FormatForExtension(ext); err != nil {
		return serrors.ExecutionFailure(r.Style, "encode", err)
	}

	res, err := e.apply(ctx, r, src)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return serrors.ExecutionFailure(r.Style, "write", err)
	}
	if err := derivative.EnsureDir(target); err != nil {
		return err
	}
	if err := derivative.WriteFile(target, func(w io.Writer) error { return res.Encode(w, ext) }); err != nil {
		return err
	}

	e.logger.Debug("Generated derivative",
		logfields.Style(r.Style), logfields.Source(src), logfields.Target(target),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return nil
}
