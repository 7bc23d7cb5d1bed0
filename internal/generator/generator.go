// Package generator drains a registry into static derivative files at build
// time.
package generator

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/image-styles/internal/derivative"
	serrors "github.com/ironsheep/image-styles/internal/errors"
	"github.com/ironsheep/image-styles/internal/imaging"
	"github.com/ironsheep/image-styles/internal/logfields"
	"github.com/ironsheep/image-styles/internal/metrics"
	"github.com/ironsheep/image-styles/internal/pipeline"
	"github.com/ironsheep/image-styles/internal/registry"
	"github.com/ironsheep/image-styles/internal/style"
)

// Executor writes one styled derivative. *pipeline.Executor implements it.
type Executor interface {
	Generate(ctx context.Context, r *style.Resolved, src, target string) error
}

// loaderBinder is implemented by executors that can decode through a
// run-scoped image cache.
type loaderBinder interface {
	WithLoader(imaging.Loader) *pipeline.Executor
}

// Options configures a Generator.
type Options struct {
	Catalog  *style.Catalog
	Executor Executor

	// BaseDir holds the source images; output goes to
	// GenerateDir/image-styles.
	BaseDir     string
	GenerateDir string

	Metrics metrics.Recorder
	Logger  *slog.Logger
}

// Generator produces every derivative a registry asks for.
type Generator struct {
	catalog     *style.Catalog
	executor    Executor
	baseDir     string
	generateDir string
	metrics     metrics.Recorder
	logger      *slog.Logger
}

// Failure records an entry that could not be produced.
type Failure struct {
	Entry string
	Err   error
}

// Report summarises one run.
type Report struct {
	RunID     string
	Total     int
	Copied    int
	Generated int
	Skipped   int
	Failed    int
	Failures  []Failure
	Duration  time.Duration
}

// New creates a Generator.
func New(opts Options) *Generator {
	g := &Generator{
		catalog:     opts.Catalog,
		executor:    opts.Executor,
		baseDir:     opts.BaseDir,
		generateDir: opts.GenerateDir,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
	if g.catalog == nil {
		g.catalog = style.NewCatalog(nil, nil)
	}
	if g.executor == nil {
		g.executor = pipeline.New(pipeline.Options{Logger: opts.Logger})
	}
	if g.metrics == nil {
		g.metrics = metrics.NoopRecorder{}
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Run deduplicates reg and processes its entries one at a time, in order.
// Each derivative is durably written before the next entry starts. Entry
// failures are logged and counted; they never stop the run. Run returns a nil
// error once every entry was visited, or the context error when ctx ends
// first.
func (g *Generator) Run(ctx context.Context, reg *registry.Registry) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.New().String()}
	logger := g.logger.With(logfields.RunID(report.RunID))

	exec := g.executor
	if b, ok := exec.(loaderBinder); ok {
		cache := imaging.NewImageCache()
		defer cache.Clear()
		exec = b.WithLoader(cache)
	}

	reg.Dedupe()
	entries := reg.Entries()
	report.Total = len(entries)
	logger.Info("Generating image derivatives", slog.Int("entries", report.Total))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			logger.Warn("Image generation canceled", logfields.Error(err))
			return report, err
		}

		result, err := g.process(ctx, exec, entry, logger)
		g.metrics.IncBatchEntry(result)
		switch result {
		case metrics.BatchCopied:
			report.Copied++
		case metrics.BatchGenerated:
			report.Generated++
		case metrics.BatchSkipped:
			report.Skipped++
		case metrics.BatchFailed:
			report.Failed++
			report.Failures = append(report.Failures, Failure{Entry: entry, Err: err})
		}
	}

	report.Duration = time.Since(start)
	g.metrics.ObserveBatchDuration(report.Duration)
	logger.Info("Image generation complete",
		slog.Int("copied", report.Copied),
		slog.Int("generated", report.Generated),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report, nil
}

func (g *Generator) process(ctx context.Context, exec Executor, entry string, logger *slog.Logger) (metrics.BatchResult, error) {
	key, err := derivative.ParseQuery(entry)
	if err != nil {
		logger.Error("Invalid registry entry", logfields.Entry(entry), logfields.Error(err))
		return metrics.BatchFailed, err
	}

	if key.Style != "" && !g.catalog.Has(key.Style) {
		logger.Error("Image style not defined", logfields.Entry(entry), logfields.Style(key.Style))
		return metrics.BatchSkipped, serrors.UnknownStyle(key.Style)
	}

	src := derivative.SourcePath(g.baseDir, key.Source)
	if !derivative.Exists(src) {
		err := serrors.SourceNotFound(src)
		logger.Error("Source image not found", logfields.Entry(entry), logfields.Source(src))
		return metrics.BatchFailed, err
	}

	target := derivative.GeneratePath(g.generateDir, key)
	if err := derivative.EnsureDir(target); err != nil {
		logger.Error("Failed to prepare target directory", logfields.Entry(entry), logfields.Target(target), logfields.Error(err))
		return metrics.BatchFailed, err
	}

	if key.Style == "" {
		if err := derivative.Copy(src, target); err != nil {
			logger.Error("Failed to copy image", logfields.Entry(entry), logfields.Target(target), logfields.Error(err))
			return metrics.BatchFailed, err
		}
		logger.Debug("Copied image", logfields.Source(src), logfields.Target(target))
		return metrics.BatchCopied, nil
	}

	resolved, err := g.catalog.Resolve(key.Style)
	if err != nil {
		logger.Error("Failed to resolve image style", logfields.Entry(entry), logfields.Error(err))
		return metrics.BatchFailed, err
	}
	if err := exec.Generate(ctx, resolved, src, target); err != nil {
		for _, e := range pipeline.AllErrors(err) {
			logger.Error("Failed to generate derivative", logfields.Entry(entry), logfields.Target(target), logfields.Error(e))
		}
		return metrics.BatchFailed, err
	}
	logger.Debug("Generated derivative", logfields.Style(key.Style), logfields.Source(src), logfields.Target(target))
	return metrics.BatchGenerated, nil
}
