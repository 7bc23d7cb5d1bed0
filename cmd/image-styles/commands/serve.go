package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ironsheep/image-styles/internal/config"
	"github.com/ironsheep/image-styles/internal/httpserver"
	"github.com/ironsheep/image-styles/internal/metrics"
	"github.com/ironsheep/image-styles/internal/watch"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr  string `short:"a" help:"Listen address (overrides server.addr)"`
	Watch bool   `short:"w" help:"Reload image styles when the configuration file changes"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewPrometheusRecorder(reg)

	eng, err := loadEngine(root.Config, rec, g.Logger)
	if err != nil {
		return err
	}

	addr := eng.cfg.Server.Addr
	if s.Addr != "" {
		addr = s.Addr
	}
	var fallback http.Handler
	if eng.cfg.Server.ServeStatic {
		fallback = httpserver.StaticFallback(eng.cfg.StaticDir)
	}

	srv := httpserver.New(httpserver.Options{
		Addr:         addr,
		Resolver:     eng.resolver,
		Fallback:     fallback,
		Metrics:      metrics.HTTPHandler(reg),
		WriteTimeout: eng.cfg.PipelineTimeout + 30*time.Second,
		Logger:       g.Logger,
	})

	if s.Watch {
		apply := func(cfg *config.Config) error {
			eng.resolver.SetCatalog(cfg.Catalog(nil))
			return nil
		}
		watcher, err := watch.NewConfigWatcher(root.Config, apply, 0, g.Logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = watcher.Stop() }()
	}

	g.Logger.Info("Starting image server",
		slog.String("addr", addr),
		slog.String("images_base_dir", eng.cfg.ImagesBaseDir),
		slog.String("static_dir", eng.cfg.StaticDir),
		slog.Int("styles", eng.resolver.Catalog().Len()))

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		g.Logger.Info("Shutdown signal received, stopping server")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := srv.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	g.Logger.Info("Server stopped")
	return nil
}
