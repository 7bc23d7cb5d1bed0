package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ironsheep/image-styles/internal/config"
	"github.com/ironsheep/image-styles/internal/metrics"
	"github.com/ironsheep/image-styles/internal/server"
	"github.com/ironsheep/image-styles/internal/watch"
)

// MCPCmd implements the 'mcp' command.
type MCPCmd struct {
	Watch bool `short:"w" help:"Reload image styles when the configuration file changes"`
}

func (m *MCPCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng, err := loadEngine(root.Config, metrics.NoopRecorder{}, g.Logger)
	if err != nil {
		return err
	}

	if m.Watch {
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

	g.Logger.Debug("Image styles MCP server starting", "version", g.Version, "build_time", g.BuildTime, "commit", g.GitCommit)

	srv := server.New(server.Options{
		Resolver:   eng.resolver,
		Executor:   eng.executor,
		Responsive: eng.cfg.ResponsiveStyles,
		BaseDir:    eng.cfg.ImagesBaseDir,
		StaticDir:  eng.cfg.StaticDir,
		Types:      eng.types,
		Version:    g.Version,
		Logger:     g.Logger,
	})
	return srv.Run(ctx)
}
