// Package commands implements the image-styles command line.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ironsheep/image-styles/internal/config"
	"github.com/ironsheep/image-styles/internal/derivative"
	"github.com/ironsheep/image-styles/internal/metrics"
	"github.com/ironsheep/image-styles/internal/pipeline"
	"github.com/ironsheep/image-styles/internal/resolver"
)

// LogLevelEnv overrides the log level; --verbose wins over it.
const LogLevelEnv = "IMAGE_STYLES_LOG_LEVEL"

// Global carries build information and the logger to every command.
type Global struct {
	Logger    *slog.Logger
	Version   string
	BuildTime string
	GitCommit string
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"image-styles.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve        ServeCmd    `cmd:"" help:"Serve source images and styled derivatives over HTTP"`
	Generate     GenerateCmd `cmd:"" help:"Generate derivatives for static deployment"`
	MCP          MCPCmd      `cmd:"" name:"mcp" help:"Run the MCP tool server on stdin/stdout"`
	Styles       StylesCmd   `cmd:"" help:"Print every image style and its resolved pipeline"`
	PrintVersion VersionCmd  `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once. Logs go to stderr
// because stdout carries MCP responses and command output.
func (c *CLI) AfterApply(g *Global) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv(LogLevelEnv)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// engine is the set of components every command builds from the
// configuration.
type engine struct {
	cfg      *config.Config
	types    *derivative.Types
	executor *pipeline.Executor
	resolver *resolver.Resolver
}

func loadEngine(configPath string, rec metrics.Recorder, logger *slog.Logger) (*engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	types, err := cfg.Types()
	if err != nil {
		return nil, err
	}
	catalog := cfg.Catalog(nil)
	for name, errs := range catalog.Problems() {
		for _, e := range errs {
			logger.Warn("Image style has configuration problems", slog.String("style", name), slog.String("error", e.Error()))
		}
	}

	exec := pipeline.New(pipeline.Options{Timeout: cfg.PipelineTimeout, Logger: logger})
	res := resolver.New(resolver.Options{
		Catalog:   catalog,
		Generator: exec,
		Types:     types,
		BaseDir:   cfg.ImagesBaseDir,
		StaticDir: cfg.StaticDir,
		Headers:   cfg.ImageHeaders,
		Metrics:   rec,
		Logger:    logger,
	})
	return &engine{cfg: cfg, types: types, executor: exec, resolver: res}, nil
}

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run(g *Global) error {
	fmt.Printf("image-styles %s\n", g.Version)
	fmt.Printf("  Build time: %s\n", g.BuildTime)
	fmt.Printf("  Git commit: %s\n", g.GitCommit)
	return nil
}
