package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ironsheep/image-styles/cmd/image-styles/commands"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{
		Logger:    slog.Default(),
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}

	ctx := kong.Parse(&cli,
		kong.Name("image-styles"),
		kong.Description("Named image styles: on-demand derivatives over HTTP, static generation and an MCP tool server."),
		kong.UsageOnError(),
		kong.Vars{"version": "image-styles " + Version},
		kong.Bind(global),
	)

	if err := ctx.Run(global, &cli); err != nil {
		global.Logger.Error("Command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}
