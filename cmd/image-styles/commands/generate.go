package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ironsheep/image-styles/internal/generator"
	"github.com/ironsheep/image-styles/internal/metrics"
	"github.com/ironsheep/image-styles/internal/registry"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Entries string   `short:"e" help:"File listing registry entries, one per line (# starts a comment)" type:"existingfile"`
	NoForce bool     `name:"no-force" help:"Skip force_generate_images"`
	Entry   []string `arg:"" optional:"" help:"Registry entries such as /animals/cat.jpg?style=small"`
}

func (gc *GenerateCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng, err := loadEngine(root.Config, metrics.NoopRecorder{}, g.Logger)
	if err != nil {
		return err
	}

	reg := registry.New()
	if gc.Entries != "" {
		f, err := os.Open(gc.Entries)
		if err != nil {
			return fmt.Errorf("open entries file: %w", err)
		}
		entries, err := readEntries(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("read entries file: %w", err)
		}
		for _, e := range entries {
			reg.Add(e)
		}
	}
	for _, e := range gc.Entry {
		reg.Add(e)
	}
	if !gc.NoForce && len(eng.cfg.ForceGenerateImages) > 0 {
		added, warnings := reg.ForceGenerate(eng.cfg.ImagesBaseDir, eng.cfg.ForceGenerateImages, eng.resolver.Catalog(), eng.types, g.Logger)
		g.Logger.Info("Added force generated images", slog.Int("entries", added), slog.Int("warnings", len(warnings)))
	}

	gen := generator.New(generator.Options{
		Catalog:     eng.resolver.Catalog(),
		Executor:    eng.executor,
		BaseDir:     eng.cfg.ImagesBaseDir,
		GenerateDir: eng.cfg.GenerateDir,
		Logger:      g.Logger,
	})
	report, err := gen.Run(ctx, reg)
	if report != nil {
		printReport(os.Stdout, report)
	}
	return err
}

// readEntries parses an entries file: one entry per line, blank lines and
// lines starting with # ignored.
func readEntries(r io.Reader) ([]string, error) {
	var entries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func printReport(w io.Writer, r *generator.Report) {
	fmt.Fprintf(w, "Run %s: %d entries in %s\n", r.RunID, r.Total, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  generated: %d\n", r.Generated)
	fmt.Fprintf(w, "  copied:    %d\n", r.Copied)
	fmt.Fprintf(w, "  skipped:   %d\n", r.Skipped)
	fmt.Fprintf(w, "  failed:    %d\n", r.Failed)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "    %s: %v\n", f.Entry, f.Err)
	}
}
