package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ironsheep/image-styles/internal/config"
	"github.com/ironsheep/image-styles/internal/imaging"
	"github.com/ironsheep/image-styles/internal/style"
)

// StylesCmd implements the 'styles' command.
type StylesCmd struct{}

func (s *StylesCmd) Run(root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	printStyles(os.Stdout, cfg.Catalog(nil), imaging.DefaultOperations())
	return nil
}

// printStyles writes each style followed by its numbered actions. Actions
// naming no operation and expansion problems are flagged.
func printStyles(w io.Writer, catalog *style.Catalog, ops *imaging.Operations) {
	problems := catalog.Problems()
	for _, name := range catalog.Names() {
		r, err := catalog.Resolve(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s\n", name)
		for i, inv := range r.Actions {
			marker := ""
			if _, ok := ops.Lookup(inv.Name); !ok {
				marker = "  (not a valid action)"
			}
			fmt.Fprintf(w, "  %d. %s%s\n", i+1, inv.String(), marker)
		}
		for _, e := range problems[name] {
			fmt.Fprintf(w, "  ! %s\n", e)
		}
	}
	if catalog.Len() == 0 {
		fmt.Fprintln(w, "no image styles configured")
	}
	fmt.Fprintf(w, "\noperations: %s\n", strings.Join(ops.Names(), ", "))
}
