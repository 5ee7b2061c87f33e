package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/fanwrite/internal/config"
	"github.com/agbru/fanwrite/internal/format"
	"github.com/agbru/fanwrite/internal/ui"
)

// PrintExecutionConfig displays the shape of the merge about to run.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	workers := cfg.Workers
	if workers == 0 {
		workers = cfg.Units
	}
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Merging %s%d units%s of %s into %s%s%s with a timeout of %s%s%s.\n",
		ui.ColorMagenta(), cfg.Units, ui.ColorReset(),
		format.FormatBytes(cfg.UnitSize()),
		ui.ColorBlue(), cfg.Output, ui.ColorReset(),
		ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Strategy: %s allocator, %s discipline, %s backend, %d workers, %s chunks.\n",
		cfg.Policy(), cfg.WriteDiscipline(), cfg.StoreBackend(), workers, format.FormatBytes(int64(cfg.ChunkSize)))
	fmt.Fprintf(out, "Environment: %d logical processors, Go %s.\n", runtime.NumCPU(), runtime.Version())
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
