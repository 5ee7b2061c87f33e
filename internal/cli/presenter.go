package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	apperrors "github.com/agbru/fanwrite/internal/errors"
	"github.com/agbru/fanwrite/internal/format"
	"github.com/agbru/fanwrite/internal/metrics"
	"github.com/agbru/fanwrite/internal/orchestration"
	"github.com/agbru/fanwrite/internal/ui"
)

// CLIProgressReporter implements orchestration.ProgressReporter with a
// spinner and an average progress bar.
type CLIProgressReporter struct{}

var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress delegates to DisplayProgress.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numWorkers int, out io.Writer) {
	DisplayProgress(wg, progressChan, numWorkers, out)
}

// CLISummaryPresenter implements orchestration.SummaryPresenter for the
// console: a per-worker table, the layout note and the final status.
type CLISummaryPresenter struct {
	// Memory, when set, is printed after the status line.
	Memory *metrics.MemorySnapshot
}

var _ orchestration.SummaryPresenter = CLISummaryPresenter{}

// PresentSummary writes the batch summary to out.
func (p CLISummaryPresenter) PresentSummary(res orchestration.BatchResult, out io.Writer) {
	fmt.Fprintf(out, "\n--- Merge Summary ---\n")
	fmt.Fprintln(out, WorkerTable(res))

	done, failed := res.Counts()
	fmt.Fprintf(out, "Workers:     %d done, %d failed, %d total\n", done, failed, len(res.Workers))
	fmt.Fprintf(out, "Layout:      %s (%s allocator, %s discipline, %s backend)\n",
		res.Layout(), res.Policy, res.Discipline, res.Backend)
	fmt.Fprintf(out, "Destination: %s%s%s, %s in %s (%s)\n",
		ui.ColorBlue(), res.Path, ui.ColorReset(),
		format.FormatBytes(res.Total), format.FormatExecutionDuration(res.Duration),
		format.FormatThroughput(res.Total, res.Duration))
	fmt.Fprintln(out, FormatStatus(res))

	if p.Memory != nil {
		DisplayMemoryStats(*p.Memory, out)
	}
}

// WorkerTable renders one row per worker: source id, allocated offset, final
// cursor, bytes written, chunks, duration and status.
func WorkerTable(res orchestration.BatchResult) string {
	palette := ui.CurrentPalette()
	header := lipgloss.NewStyle().Bold(true).Foreground(palette.Accent).Padding(0, 1)
	cell := lipgloss.NewStyle().Foreground(palette.Text).Padding(0, 1)
	numeric := cell.Align(lipgloss.Right)

	rows := make([][]string, 0, len(res.Workers))
	for _, w := range res.Workers {
		offset := "-"
		if w.Allocated {
			offset = format.FormatCount(w.Allocation.Offset)
		}
		rows = append(rows, []string{
			strconv.Itoa(w.SourceID),
			offset,
			format.FormatCount(w.Cursor),
			format.FormatBytes(w.Bytes),
			strconv.Itoa(w.Chunks),
			format.FormatExecutionDuration(w.Duration),
			workerStatus(w),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(palette.Border)).
		Headers("Source", "Offset", "Cursor", "Bytes", "Chunks", "Duration", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col == 6 && row < len(res.Workers):
				return cell.Foreground(statusColor(res.Workers[row], palette))
			case col >= 1 && col <= 4:
				return numeric
			}
			return cell
		})
	return t.String()
}

func workerStatus(w orchestration.WorkerResult) string {
	if w.State != orchestration.Failed || w.Err == nil {
		return w.State.String()
	}
	var we apperrors.WorkerError
	if errors.As(w.Err, &we) {
		return fmt.Sprintf("failed while %s: %v", we.State, we.Cause)
	}
	return fmt.Sprintf("failed: %v", w.Err)
}

func statusColor(w orchestration.WorkerResult, p ui.Palette) lipgloss.TerminalColor {
	switch w.State {
	case orchestration.Done:
		return p.Success
	case orchestration.Failed:
		return p.Error
	}
	return p.Dim
}

// FormatStatus returns the final status line of a batch.
func FormatStatus(res orchestration.BatchResult) string {
	if res.Valid {
		return fmt.Sprintf("Status:      %s✅ Valid%s, %s written", ui.ColorGreen(), ui.ColorReset(), res.Path)
	}
	where := "destination removed"
	if res.InvalidPath != "" {
		where = "destination marked as " + res.InvalidPath
	}
	return fmt.Sprintf("Status:      %s❌ Invalid%s (%s): %v", ui.ColorRed(), ui.ColorReset(), where, res.Err)
}

// DisplayMemoryStats shows the memory used during the run.
func DisplayMemoryStats(m metrics.MemorySnapshot, out io.Writer) {
	fmt.Fprintf(out, "\nMemory Stats:\n")
	fmt.Fprintf(out, "  Heap in use:     %s\n", format.FormatBytes(int64(m.HeapAlloc)))
	fmt.Fprintf(out, "  Total allocated: %s\n", format.FormatBytes(int64(m.TotalAlloc)))
	fmt.Fprintf(out, "  GC cycles:       %d\n", m.NumGC)
	if m.PauseTotalNs > 0 {
		fmt.Fprintf(out, "  GC pause total:  %.2fms\n", float64(m.PauseTotalNs)/1e6)
	} else {
		fmt.Fprintf(out, "  GC pause total:  0ms\n")
	}
}
