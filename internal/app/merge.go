package app

import (
	"context"
	"fmt"
	"io"

	"github.com/agbru/fanwrite/internal/cli"
	apperrors "github.com/agbru/fanwrite/internal/errors"
	"github.com/agbru/fanwrite/internal/logging"
	"github.com/agbru/fanwrite/internal/metrics"
	"github.com/agbru/fanwrite/internal/orchestration"
	"github.com/agbru/fanwrite/internal/source"
	"github.com/agbru/fanwrite/internal/store"
	"github.com/agbru/fanwrite/internal/tui"
)

// runMerge generates the source units, merges them into the destination and
// reports the outcome.
func (a *Application) runMerge(ctx context.Context, out io.Writer) int {
	cfg := a.Config
	log := a.logger()

	gen := source.Generator{Dir: cfg.WorkDir, WordSize: cfg.WordSize, Words: cfg.Words}
	units, err := gen.GenerateAll(ctx, cfg.Units)
	if err != nil {
		fmt.Fprintf(a.errWriter(), "Error generating sources: %v\n", err)
		return apperrors.ExitCodeFor(err)
	}
	log.Debug("sources generated",
		logging.Int("units", len(units)), logging.String("dir", cfg.WorkDir), logging.Int64("unit_size", gen.UnitSize()))
	if !cfg.KeepSources {
		defer func() {
			if err := source.Remove(units); err != nil {
				log.Warn("could not remove source units", logging.Err(err))
			}
		}()
	}

	collector := metrics.NewCollector()
	mem := metrics.NewMemoryCollector()
	opts := orchestration.Options{
		Policy:     cfg.Policy(),
		Discipline: cfg.WriteDiscipline(),
		Backend:    cfg.StoreBackend(),
		ChunkSize:  cfg.ChunkSize,
		Workers:    cfg.Workers,
		OnFailure:  cfg.FailureMode(),
		Logger:     log,
		Metrics:    collector,
	}

	var res orchestration.BatchResult
	if cfg.TUI {
		res = a.runDashboard(ctx, opts, units, log)
	} else {
		if !cfg.Quiet {
			cli.PrintExecutionConfig(cfg, out)
		}
		progressOut := out
		opts.Progress = cli.CLIProgressReporter{}
		if cfg.Quiet {
			progressOut = io.Discard
			opts.Progress = orchestration.NullProgressReporter{}
		}
		res = orchestration.New(opts).Run(ctx, units, cfg.Output, progressOut)
	}

	runErr := res.Err
	if res.Valid && cfg.Verify {
		if err := orchestration.Verify(res, gen.Expected); err != nil {
			res, runErr = a.rejectUnverified(res, err, log)
			collector.SetBatchValid(false)
		} else {
			log.Debug("destination verified", logging.String("path", res.Path))
		}
	}

	if cfg.Quiet {
		fmt.Fprintln(out, cli.FormatStatus(res))
	} else {
		presenter := cli.CLISummaryPresenter{}
		if cfg.Debug {
			snap := mem.Since()
			presenter.Memory = &snap
		}
		presenter.PresentSummary(res, out)
	}

	if cfg.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn("could not write metrics file", logging.String("path", cfg.MetricsFile), logging.Err(err))
		}
	}

	return apperrors.ExitCodeFor(runErr)
}

// runDashboard runs the merge behind the interactive dashboard.
func (a *Application) runDashboard(ctx context.Context, opts orchestration.Options, units []source.Unit,
	log logging.Logger) orchestration.BatchResult {
	cfg := a.Config
	view := tui.Options{
		Version:    Version,
		Units:      len(units),
		Total:      int64(len(units)) * cfg.UnitSize(),
		Policy:     cfg.Policy().String(),
		Discipline: cfg.WriteDiscipline().String(),
		Backend:    cfg.StoreBackend().String(),
		Dest:       cfg.Output,
	}
	res, err := tui.Run(ctx, view, func(ctx context.Context, reporter orchestration.ProgressReporter) orchestration.BatchResult {
		o := opts
		o.Progress = reporter
		return orchestration.New(o).Run(ctx, units, cfg.Output, io.Discard)
	})
	if err != nil && ctx.Err() == nil {
		log.Warn("dashboard exited with an error", logging.Err(err))
	}
	return res
}

// rejectUnverified invalidates a destination whose content does not match its
// sources. The returned error maps to the invalid-batch exit code.
func (a *Application) rejectUnverified(res orchestration.BatchResult, verr error,
	log logging.Logger) (orchestration.BatchResult, error) {
	log.Error("destination failed verification", verr, logging.String("path", res.Path))
	res.Valid = false
	res.Err = fmt.Errorf("%w: %w", apperrors.BatchError{}, verr)
	target, err := store.Invalidate(res.Path, a.Config.FailureMode())
	if err != nil {
		log.Error("could not invalidate destination", err, logging.String("path", res.Path))
	}
	res.InvalidPath = target
	return res, res.Err
}

func (a *Application) errWriter() io.Writer {
	if a.ErrWriter == nil {
		return io.Discard
	}
	return a.ErrWriter
}
