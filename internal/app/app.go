package app

import (
	"context"
	"errors"
	"flag"
	"io"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/agbru/fanwrite/internal/config"
	"github.com/agbru/fanwrite/internal/logging"
	"github.com/agbru/fanwrite/internal/ui"
)

// Application represents the fanwrite application instance.
type Application struct {
	Config    config.AppConfig
	ErrWriter io.Writer
	// Logger overrides the console logger built by Run.
	Logger logging.Logger
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l logging.Logger) AppOption {
	return func(a *Application) { a.Logger = l }
}

// New creates a new Application instance by parsing command-line arguments.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter}
	for _, opt := range opts {
		opt(app)
	}

	programName := "fanwrite"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	app.Config = cfg
	return app, nil
}

// Run executes one merge and returns the process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	zerolog.SetGlobalLevel(a.logLevel())
	ui.InitTheme(a.Config.NoColor)

	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancelTimeout()
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	return a.runMerge(ctx, out)
}

func (a *Application) logLevel() zerolog.Level {
	switch {
	case a.Config.Debug:
		return zerolog.DebugLevel
	case a.Config.Quiet:
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// logger returns the diagnostics logger. The dashboard owns the terminal, so
// nothing is logged while it runs.
func (a *Application) logger() logging.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	if a.Config.TUI {
		return logging.NewNopLogger()
	}
	errW := a.ErrWriter
	if errW == nil {
		errW = io.Discard
	}
	w := zerolog.ConsoleWriter{Out: errW, NoColor: a.Config.NoColor, TimeFormat: "15:04:05"}
	return logging.NewZerologAdapter(zerolog.New(w).With().Timestamp().Str("component", "fanwrite").Logger())
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
