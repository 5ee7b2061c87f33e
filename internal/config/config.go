// Package config builds the application configuration from command-line
// flags, FANWRITE_* environment variables and an optional YAML file.
// Priority is flags, then environment, then file, then defaults.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/agbru/fanwrite/internal/alloc"
	"github.com/agbru/fanwrite/internal/chunk"
	apperrors "github.com/agbru/fanwrite/internal/errors"
	"github.com/agbru/fanwrite/internal/format"
	"github.com/agbru/fanwrite/internal/store"
)

// EnvPrefix prefixes every environment variable the application reads.
const EnvPrefix = "FANWRITE_"

// Defaults.
const (
	DefaultUnits     = 48
	DefaultWordSize  = 8
	DefaultWords     = 1000
	DefaultChunkSize = chunk.DefaultCapacity
	DefaultTimeout   = 5 * time.Minute
	DefaultOutput    = "merged.txt"
)

// AppConfig is the complete configuration of a run.
type AppConfig struct {
	// Units is the number of source units to generate and merge.
	Units int
	// WordSize and Words define each unit: Words repetitions of a
	// WordSize-byte word.
	WordSize int
	Words    int
	// ChunkSize is the per-worker buffer capacity in bytes.
	ChunkSize int
	// Workers bounds concurrent workers; 0 means one per unit.
	Workers int

	Allocator  string
	Discipline string
	Backend    string
	OnFailure  string

	WorkDir     string
	Output      string
	MetricsFile string
	ConfigFile  string

	Timeout     time.Duration
	Quiet       bool
	Debug       bool
	NoColor     bool
	KeepSources bool
	Verify      bool
	// TUI replaces the spinner with the interactive dashboard.
	TUI bool
}

// Default returns the configuration used when nothing is set.
func Default() AppConfig {
	return AppConfig{
		Units:      DefaultUnits,
		WordSize:   DefaultWordSize,
		Words:      DefaultWords,
		ChunkSize:  DefaultChunkSize,
		Allocator:  alloc.StaticIndexed.String(),
		Discipline: store.DisjointHandle.String(),
		Backend:    store.FileBackend.String(),
		OnFailure:  store.RemoveInvalid.String(),
		WorkDir:    ".",
		Output:     DefaultOutput,
		Timeout:    DefaultTimeout,
	}
}

// byteSize is a flag.Value accepting humanized sizes such as "4KiB".
type byteSize struct{ v *int }

func (b byteSize) String() string {
	if b.v == nil {
		return ""
	}
	return fmt.Sprint(*b.v)
}

func (b byteSize) Set(s string) error {
	n, err := format.ParseBytes(s)
	if err != nil {
		return err
	}
	*b.v = int(n)
	return nil
}

// ParseConfig parses args (without the program name) into an AppConfig.
//
// Parameters:
//   - programName: The name shown in usage output.
//   - args: The command-line arguments after the program name.
//   - errorWriter: Where usage and parse errors are written.
//
// Returns:
//   - AppConfig: The validated configuration.
//   - error: flag.ErrHelp for -h, a ConfigError for invalid settings.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	config := Default()

	fs.IntVar(&config.Units, "units", config.Units, "Number of source units to generate and merge.")
	fs.IntVar(&config.Units, "n", config.Units, "Number of source units (shorthand).")
	fs.IntVar(&config.WordSize, "word-size", config.WordSize, "Size in bytes of the repeated word in each unit.")
	fs.IntVar(&config.Words, "words", config.Words, "Number of words per unit.")
	fs.Var(byteSize{&config.ChunkSize}, "chunk-size", "Chunk buffer size per worker (e.g. 1000, 4KiB).")
	fs.IntVar(&config.Workers, "workers", config.Workers, "Maximum concurrent workers (0 = one per unit).")
	fs.IntVar(&config.Workers, "w", config.Workers, "Maximum concurrent workers (shorthand).")
	fs.StringVar(&config.Allocator, "allocator", config.Allocator, "Allocation policy: 'static' (index order) or 'dynamic' (arrival order).")
	fs.StringVar(&config.Discipline, "discipline", config.Discipline, "Writer discipline: 'shared' (one locked handle) or 'disjoint' (handle per worker).")
	fs.StringVar(&config.Backend, "backend", config.Backend, "Destination backend: 'file' or 'mmap' (disjoint only).")
	fs.StringVar(&config.OnFailure, "on-failure", config.OnFailure, "What to do with a failed destination: 'remove' or 'mark'.")
	fs.StringVar(&config.WorkDir, "work-dir", config.WorkDir, "Directory for the generated source units.")
	fs.StringVar(&config.Output, "output", config.Output, "Destination file.")
	fs.StringVar(&config.Output, "o", config.Output, "Destination file (shorthand).")
	fs.StringVar(&config.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run.")
	fs.StringVar(&config.ConfigFile, "config", "", "YAML configuration file.")
	fs.DurationVar(&config.Timeout, "timeout", config.Timeout, "Maximum time for the whole run.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode: no progress, no logs, summary only.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.Debug, "debug", false, "Log every state transition and chunk write.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output.")
	fs.BoolVar(&config.KeepSources, "keep-sources", false, "Keep the generated source units after the run.")
	fs.BoolVar(&config.TUI, "tui", false, "Show the interactive worker dashboard.")
	fs.BoolVar(&config.Verify, "verify", false, "Read every range back after a successful run and compare it with its source.")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %v", fs.Args())
	}

	if !isFlagSet(fs, "config") {
		config.ConfigFile = os.Getenv(EnvPrefix + "CONFIG")
	}
	if config.ConfigFile != "" {
		fc, err := LoadFile(config.ConfigFile)
		if err != nil {
			return AppConfig{}, err
		}
		if err := fc.apply(&config, fs); err != nil {
			return AppConfig{}, err
		}
	}
	if err := applyEnvOverrides(&config, fs); err != nil {
		return AppConfig{}, err
	}

	if err := config.Validate(); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		return AppConfig{}, err
	}
	return config, nil
}

// Validate rejects impossible settings.
func (c AppConfig) Validate() error {
	switch {
	case c.Units < 1:
		return apperrors.NewConfigError("units must be at least 1, got %d", c.Units)
	case c.Words < 1:
		return apperrors.NewConfigError("words must be at least 1, got %d", c.Words)
	case c.ChunkSize < 1:
		return apperrors.NewConfigError("chunk size must be at least 1 byte, got %d", c.ChunkSize)
	case c.Workers < 0 || c.Workers > c.Units:
		return apperrors.NewConfigError("workers must be between 0 and units (%d), got %d", c.Units, c.Workers)
	case c.Timeout <= 0:
		return apperrors.NewConfigError("timeout must be positive, got %v", c.Timeout)
	case c.Output == "":
		return apperrors.NewConfigError("output path must not be empty")
	case c.TUI && c.Quiet:
		return apperrors.NewConfigError("--tui and --quiet are mutually exclusive")
	}
	if label := fmt.Sprintf("File%d", c.Units-1); len(label) > c.WordSize-1 {
		return apperrors.NewConfigError("word size %d too small for label %q (need %d)", c.WordSize, label, len(label)+1)
	}
	if _, err := alloc.ParsePolicy(c.Allocator); err != nil {
		return err
	}
	if _, err := store.ParseOnFailure(c.OnFailure); err != nil {
		return err
	}
	d, err := store.ParseDiscipline(c.Discipline)
	if err != nil {
		return err
	}
	b, err := store.ParseBackend(c.Backend)
	if err != nil {
		return err
	}
	if b == store.MappedBackend && d != store.DisjointHandle {
		return apperrors.NewConfigError("the mmap backend requires the disjoint discipline")
	}
	return nil
}

// Policy returns the parsed allocation policy. Call Validate first.
func (c AppConfig) Policy() alloc.Policy {
	p, _ := alloc.ParsePolicy(c.Allocator)
	return p
}

// WriteDiscipline returns the parsed writer discipline. Call Validate first.
func (c AppConfig) WriteDiscipline() store.Discipline {
	d, _ := store.ParseDiscipline(c.Discipline)
	return d
}

// StoreBackend returns the parsed destination backend. Call Validate first.
func (c AppConfig) StoreBackend() store.Backend {
	b, _ := store.ParseBackend(c.Backend)
	return b
}

// FailureMode returns the parsed on-failure mode. Call Validate first.
func (c AppConfig) FailureMode() store.OnFailure {
	o, _ := store.ParseOnFailure(c.OnFailure)
	return o
}

// UnitSize is the size in bytes of every source unit.
func (c AppConfig) UnitSize() int64 {
	return int64(c.WordSize) * int64(c.Words)
}
