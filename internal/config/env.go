// This file contains environment variable utilities for configuration override.

package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/fanwrite/internal/errors"
	"github.com/agbru/fanwrite/internal/format"
)

// isFlagSet checks if a flag was explicitly set on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny checks if any of the specified flags were explicitly set.
// Aliased flags may be set through either the short or long form.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// envOverride maps an env key (without the FANWRITE_ prefix) to the CLI
// flag name(s) it corresponds to and a function that applies the value.
type envOverride struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, string) error
}

func intSetter(dst func(*AppConfig) *int) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func stringSetter(dst func(*AppConfig) *string) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		*dst(c) = v
		return nil
	}
}

func boolSetter(dst func(*AppConfig) *bool) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		*dst(c) = parseBoolEnv(v, *dst(c))
		return nil
	}
}

// envOverrides is the declarative table of all environment variable overrides.
var envOverrides = []envOverride{
	// Numeric overrides
	{"UNITS", []string{"units", "n"}, intSetter(func(c *AppConfig) *int { return &c.Units })},
	{"WORD_SIZE", []string{"word-size"}, intSetter(func(c *AppConfig) *int { return &c.WordSize })},
	{"WORDS", []string{"words"}, intSetter(func(c *AppConfig) *int { return &c.Words })},
	{"WORKERS", []string{"workers", "w"}, intSetter(func(c *AppConfig) *int { return &c.Workers })},
	{"CHUNK_SIZE", []string{"chunk-size"}, func(c *AppConfig, v string) error {
		n, err := format.ParseBytes(v)
		if err != nil {
			return err
		}
		c.ChunkSize = int(n)
		return nil
	}},

	// Duration overrides
	{"TIMEOUT", []string{"timeout"}, func(c *AppConfig, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.Timeout = d
		return nil
	}},

	// String overrides
	{"ALLOCATOR", []string{"allocator"}, stringSetter(func(c *AppConfig) *string { return &c.Allocator })},
	{"DISCIPLINE", []string{"discipline"}, stringSetter(func(c *AppConfig) *string { return &c.Discipline })},
	{"BACKEND", []string{"backend"}, stringSetter(func(c *AppConfig) *string { return &c.Backend })},
	{"ON_FAILURE", []string{"on-failure"}, stringSetter(func(c *AppConfig) *string { return &c.OnFailure })},
	{"WORK_DIR", []string{"work-dir"}, stringSetter(func(c *AppConfig) *string { return &c.WorkDir })},
	{"OUTPUT", []string{"output", "o"}, stringSetter(func(c *AppConfig) *string { return &c.Output })},
	{"METRICS_FILE", []string{"metrics-file"}, stringSetter(func(c *AppConfig) *string { return &c.MetricsFile })},

	// Boolean overrides
	{"QUIET", []string{"quiet", "q"}, boolSetter(func(c *AppConfig) *bool { return &c.Quiet })},
	{"DEBUG", []string{"debug"}, boolSetter(func(c *AppConfig) *bool { return &c.Debug })},
	{"NO_COLOR", []string{"no-color"}, boolSetter(func(c *AppConfig) *bool { return &c.NoColor })},
	{"KEEP_SOURCES", []string{"keep-sources"}, boolSetter(func(c *AppConfig) *bool { return &c.KeepSources })},
	{"VERIFY", []string{"verify"}, boolSetter(func(c *AppConfig) *bool { return &c.Verify })},
	{"TUI", []string{"tui"}, boolSetter(func(c *AppConfig) *bool { return &c.TUI })},
}

// parseBoolEnv parses a boolean environment variable value.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
// Returns defaultVal if the value is not recognized.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
//
// Supported environment variables (all prefixed with FANWRITE_):
//   - UNITS, WORD_SIZE, WORDS, CHUNK_SIZE, WORKERS, TIMEOUT,
//     ALLOCATOR, DISCIPLINE, BACKEND, ON_FAILURE, WORK_DIR, OUTPUT,
//     METRICS_FILE, QUIET, DEBUG, NO_COLOR, KEEP_SOURCES, VERIFY, TUI
//   - CONFIG is read before the file layer, see ParseConfig.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) error {
	for _, o := range envOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		val := os.Getenv(EnvPrefix + o.envKey)
		if val == "" {
			continue
		}
		if err := o.apply(config, val); err != nil {
			return apperrors.NewConfigError("invalid %s%s=%q: %v", EnvPrefix, o.envKey, val, err)
		}
	}
	return nil
}
