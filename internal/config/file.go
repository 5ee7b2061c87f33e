package config

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/fanwrite/internal/errors"
	"github.com/agbru/fanwrite/internal/format"
)

// FileConfig is the YAML configuration file layout. Absent keys leave the
// corresponding setting untouched. Sizes accept humanized strings ("4KiB")
// and durations use time.ParseDuration syntax.
type FileConfig struct {
	Units       *int   `yaml:"units"`
	WordSize    *int   `yaml:"word_size"`
	Words       *int   `yaml:"words"`
	ChunkSize   string `yaml:"chunk_size"`
	Workers     *int   `yaml:"workers"`
	Allocator   string `yaml:"allocator"`
	Discipline  string `yaml:"discipline"`
	Backend     string `yaml:"backend"`
	OnFailure   string `yaml:"on_failure"`
	WorkDir     string `yaml:"work_dir"`
	Output      string `yaml:"output"`
	MetricsFile string `yaml:"metrics_file"`
	Timeout     string `yaml:"timeout"`
	Quiet       *bool  `yaml:"quiet"`
	Debug       *bool  `yaml:"debug"`
	NoColor     *bool  `yaml:"no_color"`
	KeepSources *bool  `yaml:"keep_sources"`
	Verify      *bool  `yaml:"verify"`
	TUI         *bool  `yaml:"tui"`
}

// LoadFile reads a YAML configuration file. Unknown keys are rejected.
func LoadFile(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, apperrors.NewConfigError("reading config file: %v", err)
	}
	return decodeFile(data)
}

func decodeFile(data []byte) (FileConfig, error) {
	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return FileConfig{}, apperrors.NewConfigError("parsing config file: %v", err)
	}
	return fc, nil
}

// apply copies every key present in the file into c, skipping settings
// given explicitly on the command line.
func (fc FileConfig) apply(c *AppConfig, fs *flag.FlagSet) error {
	setInt := func(v *int, dst *int, flags ...string) {
		if v != nil && !isFlagSetAny(fs, flags...) {
			*dst = *v
		}
	}
	setString := func(v string, dst *string, flags ...string) {
		if v != "" && !isFlagSetAny(fs, flags...) {
			*dst = v
		}
	}
	setBool := func(v *bool, dst *bool, flags ...string) {
		if v != nil && !isFlagSetAny(fs, flags...) {
			*dst = *v
		}
	}

	setInt(fc.Units, &c.Units, "units", "n")
	setInt(fc.WordSize, &c.WordSize, "word-size")
	setInt(fc.Words, &c.Words, "words")
	setInt(fc.Workers, &c.Workers, "workers", "w")
	setString(fc.Allocator, &c.Allocator, "allocator")
	setString(fc.Discipline, &c.Discipline, "discipline")
	setString(fc.Backend, &c.Backend, "backend")
	setString(fc.OnFailure, &c.OnFailure, "on-failure")
	setString(fc.WorkDir, &c.WorkDir, "work-dir")
	setString(fc.Output, &c.Output, "output", "o")
	setString(fc.MetricsFile, &c.MetricsFile, "metrics-file")
	setBool(fc.Quiet, &c.Quiet, "quiet", "q")
	setBool(fc.Debug, &c.Debug, "debug")
	setBool(fc.NoColor, &c.NoColor, "no-color")
	setBool(fc.KeepSources, &c.KeepSources, "keep-sources")
	setBool(fc.Verify, &c.Verify, "verify")
	setBool(fc.TUI, &c.TUI, "tui")

	if fc.ChunkSize != "" && !isFlagSet(fs, "chunk-size") {
		n, err := format.ParseBytes(fc.ChunkSize)
		if err != nil {
			return apperrors.NewConfigError("config file chunk_size %q: %v", fc.ChunkSize, err)
		}
		c.ChunkSize = int(n)
	}
	if fc.Timeout != "" && !isFlagSet(fs, "timeout") {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return apperrors.NewConfigError("config file timeout %q: %v", fc.Timeout, err)
		}
		c.Timeout = d
	}
	return nil
}
