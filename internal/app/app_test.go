package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	apperrors "github.com/agbru/fanwrite/internal/errors"
	"github.com/agbru/fanwrite/internal/logging"
	"github.com/agbru/fanwrite/internal/orchestration"
	"github.com/agbru/fanwrite/internal/store"
)

// newTestApp builds an application that merges into a temporary directory.
func newTestApp(t *testing.T, extra ...string) (*Application, string) {
	t.Helper()
	dir := t.TempDir()
	args := append([]string{"fanwrite", "--work-dir", dir, "-o", filepath.Join(dir, "merged.txt"), "--no-color"}, extra...)
	var errBuf bytes.Buffer
	a, err := New(args, &errBuf, WithLogger(logging.NewNopLogger()))
	if err != nil {
		t.Fatalf("New(%v) error: %v\n%s", args, err, errBuf.String())
	}
	return a, dir
}

func sourceFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "File*.txt"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

func TestNewErrors(t *testing.T) {
	var errBuf bytes.Buffer
	_, err := New([]string{"fanwrite", "--help"}, &errBuf)
	if !IsHelpError(err) {
		t.Errorf("--help: got %v, want help error", err)
	}

	_, err = New([]string{"fanwrite", "--allocator", "random"}, &errBuf)
	if code := apperrors.ExitCodeFor(err); code != apperrors.ExitErrorConfig {
		t.Errorf("bad allocator exit code = %d, want %d", code, apperrors.ExitErrorConfig)
	}
	if IsHelpError(err) {
		t.Error("a config error is not a help error")
	}
}

func TestNewWithoutArgs(t *testing.T) {
	a, err := New(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New(nil) error: %v", err)
	}
	if a.Config.Units != 48 {
		t.Errorf("Units = %d, want the default 48", a.Config.Units)
	}
}

func TestRunMerges(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{"static_disjoint", []string{"-n", "6", "--words", "25"}},
		{"dynamic_shared", []string{"-n", "6", "--words", "25", "--allocator", "dynamic", "--discipline", "shared"}},
		{"mapped", []string{"-n", "6", "--words", "25", "--backend", "mmap"}},
		{"bounded_workers", []string{"-n", "6", "--words", "25", "-w", "2", "--chunk-size", "7"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, dir := newTestApp(t, append(tc.args, "--verify")...)
			var out bytes.Buffer
			if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
				t.Fatalf("Run() = %d, want 0\n%s", code, out.String())
			}
			info, err := os.Stat(a.Config.Output)
			if err != nil {
				t.Fatalf("destination missing: %v", err)
			}
			if want := 6 * 8 * 25; info.Size() != int64(want) {
				t.Errorf("destination size = %d, want %d", info.Size(), want)
			}
			if left := sourceFiles(t, dir); len(left) != 0 {
				t.Errorf("sources not removed: %v", left)
			}
			for _, want := range []string{"Merge Summary", "Valid", "6 done, 0 failed"} {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestRunQuietPrintsStatusOnly(t *testing.T) {
	a, _ := newTestApp(t, "-n", "3", "--words", "4", "--quiet")
	var out bytes.Buffer
	if code := a.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("Run() = %d\n%s", code, out.String())
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "Valid") {
		t.Errorf("quiet output = %q, want one status line", out.String())
	}
}

func TestRunKeepSourcesAndMetrics(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "fanwrite.prom")
	a, dir := newTestApp(t, "-n", "3", "--words", "10", "--keep-sources", "--metrics-file", metricsPath, "--quiet")
	if code := a.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitSuccess {
		t.Fatalf("Run() = %d", code)
	}
	if got := len(sourceFiles(t, dir)); got != 3 {
		t.Errorf("kept %d sources, want 3", got)
	}
	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	for _, want := range []string{"fanwrite_bytes_written_total 240", "fanwrite_batch_valid 1"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %q:\n%s", want, data)
		}
	}
}

func TestRunCanceledContext(t *testing.T) {
	a, _ := newTestApp(t, "-n", "4", "--words", "10", "--quiet")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if code := a.Run(ctx, &bytes.Buffer{}); code != apperrors.ExitErrorCanceled {
		t.Errorf("Run() on canceled context = %d, want %d", code, apperrors.ExitErrorCanceled)
	}
	if _, err := os.Stat(a.Config.Output); err == nil {
		t.Error("a canceled run must not leave a destination")
	}
}

func TestRejectUnverified(t *testing.T) {
	a, dir := newTestApp(t, "--on-failure", "mark")
	dest := filepath.Join(dir, "merged.txt")
	if err := os.WriteFile(dest, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := a.rejectUnverified(orchestration.BatchResult{Path: dest, Valid: true},
		errors.New("source 0 mismatch"), logging.NewNopLogger())
	if res.Valid {
		t.Error("result must be invalid after a failed verification")
	}
	if res.InvalidPath != dest+store.InvalidSuffix {
		t.Errorf("InvalidPath = %q, want %q", res.InvalidPath, dest+store.InvalidSuffix)
	}
	if _, statErr := os.Stat(res.InvalidPath); statErr != nil {
		t.Errorf("marked destination missing: %v", statErr)
	}
	if code := apperrors.ExitCodeFor(err); code != apperrors.ExitErrorInvalid {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorInvalid)
	}
}

func TestLogLevel(t *testing.T) {
	testCases := []struct {
		name  string
		debug bool
		quiet bool
		want  zerolog.Level
	}{
		{"default", false, false, zerolog.InfoLevel},
		{"debug", true, false, zerolog.DebugLevel},
		{"quiet", false, true, zerolog.ErrorLevel},
		{"debug_wins", true, true, zerolog.DebugLevel},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := &Application{}
			a.Config.Debug, a.Config.Quiet = tc.debug, tc.quiet
			if got := a.logLevel(); got != tc.want {
				t.Errorf("logLevel() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	for _, args := range [][]string{{"--version"}, {"-n", "3", "-V"}, {"-version"}} {
		if !HasVersionFlag(args) {
			t.Errorf("HasVersionFlag(%v) = false", args)
		}
	}
	if HasVersionFlag([]string{"-n", "3"}) {
		t.Error("HasVersionFlag without a version flag = true")
	}
	var out bytes.Buffer
	PrintVersion(&out)
	if !strings.HasPrefix(out.String(), "fanwrite "+Version) {
		t.Errorf("PrintVersion = %q", out.String())
	}
}
