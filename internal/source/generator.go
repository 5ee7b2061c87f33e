package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/fanwrite/internal/errors"
)

// Unit is one generated source file. Its size is fixed when it is generated
// and the file is never modified afterwards.
type Unit struct {
	ID   int
	Path string
	Size int64
}

// Open opens the unit for reading. Any failure is reported as
// SourceUnavailableError.
func (u Unit) Open() (io.ReadCloser, error) {
	f, err := os.Open(u.Path)
	if err != nil {
		return nil, apperrors.SourceUnavailableError{SourceID: u.ID, Path: u.Path, Cause: err}
	}
	return f, nil
}

// Generator writes deterministic fixed-size source files. Unit i consists of
// Words repetitions of the word "File<i>" padded with spaces to WordSize-1
// bytes and terminated by a newline.
type Generator struct {
	Dir      string
	WordSize int
	Words    int
}

// UnitSize is the size in bytes of every generated unit.
func (g Generator) UnitSize() int64 {
	return int64(g.WordSize) * int64(g.Words)
}

// Name returns the file name of unit id.
func (g Generator) Name(id int) string {
	return fmt.Sprintf("File%d.txt", id)
}

// Word returns the repeated word of unit id.
func (g Generator) Word(id int) ([]byte, error) {
	label := fmt.Sprintf("File%d", id)
	if len(label) > g.WordSize-1 {
		return nil, apperrors.NewConfigError("word size %d too small for label %q", g.WordSize, label)
	}
	word := make([]byte, g.WordSize)
	copy(word, label)
	for i := len(label); i < g.WordSize-1; i++ {
		word[i] = ' '
	}
	word[g.WordSize-1] = '\n'
	return word, nil
}

// Expected returns the full contents of unit id.
func (g Generator) Expected(id int) ([]byte, error) {
	word, err := g.Word(id)
	if err != nil {
		return nil, err
	}
	return bytes.Repeat(word, g.Words), nil
}

// Generate writes unit id into Dir, replacing any previous file.
func (g Generator) Generate(id int) (Unit, error) {
	data, err := g.Expected(id)
	if err != nil {
		return Unit{}, err
	}
	path := filepath.Join(g.Dir, g.Name(id))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Unit{}, apperrors.WrapError(err, "generate %s", path)
	}
	return Unit{ID: id, Path: path, Size: int64(len(data))}, nil
}

// GenerateAll writes units 0..n-1 concurrently and returns them in id order.
func (g Generator) GenerateAll(ctx context.Context, n int) ([]Unit, error) {
	if g.WordSize < 2 || g.Words < 1 {
		return nil, apperrors.NewConfigError("invalid unit shape: word size %d, words %d", g.WordSize, g.Words)
	}
	if err := os.MkdirAll(g.Dir, 0o755); err != nil {
		return nil, apperrors.WrapError(err, "create source directory")
	}

	units := make([]Unit, n)
	eg, ctx := errgroup.WithContext(ctx)
	for i := range n {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			u, err := g.Generate(i)
			units[i] = u
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

// Remove deletes the files of units, ignoring ones already gone.
func Remove(units []Unit) error {
	for _, u := range units {
		if err := os.Remove(u.Path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
