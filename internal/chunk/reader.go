package chunk

import (
	"errors"
	"io"
	"iter"

	apperrors "github.com/agbru/fanwrite/internal/errors"
)

// DefaultCapacity is the chunk buffer size used when none is configured.
const DefaultCapacity = 1000

// maxEmptyReads bounds consecutive (0, nil) reads before giving up, the same
// limit bufio uses.
const maxEmptyReads = 100

// Reader streams a source in chunks of at most the buffer capacity. It owns
// its buffer; chunks returned by Next alias it and are only valid until the
// following call.
type Reader struct {
	r    io.Reader
	buf  []byte
	done bool
	err  error
}

// NewReader returns a Reader over r with a private buffer of capacity bytes.
// A non-positive capacity selects DefaultCapacity.
func NewReader(r io.Reader, capacity int) *Reader {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Reader{r: r, buf: make([]byte, capacity)}
}

// Capacity returns the buffer size.
func (c *Reader) Capacity() int { return len(c.buf) }

// Next fills the buffer, looping over short reads, and returns the filled
// prefix. Only the final chunk of a source may be shorter than the capacity.
// It returns io.EOF once the source is exhausted and keeps returning it (or
// the first hard error) afterwards.
func (c *Reader) Next() ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.done {
		c.err = io.EOF
		return nil, c.err
	}

	n, empty := 0, 0
	for n < len(c.buf) {
		m, err := c.r.Read(c.buf[n:])
		if m < 0 || m > len(c.buf)-n {
			c.err = errors.New("chunk: reader returned invalid count")
			return nil, c.err
		}
		n += m
		if err == io.EOF {
			c.done = true
			break
		}
		if err != nil {
			c.err = err
			return nil, err
		}
		if m == 0 {
			empty++
			if empty >= maxEmptyReads {
				c.err = apperrors.ShortTransferError{Op: "read", Want: len(c.buf), Got: n, Cause: io.ErrNoProgress}
				return nil, c.err
			}
			continue
		}
		empty = 0
	}

	if n == 0 {
		c.err = io.EOF
		return nil, c.err
	}
	return c.buf[:n], nil
}

// Chunks returns the remaining chunks as a single-use sequence. Iteration
// stops after the first error, which is yielded with a nil chunk; io.EOF is
// not yielded.
func (c *Reader) Chunks() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			b, err := c.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}
