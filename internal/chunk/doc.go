// Package chunk streams a source unit in bounded-size chunks.
//
// A single Read may return fewer bytes than asked for. Reader keeps reading
// into its buffer until it is full or the source reports io.EOF, so every
// chunk except the last has exactly the buffer's capacity.
package chunk
