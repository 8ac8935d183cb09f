// Package binary provides positioned reads over FITS streams.
package binary

import (
	"errors"
	"io"
)

// BlockSize is the FITS logical record length. Header and data units are
// padded to a multiple of it.
const BlockSize = 2880

// ErrShortRead is returned when fewer bytes are available than requested.
var ErrShortRead = errors.New("short read")

// Reader reads from an io.ReaderAt at an explicit position.
type Reader struct {
	r   io.ReaderAt
	pos int64
}

// NewReader creates a reader positioned at offset 0.
func NewReader(r io.ReaderAt) *Reader {
	return &Reader{r: r}
}

// At returns a new reader positioned at the given offset.
// The new reader shares the underlying io.ReaderAt but has independent position.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{r: r.r, pos: offset}
}

// ReadBytes reads exactly n bytes from the current position.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	got, err := r.r.ReadAt(buf, r.pos)
	if got < n {
		if err == nil || errors.Is(err, io.EOF) {
			err = ErrShortRead
		}
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

// Stream returns a sequential reader over the next n bytes and advances
// the position past them.
func (r *Reader) Stream(n int64) io.Reader {
	s := io.NewSectionReader(r.r, r.pos, n)
	r.pos += n
	return s
}

// PaddedSize rounds n up to a whole number of blocks.
func PaddedSize(n int64) int64 {
	if rem := n % BlockSize; rem != 0 {
		return n + BlockSize - rem
	}
	return n
}
