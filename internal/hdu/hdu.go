// Package hdu reads the primary header unit of a FITS stream.
//
// A FITS file starts with the primary header: 80-byte records grouped in
// 2880-byte blocks, terminated by an END record. The data unit starts at
// the first block boundary after the block holding END.
package hdu

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/robert-malhotra/go-fitscube/internal/binary"
	"github.com/robert-malhotra/go-fitscube/internal/card"
)

// MaxHeaderBlocks bounds the header scan for streams that never reach END.
const MaxHeaderBlocks = 1 << 14

// Signature is the first four bytes of every primary header ("SIMPLE  =").
var Signature = []byte("SIMP")

// Errors
var (
	ErrNotFITS  = errors.New("not a FITS file: signature not found")
	ErrNoEnd    = errors.New("header END record not found")
	ErrTooLarge = errors.New("header exceeds maximum block count")
)

var endRecord = []byte("END     ")

// Header is the raw primary header.
type Header struct {
	// Raw holds every header record up to and including END.
	Raw []byte

	// Blocks is the number of 2880-byte blocks the header occupies.
	Blocks int
}

// DataOffset returns the byte offset of the primary data unit.
func (h *Header) DataOffset() int64 {
	return int64(h.Blocks) * binary.BlockSize
}

// CheckSignature reports whether magic starts with the FITS signature.
func CheckSignature(magic []byte) error {
	if len(magic) < len(Signature) || !bytes.Equal(magic[:len(Signature)], Signature) {
		return fmt.Errorf("%w: got %q", ErrNotFITS, printable(magic))
	}
	return nil
}

// Read consumes the primary header from r. The signature is checked
// before anything else is read.
func Read(r io.Reader) (*Header, error) {
	magic := make([]byte, len(Signature))
	if _, err := io.ReadFull(r, magic); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: stream too short", ErrNotFITS)
		}
		return nil, err
	}
	if err := CheckSignature(magic); err != nil {
		return nil, err
	}

	h := &Header{}
	block := make([]byte, binary.BlockSize)
	copy(block, magic)
	filled := len(magic)

	for h.Blocks < MaxHeaderBlocks {
		n, err := io.ReadFull(r, block[filled:])
		filled += n
		short := errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
		if err != nil && !short {
			return nil, fmt.Errorf("reading header block %d: %w", h.Blocks, err)
		}

		// Only whole records are meaningful in a truncated final block.
		usable := filled - filled%card.RecordSize
		if end := findEnd(block[:usable]); end >= 0 {
			h.Raw = append(h.Raw, block[:end+card.RecordSize]...)
			h.Blocks++
			return h, nil
		}
		if short {
			return nil, ErrNoEnd
		}

		h.Raw = append(h.Raw, block...)
		h.Blocks++
		filled = 0
	}

	return nil, ErrTooLarge
}

// findEnd returns the offset of the END record within block, or -1.
func findEnd(block []byte) int {
	for off := 0; off+card.RecordSize <= len(block); off += card.RecordSize {
		if bytes.Equal(block[off:off+len(endRecord)], endRecord) {
			return off
		}
	}
	return -1
}

func printable(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			c = '.'
		}
		out = append(out, c)
	}
	return string(out)
}
