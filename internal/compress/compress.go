package compress

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// MagicSize is the number of leading bytes inspected for detection.
const MagicSize = 4

// Codec is a whole-stream decompressor identified by magic bytes.
type Codec interface {
	// Name returns a short identifier used in diagnostics.
	Name() string

	// Magic returns the leading bytes that identify the container.
	Magic() []byte

	// NewReader wraps r with a decompressing reader.
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// Registry lists the supported containers in detection order.
var Registry = []Codec{Gzip{}, Zstd{}, LZ4{}}

// Detect returns the codec whose magic prefixes magic, or nil when the
// stream is not compressed.
func Detect(magic []byte) Codec {
	for _, c := range Registry {
		if bytes.HasPrefix(magic, c.Magic()) {
			return c
		}
	}
	return nil
}

// Open opens path for sequential reading, transparently decompressing it.
// The returned codec is nil for plain files.
func Open(path string) (io.ReadCloser, Codec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}

	br := bufio.NewReader(f)
	magic, err := br.Peek(MagicSize)
	if err != nil && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, nil, fmt.Errorf("reading magic: %w", err)
	}

	codec := Detect(magic)
	if codec == nil {
		return &stream{Reader: br, closers: []io.Closer{f}}, nil, nil
	}

	dec, err := codec.NewReader(br)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%s container: %w", codec.Name(), err)
	}
	return &stream{Reader: dec, closers: []io.Closer{dec, f}}, codec, nil
}

// stream closes the decoder before the file underneath it.
type stream struct {
	io.Reader
	closers []io.Closer
}

func (s *stream) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
