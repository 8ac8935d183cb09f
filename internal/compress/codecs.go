package compress

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Gzip decodes gzip members, including concatenated multi-member files.
type Gzip struct{}

func (Gzip) Name() string  { return "gzip" }
func (Gzip) Magic() []byte { return []byte{0x1f, 0x8b} }

func (Gzip) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// Zstd decodes Zstandard frames.
type Zstd struct{}

func (Zstd) Name() string  { return "zstd" }
func (Zstd) Magic() []byte { return []byte{0x28, 0xb5, 0x2f, 0xfd} }

func (Zstd) NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

// LZ4 decodes LZ4 frames.
type LZ4 struct{}

func (LZ4) Name() string  { return "lz4" }
func (LZ4) Magic() []byte { return []byte{0x04, 0x22, 0x4d, 0x18} }

func (LZ4) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}
