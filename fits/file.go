package fits

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/robert-malhotra/go-fitscube/internal/card"
	"github.com/robert-malhotra/go-fitscube/internal/compress"
	"github.com/robert-malhotra/go-fitscube/internal/hdu"
	"github.com/robert-malhotra/go-fitscube/wcs"
)

const (
	stageOpen = "open"
	stageWCS  = "wcs"
)

// Cube is an opened datacube. Metadata is resolved by Open; pixel data
// is read by Load.
type Cube struct {
	path       string
	opts       *options
	codec      string
	dataOffset int64
	dataSize   int64

	header *Header
	system *wcs.System
	extent Extent
	scalar ScalarType
	orient *mat.Dense
	pixels *Pixels

	trail  *trail
	closed bool
}

// Open reads the primary header of the file at path and resolves the
// cube's metadata. Any returned error is a rejection; degraded
// conditions are recorded in Diagnostics and logged.
func Open(path string, opts ...Option) (*Cube, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	tr := newTrail(o.logger.With(zap.String("file", filepath.Base(path))))

	raw, codec, err := readHeader(path)
	if err != nil {
		return nil, err
	}

	cards, skipped, err := card.Tokenize(raw.Raw)
	if err != nil {
		return nil, fmt.Errorf("tokenizing header: %w", err)
	}
	for _, s := range skipped {
		tr.warn(stageOpen, "header record skipped", zap.Error(s))
	}

	h, err := normalize(cards, filepath.Base(path), o.role, tr)
	if err != nil {
		return nil, fmt.Errorf("normalizing header: %w", err)
	}

	resolveRestFreq(h, tr)
	if err := correctSpectral(h, tr); err != nil {
		tr.warn(stageSpectral, "legacy spectral axis left unchanged", zap.Error(err))
	}

	scalar, err := resolveType(h.Bitpix, h.Role)
	if err != nil {
		return nil, err
	}
	size, err := dataBytes(h)
	if err != nil {
		return nil, err
	}
	extent := resolveExtent(h, o.nativeOrigin)

	c := &Cube{
		path:       path,
		opts:       o,
		codec:      codec,
		dataOffset: raw.DataOffset(),
		dataSize:   size,
		header:     h,
		system:     buildSystem(h, tr),
		extent:     extent,
		scalar:     scalar,
		orient:     orientation(h, extent, o.nativeOrigin),
		trail:      tr,
	}
	return c, nil
}

// readHeader reads the primary header through any compression container.
func readHeader(path string) (*hdu.Header, string, error) {
	rc, codec, err := compress.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	name := ""
	if codec != nil {
		name = codec.Name()
	}

	raw, err := hdu.Read(rc)
	if err != nil {
		if errors.Is(err, hdu.ErrNotFITS) {
			return nil, name, err
		}
		return nil, name, fmt.Errorf("reading header: %w", err)
	}
	return raw, name, nil
}

// buildSystem parses the normalized header into a coordinate system and
// translates its spectral axis to optical velocity. A header that cannot
// be parsed yields nil.
func buildSystem(h *Header, tr *trail) *wcs.System {
	sys, err := wcs.Parse(h.cardText())
	if err != nil {
		tr.warn(stageWCS, "no coordinate system", zap.Error(err))
		return nil
	}

	for _, fix := range sys.Fixes() {
		tr.info(stageWCS, fix)
	}
	if alt := sys.Alternates(); len(alt) > 0 {
		tr.warn(stageWCS, "multiple coordinate systems, using the primary one", zap.Strings("ignored", alt))
	}

	if sys.SpectralAxis() >= 0 {
		if err := sys.SetSpectralType("VOPT"); err != nil {
			tr.warn(stageWCS, "spectral axis kept in its native type", zap.Error(err))
		}
	}
	return sys
}

// Path returns the file path.
func (c *Cube) Path() string {
	return c.path
}

// Compression returns the container name, or "" for plain files.
func (c *Cube) Compression() string {
	return c.codec
}

// Header returns the normalized header.
func (c *Cube) Header() *Header {
	return c.header
}

// HeaderMap returns the header as namespaced strings.
func (c *Cube) HeaderMap() HeaderMap {
	return c.header.Map()
}

// WCS returns the coordinate system, or nil when none could be built.
// The System is owned by the Cube.
func (c *Cube) WCS() *wcs.System {
	return c.system
}

// Orientation returns a copy of the 4x4 voxel to physical matrix.
func (c *Cube) Orientation() *mat.Dense {
	return mat.DenseCopyOf(c.orient)
}

// Extent returns the index ranges, spacing and origin.
func (c *Cube) Extent() Extent {
	return c.extent
}

// ScalarType returns the in-memory sample type.
func (c *Cube) ScalarType() ScalarType {
	return c.scalar
}

// Diagnostics returns the degraded conditions recorded so far.
func (c *Cube) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.trail.entries...)
}

// Load reads the pixel data. A second call returns the loaded buffer.
func (c *Cube) Load() (*Pixels, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if c.pixels != nil {
		return c.pixels, nil
	}

	px, err := loadPixels(loadRequest{
		path:       c.path,
		dataOffset: c.dataOffset,
		dataSize:   c.dataSize,
		header:     c.header,
		extent:     c.extent,
		scalar:     c.scalar,
		fill:       c.opts.fill,
		tempDir:    c.opts.tempDir,
	}, c.trail)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filepath.Base(c.path), err)
	}
	c.pixels = px
	return px, nil
}

// Pixels returns the buffer read by Load.
func (c *Cube) Pixels() (*Pixels, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if c.pixels == nil {
		return nil, ErrNotLoaded
	}
	return c.pixels, nil
}

// Close releases the pixel buffer and coordinate system. It is safe to
// call more than once.
func (c *Cube) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.pixels = nil
	c.system = nil
	return nil
}
