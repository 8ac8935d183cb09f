package fits

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fitscube/internal/binary"
	"github.com/robert-malhotra/go-fitscube/internal/compress"
	"github.com/robert-malhotra/go-fitscube/internal/conv"
	"github.com/robert-malhotra/go-fitscube/internal/dtype"
)

const stageLoad = "load"

// Pixels is the sample buffer of a cube in row-major axis order, the
// first axis varying fastest. Exactly one of the typed slices is set.
type Pixels struct {
	Type    ScalarType
	Float32 []float32
	Float64 []float64
	Int16   []int16

	// Blank holds the indices of undefined samples, which were replaced
	// by the fill value.
	Blank *roaring64.Bitmap

	// Min and Max span the defined samples. Both are NaN when no sample
	// is defined.
	Min, Max float64
}

// Len returns the number of samples.
func (p *Pixels) Len() int {
	switch p.Type {
	case Float64:
		return len(p.Float64)
	case Int16:
		return len(p.Int16)
	}
	return len(p.Float32)
}

// At returns sample i as float64.
func (p *Pixels) At(i int) float64 {
	switch p.Type {
	case Float64:
		return p.Float64[i]
	case Int16:
		return float64(p.Int16[i])
	}
	return float64(p.Float32[i])
}

// loadRequest carries what the loader needs from an opened cube.
type loadRequest struct {
	path       string
	dataOffset int64
	dataSize   int64
	header     *Header
	extent     Extent
	scalar     ScalarType
	fill       float64
	tempDir    string
}

// loadPixels reads the data unit of req.path. Compressed sources are
// decompressed to a temporary file first; that file is removed before
// returning, whatever the outcome.
func loadPixels(req loadRequest, tr *trail) (px *Pixels, err error) {
	ex, err := compress.Extract(req.path, req.tempDir)
	if err != nil {
		return nil, fmt.Errorf("preparing data: %w", err)
	}
	defer func() {
		if cerr := ex.Cleanup(); cerr != nil {
			tr.warn(stageLoad, "temporary file not removed", zap.String("path", ex.Path), zap.Error(cerr))
		}
	}()
	if ex.Temporary() {
		tr.info(stageLoad, "decompressed to temporary file",
			zap.String("codec", ex.Codec.Name()), zap.String("path", ex.Path))
	}

	f, err := os.Open(ex.Path)
	if err != nil {
		return nil, fmt.Errorf("opening data: %w", err)
	}
	defer f.Close()

	kind := dtype.Kind(req.header.Bitpix)
	n := req.extent.Len()
	src := binary.NewReader(f)
	if err := checkDataUnit(src, req.dataOffset, req.dataSize, tr); err != nil {
		return nil, err
	}
	var stream io.Reader = src.At(req.dataOffset).Stream(req.dataSize)

	var sum *binary.Checksum
	if req.header.DataSum != "" {
		sum = &binary.Checksum{}
		stream = io.TeeReader(stream, sum)
	}

	px = &Pixels{Type: req.scalar, Blank: roaring64.New()}
	sc := dtype.Scaling{
		Scale:    req.header.Bscale,
		Zero:     req.header.Bzero,
		Blank:    req.header.Blank.Value,
		HasBlank: req.header.Blank.Valid,
	}
	mark := func(i int) { px.Blank.Add(uint64(i)) }

	switch req.scalar {
	case Float32:
		px.Float32 = make([]float32, n)
		err = dtype.Decode(stream, kind, sc, px.Float32, req.fill, mark)
	case Float64:
		px.Float64 = make([]float64, n)
		err = dtype.Decode(stream, kind, sc, px.Float64, req.fill, mark)
	case Int16:
		px.Int16 = make([]int16, n)
		err = dtype.Decode(stream, kind, sc, px.Int16, req.fill, mark)
	default:
		err = fmt.Errorf("unknown scalar type %v", req.scalar)
	}
	if err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}

	if px.Blank.GetCardinality() > 0 {
		tr.info(stageLoad, "undefined samples replaced",
			zap.Uint64("count", px.Blank.GetCardinality()), zap.Float64("fill", req.fill))
	}
	if sum != nil {
		verifyDataSum(req.header.DataSum, sum.Sum32(), tr)
	}

	px.Min, px.Max = px.span()
	fillDataRange(req.header, px, tr)
	return px, nil
}

// checkDataUnit makes sure the source holds the whole data unit before
// anything is allocated for it. Missing block padding is only reported.
func checkDataUnit(src *binary.Reader, offset, size int64, tr *trail) error {
	if size == 0 {
		return nil
	}
	if _, err := src.At(offset + size - 1).ReadBytes(1); err != nil {
		if errors.Is(err, binary.ErrShortRead) {
			return fmt.Errorf("%w: %d bytes expected at offset %d", ErrTruncated, size, offset)
		}
		return fmt.Errorf("checking data unit: %w", err)
	}
	if padded := binary.PaddedSize(size); padded != size {
		if _, err := src.At(offset + padded - 1).ReadBytes(1); err != nil {
			tr.warn(stageLoad, "data unit not padded to a whole block",
				zap.Int64("size", size), zap.Int64("padded", padded))
		}
	}
	return nil
}

// span returns the range of the defined samples.
func (p *Pixels) span() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := 0; i < p.Len(); i++ {
		if p.Blank.Contains(uint64(i)) {
			continue
		}
		v := p.At(i)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return math.NaN(), math.NaN()
	}
	return lo, hi
}

// verifyDataSum compares the DATASUM keyword, a decimal string, with the
// computed ones' complement sum. Padding after the data is zero and adds
// nothing to the sum.
func verifyDataSum(keyword string, got uint32, tr *trail) {
	want, err := conv.Parse[uint32](strings.TrimSpace(keyword))
	if err != nil {
		tr.warn(stageLoad, "malformed DATASUM", zap.String("value", keyword))
		return
	}
	if want != got {
		tr.warn(stageLoad, "DATASUM mismatch", zap.Uint32("header", want), zap.Uint32("computed", got))
	}
}

// fillDataRange sets undefined DATAMIN and DATAMAX from the samples.
func fillDataRange(h *Header, px *Pixels, tr *trail) {
	if math.IsNaN(px.Min) {
		return
	}
	if !h.DataMin.Valid {
		h.DataMin = Some(px.Min)
		tr.info(stageLoad, "DATAMIN computed from data", zap.Float64("value", px.Min))
	}
	if !h.DataMax.Valid {
		h.DataMax = Some(px.Max)
		tr.info(stageLoad, "DATAMAX computed from data", zap.Float64("value", px.Max))
	}
}
