package fits

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/go-fitscube/internal/dtype"
)

// ScalarType is the in-memory sample type of a cube.
type ScalarType int

const (
	Float32 ScalarType = iota + 1
	Float64
	Int16
)

func (t ScalarType) String() string {
	switch t {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int16:
		return "int16"
	}
	return fmt.Sprintf("ScalarType(%d)", int(t))
}

// Size returns the sample size in bytes.
func (t ScalarType) Size() int {
	switch t {
	case Float64:
		return 8
	case Int16:
		return 2
	}
	return 4
}

// resolveType maps BITPIX and role to the in-memory type. Masks are always
// int16; everything else is float32 up to 32-bit samples and float64
// beyond.
func resolveType(bitpix int, role Role) (ScalarType, error) {
	k := dtype.Kind(bitpix)
	if !k.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitpix, bitpix)
	}
	if _, err := ParseRole(string(role)); err != nil {
		return 0, err
	}

	if role == RoleMask {
		return Int16, nil
	}
	if k.Size() == 8 {
		return Float64, nil
	}
	return Float32, nil
}

// Extent is the index range of a cube. Axes beyond NAxis have a single
// index.
type Extent struct {
	NAxis   int
	Min     [3]int
	Max     [3]int
	Spacing [3]float64
	Origin  [3]float64
}

// Dims returns the number of samples along each axis.
func (e Extent) Dims() [3]int {
	var d [3]int
	for i := range d {
		d[i] = e.Max[i] - e.Min[i] + 1
	}
	return d
}

// Len returns the total number of samples.
func (e Extent) Len() int {
	d := e.Dims()
	return d[0] * d[1] * d[2]
}

// resolveExtent computes [0, NAXISn-1] per axis. Spacing is always one;
// the origin is zero unless native is set, in which case it is the
// world value of pixel index 0.
func resolveExtent(h *Header, native bool) Extent {
	e := Extent{NAxis: len(h.Axes), Spacing: [3]float64{1, 1, 1}}
	for i, a := range h.Axes {
		e.Max[i] = a.Size - 1
		if native {
			e.Origin[i] = a.CRVAL - a.CDELT*(a.CRPIX-1)
		}
	}
	return e
}

// dataBytes returns the length of the data unit declared by h, whose
// BITPIX must be valid. Sizes whose sample or byte count does not fit the
// platform are rejected.
func dataBytes(h *Header) (int64, error) {
	samples := int64(1)
	for _, a := range h.Axes {
		if a.Size <= 0 || samples > math.MaxInt/int64(a.Size) {
			return 0, fmt.Errorf("%w: axes %s", ErrDataTooLarge, axisSizes(h))
		}
		samples *= int64(a.Size)
	}
	size := int64(dtype.Kind(h.Bitpix).Size())
	if samples > math.MaxInt64/size {
		return 0, fmt.Errorf("%w: %d samples of %d bytes", ErrDataTooLarge, samples, size)
	}
	return samples * size, nil
}

func axisSizes(h *Header) string {
	s := ""
	for i, a := range h.Axes {
		if i > 0 {
			s += "x"
		}
		s += fmt.Sprint(a.Size)
	}
	return s
}
