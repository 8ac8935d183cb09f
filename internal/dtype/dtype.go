package dtype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Kind is a FITS BITPIX value.
type Kind int

const (
	Uint8   Kind = 8
	Int16   Kind = 16
	Int32   Kind = 32
	Int64   Kind = 64
	Float32 Kind = -32
	Float64 Kind = -64
)

// ErrUnsupportedKind is returned for BITPIX values outside the standard set.
var ErrUnsupportedKind = errors.New("unsupported BITPIX")

// Valid reports whether k is a standard BITPIX value.
func (k Kind) Valid() bool {
	switch k {
	case Uint8, Int16, Int32, Int64, Float32, Float64:
		return true
	}
	return false
}

// Size returns the stored size of one sample in bytes.
func (k Kind) Size() int {
	if k < 0 {
		return int(-k) / 8
	}
	return int(k) / 8
}

// Integer reports whether samples are stored as integers.
func (k Kind) Integer() bool {
	return k > 0
}

func (k Kind) String() string {
	return fmt.Sprintf("BITPIX %d", int(k))
}

// Scaling maps stored values to physical values.
type Scaling struct {
	Scale float64
	Zero  float64

	// Blank marks undefined integer samples when HasBlank is set.
	Blank    int64
	HasBlank bool
}

// Target is the set of in-memory sample types.
type Target interface {
	float32 | float64 | int16
}

// chunkSamples bounds the read buffer to keep memory flat on large cubes.
const chunkSamples = 1 << 14

// Decode reads len(dst) samples of kind k from r into dst. Undefined
// samples are set to fill and, when blank is non-nil, reported by index.
func Decode[T Target](r io.Reader, k Kind, sc Scaling, dst []T, fill float64, blank func(i int)) error {
	if !k.Valid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedKind, int(k))
	}
	if sc.Scale == 0 {
		sc.Scale = 1
	}

	size := k.Size()
	fillValue := cast[T](fill)
	identity := sc.Scale == 1 && sc.Zero == 0
	buf := make([]byte, chunkSamples*size)

	for done := 0; done < len(dst); {
		n := min(chunkSamples, len(dst)-done)
		chunk := buf[:n*size]
		if _, err := io.ReadFull(r, chunk); err != nil {
			return fmt.Errorf("reading samples %d-%d: %w", done, done+n-1, err)
		}

		for i := 0; i < n; i++ {
			raw, undefined := sample(k, chunk[i*size:(i+1)*size], sc)
			idx := done + i
			if undefined {
				dst[idx] = fillValue
				if blank != nil {
					blank(idx)
				}
				continue
			}
			if !identity {
				raw = sc.Zero + sc.Scale*raw
			}
			dst[idx] = cast[T](raw)
		}
		done += n
	}
	return nil
}

// sample decodes one stored value and reports whether it is undefined.
func sample(k Kind, b []byte, sc Scaling) (float64, bool) {
	be := binary.BigEndian
	switch k {
	case Uint8:
		v := int64(b[0])
		return float64(v), sc.HasBlank && v == sc.Blank
	case Int16:
		v := int64(int16(be.Uint16(b)))
		return float64(v), sc.HasBlank && v == sc.Blank
	case Int32:
		v := int64(int32(be.Uint32(b)))
		return float64(v), sc.HasBlank && v == sc.Blank
	case Int64:
		v := int64(be.Uint64(b))
		return float64(v), sc.HasBlank && v == sc.Blank
	case Float32:
		v := float64(math.Float32frombits(be.Uint32(b)))
		return v, math.IsNaN(v)
	default:
		v := math.Float64frombits(be.Uint64(b))
		return v, math.IsNaN(v)
	}
}

// cast converts v to T. Integer targets are rounded and clamped; NaN maps
// to zero since int16 has no undefined value.
func cast[T Target](v float64) T {
	var zero T
	if _, ok := any(zero).(int16); ok {
		switch {
		case math.IsNaN(v):
			return 0
		case v >= math.MaxInt16:
			return T(math.MaxInt16)
		case v <= math.MinInt16:
			return T(math.MinInt16)
		}
		return T(math.Round(v))
	}
	return T(v)
}
