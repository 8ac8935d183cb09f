package conv

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is the set of numeric types header values are parsed into.
type Number interface {
	~int | ~int16 | ~int32 | ~int64 | ~uint32 | ~float32 | ~float64
}

// Parse converts s into a T. Leading and trailing blanks are ignored.
// Integer targets accept integral floating-point text ("32.0", "1E2")
// because several producers write NAXISn and BITPIX that way.
func Parse[T Number](s string) (T, error) {
	var zero T
	s = strings.TrimSpace(s)
	if s == "" {
		return zero, fmt.Errorf("empty numeric value")
	}

	switch any(zero).(type) {
	case float32, float64:
		f, err := strconv.ParseFloat(normalizeExponent(s), 64)
		if err != nil {
			return zero, fmt.Errorf("parsing %q as float: %w", s, err)
		}
		return T(f), nil
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(normalizeExponent(s), 64)
		if ferr != nil || f != math.Trunc(f) {
			return zero, fmt.Errorf("parsing %q as integer: %w", s, err)
		}
		if f > math.MaxInt64 || f < math.MinInt64 {
			return zero, fmt.Errorf("parsing %q as integer: out of range", s)
		}
		i = int64(f)
	}
	if !inRange[T](i) {
		return zero, fmt.Errorf("integer overflow: %d does not fit in %T", i, zero)
	}
	return T(i), nil
}

// ParseOr returns the parsed value, or def when s is malformed.
func ParseOr[T Number](s string, def T) T {
	v, err := Parse[T](s)
	if err != nil {
		return def
	}
	return v
}

// Format renders v the way it is written back into header text: integers
// in decimal, floats in the shortest representation that round-trips.
func Format[T Number](v T) string {
	switch x := any(v).(type) {
	case float32:
		return strconv.FormatFloat(float64(x), 'G', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'G', -1, 64)
	}
	return strconv.FormatInt(int64(v), 10)
}

func inRange[T Number](i int64) bool {
	var zero T
	switch any(zero).(type) {
	case int16:
		return i >= math.MinInt16 && i <= math.MaxInt16
	case int32:
		return i >= math.MinInt32 && i <= math.MaxInt32
	case uint32:
		return i >= 0 && i <= math.MaxUint32
	}
	return true
}

// normalizeExponent rewrites a Fortran double-precision exponent marker
// (1.5D+03) into the one strconv understands.
func normalizeExponent(s string) string {
	if strings.IndexAny(s, "dD") < 0 {
		return s
	}
	return strings.NewReplacer("D", "E", "d", "e").Replace(s)
}
