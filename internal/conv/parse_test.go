package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloat(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		got, err := Parse[float64]("  1.420405752E9 ")
		require.NoError(t, err)
		assert.Equal(t, 1.420405752e9, got)
	})

	t.Run("fortran exponent", func(t *testing.T) {
		got, err := Parse[float64]("-2.5D-03")
		require.NoError(t, err)
		assert.InDelta(t, -2.5e-3, got, 1e-15)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Parse[float64]("abc")
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Parse[float64]("   ")
		assert.Error(t, err)
	})
}

func TestParseInt(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		got, err := Parse[int]("-32")
		require.NoError(t, err)
		assert.Equal(t, -32, got)
	})

	t.Run("integral float text", func(t *testing.T) {
		got, err := Parse[int]("64.0")
		require.NoError(t, err)
		assert.Equal(t, 64, got)
	})

	t.Run("fractional rejected", func(t *testing.T) {
		_, err := Parse[int]("1.5")
		assert.Error(t, err)
	})

	t.Run("int16 overflow", func(t *testing.T) {
		_, err := Parse[int16]("40000")
		assert.Error(t, err)
	})

	t.Run("uint32 negative", func(t *testing.T) {
		_, err := Parse[uint32]("-1")
		assert.Error(t, err)
	})

	t.Run("uint32 max", func(t *testing.T) {
		got, err := Parse[uint32]("4294967295")
		require.NoError(t, err)
		assert.Equal(t, uint32(math.MaxUint32), got)
	})
}

func TestParseOr(t *testing.T) {
	assert.Equal(t, 7, ParseOr("x", 7))
	assert.Equal(t, 3, ParseOr("3", 7))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "42", Format(42))
	assert.Equal(t, "0.5", Format(0.5))
	assert.Equal(t, "1.420405752E+09", Format(1.420405752e9))
	assert.Equal(t, "-32", Format(int16(-32)))
}
