package dtype

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, values any) []byte {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, values))
	return buf.Bytes()
}

// unscaled is the scaling of files without BSCALE and BZERO.
var unscaled = Scaling{Scale: 1}

func TestKind(t *testing.T) {
	tests := []struct {
		kind    Kind
		valid   bool
		size    int
		integer bool
	}{
		{Uint8, true, 1, true},
		{Int16, true, 2, true},
		{Int32, true, 4, true},
		{Int64, true, 8, true},
		{Float32, true, 4, false},
		{Float64, true, 8, false},
		{Kind(24), false, 3, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, tt.kind.Valid(), tt.kind.String())
		assert.Equal(t, tt.size, tt.kind.Size(), tt.kind.String())
		assert.Equal(t, tt.integer, tt.kind.Integer(), tt.kind.String())
	}
}

func TestDecodeFloat32WithNaN(t *testing.T) {
	raw := encode(t, []float32{1.5, float32(math.NaN()), -2})
	dst := make([]float32, 3)
	var blanks []int

	err := Decode(bytes.NewReader(raw), Float32, unscaled, dst, 0, func(i int) { blanks = append(blanks, i) })
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, 0, -2}, dst)
	assert.Equal(t, []int{1}, blanks)
}

func TestDecodeScaledInt16(t *testing.T) {
	raw := encode(t, []int16{0, 10, -32768})
	sc := Scaling{Scale: 0.5, Zero: 100, Blank: -32768, HasBlank: true}
	dst := make([]float64, 3)

	err := Decode(bytes.NewReader(raw), Int16, sc, dst, math.NaN(), nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, dst[0])
	assert.Equal(t, 105.0, dst[1])
	assert.True(t, math.IsNaN(dst[2]))
}

func TestDecodeUint8ToFloat32(t *testing.T) {
	dst := make([]float32, 3)
	err := Decode(bytes.NewReader([]byte{0, 128, 255}), Uint8, unscaled, dst, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 128, 255}, dst)
}

func TestDecodeInt32And64(t *testing.T) {
	t.Run("int32", func(t *testing.T) {
		dst := make([]float32, 2)
		err := Decode(bytes.NewReader(encode(t, []int32{-7, 1 << 20})), Int32, unscaled, dst, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float32{-7, 1 << 20}, dst)
	})

	t.Run("int64", func(t *testing.T) {
		dst := make([]float64, 2)
		err := Decode(bytes.NewReader(encode(t, []int64{-7, 1 << 40})), Int64, unscaled, dst, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{-7, 1 << 40}, dst)
	})
}

func TestDecodeFloat64(t *testing.T) {
	dst := make([]float64, 2)
	err := Decode(bytes.NewReader(encode(t, []float64{math.Pi, math.NaN()})), Float64, unscaled, dst, -1, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{math.Pi, -1}, dst)
}

func TestDecodeToInt16Mask(t *testing.T) {
	raw := encode(t, []float32{0, 1, 2.6, 1e9, float32(math.NaN())})
	dst := make([]int16, 5)

	err := Decode(bytes.NewReader(raw), Float32, unscaled, dst, math.NaN(), nil)
	require.NoError(t, err)
	assert.Equal(t, []int16{0, 1, 3, math.MaxInt16, 0}, dst)
}

func TestDecodeAcrossChunks(t *testing.T) {
	n := chunkSamples*2 + 17
	src := make([]int16, n)
	for i := range src {
		src[i] = int16(i % 1000)
	}
	dst := make([]float32, n)

	err := Decode(bytes.NewReader(encode(t, src)), Int16, unscaled, dst, 0, nil)
	require.NoError(t, err)
	for i := range src {
		if dst[i] != float32(src[i]) {
			t.Fatalf("sample %d: got %v want %d", i, dst[i], src[i])
		}
	}
}

func TestDecodeShortStream(t *testing.T) {
	dst := make([]float32, 4)
	err := Decode(bytes.NewReader(encode(t, []float32{1, 2})), Float32, unscaled, dst, 0, nil)
	assert.Error(t, err)
}

func TestDecodeUnsupportedKind(t *testing.T) {
	err := Decode(bytes.NewReader(nil), Kind(12), unscaled, make([]float32, 1), 0, nil)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}
