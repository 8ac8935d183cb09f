package fits

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/robert-malhotra/go-fitscube/internal/card"
)

const blockSize = 2880

// kv renders key/value pairs as 80-byte records. Strings are quoted,
// "HISTORY"/"COMMENT" keys take their value as free text.
func kv(pairs ...any) []string {
	var out []string
	for i := 0; i+1 < len(pairs); i += 2 {
		key := pairs[i].(string)
		var rec string
		switch v := pairs[i+1].(type) {
		case string:
			if key == card.KeyHistory || key == card.KeyComment {
				rec = fmt.Sprintf("%-8s%s", key, v)
			} else {
				rec = fmt.Sprintf("%-8s= '%-8s'", key, strings.ReplaceAll(v, "'", "''"))
			}
		case bool:
			val := "F"
			if v {
				val = "T"
			}
			rec = fmt.Sprintf("%-8s= %20s", key, val)
		default:
			rec = fmt.Sprintf("%-8s= %20v", key, v)
		}
		out = append(out, fmt.Sprintf("%-80s", rec))
	}
	return out
}

// padBlock pads b to a whole number of blocks with fill.
func padBlock(b []byte, fill byte) []byte {
	if r := len(b) % blockSize; r != 0 {
		b = append(b, bytes.Repeat([]byte{fill}, blockSize-r)...)
	}
	return b
}

// fitsBytes assembles a primary HDU from records and a data unit.
func fitsBytes(records []string, data []byte) []byte {
	var b bytes.Buffer
	b.WriteString(fmt.Sprintf("%-80s", "SIMPLE  =                    T"))
	for _, r := range records {
		b.WriteString(r)
	}
	b.WriteString(fmt.Sprintf("%-80s", "END"))
	out := padBlock(b.Bytes(), ' ')
	return append(out, padBlock(append([]byte(nil), data...), 0)...)
}

func bigEndian(t *testing.T, values any) []byte {
	t.Helper()
	var b bytes.Buffer
	require.NoError(t, binary.Write(&b, binary.BigEndian, values))
	return b.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return b.Bytes()
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func lz4Bytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var b bytes.Buffer
	w := lz4.NewWriter(&b)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return b.Bytes()
}

// cube3 is a 4x3x2 float32 cube with a full celestial and frequency
// description.
func cube3(extra ...any) []string {
	recs := kv(
		"BITPIX", -32,
		"NAXIS", 3,
		"NAXIS1", 4,
		"NAXIS2", 3,
		"NAXIS3", 2,
		"CTYPE1", "RA---SIN", "CRVAL1", 180.0, "CDELT1", -0.001, "CRPIX1", 2.0, "CUNIT1", "deg",
		"CTYPE2", "DEC--SIN", "CRVAL2", 30.0, "CDELT2", 0.001, "CRPIX2", 2.0, "CUNIT2", "deg",
		"CTYPE3", "FREQ", "CRVAL3", 1.420405752e9, "CDELT3", 1e4, "CRPIX3", 1.0, "CUNIT3", "Hz",
		"RESTFRQ", 1.420405752e9,
		"BMAJ", 0.01, "BMIN", 0.008, "BPA", 30.0,
	)
	return append(recs, kv(extra...)...)
}

func ramp(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = float32(i)
	}
	return v
}

// cards builds tokenized cards from key/value pairs.
func cards(t *testing.T, pairs ...any) []card.Card {
	t.Helper()
	cs, skipped, err := card.Tokenize([]byte(strings.Join(append(kv(pairs...), fmt.Sprintf("%-80s", "END")), "")))
	require.NoError(t, err)
	require.Empty(t, skipped)
	return cs
}

func testTrail() *trail {
	return newTrail(zap.NewNop())
}

// logged reports whether the trail holds an entry whose fields include
// key=value.
func logged(tr *trail, stage, key string, value any) bool {
	for _, d := range tr.entries {
		if d.Stage == stage && d.Fields[key] == value {
			return true
		}
	}
	return false
}

// count returns the number of entries at level recorded for stage.
func (t *trail) count(level zapcore.Level, stage string) int {
	n := 0
	for _, d := range t.entries {
		if d.Level == level && d.Stage == stage {
			n++
		}
	}
	return n
}
