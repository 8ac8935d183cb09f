package fits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNormalizeSqueezesDegenerateFourthAxis(t *testing.T) {
	tr := testTrail()
	h, err := normalize(cards(t,
		"NAXIS", 4, "NAXIS1", 10, "NAXIS2", 10, "NAXIS3", 5, "NAXIS4", 1,
		"CTYPE3", "FREQ",
		"CTYPE4", "STOKES", "CRVAL4", 1.0, "CDELT4", 1.0, "CRPIX4", 1.0, "CUNIT4", "",
		"PC4_4", 1.0, "PC1_4", 0.0, "PV4_1", 0.0, "CTYPE4A", "STOKES",
		"OBSRA", 180.0,
	), "cube.fits", "", tr)
	require.NoError(t, err)

	assert.Equal(t, 3, h.Naxis())
	assert.Equal(t, []int{10, 10, 5}, []int{h.Axes[0].Size, h.Axes[1].Size, h.Axes[2].Size})

	m := h.Map()
	for _, key := range []string{"NAXIS4", "CTYPE4", "CRVAL4", "CDELT4", "CRPIX4", "CUNIT4", "PC4_4", "PC1_4", "PV4_1", "CTYPE4A"} {
		_, ok := m.Get(key)
		assert.False(t, ok, key)
	}
	v, _ := m.Get("NAXIS")
	assert.Equal(t, "3", v)
	v, _ = m.Get("OBSRA")
	assert.Equal(t, "180", v)
}

func TestNormalizeDropsWCSAXES(t *testing.T) {
	tr := testTrail()
	h, err := normalize(cards(t,
		"NAXIS", 4, "NAXIS1", 10, "NAXIS2", 10, "NAXIS3", 5, "NAXIS4", 1,
		"WCSAXES", 4, "CTYPE4", "STOKES",
	), "cube.fits", "", tr)
	require.NoError(t, err)

	assert.Equal(t, 3, h.Naxis())
	_, ok := h.Map().Get("WCSAXES")
	assert.False(t, ok)
	assert.NotContains(t, h.cardText(), "WCSAXES")
	assert.True(t, logged(tr, stageNormalize, "naxis", int64(3)))
}

func TestNormalizeIgnoresBlankOnFloatData(t *testing.T) {
	tr := testTrail()
	h, err := normalize(cards(t, "BITPIX", -32, "NAXIS", 1, "NAXIS1", 4, "BLANK", -1), "x.fits", "", tr)
	require.NoError(t, err)
	assert.False(t, h.Blank.Valid)
	assert.True(t, logged(tr, stageNormalize, "blank", int64(-1)))

	h, err = normalize(cards(t, "BITPIX", 16, "NAXIS", 1, "NAXIS1", 4, "BLANK", -1), "x.fits", "", testTrail())
	require.NoError(t, err)
	assert.Equal(t, Some[int64](-1), h.Blank)
}

func TestNormalizeSqueezeChain(t *testing.T) {
	h, err := normalize(cards(t,
		"NAXIS", 4, "NAXIS1", 7, "NAXIS2", 1, "NAXIS3", 1, "NAXIS4", 1,
		"CTYPE2", "DEC--SIN", "CTYPE3", "FREQ",
	), "image.fits", "", testTrail())
	require.NoError(t, err)
	assert.Equal(t, 1, h.Naxis())
	_, ok := h.Map().Get("CTYPE2")
	assert.False(t, ok)

	h, err = normalize(cards(t, "NAXIS", 1, "NAXIS1", 1), "one.fits", "", testTrail())
	require.NoError(t, err)
	assert.Equal(t, 1, h.Naxis())
}

func TestNormalizeRejections(t *testing.T) {
	tests := []struct {
		name  string
		pairs []any
		want  error
	}{
		{"missing NAXIS", []any{"BITPIX", 16}, ErrMissingNaxis},
		{"zero NAXIS", []any{"NAXIS", 0}, ErrMissingNaxis},
		{"missing NAXISn", []any{"NAXIS", 3, "NAXIS1", 4, "NAXIS2", 4}, ErrMissingNaxis},
		{"zero-length axis", []any{"NAXIS", 3, "NAXIS1", 1, "NAXIS2", 3, "NAXIS3", 0}, ErrMissingNaxis},
		{"malformed NAXISn", []any{"NAXIS", 1, "NAXIS1", "four"}, ErrMissingNaxis},
		{"polarization", []any{"NAXIS", 4, "NAXIS1", 4, "NAXIS2", 4, "NAXIS3", 4, "NAXIS4", 3}, ErrPolarization},
		{"five axes", []any{"NAXIS", 5, "NAXIS1", 4, "NAXIS2", 4, "NAXIS3", 4, "NAXIS4", 1, "NAXIS5", 1}, ErrTooManyAxes},
		{"bad BITPIX", []any{"NAXIS", 1, "NAXIS1", 4, "BITPIX", "float"}, ErrUnsupportedBitpix},
		{"bad ROLE", []any{"NAXIS", 1, "NAXIS1", 4, "ROLE", "weights"}, ErrUnsupportedRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := normalize(cards(t, tt.pairs...), "x.fits", "", testTrail())
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, h)
		})
	}
}

func TestNormalizeSpectralUnitDefault(t *testing.T) {
	tests := []struct {
		name  string
		ctype string
		want  string
	}{
		{"frequency", "FREQ", "Hz"},
		{"legacy frequency", "FREQ-OHEL", "Hz"},
		{"velocity", "VELO-HEL", "km/s"},
		{"radio velocity", "VRAD", "km/s"},
		{"absent", "", "km/s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs := []any{"NAXIS", 3, "NAXIS1", 2, "NAXIS2", 2, "NAXIS3", 2}
			if tt.ctype != "" {
				pairs = append(pairs, "CTYPE3", tt.ctype)
			}
			tr := testTrail()
			h, err := normalize(cards(t, pairs...), "x.fits", "", tr)
			require.NoError(t, err)

			assert.Equal(t, "deg", h.Axes[0].CUNIT)
			assert.Equal(t, "deg", h.Axes[1].CUNIT)
			assert.Equal(t, tt.want, h.Axes[2].CUNIT)
			assert.True(t, logged(tr, stageNormalize, "key", "CUNIT3"))
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	tr := testTrail()
	h, err := normalize(cards(t, "NAXIS", 2, "NAXIS1", 8, "NAXIS2", 8), "field.fits", "", tr)
	require.NoError(t, err)

	assert.Equal(t, 32, h.Bitpix)
	assert.Equal(t, 1.0, h.Bscale)
	assert.Equal(t, 0.0, h.Bzero)
	assert.False(t, h.DataMin.Valid)
	assert.False(t, h.RestFreq.Valid)
	assert.False(t, h.Beam.Major.Valid)
	assert.Equal(t, "", h.Beam.Source)
	assert.Equal(t, Undefined, h.Bunit)
	assert.Equal(t, Undefined, h.Object)
	assert.Equal(t, Undefined, h.DateObs)
	assert.Equal(t, "CONSTANT", h.CellScal)
	assert.Equal(t, RoleData, h.Role)

	a := h.Axes[0]
	assert.Equal(t, Axis{Size: 8, CRPIX: 0, CRVAL: 0, CDELT: 1, CROTA: 0, CUNIT: "deg", CTYPE: Undefined}, a)

	for _, key := range []string{"BITPIX", "CDELT1", "CRPIX2", "CTYPE1", "RESTFREQ", "BMAJ", "TELESCOP", "EPOCH", "CELLSCAL"} {
		assert.True(t, logged(tr, stageNormalize, "key", key), key)
	}
	assert.NotZero(t, tr.count(zapcore.WarnLevel, stageNormalize))

	m := h.Map()
	for key, want := range map[string]string{
		"fits.BMAJ":     Undefined,
		"fits.DATAMIN":  Undefined,
		"fits.BITPIX":   "32",
		"fits.CELLSCAL": "CONSTANT",
		"fits.ROLE":     "data",
	} {
		assert.Equal(t, want, m[key], key)
	}
}

func TestNormalizeAliases(t *testing.T) {
	h, err := normalize(cards(t,
		"NAXIS", 1, "NAXIS1", 4,
		"RESTFREQ", 1.420405752e9,
		"EPOCH", 1950.0,
	), "x.fits", "", testTrail())
	require.NoError(t, err)
	assert.Equal(t, Some(1.420405752e9), h.RestFreq)
	assert.Equal(t, Some(1950.0), h.Equinox)

	h, err = normalize(cards(t,
		"NAXIS", 1, "NAXIS1", 4,
		"RESTFRQ", 1.0e9, "RESTFREQ", 2.0e9,
	), "x.fits", "", testTrail())
	require.NoError(t, err)
	assert.Equal(t, 1.0e9, h.RestFreq.Value)
}

func TestNormalizeMalformedValue(t *testing.T) {
	tr := testTrail()
	h, err := normalize(cards(t, "NAXIS", 1, "NAXIS1", 4, "CDELT1", "wide", "BMAJ", "big"), "x.fits", "", tr)
	require.NoError(t, err)
	assert.Equal(t, 1.0, h.Axes[0].CDELT)
	assert.False(t, h.Beam.Major.Valid)
	assert.True(t, logged(tr, stageNormalize, "raw", "wide"))
}

func TestNormalizeRole(t *testing.T) {
	h, err := normalize(cards(t, "NAXIS", 1, "NAXIS1", 4, "ROLE", "Mask"), "cube.fits", "", testTrail())
	require.NoError(t, err)
	assert.Equal(t, RoleMask, h.Role)

	h, err = normalize(cards(t, "NAXIS", 1, "NAXIS1", 4, "ROLE", "mask"), "cube.fits", RoleModel, testTrail())
	require.NoError(t, err)
	assert.Equal(t, RoleModel, h.Role)

	h, err = normalize(cards(t, "NAXIS", 1, "NAXIS1", 4), "n2403_mom1.fits", "", testTrail())
	require.NoError(t, err)
	assert.Equal(t, RoleFirst, h.Role)
}

func TestNormalizeExtrasKeepOrderAndCounters(t *testing.T) {
	h, err := normalize(cards(t,
		"NAXIS", 1, "NAXIS1", 4,
		"HISTORY", "first line",
		"ORIGIN", "NRAO",
		"HISTORY", "it's 100% done",
		"COMMENT", "note",
	), "x.fits", "", testTrail())
	require.NoError(t, err)

	var keys []string
	for _, k := range h.Extras {
		keys = append(keys, k.Key)
	}
	assert.Equal(t, []string{"HISTORY0001", "ORIGIN", "HISTORY0002", "COMMENT0001"}, keys)
	assert.Equal(t, []string{"first line", "it^s 100percent done", "note"}, h.History())

	m := h.Map()
	assert.Equal(t, "it^s 100percent done", m["fits.HISTORY0002"])
	assert.Equal(t, "NRAO", m["fits.ORIGIN"])
}

func TestHeaderCardTextSkipsUndefined(t *testing.T) {
	h, err := normalize(cards(t,
		"NAXIS", 1, "NAXIS1", 4, "CTYPE1", "FREQ",
		"HISTORY", "processed",
	), "x.fits", "", testTrail())
	require.NoError(t, err)
	h.RestFreq = Some(1.4e9)

	text := h.cardText()
	assert.Zero(t, len(text)%80)
	assert.Contains(t, text, "RESTFRQ =              1.4E+09")
	assert.Contains(t, text, "CTYPE1  = 'FREQ    '")
	assert.NotContains(t, text, Undefined)
	assert.NotContains(t, text, "processed")
	assert.Equal(t, "END", text[len(text)-80:len(text)-77])
}

func TestInferRole(t *testing.T) {
	tests := []struct {
		path string
		want Role
	}{
		{"/data/ngc2403.fits", RoleData},
		{"ngc2403_mask.fits", RoleMask},
		{"NGC2403_Segmentation.fits.gz", RoleMask},
		{"n2403_model.fits", RoleModel},
		{"n2403_mod.fits", RoleModel},
		{"n2403_pv.fits", RoleProfile},
		{"n2403_profile.fits", RoleProfile},
		{"n2403_mom0.fits", RoleZeroth},
		{"n2403_moment1.fits", RoleFirst},
		{"n2403_mom2.fits", RoleSecond},
		{"/masks/n2403.fits", RoleData},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, InferRole(tt.path))
		})
	}
}
