package fits

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-fitscube/wcs"
)

const hiRestFreq = 1.420405752e9

func TestDopplerCorrectZeroVelocity(t *testing.T) {
	for _, optical := range []bool{true, false} {
		freq, dfreq := dopplerCorrect(hiRestFreq, 0, hiRestFreq, -2.44140625e4, optical)
		assert.InDelta(t, hiRestFreq, freq, 1e-6)
		assert.InDelta(t, -2.44140625e4, dfreq, 1e-9)
	}
}

func TestDopplerCorrectClosedForm(t *testing.T) {
	const (
		c        = wcs.C
		velocity = 1.3e5
		freq     = 1.4198e9
		dfreq    = 1e4
	)
	// Source-frame frequencies computed independently to 40 digits.
	tests := []struct {
		name    string
		optical bool
		freqB   float64
	}{
		{"optical", true, 1419790083.706964},
		{"radio", false, 1419789816.732676},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotF, gotD := dopplerCorrect(hiRestFreq, velocity, freq, dfreq, tt.optical)

			velT := c * (tt.freqB*tt.freqB - freq*freq) / (tt.freqB*tt.freqB + freq*freq)
			wantD := dfreq * (c - velT) / math.Sqrt(c*c-velT*velT)

			assert.InDelta(t, tt.freqB, gotF, 1e-3)
			assert.InDelta(t, wantD, gotD, 1e-9)
			assert.NotEqual(t, dfreq, gotD)
		})
	}
}

func TestDopplerCorrectOpticalConvention(t *testing.T) {
	// At 3000 km/s the optical and radio conventions differ by about 140 kHz.
	optical, _ := dopplerCorrect(hiRestFreq, 3e6, hiRestFreq, 1e4, true)
	radio, _ := dopplerCorrect(hiRestFreq, 3e6, hiRestFreq, 1e4, false)
	assert.InDelta(t, 1406332689.268695, optical, 1e-3)
	assert.InDelta(t, 1406191861.215596, radio, 1e-3)
}

func legacyHeader(t *testing.T, pairs ...any) *Header {
	t.Helper()
	base := []any{
		"NAXIS", 3, "NAXIS1", 2, "NAXIS2", 2, "NAXIS3", 8,
		"CRPIX3", 1.0, "CDELT3", 10.0,
	}
	h, err := normalize(cards(t, append(base, pairs...)...), "x.fits", "", testTrail())
	require.NoError(t, err)
	return h
}

func TestCorrectSpectral(t *testing.T) {
	h := legacyHeader(t,
		"CTYPE3", "FREQ-OHEL", "CUNIT3", "kHz", "CRVAL3", 1420405.752,
		"VELR", 0.0,
		"RESTFRQ", hiRestFreq,
	)
	tr := testTrail()
	require.NoError(t, correctSpectral(h, tr))

	a := h.Axes[2]
	assert.Equal(t, "FREQ", a.CTYPE)
	assert.Equal(t, "Hz", a.CUNIT)
	assert.InDelta(t, hiRestFreq, a.CRVAL, 1e-6)
	assert.InDelta(t, 1e4, a.CDELT, 1e-6)
	assert.Equal(t, "BARYCENT", h.SpecSys)
	assert.True(t, logged(tr, stageSpectral, "ctype", "FREQ-OHEL"))
}

func TestCorrectSpectralVelocityFromDRVAL(t *testing.T) {
	h := legacyHeader(t,
		"CTYPE3", "FREQ-RLSR", "CUNIT3", "MHz", "CRVAL3", 1419.0,
		"DRVAL3", 250.0, "DUNIT3", "KM/S",
		"RESTFRQ", hiRestFreq,
	)
	require.NoError(t, correctSpectral(h, testTrail()))

	wantF, wantD := dopplerCorrect(hiRestFreq, 2.5e5, 1.419e9, 1e7, false)
	assert.Equal(t, wantF, h.Axes[2].CRVAL)
	assert.Equal(t, wantD, h.Axes[2].CDELT)
	assert.Equal(t, "LSRK", h.SpecSys)
}

func TestCorrectSpectralFailuresLeaveAxis(t *testing.T) {
	tests := []struct {
		name  string
		pairs []any
		want  error
	}{
		{"no velocity", []any{"CTYPE3", "FREQ-OHEL", "CUNIT3", "Hz", "CRVAL3", 1.42e9, "RESTFRQ", hiRestFreq}, ErrNoVelocity},
		{"no rest frequency", []any{"CTYPE3", "FREQ-RHEL", "CUNIT3", "Hz", "CRVAL3", 1.42e9, "VELR", 1000.0}, ErrNoRestFreq},
		{"bad velocity unit", []any{"CTYPE3", "FREQ-RHEL", "CUNIT3", "Hz", "CRVAL3", 1.42e9, "DRVAL3", 1.0, "DUNIT3", "furlong", "RESTFRQ", hiRestFreq}, ErrNoVelocity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := legacyHeader(t, tt.pairs...)
			before := h.Axes[2]
			assert.ErrorIs(t, correctSpectral(h, testTrail()), tt.want)
			assert.Equal(t, before, h.Axes[2])
			assert.Equal(t, "", h.SpecSys)
		})
	}
}

func TestCorrectSpectralIgnoresStandardAxes(t *testing.T) {
	h := legacyHeader(t, "CTYPE3", "FREQ", "CRVAL3", 1.42e9)
	before := h.Axes[2]
	require.NoError(t, correctSpectral(h, testTrail()))
	assert.Equal(t, before, h.Axes[2])
}

func TestRestFreqFromFREQ0(t *testing.T) {
	h := legacyHeader(t, "CTYPE3", "FREQ", "FREQ0", hiRestFreq)
	tr := testTrail()
	resolveRestFreq(h, tr)
	assert.Equal(t, Some(hiRestFreq), h.RestFreq)
}
