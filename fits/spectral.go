package fits

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fitscube/wcs"
)

const stageSpectral = "spectral"

// legacyFrames lists the frequency axis types carrying a rest frame and
// velocity convention: O optical, R radio; HEL heliocentric, LSR local
// standard of rest.
var legacyFrames = map[string]struct {
	optical bool
	specsys string
}{
	"FREQ-OHEL": {true, "BARYCENT"},
	"FREQ-OLSR": {true, "LSRK"},
	"FREQ-RHEL": {false, "BARYCENT"},
	"FREQ-RLSR": {false, "LSRK"},
}

var frequencyUnits = map[string]float64{
	"HZ":  1,
	"KHZ": 1e3,
	"MHZ": 1e6,
	"GHZ": 1e9,
}

// isLegacySpectral reports whether axis 3 uses a legacy frame type.
func isLegacySpectral(h *Header) bool {
	if len(h.Axes) < 3 {
		return false
	}
	_, ok := legacyFrames[strings.ToUpper(h.Axes[2].CTYPE)]
	return ok
}

// referenceVelocity returns the velocity at the reference pixel in m/s,
// from VELR or from DRVAL3/DUNIT3.
func referenceVelocity(h *Header) (float64, error) {
	if v, ok := extraFloat(h, "VELR"); ok {
		return v, nil
	}
	v, ok := extraFloat(h, "DRVAL3")
	if !ok {
		return 0, ErrNoVelocity
	}
	unit, _ := h.Extra("DUNIT3")
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "KM/S", "KM/SEC":
		v *= 1e3
	case "", "M/S", "M/SEC":
	default:
		return 0, fmt.Errorf("%w: DUNIT3 %q", ErrNoVelocity, unit)
	}
	return v, nil
}

// correctSpectral rewrites a legacy frame frequency axis into a plain
// barycentric or LSR frequency axis. Headers without such an axis are
// left alone. On error the header is unchanged.
func correctSpectral(h *Header, tr *trail) error {
	if !isLegacySpectral(h) {
		return nil
	}
	a := &h.Axes[2]
	frame := legacyFrames[strings.ToUpper(a.CTYPE)]

	velocity, err := referenceVelocity(h)
	if err != nil {
		return err
	}
	scale, ok := frequencyUnits[strings.ToUpper(a.CUNIT)]
	if !ok {
		return fmt.Errorf("unsupported frequency unit %q", a.CUNIT)
	}
	restFreq := h.RestFreq.Or(0)
	if restFreq <= 0 {
		return ErrNoRestFreq
	}

	freq := a.CRVAL * scale
	dfreq := a.CDELT * scale
	freqB, dfreqB := dopplerCorrect(restFreq, velocity, freq, dfreq, frame.optical)

	tr.info(stageSpectral, "legacy spectral axis converted to frequency",
		zap.String("ctype", a.CTYPE),
		zap.Float64("velocity", velocity),
		zap.Float64("crval", freqB),
		zap.Float64("cdelt", dfreqB))

	a.CTYPE = "FREQ"
	a.CUNIT = "Hz"
	a.CRVAL = freqB
	a.CDELT = dfreqB
	h.SpecSys = frame.specsys
	return nil
}

// dopplerCorrect returns the reference frequency and increment in the
// source frame. velocity is the reference velocity in m/s under the
// optical or radio convention; freq and dfreq are in Hz.
func dopplerCorrect(restFreq, velocity, freq, dfreq float64, optical bool) (float64, float64) {
	const c = wcs.C

	freqB := restFreq * (1 - velocity/c)
	if optical {
		freqB = restFreq / (1 + velocity/c)
	}

	velT := c * (freqB*freqB - freq*freq) / (freqB*freqB + freq*freq)
	return freqB, dfreq * (c - velT) / math.Sqrt(c*c-velT*velT)
}

// resolveRestFreq falls back to the FREQ0 keyword some reduction
// packages write instead of RESTFRQ.
func resolveRestFreq(h *Header, tr *trail) {
	if h.RestFreq.Valid {
		return
	}
	if v, ok := extraFloat(h, "FREQ0"); ok && v > 0 {
		h.RestFreq = Some(v)
		tr.info(stageSpectral, "rest frequency taken from FREQ0", zap.Float64("value", v))
	}
}
