package wcs

import (
	"fmt"
	"math"
	"strings"
)

// C is the speed of light in m/s.
const C = 299792458.0

// spectralTypes lists supported spectral types with the letter of the
// basic type each is linear in ('F' frequency, 'W' wavelength, 'V'
// relativistic velocity).
var spectralTypes = map[string]byte{
	"FREQ": 'F',
	"VRAD": 'F',
	"WAVE": 'W',
	"VOPT": 'W',
	"ZOPT": 'W',
	"VELO": 'V',
}

// basicTypes maps algorithm code letters back to a type.
var basicTypes = map[byte]string{'F': "FREQ", 'W': "WAVE", 'V': "VELO"}

func isSpectral(ctype string) bool {
	if len(ctype) < 4 {
		return false
	}
	_, ok := spectralTypes[ctype[:4]]
	return ok
}

// spectralUnit returns the factor converting unit to SI for the type of
// ctype, and the SI unit name.
func spectralUnit(ctype, unit string) (float64, string, bool) {
	var table map[string]float64
	var si string
	switch spectralTypes[ctype[:4]] {
	case 'F':
		if ctype[:4] == "FREQ" {
			table, si = freqUnits, "Hz"
		} else {
			table, si = velocityUnits, "m/s"
		}
	case 'W':
		if ctype[:4] == "ZOPT" {
			return 1, "", unit == ""
		}
		if ctype[:4] == "VOPT" {
			table, si = velocityUnits, "m/s"
		} else {
			table, si = waveUnits, "m"
		}
	default:
		table, si = velocityUnits, "m/s"
	}
	if unit == "" {
		return 1, si, true
	}
	f, ok := table[unit]
	return f, si, ok
}

var (
	freqUnits     = map[string]float64{"Hz": 1, "kHz": 1e3, "MHz": 1e6, "GHz": 1e9}
	velocityUnits = map[string]float64{"m/s": 1, "km/s": 1e3}
	waveUnits     = map[string]float64{"m": 1, "cm": 1e-2, "mm": 1e-3, "um": 1e-6, "nm": 1e-9, "Angstrom": 1e-10}
)

// toFrequency converts a value of spectral type t to frequency in Hz.
func toFrequency(t string, v, restFreq float64) (float64, error) {
	switch t {
	case "FREQ":
		return v, nil
	case "WAVE":
		return C / v, nil
	}
	if restFreq <= 0 {
		return 0, ErrNoRestFreq
	}
	switch t {
	case "VRAD":
		return restFreq * (1 - v/C), nil
	case "VOPT":
		return restFreq / (1 + v/C), nil
	case "ZOPT":
		return restFreq / (1 + v), nil
	case "VELO":
		return restFreq * math.Sqrt((C-v)/(C+v)), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownSpectral, t)
}

// fromFrequency converts a frequency in Hz to spectral type t.
func fromFrequency(t string, nu, restFreq float64) (float64, error) {
	switch t {
	case "FREQ":
		return nu, nil
	case "WAVE":
		return C / nu, nil
	}
	if restFreq <= 0 {
		return 0, ErrNoRestFreq
	}
	switch t {
	case "VRAD":
		return C * (1 - nu/restFreq), nil
	case "VOPT":
		return C * (restFreq/nu - 1), nil
	case "ZOPT":
		return restFreq/nu - 1, nil
	case "VELO":
		r2, n2 := restFreq*restFreq, nu*nu
		return C * (r2 - n2) / (r2 + n2), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownSpectral, t)
}

// spectral is a spectral axis linear in its native type and reported in
// the target type.
type spectral struct {
	native   string
	target   string
	crval    float64 // native, SI
	dscale   float64 // d(native)/d(header type) at the reference value
	restFreq float64
}

// newSpectral builds the spectral axis from an axis already scaled to SI.
// A non-linear CTYPE such as "VOPT-F2W" is re-expressed as linear in its
// basic type; if that is impossible the axis is treated as linear in its
// own type and a fix message is returned.
func newSpectral(a Axis, restFreq float64) (*spectral, string) {
	base := a.Type[:4]
	sp := &spectral{native: base, target: base, crval: a.RefValue, dscale: 1, restFreq: restFreq}

	code := ""
	if len(a.Type) == 8 && a.Type[4] == '-' {
		code = a.Type[5:]
	}
	if code == "" {
		return sp, ""
	}
	if len(code) != 3 || code[1] != '2' {
		return sp, fmt.Sprintf("spcfix: non-standard spectral code %q ignored", a.Type)
	}

	basic, ok := basicTypes[code[0]]
	if !ok || basic == base || spectralTypes[base] == code[0] {
		return sp, ""
	}

	nu, err := toFrequency(base, a.RefValue, restFreq)
	if err != nil {
		return sp, fmt.Sprintf("spcfix: %s treated as linear: %v", a.Type, err)
	}
	crval, err := fromFrequency(basic, nu, restFreq)
	if err != nil {
		return sp, fmt.Sprintf("spcfix: %s treated as linear: %v", a.Type, err)
	}
	sp.native = basic
	sp.crval = crval
	sp.dscale = sp.linearScale(base, a.RefValue)
	return sp, ""
}

// linearScale returns d(native)/d(type) at the reference value, needed
// when the header increment is expressed in a non-native type.
func (s *spectral) linearScale(headerType string, refValue float64) float64 {
	if headerType == s.native {
		return 1
	}
	h := math.Max(math.Abs(refValue)*1e-7, 1e-3)
	lo, err1 := s.convert(headerType, s.native, refValue-h)
	hi, err2 := s.convert(headerType, s.native, refValue+h)
	if err1 != nil || err2 != nil {
		return 1
	}
	return (hi - lo) / (2 * h)
}

func (s *spectral) convert(from, to string, v float64) (float64, error) {
	if from == to {
		return v, nil
	}
	nu, err := toFrequency(from, v, s.restFreq)
	if err != nil {
		return 0, err
	}
	return fromFrequency(to, nu, s.restFreq)
}

// toWorld maps the intermediate (native, SI) offset to the target type.
func (s *spectral) toWorld(x float64) (float64, error) {
	return s.convert(s.native, s.target, s.crval+x*s.dscale)
}

// toIntermediate is the inverse of toWorld.
func (s *spectral) toIntermediate(w float64) (float64, error) {
	v, err := s.convert(s.target, s.native, w)
	if err != nil {
		return 0, err
	}
	return (v - s.crval) / s.dscale, nil
}

// ctype returns the CTYPE describing the target type, e.g. "VOPT-F2W".
func (s *spectral) ctype() string {
	nl, tl := spectralTypes[s.native], spectralTypes[s.target]
	if nl == tl {
		return s.target
	}
	return fmt.Sprintf("%s-%c2%c", s.target, nl, tl)
}

// axis reports a in the target type, linearized at the reference pixel.
func (s *spectral) axis(a Axis) Axis {
	ref, err := s.toWorld(0)
	if err != nil {
		return a
	}
	h := a.Delta
	if h == 0 {
		h = 1
	}
	lo, err1 := s.toWorld(-h * 1e-3)
	hi, err2 := s.toWorld(h * 1e-3)
	if err1 != nil || err2 != nil {
		return a
	}
	_, unit, _ := spectralUnit(s.target, "")
	return Axis{
		Type:     s.ctype(),
		Unit:     unit,
		RefPixel: a.RefPixel,
		RefValue: ref,
		Delta:    (hi - lo) / (2 * h * 1e-3) * a.Delta,
	}
}

// SetSpectralType re-expresses the spectral axis as type t (FREQ, WAVE,
// VRAD, VOPT, ZOPT or VELO). A trailing algorithm code is ignored.
func (s *System) SetSpectralType(t string) error {
	if s.spectral == nil {
		return ErrNoSpectralAxis
	}
	t = strings.ToUpper(t)
	if len(t) > 4 {
		t = t[:4]
	}
	if _, ok := spectralTypes[t]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSpectral, t)
	}

	prev := s.spectral.target
	s.spectral.target = t
	if _, err := s.spectral.toWorld(0); err != nil {
		s.spectral.target = prev
		return fmt.Errorf("translating %s to %s: %w", prev, t, err)
	}
	return nil
}
