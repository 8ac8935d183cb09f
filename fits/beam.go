package fits

import (
	"math"
	"regexp"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fitscube/internal/conv"
)

const stageBeam = "beam"

// radToDeg is the radian to degree factor as the producing packages
// compute it.
var radToDeg = 45 / math.Atan(1)

// beamStrategy recovers beam parameters in degrees from one producer's
// convention. Strategies are pure and tried in order.
type beamStrategy struct {
	name    string
	recover func(h *Header) (Beam, bool)
}

var beamStrategies = []beamStrategy{
	{"model-keywords", keywordBeam("BEAMMAJ", "BEAMMIN", "BEAMPA", 1)},
	{"gipsy-keywords", keywordBeam("BMMAJ", "BMMIN", "BMPA", 1.0/3600)},
	{"aips-clean", historyBeam(aipsClean)},
	{"miriad-restor", historyBeam(miriadRestor)},
	{"casa-restoring-beam", historyBeam(casaRestoringBeam)},
	{"gipsy-beam", historyBeam(gipsyBeam)},
}

// keywordBeam reads alternate beam keywords. Axis values are multiplied
// by scale; the position angle is always in degrees.
func keywordBeam(major, minor, pa string, scale float64) func(*Header) (Beam, bool) {
	return func(h *Header) (Beam, bool) {
		var b Beam
		if v, ok := extraFloat(h, major); ok {
			b.Major = Some(v * scale)
		}
		if v, ok := extraFloat(h, minor); ok {
			b.Minor = Some(v * scale)
		}
		if v, ok := extraFloat(h, pa); ok {
			b.PA = Some(v)
		}
		return b, b.Major.Valid || b.Minor.Valid || b.PA.Valid
	}
}

func extraFloat(h *Header, key string) (float64, bool) {
	s, ok := h.Extra(key)
	if !ok {
		return 0, false
	}
	v, err := conv.Parse[float64](s)
	return v, err == nil
}

// historyBeam applies parse to each free-text card until one matches.
func historyBeam(parse func(text string) (Beam, bool)) func(*Header) (Beam, bool) {
	return func(h *Header) (Beam, bool) {
		for _, text := range h.History() {
			if b, ok := parse(text); ok {
				return b, true
			}
		}
		return Beam{}, false
	}
}

const number = `([-+]?(?:\d+\.?\d*|\.\d+)(?:[EeDd][-+]?\d+)?)`

var (
	aipsCleanPattern = regexp.MustCompile(
		`AIPS\s+CLEAN\s+BMAJ=\s*` + number + `\s+BMIN=\s*` + number + `\s+BPA=\s*` + number)
	miriadRestorPattern = regexp.MustCompile(
		`restor: Beam\s*=\s*` + number + `\s*x\s*` + number + `\s*arcsec(?:.*pa\s*=\s*` + number + `\s*degrees)?`)
	casaRestoringBeamPattern = regexp.MustCompile(
		`Restoring beam:\s*` + number + `\s*(arcsec|deg)\s*x\s*` + number + `\s*(arcsec|deg),\s*pa\s*` + number + `\s*(rad|deg)`)
	gipsyBeamPattern = regexp.MustCompile(
		`Beam:\s*` + number + `\s*(arcsec|deg)\s*x\s*` + number + `\s*(arcsec|deg),\s*position angle\s*` + number + `\s*(rad|deg)`)
)

// aipsClean matches the CLEAN summary written by AIPS, in degrees:
//
//	AIPS   CLEAN BMAJ=  4.1667E-03 BMIN=  4.1667E-03 BPA=   0.00
func aipsClean(text string) (Beam, bool) {
	m := aipsCleanPattern.FindStringSubmatch(text)
	if m == nil {
		return Beam{}, false
	}
	return beamOf(m[1], 1, m[2], 1, m[3], 1)
}

// miriadRestor matches the MIRIAD restor task summary:
//
//	restor: Beam =  4.500E+01 x  3.000E+01 arcsec, pa =  0.000E+00 degrees
func miriadRestor(text string) (Beam, bool) {
	m := miriadRestorPattern.FindStringSubmatch(text)
	if m == nil {
		return Beam{}, false
	}
	return beamOf(m[1], 1.0/3600, m[2], 1.0/3600, m[3], 1)
}

// casaRestoringBeam matches the CASA imaging summary:
//
//	Restoring beam: 12.0 arcsec x 10.0 arcsec, pa 0.785 rad
func casaRestoringBeam(text string) (Beam, bool) {
	m := casaRestoringBeamPattern.FindStringSubmatch(text)
	if m == nil {
		return Beam{}, false
	}
	return beamOf(m[1], angleUnit(m[2]), m[3], angleUnit(m[4]), m[5], paUnit(m[6]))
}

// gipsyBeam matches the GIPSY beam summary:
//
//	Beam: 0.0125 deg x 0.01 deg, position angle 45 deg
func gipsyBeam(text string) (Beam, bool) {
	m := gipsyBeamPattern.FindStringSubmatch(text)
	if m == nil {
		return Beam{}, false
	}
	return beamOf(m[1], angleUnit(m[2]), m[3], angleUnit(m[4]), m[5], paUnit(m[6]))
}

func angleUnit(u string) float64 {
	if u == "arcsec" {
		return 1.0 / 3600
	}
	return 1
}

func paUnit(u string) float64 {
	if u == "rad" {
		return radToDeg
	}
	return 1
}

// beamOf parses the captured literals. An empty PA capture leaves the
// position angle undefined.
func beamOf(major string, majorScale float64, minor string, minorScale float64, pa string, paScale float64) (Beam, bool) {
	bmaj, err1 := conv.Parse[float64](major)
	bmin, err2 := conv.Parse[float64](minor)
	if err1 != nil || err2 != nil {
		return Beam{}, false
	}
	b := Beam{Major: Some(bmaj * majorScale), Minor: Some(bmin * minorScale)}
	if v, err := conv.Parse[float64](pa); err == nil {
		b.PA = Some(v * paScale)
	}
	return b, true
}

// recoverBeam fills undefined beam parameters from the first strategy
// that yields any of them. It reports whether anything was recovered.
func recoverBeam(h *Header, tr *trail) bool {
	for _, s := range beamStrategies {
		b, ok := s.recover(h)
		if !ok {
			continue
		}

		filled := false
		for _, p := range []struct {
			name string
			dst  *Optional[float64]
			src  Optional[float64]
		}{
			{"BMAJ", &h.Beam.Major, b.Major},
			{"BMIN", &h.Beam.Minor, b.Minor},
			{"BPA", &h.Beam.PA, b.PA},
		} {
			if p.dst.Valid || !p.src.Valid {
				continue
			}
			*p.dst = p.src
			filled = true
			tr.warn(stageBeam, "beam parameter recovered from legacy convention",
				zap.String("strategy", s.name), zap.String("key", p.name), zap.Float64("value", p.src.Value))
		}
		if filled {
			h.Beam.Source = s.name
			return true
		}
	}
	return false
}
