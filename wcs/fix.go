package wcs

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// unitAliases maps non-standard unit spellings to their standard form.
var unitAliases = map[string]string{
	"DEG":      "deg",
	"DEGREE":   "deg",
	"DEGREES":  "deg",
	"RAD":      "rad",
	"ARCSEC":   "arcsec",
	"ARCMIN":   "arcmin",
	"HZ":       "Hz",
	"KHZ":      "kHz",
	"MHZ":      "MHz",
	"GHZ":      "GHz",
	"M/S":      "m/s",
	"M/SEC":    "m/s",
	"KM/S":     "km/s",
	"KM/SEC":   "km/s",
	"KMS":      "km/s",
	"M":        "m",
	"CM":       "cm",
	"MM":       "mm",
	"UM":       "um",
	"NM":       "nm",
	"ANGSTROM": "Angstrom",
}

// fixUnits translates upper-case and long-form unit strings.
func (s *System) fixUnits() {
	for i := range s.axes {
		u := s.axes[i].Unit
		if std, ok := unitAliases[strings.ToUpper(u)]; ok && std != u {
			s.axes[i].Unit = std
			s.fixes = append(s.fixes, fmt.Sprintf("unitfix: CUNIT%d '%s' -> '%s'", i+1, u, std))
		}
	}
}

var legacyDate = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{2})$`)

// mjdEpoch is MJD 0.
var mjdEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

// fixDate rewrites DD/MM/YY dates and derives DATE-OBS from MJD-OBS.
func (s *System) fixDate(kw keywords) {
	if m := legacyDate.FindStringSubmatch(s.DateObs); m != nil {
		old := s.DateObs
		s.DateObs = fmt.Sprintf("19%s-%s-%s", m[3], m[2], m[1])
		s.fixes = append(s.fixes, fmt.Sprintf("datfix: DATE-OBS '%s' -> '%s'", old, s.DateObs))
	}

	if s.DateObs == "" && kw.has("MJD-OBS") {
		mjd := kw.float("MJD-OBS", math.NaN())
		if !math.IsNaN(mjd) {
			t := mjdEpoch.Add(time.Duration(mjd * float64(24*time.Hour)))
			s.DateObs = t.Format("2006-01-02T15:04:05")
			s.fixes = append(s.fixes, fmt.Sprintf("datfix: DATE-OBS set to '%s' from MJD-OBS", s.DateObs))
		}
	}
}

var aipsSpectral = regexp.MustCompile(`^(FREQ|VELO|FELO)-(LSR|HEL|OBS|LSD|GEO|GAL|CMB)$`)

var aipsFrames = map[string]string{
	"LSR": "LSRK",
	"HEL": "BARYCENT",
	"OBS": "TOPOCENT",
	"LSD": "LSRD",
	"GEO": "GEOCENTR",
	"GAL": "GALACTOC",
	"CMB": "CMBDIPOL",
}

// velrefFrames maps the low byte of VELREF to a frame.
var velrefFrames = map[int]string{1: "LSRK", 2: "BARYCENT", 3: "TOPOCENT"}

// fixSpectralAIPS translates AIPS-convention spectral types.
func (s *System) fixSpectralAIPS() {
	for i := range s.axes {
		t := s.axes[i].Type
		m := aipsSpectral.FindStringSubmatch(t)
		if m == nil {
			if t == "FELO" {
				s.axes[i].Type = "VOPT-F2W"
				s.fixes = append(s.fixes, fmt.Sprintf("spcfix: CTYPE%d 'FELO' -> 'VOPT-F2W'", i+1))
			}
			continue
		}

		var std string
		switch m[1] {
		case "FREQ":
			std = "FREQ"
		case "FELO":
			std = "VOPT-F2W"
		case "VELO":
			std = "VOPT"
			if s.VelRef >= 256 {
				std = "VRAD"
			}
		}
		s.axes[i].Type = std
		if s.SpecSys == "" {
			s.SpecSys = aipsFrames[m[2]]
		}
		s.fixes = append(s.fixes, fmt.Sprintf("spcfix: CTYPE%d '%s' -> '%s'", i+1, t, std))
	}

	if s.SpecSys == "" && s.VelRef > 0 {
		if frame, ok := velrefFrames[s.VelRef%256]; ok {
			s.SpecSys = frame
			s.fixes = append(s.fixes, fmt.Sprintf("spcfix: SPECSYS set to '%s' from VELREF", frame))
		}
	}
}

// fixCelestial translates the NCP and GLS projections into SIN and SFL.
func (s *System) fixCelestial(pv map[int]map[int]float64) {
	lat := -1
	for i, a := range s.axes {
		if isLatitude(a.Type) {
			lat = i
		}
	}

	for i := range s.axes {
		t := s.axes[i].Type
		if !isLongitude(t) && !isLatitude(t) {
			continue
		}
		switch projectionCode(t) {
		case "NCP":
			if lat < 0 {
				continue
			}
			dec := s.axes[lat].RefValue
			if sind(dec) == 0 {
				s.fixes = append(s.fixes, fmt.Sprintf("celfix: CTYPE%d NCP at the equator cannot be translated", i+1))
				continue
			}
			s.axes[i].Type = t[:5] + "SIN"
			if pv[lat+1] == nil {
				pv[lat+1] = map[int]float64{}
			}
			pv[lat+1][1] = 0
			pv[lat+1][2] = cosd(dec) / sind(dec)
			s.fixes = append(s.fixes, fmt.Sprintf("celfix: CTYPE%d '%s' -> '%s'", i+1, t, s.axes[i].Type))
		case "GLS":
			s.axes[i].Type = t[:5] + "SFL"
			s.fixes = append(s.fixes, fmt.Sprintf("celfix: CTYPE%d '%s' -> '%s'", i+1, t, s.axes[i].Type))
		}
	}
}
