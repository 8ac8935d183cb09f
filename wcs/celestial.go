package wcs

import (
	"fmt"
	"math"
	"strings"
)

const r0 = 180 / math.Pi

func sind(x float64) float64      { return math.Sin(x / r0) }
func cosd(x float64) float64      { return math.Cos(x / r0) }
func asind(x float64) float64     { return math.Asin(clamp1(x)) * r0 }
func acosd(x float64) float64     { return math.Acos(clamp1(x)) * r0 }
func atan2d(y, x float64) float64 { return math.Atan2(y, x) * r0 }

func clamp1(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}

// normalize360 maps an angle into [0, 360).
func normalize360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// normalize180 maps an angle into [-180, 180).
func normalize180(a float64) float64 {
	return normalize360(a+180) - 180
}

var longitudePrefixes = []string{"RA--", "GLON", "ELON", "SLON", "HLON"}
var latitudePrefixes = []string{"DEC-", "GLAT", "ELAT", "SLAT", "HLAT"}

func isLongitude(ctype string) bool { return hasAnyPrefix(ctype, longitudePrefixes) }
func isLatitude(ctype string) bool  { return hasAnyPrefix(ctype, latitudePrefixes) }

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// projectionCode returns the three-letter algorithm code of a celestial CTYPE.
func projectionCode(ctype string) string {
	if len(ctype) < 8 || ctype[4] != '-' {
		return ""
	}
	return strings.TrimRight(ctype[5:8], " ")
}

// angularUnits converts celestial axis units to degrees.
var angularUnits = map[string]float64{
	"":       1,
	"deg":    1,
	"arcmin": 1.0 / 60,
	"arcsec": 1.0 / 3600,
	"rad":    r0,
}

// celestial holds the spherical rotation between native and celestial
// coordinates for one projection.
type celestial struct {
	proj   projection
	alphaP float64 // celestial longitude of the native pole
	deltaP float64 // celestial latitude of the native pole
	phiP   float64 // native longitude of the celestial pole (LONPOLE)
}

func newCelestial(lng, lat Axis, pv map[int]float64, lonpole, latpole float64) (*celestial, error) {
	code := projectionCode(lng.Type)
	proj := projections[code](pv)

	alpha0, delta0 := lng.RefValue, lat.RefValue
	phi0, theta0 := 0.0, proj.theta0()

	if math.IsNaN(lonpole) {
		lonpole = 180
		if delta0 >= theta0 {
			lonpole = 0
		}
	}
	if math.IsNaN(latpole) {
		latpole = 90
	}

	c := &celestial{proj: proj, phiP: lonpole}

	if theta0 == 90 {
		c.alphaP, c.deltaP = alpha0, delta0
		return c, nil
	}

	dphi := lonpole - phi0
	a := atan2d(sind(theta0), cosd(theta0)*cosd(dphi))
	denom := math.Sqrt(1 - math.Pow(cosd(theta0)*sind(dphi), 2))
	if denom == 0 || math.Abs(sind(delta0)/denom) > 1 {
		return nil, fmt.Errorf("%w: no native pole for CRVAL %g,%g", ErrCelestial, alpha0, delta0)
	}
	b := acosd(sind(delta0) / denom)

	best := math.NaN()
	for _, cand := range []float64{normalize180(a + b), normalize180(a - b)} {
		if math.Abs(cand) > 90+1e-10 {
			continue
		}
		if math.IsNaN(best) || math.Abs(cand-latpole) < math.Abs(best-latpole) {
			best = cand
		}
	}
	if math.IsNaN(best) {
		return nil, fmt.Errorf("%w: native pole latitude out of range", ErrCelestial)
	}
	c.deltaP = best

	switch {
	case math.Abs(c.deltaP-90) < 1e-10:
		c.alphaP = alpha0 + lonpole - phi0 - 180
	case math.Abs(c.deltaP+90) < 1e-10:
		c.alphaP = alpha0 - lonpole + phi0
	case math.Abs(cosd(delta0)) < 1e-10:
		c.alphaP = alpha0
	default:
		c.alphaP = alpha0 - atan2d(
			sind(dphi)*cosd(theta0)/cosd(delta0),
			(sind(theta0)-sind(c.deltaP)*sind(delta0))/(cosd(c.deltaP)*cosd(delta0)),
		)
	}
	return c, nil
}

// toWorld converts intermediate plane coordinates (degrees) to celestial
// longitude and latitude.
func (c *celestial) toWorld(x, y float64) (float64, float64, error) {
	phi, theta, err := c.proj.toNative(x, y)
	if err != nil {
		return 0, 0, err
	}

	dphi := phi - c.phiP
	x, y, z := rotate(theta, dphi, c.deltaP)
	return normalize360(c.alphaP + atan2d(y, x)), latitude(x, y, z), nil
}

// toPlane converts celestial longitude and latitude to intermediate
// plane coordinates.
func (c *celestial) toPlane(alpha, delta float64) (float64, float64, error) {
	dalpha := alpha - c.alphaP
	x, y, z := rotate(delta, dalpha, c.deltaP)
	return c.proj.fromNative(normalize180(c.phiP+atan2d(y, x)), latitude(x, y, z))
}

// rotate expresses the direction at latitude lat and longitude offset dlng
// in the frame whose pole has latitude poleLat. z is the sine of the new
// latitude and (x, y) its cosine split along the longitude.
func rotate(lat, dlng, poleLat float64) (x, y, z float64) {
	x = sind(lat)*cosd(poleLat) - cosd(lat)*sind(poleLat)*cosd(dlng)
	y = -cosd(lat) * sind(dlng)
	z = sind(lat)*sind(poleLat) + cosd(lat)*cosd(poleLat)*cosd(dlng)
	return x, y, z
}

// latitude is asin(z) without the precision loss of asin near the poles.
func latitude(x, y, z float64) float64 {
	return atan2d(z, math.Hypot(x, y))
}
