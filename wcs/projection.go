package wcs

import (
	"fmt"
	"math"
)

// projection maps native spherical coordinates (phi, theta) to the plane.
// All angles and plane coordinates are in degrees.
type projection interface {
	code() string
	theta0() float64
	toNative(x, y float64) (phi, theta float64, err error)
	fromNative(phi, theta float64) (x, y float64, err error)
}

// projections maps algorithm codes to constructors taking the PVi_m
// parameters of the latitude axis.
var projections = map[string]func(pv map[int]float64) projection{
	"SIN": func(pv map[int]float64) projection { return orthographic{xi: pv[1], eta: pv[2]} },
	"TAN": func(map[int]float64) projection { return gnomonic{} },
	"ARC": func(map[int]float64) projection { return zenithalEquidistant{} },
	"STG": func(map[int]float64) projection { return stereographic{} },
	"ZEA": func(map[int]float64) projection { return zenithalEqualArea{} },
	"CAR": func(map[int]float64) projection { return plateCarree{} },
	"SFL": func(map[int]float64) projection { return sansonFlamsteed{} },
}

// zenithal projections share the polar form r(theta) with phi measured
// from the -y axis.
func zenithalPlane(phi, r float64) (float64, float64) {
	return r * sind(phi), -r * cosd(phi)
}

func zenithalPolar(x, y float64) (phi, r float64) {
	r = math.Hypot(x, y)
	if r == 0 {
		return 0, 0
	}
	return atan2d(x, -y), r
}

// orthographic is the orthographic projection, optionally slant (xi, eta).
type orthographic struct{ xi, eta float64 }

func (orthographic) code() string    { return "SIN" }
func (orthographic) theta0() float64 { return 90 }

func (p orthographic) fromNative(phi, theta float64) (float64, float64, error) {
	u := 1 - sind(theta)
	x := r0 * (cosd(theta)*sind(phi) + p.xi*u)
	y := -r0 * (cosd(theta)*cosd(phi) - p.eta*u)
	return x, y, nil
}

func (p orthographic) toNative(x, y float64) (float64, float64, error) {
	X, Y := x/r0, y/r0
	a := p.xi*p.xi + p.eta*p.eta + 1
	b := X*p.xi + Y*p.eta + 1
	c := X*X + Y*Y
	disc := b*b - a*c
	if disc < 0 {
		return 0, 0, fmt.Errorf("%w: SIN (%g, %g)", ErrDomain, x, y)
	}
	// Smaller root of a*u^2 - 2*b*u + c, in the form that avoids
	// cancellation when c is small.
	u := c / (b + math.Sqrt(disc))
	px, py := X-p.xi*u, Y-p.eta*u
	theta := atan2d(1-u, math.Hypot(px, py))
	if px == 0 && py == 0 {
		return 0, theta, nil
	}
	return atan2d(px, -py), theta, nil
}

// gnomonic is the gnomonic projection.
type gnomonic struct{}

func (gnomonic) code() string    { return "TAN" }
func (gnomonic) theta0() float64 { return 90 }

func (gnomonic) fromNative(phi, theta float64) (float64, float64, error) {
	if sind(theta) <= 0 {
		return 0, 0, fmt.Errorf("%w: TAN theta %g", ErrDomain, theta)
	}
	x, y := zenithalPlane(phi, r0*cosd(theta)/sind(theta))
	return x, y, nil
}

func (gnomonic) toNative(x, y float64) (float64, float64, error) {
	phi, r := zenithalPolar(x, y)
	return phi, atan2d(r0, r), nil
}

// zenithalEquidistant is the zenithal equidistant projection.
type zenithalEquidistant struct{}

func (zenithalEquidistant) code() string    { return "ARC" }
func (zenithalEquidistant) theta0() float64 { return 90 }

func (zenithalEquidistant) fromNative(phi, theta float64) (float64, float64, error) {
	x, y := zenithalPlane(phi, 90-theta)
	return x, y, nil
}

func (zenithalEquidistant) toNative(x, y float64) (float64, float64, error) {
	phi, r := zenithalPolar(x, y)
	if r > 180 {
		return 0, 0, fmt.Errorf("%w: ARC radius %g", ErrDomain, r)
	}
	return phi, 90 - r, nil
}

// stereographic is the stereographic projection.
type stereographic struct{}

func (stereographic) code() string    { return "STG" }
func (stereographic) theta0() float64 { return 90 }

func (stereographic) fromNative(phi, theta float64) (float64, float64, error) {
	if theta <= -90 {
		return 0, 0, fmt.Errorf("%w: STG theta %g", ErrDomain, theta)
	}
	x, y := zenithalPlane(phi, 2*r0*math.Tan((90-theta)/(2*r0)))
	return x, y, nil
}

func (stereographic) toNative(x, y float64) (float64, float64, error) {
	phi, r := zenithalPolar(x, y)
	return phi, 90 - 2*math.Atan(r/(2*r0))*r0, nil
}

// zenithalEqualArea is the zenithal equal-area projection.
type zenithalEqualArea struct{}

func (zenithalEqualArea) code() string    { return "ZEA" }
func (zenithalEqualArea) theta0() float64 { return 90 }

func (zenithalEqualArea) fromNative(phi, theta float64) (float64, float64, error) {
	x, y := zenithalPlane(phi, 2*r0*sind((90-theta)/2))
	return x, y, nil
}

func (zenithalEqualArea) toNative(x, y float64) (float64, float64, error) {
	phi, r := zenithalPolar(x, y)
	s := r / (2 * r0)
	if s > 1 {
		return 0, 0, fmt.Errorf("%w: ZEA radius %g", ErrDomain, r)
	}
	return phi, 90 - 2*asind(s), nil
}

// plateCarree is the plate carrée projection.
type plateCarree struct{}

func (plateCarree) code() string    { return "CAR" }
func (plateCarree) theta0() float64 { return 0 }

func (plateCarree) fromNative(phi, theta float64) (float64, float64, error) {
	return phi, theta, nil
}

func (plateCarree) toNative(x, y float64) (float64, float64, error) {
	if math.Abs(y) > 90 {
		return 0, 0, fmt.Errorf("%w: CAR y %g", ErrDomain, y)
	}
	return x, y, nil
}

// sansonFlamsteed is the Sanson-Flamsteed projection.
type sansonFlamsteed struct{}

func (sansonFlamsteed) code() string    { return "SFL" }
func (sansonFlamsteed) theta0() float64 { return 0 }

func (sansonFlamsteed) fromNative(phi, theta float64) (float64, float64, error) {
	return phi * cosd(theta), theta, nil
}

func (sansonFlamsteed) toNative(x, y float64) (float64, float64, error) {
	if math.Abs(y) > 90 {
		return 0, 0, fmt.Errorf("%w: SFL y %g", ErrDomain, y)
	}
	c := cosd(y)
	if c == 0 {
		return 0, y, nil
	}
	return x / c, y, nil
}
