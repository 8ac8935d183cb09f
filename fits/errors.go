package fits

import (
	"errors"

	"github.com/robert-malhotra/go-fitscube/internal/hdu"
)

// Rejection errors. A file failing with any of these yields no Cube.
var (
	ErrNotFITS           = hdu.ErrNotFITS
	ErrMissingNaxis      = errors.New("missing axis count")
	ErrTooManyAxes       = errors.New("more than 3 data axes")
	ErrPolarization      = errors.New("polarization axis not supported")
	ErrUnsupportedBitpix = errors.New("unsupported BITPIX")
	ErrUnsupportedRole   = errors.New("unsupported data role")
	ErrDataTooLarge      = errors.New("data unit too large")
)

// ErrTruncated is returned by Load when the file ends inside the data unit.
var ErrTruncated = errors.New("data unit truncated")

// Spectral correction errors. These are logged, never returned by Open.
var (
	ErrNoVelocity = errors.New("no reference velocity")
	ErrNoRestFreq = errors.New("no rest frequency")
)

// Usage errors.
var (
	ErrClosed    = errors.New("cube is closed")
	ErrNotLoaded = errors.New("pixel data not loaded")
)
