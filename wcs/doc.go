// Package wcs maps FITS pixel coordinates to world coordinates.
//
// A [System] is built from header text with [Parse]. It supports up to
// three axes: a celestial longitude/latitude pair, an optional spectral
// axis and plain linear axes.
//
// # Pipeline
//
// Pixel coordinates p (0-based here, 1-based in the header) are mapped
// through the linear transform
//
//	x = M (p + 1 - CRPIX)       M = diag(CDELT) * PC, or CD
//
// then celestial intermediate coordinates are deprojected to native
// spherical coordinates and rotated to celestial ones, and the spectral
// coordinate is translated to the requested spectral type.
//
// # Projections
//
// SIN (including the slant form used for NCP), TAN, ARC, STG, ZEA, CAR
// and SFL.
//
// # Consistency Fixes
//
// Parse repairs common non-standard usage and records what it changed
// (see [System.Fixes]): upper-case units, legacy DATE-OBS formats and
// MJD-OBS, AIPS spectral types (VELO-LSR, FELO-HEL, FREQ-OBS), and the
// NCP and GLS projections.
//
// # Spectral Axes
//
// Spectral values are held in SI units (Hz, m/s, m). [System.SetSpectralType]
// re-expresses the axis in another type, e.g. a frequency axis as optical
// velocity ("VOPT-F2W"), using the rest frequency.
package wcs
