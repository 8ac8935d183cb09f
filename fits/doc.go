// Package fits reads astronomical datacubes stored in the primary HDU of a
// FITS file.
//
// Opening a file reads and normalizes its header, recovers beam metadata
// written by older reduction packages, rewrites legacy spectral axes, and
// builds a coordinate system, an extent and a 4x4 orientation matrix.
// Pixel data is only read when requested:
//
//	cube, err := fits.Open("ngc2403.fits.gz", fits.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer cube.Close()
//
//	px, err := cube.Load()
//
// Gzip, zstd and lz4 containers are decompressed transparently.
package fits
