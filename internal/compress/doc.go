// Package compress detects and unwraps compressed FITS containers.
//
// Archives commonly distribute cubes as whole-file compressed streams
// (cube.fits.gz). The container is identified by its leading magic bytes,
// not by file extension, so a misnamed file still opens.
//
// # Supported Containers
//
//   - gzip (1f 8b) via [Gzip], using github.com/klauspost/compress/gzip.
//   - Zstandard (28 b5 2f fd) via [Zstd], using github.com/klauspost/compress/zstd.
//   - LZ4 frame (04 22 4d 18) via [LZ4], using github.com/pierrec/lz4/v4.
//
// # Access Patterns
//
// Header inspection only needs a sequential stream, provided by [Open].
// Pixel loading needs random access, so [Extract] decompresses into a
// temporary file that the caller must release with [Extracted.Cleanup]
// on every exit path.
package compress
