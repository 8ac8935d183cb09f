// Package dtype decodes FITS sample data into Go slices.
//
// FITS encodes the sample type in the BITPIX keyword:
//
//	BITPIX | Stored as          | Undefined sample
//	-------|--------------------|-----------------
//	     8 | uint8              | BLANK value
//	    16 | big-endian int16   | BLANK value
//	    32 | big-endian int32   | BLANK value
//	    64 | big-endian int64   | BLANK value
//	   -32 | IEEE 754 float32   | NaN
//	   -64 | IEEE 754 float64   | NaN
//
// Defined samples are scaled to physical values as BZERO + BSCALE*raw and
// converted to the requested output type (float32, float64 or int16).
// Undefined samples are replaced by a caller-supplied fill value and
// reported through a callback so the caller can keep a blank mask.
package dtype
