// Package conv provides string to number conversion for header values.
//
// Every conversion reports malformed input as an error instead of
// silently returning zero, so a corrupt numeric card is never mistaken
// for a legitimate 0.
package conv
