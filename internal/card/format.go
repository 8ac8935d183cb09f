package card

import (
	"strings"
)

// Format renders c as an 80-byte record. Numeric values are right-aligned
// in columns 11-30; string values are quoted starting at column 11.
func Format(c Card) string {
	var b strings.Builder
	b.Grow(RecordSize)

	switch {
	case c.Free:
		b.WriteString(pad(c.Base(), 8))
		b.WriteString(c.Value)
	default:
		b.WriteString(pad(c.Key, 8))
		b.WriteString("= ")
		if c.Quoted {
			b.WriteString("'")
			b.WriteString(pad(strings.ReplaceAll(c.Value, "'", "''"), 8))
			b.WriteString("'")
		} else {
			b.WriteString(strings.Repeat(" ", max(0, 20-len(c.Value))))
			b.WriteString(c.Value)
		}
		if c.Comment != "" {
			b.WriteString(" / ")
			b.WriteString(c.Comment)
		}
	}

	s := b.String()
	if len(s) > RecordSize {
		return s[:RecordSize]
	}
	return pad(s, RecordSize)
}

// End returns the END record.
func End() string {
	return pad(KeyEnd, RecordSize)
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
