// Package card tokenizes FITS header records.
//
// A header is a sequence of fixed 80-byte records ("cards"). Value cards
// carry "KEYWORD = value / comment"; COMMENT and HISTORY cards carry free
// text in the 72 bytes after the keyword. The tokenizer turns records into
// [Card] values, numbering free-text cards so repeated keywords stay
// distinct (HISTORY0001, HISTORY0002, ...).
package card

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// RecordSize is the width of one header record in bytes.
const RecordSize = 80

// Reserved keywords.
const (
	KeyComment  = "COMMENT"
	KeyHistory  = "HISTORY"
	KeyContinue = "CONTINUE"
	KeyEnd      = "END"
)

// ErrTruncated is returned when the header is not a whole number of records.
var ErrTruncated = errors.New("header is not a multiple of 80-byte records")

// Card is one tokenized header record.
type Card struct {
	Key     string
	Value   string
	Comment string

	// Quoted reports whether Value came from a quoted string.
	Quoted bool

	// Free reports a COMMENT or HISTORY card; Value holds the payload
	// and Key carries the sequence suffix.
	Free bool
}

// Base returns the keyword without the sequence suffix of free-text cards.
func (c Card) Base() string {
	if !c.Free {
		return c.Key
	}
	return strings.TrimRight(c.Key, "0123456789")
}

// RecordError describes a record that was skipped.
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

var (
	fortranExponent = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)[Dd]([+-]?\d+)$`)
	validKeyword    = regexp.MustCompile(`^[A-Z0-9_-]+$`)
	unsafeText      = strings.NewReplacer(
		"'", "^",
		"%", "percent",
		"&", "and",
		"@", "at",
		"$", "dollar",
	)
)

// Tokenize splits raw header bytes into cards, stopping at END.
// Malformed records are skipped and reported in the returned slice of
// *RecordError; a header that is not record-aligned returns ErrTruncated.
func Tokenize(header []byte) ([]Card, []error, error) {
	if len(header)%RecordSize != 0 {
		return nil, nil, ErrTruncated
	}

	var (
		cards    []Card
		skipped  []error
		counters = map[string]int{}
	)

	for i := 0; i*RecordSize < len(header); i++ {
		rec := header[i*RecordSize : (i+1)*RecordSize]
		key := strings.TrimRight(string(rec[:8]), " ")

		switch {
		case key == KeyEnd:
			return cards, skipped, nil
		case key == "":
			continue
		case key == KeyComment || key == KeyHistory:
			counters[key]++
			cards = append(cards, Card{
				Key:   fmt.Sprintf("%s%04d", key, counters[key]),
				Value: unsafeText.Replace(strings.TrimRight(decodeText(rec[8:]), " ")),
				Free:  true,
			})
			continue
		case key == KeyContinue:
			if err := appendContinue(cards, rec); err != nil {
				skipped = append(skipped, &RecordError{Index: i, Err: err})
			}
			continue
		}

		c, err := parseValueCard(key, rec)
		if err != nil {
			skipped = append(skipped, &RecordError{Index: i, Err: err})
			continue
		}
		cards = append(cards, c)
	}

	return cards, skipped, nil
}

func parseValueCard(key string, rec []byte) (Card, error) {
	if !validKeyword.MatchString(key) {
		return Card{}, fmt.Errorf("invalid keyword %q", key)
	}
	if rec[8] != '=' || rec[9] != ' ' {
		return Card{}, fmt.Errorf("keyword %s has no value indicator", key)
	}

	c := Card{Key: key}
	field := decodeText(rec[10:])
	trimmed := strings.TrimLeft(field, " ")

	if strings.HasPrefix(trimmed, "'") {
		val, rest, err := parseString(trimmed[1:])
		if err != nil {
			return Card{}, fmt.Errorf("keyword %s: %w", key, err)
		}
		c.Value = val
		c.Quoted = true
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			c.Comment = strings.TrimSpace(rest[idx+1:])
		}
		return c, nil
	}

	val := field
	if idx := strings.IndexByte(field, '/'); idx >= 0 {
		val = field[:idx]
		c.Comment = strings.TrimSpace(field[idx+1:])
	}
	c.Value = rewriteExponent(strings.TrimSpace(val))
	return c, nil
}

// parseString reads a quoted string body. Two consecutive quotes encode a
// literal quote. Trailing blanks inside the quotes are not significant.
func parseString(s string) (value, rest string, err error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\'' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		return strings.TrimRight(b.String(), " "), s[i+1:], nil
	}
	return "", "", errors.New("unterminated string")
}

// appendContinue extends the previous long-string value. A string that
// continues ends with '&' before its closing quote.
func appendContinue(cards []Card, rec []byte) error {
	if len(cards) == 0 {
		return errors.New("CONTINUE without a preceding string")
	}
	prev := &cards[len(cards)-1]
	if !prev.Quoted || !strings.HasSuffix(prev.Value, "&") {
		return fmt.Errorf("CONTINUE after %s which does not continue", prev.Key)
	}

	body := strings.TrimLeft(decodeText(rec[8:]), " ")
	if !strings.HasPrefix(body, "'") {
		return errors.New("CONTINUE value is not a string")
	}
	val, rest, err := parseString(body[1:])
	if err != nil {
		return err
	}
	prev.Value = strings.TrimSuffix(prev.Value, "&") + val
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		prev.Comment = strings.TrimSpace(prev.Comment + " " + rest[idx+1:])
	}
	return nil
}

func rewriteExponent(v string) string {
	if !fortranExponent.MatchString(v) {
		return v
	}
	return strings.NewReplacer("D", "E", "d", "E").Replace(v)
}

// decodeText returns b as UTF-8. Header text is ASCII by definition, but
// some producers wrote Latin-1 into free text.
func decodeText(b []byte) string {
	for _, c := range b {
		if c > 0x7e {
			out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
			if err != nil {
				break
			}
			return string(out)
		}
	}
	return string(b)
}
