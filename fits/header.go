package fits

import (
	"fmt"
	"sort"
	"strings"

	"github.com/robert-malhotra/go-fitscube/internal/card"
	"github.com/robert-malhotra/go-fitscube/internal/conv"
)

// Undefined is the value of a keyword that is neither in the file nor
// given a default.
const Undefined = "UNDEFINED"

// KeyPrefix namespaces HeaderMap keys.
const KeyPrefix = "fits."

// Optional is a numeric keyword that may be undefined.
type Optional[T conv.Number] struct {
	Value T
	Valid bool
}

// Some returns a defined Optional.
func Some[T conv.Number](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

// Or returns the value, or def when undefined.
func (o Optional[T]) Or(def T) T {
	if !o.Valid {
		return def
	}
	return o.Value
}

func (o Optional[T]) String() string {
	if !o.Valid {
		return Undefined
	}
	return conv.Format(o.Value)
}

// Axis describes one data axis.
type Axis struct {
	Size  int
	CRPIX float64
	CRVAL float64
	CDELT float64
	CROTA float64
	CUNIT string
	CTYPE string
}

// Beam is the restoring beam in degrees. Source names where the values
// came from: "header" or a legacy recovery strategy.
type Beam struct {
	Major  Optional[float64]
	Minor  Optional[float64]
	PA     Optional[float64]
	Source string
}

// Complete reports whether all three beam parameters are defined.
func (b Beam) Complete() bool {
	return b.Major.Valid && b.Minor.Valid && b.PA.Valid
}

// Keyword is a header card kept verbatim.
type Keyword struct {
	Key     string
	Value   string
	Comment string
	Quoted  bool

	// Free marks COMMENT and HISTORY text; Key carries a counter suffix.
	Free bool
}

// Header is the normalized primary header.
type Header struct {
	Axes []Axis

	Bitpix  int
	Bscale  float64
	Bzero   float64
	Blank   Optional[int64]
	DataMin Optional[float64]
	DataMax Optional[float64]
	DataSum string

	RestFreq Optional[float64]
	Beam     Beam

	Bunit     string
	Btype     string
	Object    string
	Telescope string
	Observer  string
	DateObs   string
	Equinox   Optional[float64]
	SpecSys   string
	VelRef    Optional[int]
	CellScal  string

	Role Role

	// Extras holds every other card in file order.
	Extras []Keyword
}

// Naxis returns the number of axes after degenerate axes were removed.
func (h *Header) Naxis() int {
	return len(h.Axes)
}

// Extra returns the value of the first extra card named key.
func (h *Header) Extra(key string) (string, bool) {
	for _, k := range h.Extras {
		if k.Key == key {
			return k.Value, true
		}
	}
	return "", false
}

// History returns the payloads of COMMENT and HISTORY cards in order.
func (h *Header) History() []string {
	var out []string
	for _, k := range h.Extras {
		if k.Free {
			out = append(out, k.Value)
		}
	}
	return out
}

// entry is one key/value pair of the rendered header. Undefined entries
// appear in the HeaderMap but are left out of card text.
type entry struct {
	key     string
	value   string
	quoted  bool
	comment string
}

func num[T conv.Number](key string, v T) entry {
	return entry{key: key, value: conv.Format(v)}
}

func opt[T conv.Number](key string, v Optional[T]) entry {
	return entry{key: key, value: v.String()}
}

func str(key, v string) entry {
	return entry{key: key, value: v, quoted: true}
}

// entries renders the typed header in canonical order.
func (h *Header) entries() []entry {
	out := []entry{
		num("NAXIS", len(h.Axes)),
	}
	for i, a := range h.Axes {
		n := i + 1
		out = append(out,
			num(fmt.Sprintf("NAXIS%d", n), a.Size),
			str(fmt.Sprintf("CTYPE%d", n), a.CTYPE),
			str(fmt.Sprintf("CUNIT%d", n), a.CUNIT),
			num(fmt.Sprintf("CRPIX%d", n), a.CRPIX),
			num(fmt.Sprintf("CRVAL%d", n), a.CRVAL),
			num(fmt.Sprintf("CDELT%d", n), a.CDELT),
			num(fmt.Sprintf("CROTA%d", n), a.CROTA),
		)
	}
	out = append(out,
		num("BITPIX", h.Bitpix),
		num("BSCALE", h.Bscale),
		num("BZERO", h.Bzero),
		opt("DATAMIN", h.DataMin),
		opt("DATAMAX", h.DataMax),
		opt("RESTFRQ", h.RestFreq),
		opt("BMAJ", h.Beam.Major),
		opt("BMIN", h.Beam.Minor),
		opt("BPA", h.Beam.PA),
		str("BUNIT", h.Bunit),
		str("BTYPE", h.Btype),
		str("OBJECT", h.Object),
		str("TELESCOP", h.Telescope),
		str("OBSERVER", h.Observer),
		str("DATE-OBS", h.DateObs),
		opt("EQUINOX", h.Equinox),
		str("CELLSCAL", h.CellScal),
		str("ROLE", string(h.Role)),
	)
	if h.Blank.Valid {
		out = append(out, opt("BLANK", h.Blank))
	}
	if h.DataSum != "" {
		out = append(out, str("DATASUM", h.DataSum))
	}
	if h.SpecSys != "" {
		out = append(out, str("SPECSYS", h.SpecSys))
	}
	if h.VelRef.Valid {
		out = append(out, opt("VELREF", h.VelRef))
	}
	for _, k := range h.Extras {
		out = append(out, entry{key: k.Key, value: k.Value, quoted: k.Quoted, comment: k.Comment})
	}
	return out
}

// HeaderMap is the header as namespaced key/value strings.
type HeaderMap map[string]string

// Get returns the value of keyword key.
func (m HeaderMap) Get(key string) (string, bool) {
	v, ok := m[KeyPrefix+key]
	return v, ok
}

// Keys returns the map keys in sorted order.
func (m HeaderMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map renders h as a HeaderMap. Every normalized keyword is present,
// undefined ones with the value Undefined.
func (h *Header) Map() HeaderMap {
	m := HeaderMap{}
	for _, e := range h.entries() {
		m[KeyPrefix+e.key] = e.value
	}
	return m
}

// cardText renders h as header records for the coordinate system parser.
// Undefined values and free text are left out.
func (h *Header) cardText() string {
	var b strings.Builder
	b.WriteString(card.Format(card.Card{Key: "SIMPLE", Value: "T"}))
	for _, e := range h.entries() {
		if e.value == Undefined || strings.HasPrefix(e.key, card.KeyComment) || strings.HasPrefix(e.key, card.KeyHistory) {
			continue
		}
		b.WriteString(card.Format(card.Card{Key: e.key, Value: e.value, Quoted: e.quoted, Comment: e.comment}))
	}
	b.WriteString(card.End())
	return b.String()
}
