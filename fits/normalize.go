package fits

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/robert-malhotra/go-fitscube/internal/card"
	"github.com/robert-malhotra/go-fitscube/internal/conv"
	"github.com/robert-malhotra/go-fitscube/internal/dtype"
)

const stageNormalize = "normalize"

// maxAxes is the largest axis count accepted before squeezing.
const maxAxes = 4

// cardSet is a header indexed by keyword. Lookups mark keywords as
// consumed; whatever is left becomes Header.Extras.
type cardSet struct {
	cards    []card.Card
	first    map[string]int
	consumed map[string]bool
}

func newCardSet(cards []card.Card) *cardSet {
	cs := &cardSet{
		cards:    cards,
		first:    make(map[string]int, len(cards)),
		consumed: map[string]bool{},
	}
	for i, c := range cards {
		if _, seen := cs.first[c.Key]; !seen {
			cs.first[c.Key] = i
		}
	}
	return cs
}

func (cs *cardSet) lookup(key string) (card.Card, bool) {
	cs.consumed[key] = true
	i, ok := cs.first[key]
	if !ok {
		return card.Card{}, false
	}
	return cs.cards[i], true
}

// axisKey matches keywords that belong to a single numbered axis.
var axisKey = regexp.MustCompile(`^(?:NAXIS|CTYPE|CUNIT|CRPIX|CRVAL|CDELT|CROTA|CRDER|CSYER|DRVAL|DUNIT)([1-9])[A-Z]?$|^(?:PC|CD)([1-9])_([1-9])[A-Z]?$|^P[VS]([1-9])_[0-9]+[A-Z]?$`)

// onAxisAbove reports whether key describes an axis numbered above n.
func onAxisAbove(key string, n int) bool {
	m := axisKey.FindStringSubmatch(key)
	if m == nil {
		return false
	}
	for _, g := range m[1:] {
		if g != "" && int(g[0]-'0') > n {
			return true
		}
	}
	return false
}

// normalizer turns tokenized cards into a Header, filling defaults.
type normalizer struct {
	cs *cardSet
	tr *trail
	h  *Header
}

// normalize validates the axis layout and fills every keyword later
// stages rely on. name is the file base name, used to infer the role
// when neither override nor ROLE keyword sets it.
func normalize(cards []card.Card, name string, override Role, tr *trail) (*Header, error) {
	n := &normalizer{cs: newCardSet(cards), tr: tr, h: &Header{}}

	if err := n.axes(); err != nil {
		return nil, err
	}
	if err := n.data(); err != nil {
		return nil, err
	}
	n.metadata()
	if err := n.role(name, override); err != nil {
		return nil, err
	}
	n.extras()

	if !n.h.Beam.Complete() {
		recoverBeam(n.h, tr)
	}
	return n.h, nil
}

func (n *normalizer) axes() error {
	c, ok := n.cs.lookup("NAXIS")
	if !ok {
		return ErrMissingNaxis
	}
	count, err := conv.Parse[int](c.Value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingNaxis, err)
	}
	switch {
	case count <= 0:
		return fmt.Errorf("%w: NAXIS = %d declares no data", ErrMissingNaxis, count)
	case count > maxAxes:
		return fmt.Errorf("%w: NAXIS = %d", ErrTooManyAxes, count)
	}

	sizes := make([]int, count)
	for i := range sizes {
		key := fmt.Sprintf("NAXIS%d", i+1)
		c, ok := n.cs.lookup(key)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingNaxis, key)
		}
		sizes[i], err = conv.Parse[int](c.Value)
		if err != nil || sizes[i] < 0 {
			return fmt.Errorf("%w: %s = %q", ErrMissingNaxis, key, c.Value)
		}
		if sizes[i] == 0 {
			return fmt.Errorf("%w: %s = 0 declares no data", ErrMissingNaxis, key)
		}
	}

	for len(sizes) > 1 && sizes[len(sizes)-1] == 1 {
		n.tr.info(stageNormalize, "dropped degenerate axis", zap.Int("axis", len(sizes)))
		sizes = sizes[:len(sizes)-1]
	}
	if len(sizes) == maxAxes {
		return fmt.Errorf("%w: NAXIS4 = %d", ErrPolarization, sizes[3])
	}

	// The coordinate description follows the squeezed axes; WCSAXES would
	// otherwise bring the dropped ones back.
	if c, ok := n.cs.lookup("WCSAXES"); ok {
		if v, err := conv.Parse[int](c.Value); err != nil || v != len(sizes) {
			n.tr.info(stageNormalize, "WCSAXES replaced by axis count",
				zap.String("raw", c.Value), zap.Int("naxis", len(sizes)))
		}
	}

	n.h.Axes = make([]Axis, len(sizes))
	for i, size := range sizes {
		n.h.Axes[i] = n.axis(i, size)
	}
	return nil
}

func (n *normalizer) axis(i, size int) Axis {
	j := i + 1
	a := Axis{
		Size:  size,
		CRPIX: n.float(fmt.Sprintf("CRPIX%d", j), 0),
		CRVAL: n.float(fmt.Sprintf("CRVAL%d", j), 0),
		CDELT: n.float(fmt.Sprintf("CDELT%d", j), 1),
		CROTA: n.float(fmt.Sprintf("CROTA%d", j), 0),
		CTYPE: n.str(fmt.Sprintf("CTYPE%d", j), Undefined),
	}

	unit := "deg"
	if i == 2 {
		unit = "km/s"
		if strings.HasPrefix(a.CTYPE, "FREQ") {
			unit = "Hz"
		}
	}
	a.CUNIT = n.str(fmt.Sprintf("CUNIT%d", j), unit)
	return a
}

func (n *normalizer) data() error {
	h := n.h

	h.Bitpix = 32
	if c, ok := n.cs.lookup("BITPIX"); ok {
		v, err := conv.Parse[int](c.Value)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrUnsupportedBitpix, c.Value)
		}
		h.Bitpix = v
	} else {
		n.defaulted("BITPIX", "32")
	}

	h.Bscale = n.float("BSCALE", 1)
	h.Bzero = n.float("BZERO", 0)
	h.Blank = optional[int64](n, "BLANK", false)
	if h.Blank.Valid && !dtype.Kind(h.Bitpix).Integer() {
		n.tr.warn(stageNormalize, "BLANK ignored for floating-point data",
			zap.Int("bitpix", h.Bitpix), zap.Int64("blank", h.Blank.Value))
		h.Blank = Optional[int64]{}
	}
	h.DataMin = optional[float64](n, "DATAMIN", true)
	h.DataMax = optional[float64](n, "DATAMAX", true)
	if c, ok := n.cs.lookup("DATASUM"); ok {
		h.DataSum = c.Value
	}
	return nil
}

func (n *normalizer) metadata() {
	h := n.h

	h.RestFreq = optional[float64](n, "RESTFRQ", false)
	if !h.RestFreq.Valid {
		h.RestFreq = optional[float64](n, "RESTFREQ", true)
	}

	h.Beam.Major = optional[float64](n, "BMAJ", true)
	h.Beam.Minor = optional[float64](n, "BMIN", true)
	h.Beam.PA = optional[float64](n, "BPA", true)
	if h.Beam.Complete() {
		h.Beam.Source = "header"
	}

	h.Bunit = n.str("BUNIT", Undefined)
	h.Btype = n.str("BTYPE", Undefined)
	h.Object = n.str("OBJECT", Undefined)
	h.Telescope = n.str("TELESCOP", Undefined)
	h.Observer = n.str("OBSERVER", Undefined)
	h.DateObs = n.str("DATE-OBS", Undefined)

	h.Equinox = optional[float64](n, "EQUINOX", false)
	if !h.Equinox.Valid {
		h.Equinox = optional[float64](n, "EPOCH", true)
	}

	if c, ok := n.cs.lookup("SPECSYS"); ok {
		h.SpecSys = strings.TrimSpace(c.Value)
	}
	h.VelRef = optional[int](n, "VELREF", false)
	h.CellScal = n.str("CELLSCAL", "CONSTANT")
}

func (n *normalizer) role(name string, override Role) error {
	c, ok := n.cs.lookup("ROLE")
	switch {
	case override != "":
		r, err := ParseRole(string(override))
		if err != nil {
			return err
		}
		n.h.Role = r
	case ok:
		r, err := ParseRole(c.Value)
		if err != nil {
			return err
		}
		n.h.Role = r
	default:
		n.h.Role = InferRole(name)
		n.tr.info(stageNormalize, "role inferred from file name",
			zap.String("file", name), zap.String("role", string(n.h.Role)))
	}
	return nil
}

// extras keeps unconsumed cards, dropping those of squeezed axes.
func (n *normalizer) extras() {
	naxis := len(n.h.Axes)
	for _, c := range n.cs.cards {
		if n.cs.consumed[c.Key] || c.Key == "SIMPLE" {
			continue
		}
		if onAxisAbove(c.Key, naxis) {
			continue
		}
		n.h.Extras = append(n.h.Extras, Keyword{
			Key:     c.Key,
			Value:   c.Value,
			Comment: c.Comment,
			Quoted:  c.Quoted,
			Free:    c.Free,
		})
	}
}

func (n *normalizer) defaulted(key, value string) {
	n.tr.warn(stageNormalize, "keyword missing, using default",
		zap.String("key", key), zap.String("value", value))
}

func (n *normalizer) float(key string, def float64) float64 {
	c, ok := n.cs.lookup(key)
	if !ok {
		n.defaulted(key, conv.Format(def))
		return def
	}
	v, err := conv.Parse[float64](c.Value)
	if err != nil {
		n.tr.warn(stageNormalize, "malformed value, using default",
			zap.String("key", key), zap.String("raw", c.Value), zap.Float64("value", def))
		return def
	}
	return v
}

func (n *normalizer) str(key, def string) string {
	c, ok := n.cs.lookup(key)
	if !ok || strings.TrimSpace(c.Value) == "" {
		n.defaulted(key, def)
		return def
	}
	return strings.TrimSpace(c.Value)
}

// optional reads a numeric keyword that may stay undefined. warn selects
// whether absence is reported.
func optional[T conv.Number](n *normalizer, key string, warn bool) Optional[T] {
	c, ok := n.cs.lookup(key)
	if !ok {
		if warn {
			n.defaulted(key, Undefined)
		}
		return Optional[T]{}
	}
	v, err := conv.Parse[T](c.Value)
	if err != nil {
		n.tr.warn(stageNormalize, "malformed value, left undefined",
			zap.String("key", key), zap.String("raw", c.Value))
		return Optional[T]{}
	}
	return Some(v)
}
