package wcs

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/robert-malhotra/go-fitscube/internal/card"
	"github.com/robert-malhotra/go-fitscube/internal/conv"
)

// MaxAxes is the largest number of axes a System supports.
const MaxAxes = 3

// Errors
var (
	ErrNoAxes          = errors.New("no coordinate axes")
	ErrTooManyAxes     = errors.New("too many coordinate axes")
	ErrSingular        = errors.New("linear transformation matrix is singular")
	ErrDimension       = errors.New("coordinate dimension mismatch")
	ErrDomain          = errors.New("coordinate outside projection domain")
	ErrNoSpectralAxis  = errors.New("no spectral axis")
	ErrNoRestFreq      = errors.New("rest frequency required for spectral translation")
	ErrUnknownSpectral = errors.New("unknown spectral type")
	ErrCelestial       = errors.New("invalid celestial parameters")
)

// Axis describes one world coordinate axis.
type Axis struct {
	Type     string  // CTYPE
	Unit     string  // CUNIT
	RefPixel float64 // CRPIX, 1-based
	RefValue float64 // CRVAL
	Delta    float64 // CDELT
}

// System is a parsed world coordinate system.
type System struct {
	axes []Axis
	lin  *mat.Dense
	inv  *mat.Dense

	lng, lat, spec int
	cel            *celestial
	spectral       *spectral

	// RestFreq is the rest frequency in Hz, 0 when unknown.
	RestFreq float64
	// Equinox of the celestial frame, NaN when unknown.
	Equinox float64
	DateObs string
	SpecSys string
	VelRef  int

	fixes      []string
	alternates []string
}

var alternateKey = regexp.MustCompile(`^(CTYPE|CRVAL|CRPIX|CDELT|CUNIT)[1-9]([A-Z])$`)

// keywords is the first occurrence of each keyword in a header.
type keywords map[string]card.Card

func (k keywords) has(key string) bool {
	_, ok := k[key]
	return ok
}

func (k keywords) str(key string) string {
	return strings.TrimSpace(k[key].Value)
}

// float returns the value of key, or def when absent or malformed.
func (k keywords) float(key string, def float64) float64 {
	c, ok := k[key]
	if !ok {
		return def
	}
	return conv.ParseOr(c.Value, def)
}

// Parse builds a System from header text made of 80-byte records.
func Parse(header string) (*System, error) {
	cards, _, err := card.Tokenize([]byte(header))
	if err != nil {
		return nil, fmt.Errorf("tokenizing header: %w", err)
	}

	kw := keywords{}
	for _, c := range cards {
		if _, seen := kw[c.Key]; !seen {
			kw[c.Key] = c
		}
	}

	n := int(kw.float("WCSAXES", kw.float("NAXIS", 0)))
	switch {
	case n <= 0:
		return nil, ErrNoAxes
	case n > MaxAxes:
		return nil, fmt.Errorf("%w: %d", ErrTooManyAxes, n)
	}

	s := &System{
		axes:     make([]Axis, n),
		lng:      -1,
		lat:      -1,
		spec:     -1,
		RestFreq: kw.float("RESTFRQ", kw.float("RESTFREQ", 0)),
		Equinox:  kw.float("EQUINOX", kw.float("EPOCH", math.NaN())),
		DateObs:  kw.str("DATE-OBS"),
		SpecSys:  kw.str("SPECSYS"),
		VelRef:   int(kw.float("VELREF", 0)),
	}

	for i := range s.axes {
		j := i + 1
		s.axes[i] = Axis{
			Type:     strings.ToUpper(kw.str(fmt.Sprintf("CTYPE%d", j))),
			Unit:     kw.str(fmt.Sprintf("CUNIT%d", j)),
			RefPixel: kw.float(fmt.Sprintf("CRPIX%d", j), 0),
			RefValue: kw.float(fmt.Sprintf("CRVAL%d", j), 0),
			Delta:    kw.float(fmt.Sprintf("CDELT%d", j), 1),
		}
	}
	s.alternates = findAlternates(kw)

	pv := readPV(kw, n)
	s.fixUnits()
	s.fixDate(kw)
	s.fixSpectralAIPS()
	s.fixCelestial(pv)

	scale := s.identifyAxes()

	if err := s.buildLinear(kw, scale); err != nil {
		return nil, err
	}

	if s.lng >= 0 {
		lonpole := kw.float("LONPOLE", math.NaN())
		latpole := kw.float("LATPOLE", math.NaN())
		cel, err := newCelestial(s.axes[s.lng], s.axes[s.lat], pv[s.lat+1], lonpole, latpole)
		if err != nil {
			return nil, err
		}
		s.cel = cel
	}

	if s.spec >= 0 {
		sp, fix := newSpectral(s.axes[s.spec], s.RestFreq)
		if fix != "" {
			s.fixes = append(s.fixes, fix)
		}
		s.spectral = sp
	}

	return s, nil
}

// identifyAxes locates celestial and spectral axes and converts their
// units to degrees and SI. It returns the per-axis scale applied.
func (s *System) identifyAxes() []float64 {
	scale := make([]float64, len(s.axes))
	for i := range scale {
		scale[i] = 1
	}

	var lng, lat = -1, -1
	for i, a := range s.axes {
		switch {
		case isLongitude(a.Type):
			lng = i
		case isLatitude(a.Type):
			lat = i
		case s.spec < 0 && isSpectral(a.Type):
			s.spec = i
		}
	}

	if lng >= 0 && lat >= 0 {
		code := projectionCode(s.axes[lng].Type)
		if _, ok := projections[code]; ok && code == projectionCode(s.axes[lat].Type) {
			s.lng, s.lat = lng, lat
		} else {
			s.fixes = append(s.fixes, fmt.Sprintf("celfix: projection %q not supported, celestial axes treated as linear", code))
		}
	} else if lng >= 0 || lat >= 0 {
		s.fixes = append(s.fixes, "celfix: unpaired celestial axis treated as linear")
	}

	for _, i := range []int{s.lng, s.lat} {
		if i < 0 {
			continue
		}
		if f, ok := angularUnits[s.axes[i].Unit]; ok && f != 1 {
			scale[i] = f
			s.axes[i].Unit = "deg"
		}
	}

	if s.spec >= 0 {
		a := &s.axes[s.spec]
		if f, si, ok := spectralUnit(a.Type, a.Unit); ok {
			scale[s.spec] = f
			a.Unit = si
		} else {
			s.fixes = append(s.fixes, fmt.Sprintf("spcfix: unrecognized spectral unit %q, assuming SI", a.Unit))
			_, a.Unit, _ = spectralUnit(a.Type, "")
		}
	}

	for i, f := range scale {
		s.axes[i].RefValue *= f
		s.axes[i].Delta *= f
	}
	return scale
}

// buildLinear assembles M = diag(CDELT)*PC (or CD) and its inverse.
func (s *System) buildLinear(kw keywords, scale []float64) error {
	n := len(s.axes)
	m := mat.NewDense(n, n, nil)

	hasCD := false
	for i := 1; i <= n && !hasCD; i++ {
		for j := 1; j <= n; j++ {
			if kw.has(fmt.Sprintf("CD%d_%d", i, j)) {
				hasCD = true
				break
			}
		}
	}

	if hasCD {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				m.Set(i, j, kw.float(fmt.Sprintf("CD%d_%d", i+1, j+1), 0)*scale[i])
			}
			s.axes[i].Delta = m.At(i, i)
		}
	} else {
		pc := mat.NewDense(n, n, nil)
		hasPC := false
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				def := 0.0
				if i == j {
					def = 1
				}
				key := fmt.Sprintf("PC%d_%d", i+1, j+1)
				hasPC = hasPC || kw.has(key)
				pc.Set(i, j, kw.float(key, def))
			}
		}
		if !hasPC && s.lat >= 0 {
			s.applyCROTA(kw, pc)
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				m.Set(i, j, s.axes[i].Delta*pc.At(i, j))
			}
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	s.lin, s.inv = m, &inv
	return nil
}

// applyCROTA converts the legacy rotation keyword on the latitude axis
// into a PC matrix.
func (s *System) applyCROTA(kw keywords, pc *mat.Dense) {
	rho := kw.float(fmt.Sprintf("CROTA%d", s.lat+1), 0)
	if rho == 0 {
		return
	}
	dl, db := s.axes[s.lng].Delta, s.axes[s.lat].Delta
	if dl == 0 || db == 0 {
		return
	}
	sr, cr := sind(rho), cosd(rho)
	pc.Set(s.lng, s.lng, cr)
	pc.Set(s.lng, s.lat, -sr*db/dl)
	pc.Set(s.lat, s.lng, sr*dl/db)
	pc.Set(s.lat, s.lat, cr)
}

func findAlternates(kw keywords) []string {
	seen := map[string]bool{}
	for key := range kw {
		if m := alternateKey.FindStringSubmatch(key); m != nil {
			seen[m[2]] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var pvKey = regexp.MustCompile(`^PV([1-9])_([0-9]+)$`)

// readPV collects PVi_m keywords keyed by axis number (1-based).
func readPV(kw keywords, n int) map[int]map[int]float64 {
	pv := map[int]map[int]float64{}
	for key, c := range kw {
		m := pvKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		i, _ := conv.Parse[int](m[1])
		idx, _ := conv.Parse[int](m[2])
		v, err := conv.Parse[float64](c.Value)
		if err != nil || i > n {
			continue
		}
		if pv[i] == nil {
			pv[i] = map[int]float64{}
		}
		pv[i][idx] = v
	}
	return pv
}

// NAxis returns the number of axes.
func (s *System) NAxis() int {
	return len(s.axes)
}

// Axis returns the descriptor of axis i (0-based). The spectral axis is
// reported in its current spectral type.
func (s *System) Axis(i int) Axis {
	if i == s.spec && s.spectral != nil {
		return s.spectral.axis(s.axes[i])
	}
	return s.axes[i]
}

// Axes returns all axis descriptors.
func (s *System) Axes() []Axis {
	out := make([]Axis, len(s.axes))
	for i := range out {
		out[i] = s.Axis(i)
	}
	return out
}

// Celestial returns the longitude and latitude axis indices, or -1.
func (s *System) Celestial() (lng, lat int) {
	return s.lng, s.lat
}

// SpectralAxis returns the spectral axis index, or -1.
func (s *System) SpectralAxis() int {
	return s.spec
}

// Projection returns the celestial projection code, or "".
func (s *System) Projection() string {
	if s.cel == nil {
		return ""
	}
	return s.cel.proj.code()
}

// Fixes returns descriptions of the consistency fixes applied by Parse.
func (s *System) Fixes() []string {
	return s.fixes
}

// Alternates returns the letters of alternate descriptions present in the
// header. Only the primary description is used.
func (s *System) Alternates() []string {
	return s.alternates
}

// PixelToWorld converts 0-based pixel coordinates to world coordinates.
// Celestial values are in degrees, spectral values in SI units.
func (s *System) PixelToWorld(pixel []float64) ([]float64, error) {
	n := len(s.axes)
	if len(pixel) != n {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(pixel), n)
	}

	d := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		d.SetVec(i, pixel[i]+1-s.axes[i].RefPixel)
	}
	var x mat.VecDense
	x.MulVec(s.lin, d)

	world := make([]float64, n)
	for i := 0; i < n; i++ {
		world[i] = s.axes[i].RefValue + x.AtVec(i)
	}

	if s.cel != nil {
		ra, dec, err := s.cel.toWorld(x.AtVec(s.lng), x.AtVec(s.lat))
		if err != nil {
			return nil, err
		}
		world[s.lng], world[s.lat] = ra, dec
	}
	if s.spectral != nil {
		v, err := s.spectral.toWorld(x.AtVec(s.spec))
		if err != nil {
			return nil, err
		}
		world[s.spec] = v
	}
	return world, nil
}

// WorldToPixel converts world coordinates to 0-based pixel coordinates.
func (s *System) WorldToPixel(world []float64) ([]float64, error) {
	n := len(s.axes)
	if len(world) != n {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(world), n)
	}

	x := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x.SetVec(i, world[i]-s.axes[i].RefValue)
	}

	if s.cel != nil {
		px, py, err := s.cel.toPlane(world[s.lng], world[s.lat])
		if err != nil {
			return nil, err
		}
		x.SetVec(s.lng, px)
		x.SetVec(s.lat, py)
	}
	if s.spectral != nil {
		v, err := s.spectral.toIntermediate(world[s.spec])
		if err != nil {
			return nil, err
		}
		x.SetVec(s.spec, v)
	}

	var d mat.VecDense
	d.MulVec(s.inv, x)

	pixel := make([]float64, n)
	for i := 0; i < n; i++ {
		pixel[i] = d.AtVec(i) + s.axes[i].RefPixel - 1
	}
	return pixel, nil
}
