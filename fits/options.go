package fits

import "go.uber.org/zap"

// Option configures Open.
type Option func(*options)

type options struct {
	logger       *zap.Logger
	nativeOrigin bool
	fill         float64
	tempDir      string
	role         Role
}

func defaultOptions() *options {
	return &options{
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger receiving the diagnostic trail.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNativeOrigin places the volume at the physical origin derived from
// the reference pixel instead of centering it.
func WithNativeOrigin() Option {
	return func(o *options) {
		o.nativeOrigin = true
	}
}

// WithFillValue sets the value stored for blank or NaN samples.
func WithFillValue(v float64) Option {
	return func(o *options) {
		o.fill = v
	}
}

// WithTempDir sets the directory for decompressed copies.
// The default is os.TempDir.
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithRole overrides the data role normally taken from the ROLE keyword
// or inferred from the file name.
func WithRole(r Role) Option {
	return func(o *options) {
		o.role = r
	}
}
