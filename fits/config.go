package fits

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the reader configuration loaded from YAML.
type Config struct {
	Reader struct {
		// FillValue replaces blank and NaN samples.
		FillValue float64 `yaml:"fillValue"`

		// NativeOrigin places the volume at its physical origin.
		NativeOrigin bool `yaml:"nativeOrigin"`

		// TempDir receives decompressed copies; empty means os.TempDir.
		TempDir string `yaml:"tempDir"`

		// Role overrides role inference when set.
		Role string `yaml:"role"`
	} `yaml:"reader"`

	Log struct {
		// Level is one of debug, info, warn, error.
		Level string `yaml:"level"`

		// Format is console or json; empty disables logging.
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Log.Level = "warn"
	cfg.Log.Format = "console"
	return cfg
}

// LoadConfig loads configuration from a YAML file. A missing file yields
// the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Logger builds the logger described by the Log section, writing to
// standard error.
func (c *Config) Logger() (*zap.Logger, error) {
	if c.Log.Format == "" {
		return zap.NewNop(), nil
	}
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	out := zapcore.Lock(os.Stderr)
	switch c.Log.Format {
	case "console":
		return NewConsoleLogger(level, out), nil
	case "json":
		return NewJSONLogger(level, out), nil
	}
	return nil, fmt.Errorf("unknown log format %q", c.Log.Format)
}

// Options converts the configuration into Open options.
func (c *Config) Options() ([]Option, error) {
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithLogger(logger),
		WithFillValue(c.Reader.FillValue),
		WithTempDir(c.Reader.TempDir),
	}
	if c.Reader.NativeOrigin {
		opts = append(opts, WithNativeOrigin())
	}
	if c.Reader.Role != "" {
		r, err := ParseRole(c.Reader.Role)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithRole(r))
	}
	return opts, nil
}
