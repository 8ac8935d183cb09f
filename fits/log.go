package fits

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func normaliseWriters(writers ...zapcore.WriteSyncer) zapcore.WriteSyncer {
	switch len(writers) {
	case 0:
		return zapcore.AddSync(io.Discard)
	case 1:
		return writers[0]
	}
	return zapcore.NewMultiWriteSyncer(writers...)
}

var encoderConfig = zapcore.EncoderConfig{
	MessageKey:     "msg",
	LevelKey:       "level",
	NameKey:        "logger",
	TimeKey:        "ts",
	EncodeLevel:    zapcore.LowercaseLevelEncoder,
	EncodeTime:     zapcore.ISO8601TimeEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
}

// NewJSONLogger creates a logger writing JSON lines at level and above.
func NewJSONLogger(level zapcore.Level, writers ...zapcore.WriteSyncer) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), normaliseWriters(writers...), level)
	return zap.New(core)
}

// NewConsoleLogger creates a logger writing human-readable lines at level
// and above.
func NewConsoleLogger(level zapcore.Level, writers ...zapcore.WriteSyncer) *zap.Logger {
	cfg := encoderConfig
	cfg.EncodeLevel = zapcore.LowercaseColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), normaliseWriters(writers...), level)
	return zap.New(core)
}

// Diagnostic is one entry of the trail recorded while reading a cube.
type Diagnostic struct {
	Level   zapcore.Level
	Stage   string
	Message string
	Fields  map[string]any
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", d.Level, d.Stage, d.Message)

	keys := make([]string, 0, len(d.Fields))
	for k := range d.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, d.Fields[k])
	}
	return b.String()
}

// trail records degraded conditions and forwards them to the logger.
type trail struct {
	log     *zap.Logger
	entries []Diagnostic
}

func newTrail(l *zap.Logger) *trail {
	return &trail{log: l}
}

func (t *trail) warn(stage, msg string, fields ...zap.Field) {
	t.record(zapcore.WarnLevel, stage, msg, fields)
}

func (t *trail) info(stage, msg string, fields ...zap.Field) {
	t.record(zapcore.InfoLevel, stage, msg, fields)
}

func (t *trail) record(level zapcore.Level, stage, msg string, fields []zap.Field) {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	t.entries = append(t.entries, Diagnostic{
		Level:   level,
		Stage:   stage,
		Message: msg,
		Fields:  enc.Fields,
	})

	if ce := t.log.Check(level, msg); ce != nil {
		ce.Write(append(fields, zap.String("stage", stage))...)
	}
}
