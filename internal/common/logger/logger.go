package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes one JSON line per event: service, action, hostname and the
// caller supplied fields.
type Logger struct {
	service string
	z       *zap.Logger
}

var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// SetLevel changes the level of every logger built by New. Unknown names
// fall back to info.
func SetLevel(name string) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		lvl = zapcore.InfoLevel
	}
	level.SetLevel(lvl)
}

func New(service string) *Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.Lock(os.Stdout), level)
	return NewWithCore(service, core)
}

// NewWithCore builds a logger on top of an existing core, tests use it with
// an observer core.
func NewWithCore(service string, core zapcore.Core) *Logger {
	z := zap.New(core).With(
		zap.String("service", service),
		zap.String("hostname", hostname()),
	)
	return &Logger{service: service, z: z}
}

// With returns a child logger that always carries fields.
func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{service: l.service, z: l.z.With(toZap(fields)...)}
}

func (l *Logger) Info(action string, fields map[string]any) {
	l.z.Info(action, append(toZap(fields), zap.String("action", action))...)
}

func (l *Logger) Debug(action string, fields map[string]any) {
	l.z.Debug(action, append(toZap(fields), zap.String("action", action))...)
}

func (l *Logger) Warn(action string, fields map[string]any) {
	l.z.Warn(action, append(toZap(fields), zap.String("action", action))...)
}

func (l *Logger) Error(action string, err error, fields map[string]any) {
	zf := append(toZap(fields), zap.String("action", action))
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	l.z.Error(action, zf...)
}

func (l *Logger) Sync() error { return l.z.Sync() }

func toZap(fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+2)
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func hostname() string { h, _ := os.Hostname(); return h }
