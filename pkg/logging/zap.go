// Package logging adapts go.uber.org/zap to the collector logger contract.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
)

// Zap forwards logger.Logger calls to a zap logger.
type Zap struct {
	z *zap.Logger
}

var _ logger.Logger = (*Zap)(nil)

// NewZap wraps z. A nil logger yields a no-op zap logger.
func NewZap(z *zap.Logger) *Zap {
	if z == nil {
		z = zap.NewNop()
	}
	return &Zap{z: z}
}

// NewProduction builds a JSON production logger at the given level
// ("debug", "info", "warn", "error"; defaults to info).
func NewProduction(level string) (*Zap, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	return NewZap(z), nil
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("logging: unknown level %q", level)
}

// Zap exposes the underlying logger.
func (l *Zap) Zap() *zap.Logger { return l.z }

// Sync flushes buffered entries.
func (l *Zap) Sync() error { return l.z.Sync() }

func (l *Zap) With(fields ...logger.Field) logger.Logger {
	return &Zap{z: l.z.With(toZap(fields)...)}
}

func (l *Zap) Debug(msg string, fields ...logger.Field) { l.z.Debug(msg, toZap(fields)...) }
func (l *Zap) Info(msg string, fields ...logger.Field)  { l.z.Info(msg, toZap(fields)...) }
func (l *Zap) Warn(msg string, fields ...logger.Field)  { l.z.Warn(msg, toZap(fields)...) }
func (l *Zap) Error(msg string, fields ...logger.Field) { l.z.Error(msg, toZap(fields)...) }

func toZap(fields []logger.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			out = append(out, zap.NamedError(f.Key, err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}
