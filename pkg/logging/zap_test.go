package logging

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
)

func TestZapForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZap(zap.New(core)).With(logger.Field{Key: "project_id", Value: "12"})

	l.Warn("populator: provider failed",
		logger.Field{Key: "provider", Value: "zerobounce"},
		logger.Field{Key: "error", Value: errors.New("timeout")},
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel || e.Message != "populator: provider failed" {
		t.Fatalf("unexpected entry %+v", e)
	}
	ctx := e.ContextMap()
	if ctx["project_id"] != "12" || ctx["provider"] != "zerobounce" || ctx["error"] != "timeout" {
		t.Fatalf("unexpected fields %v", ctx)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"DEBUG": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNilZapIsNop(t *testing.T) {
	l := NewZap(nil)
	l.Info("ignored")
	if l.Zap() == nil {
		t.Fatalf("expected nop logger")
	}
}
