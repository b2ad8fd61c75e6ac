package logging

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoWritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	Info("lookup_done", map[string]any{"post": "0xabc", "viewer": "42"})
	Debug("dropped", nil)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["post"] != "0xabc" || ctx["viewer"] != "42" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
}

func TestErrorFieldKeepsMessage(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	Error("lookup_error", map[string]any{"error": errors.New("boom")})
	ctx := logs.All()[0].ContextMap()
	if ctx["error"] != "boom" {
		t.Fatalf("expected error message in fields, got %v", ctx["error"])
	}
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	if err := Init("loud", false); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
