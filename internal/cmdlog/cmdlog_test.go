package cmdlog

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"framecheck/internal/logging"
	"framecheck/internal/metrics"
)

func TestRunCountsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logging.SetLogger(zap.New(core))
	defer logging.SetLogger(nil)

	before := testutil.ToFloat64(metrics.CommandErrors.WithLabelValues("probe"))
	want := errors.New("nope")
	if err := Run("probe", func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected wrapped command error, got %v", err)
	}
	if got := testutil.ToFloat64(metrics.CommandErrors.WithLabelValues("probe")); got != before+1 {
		t.Fatalf("expected error counter to advance, got %v", got)
	}
	if logs.FilterMessage("probe_error").Len() != 1 {
		t.Fatalf("expected probe_error log entry")
	}
}

func TestRunLogsSuccess(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logging.SetLogger(zap.New(core))
	defer logging.SetLogger(nil)

	if err := Run("probe", func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	if logs.FilterMessage("probe_ok").Len() != 1 {
		t.Fatalf("expected probe_ok log entry")
	}
}
