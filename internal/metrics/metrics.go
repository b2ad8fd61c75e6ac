package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Lookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "framecheck_lookups_total",
		Help: "Total interaction lookups by outcome",
	}, []string{"outcome"})
	LookupDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "framecheck_lookup_duration_seconds",
		Help:    "Interaction lookup duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "framecheck_api_retries_total",
		Help: "Total GraphQL API retry attempts",
	}, []string{"operation"})
	FramesRendered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "framecheck_frames_rendered_total",
		Help: "Frames rendered by screen and outcome",
	}, []string{"screen", "outcome"})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "framecheck_command_runs_total",
		Help: "CLI command runs",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "framecheck_command_errors_total",
		Help: "CLI command failures",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(Lookups, LookupDuration, APIRetries, FramesRendered, CommandRuns, CommandErrors)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveLookup records one finished lookup.
func ObserveLookup(outcome string, start time.Time) {
	Lookups.WithLabelValues(outcome).Inc()
	LookupDuration.Observe(time.Since(start).Seconds())
}

// IncAPIRetry increments the retry counter for a GraphQL operation.
func IncAPIRetry(operation string) { APIRetries.WithLabelValues(operation).Inc() }

func IncFrame(screen, outcome string) { FramesRendered.WithLabelValues(screen, outcome).Inc() }

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
