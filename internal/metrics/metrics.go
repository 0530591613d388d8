// Package metrics provides Prometheus metrics for whitebox.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names use the whitebox_ prefix.
const (
	Namespace = "whitebox"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	// BuildInfo exposes version information as labels on a constant gauge.
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "build_info",
			Help:      "Build information for whitebox.",
		},
		[]string{"version", "go_version"},
	)

	// RemoteCommandsTotal counts remote command executions.
	RemoteCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "remote_commands_total",
			Help:      "Total number of remote commands executed.",
		},
		[]string{"client", "result"},
	)

	// RemoteCommandDuration observes how long remote commands take,
	// connection setup included.
	RemoteCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "remote_command_duration_seconds",
			Help:      "Duration of remote command executions in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"client"},
	)

	// DiscoveriesTotal counts database connection discoveries.
	DiscoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "discoveries_total",
			Help:      "Total number of database connection discoveries.",
		},
		[]string{"strategy", "result"},
	)
)

// SetBuildInfo sets the build info gauge.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// ObserveCommand records one remote command execution.
func ObserveCommand(client string, err error, duration time.Duration) {
	RemoteCommandsTotal.WithLabelValues(client, result(err)).Inc()
	RemoteCommandDuration.WithLabelValues(client).Observe(duration.Seconds())
}

// ObserveDiscovery records one connection discovery attempt.
func ObserveDiscovery(strategy string, err error) {
	DiscoveriesTotal.WithLabelValues(strategy, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
