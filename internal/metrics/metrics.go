package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Kind labels whether a terminated process was spawned directly or found as
// a descendant.
const (
	KindChild      = "child"
	KindDescendant = "descendant"
)

var (
	registry = prometheus.NewRegistry()

	processesSpawned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sma",
		Name:      "processes_spawned_total",
		Help:      "Total number of processes spawned.",
	})

	spawnFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sma",
		Name:      "spawn_failures_total",
		Help:      "Total number of commands the operating system refused to start.",
	})

	processesKilled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sma",
		Name:      "processes_killed_total",
		Help:      "Total number of processes terminated during teardown.",
	}, []string{"kind"})

	killFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sma",
		Name:      "kill_failures_total",
		Help:      "Total number of failed termination attempts.",
	}, []string{"kind"})

	scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sma",
		Name:      "process_scan_duration_seconds",
		Help:      "Time taken to enumerate the host process table.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sma",
		Name:      "build_info",
		Help:      "Build metadata for the running sma binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(processesSpawned, spawnFailures, processesKilled, killFailures, scanDuration, buildInfo)
}

// Registry returns the Prometheus registry containing all sma metrics.
func Registry() *prometheus.Registry {
	return registry
}

// IncrementSpawned counts a successfully spawned process.
func IncrementSpawned() {
	processesSpawned.Inc()
}

// IncrementSpawnFailure counts a command that failed to start.
func IncrementSpawnFailure() {
	spawnFailures.Inc()
}

// IncrementKilled counts a terminated process of the given kind.
func IncrementKilled(kind string) {
	processesKilled.WithLabelValues(kind).Inc()
}

// IncrementKillFailure counts a failed termination of the given kind.
func IncrementKillFailure(kind string) {
	killFailures.WithLabelValues(kind).Inc()
}

// ObserveScanDuration records how long a process table scan took.
func ObserveScanDuration(d time.Duration) {
	scanDuration.Observe(d.Seconds())
}

// WriteFile writes the registry in the Prometheus text format to path,
// suitable for a node exporter textfile collector.
func WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
