package instrumentation

import "os"

// Exporter identifies a metrics exporter backend.
type Exporter string

const (
	// ExporterPrometheus exposes metrics for Prometheus scraping.
	ExporterPrometheus Exporter = "prometheus"

	// ExporterStdout prints metrics to stdout (development only).
	ExporterStdout Exporter = "stdout"

	// ExporterNone disables metrics export.
	ExporterNone Exporter = "none"
)

// Config holds configuration for the instrumentation provider.
type Config struct {
	// Enabled determines whether any telemetry is collected.
	Enabled bool

	// ServiceName identifies this service in exported metrics.
	ServiceName string

	// ServiceVersion is the running build version.
	ServiceVersion string

	// MetricsExporter selects the exporter backend.
	MetricsExporter Exporter
}

// DefaultConfig returns the default instrumentation configuration.
// The exporter can be overridden via the METRICS_EXPORTER environment
// variable (prometheus, stdout, none).
func DefaultConfig() Config {
	exporter := ExporterPrometheus
	if v := os.Getenv("METRICS_EXPORTER"); v != "" {
		exporter = Exporter(v)
	}

	return Config{
		Enabled:         false,
		ServiceName:     "driveway",
		ServiceVersion:  "dev",
		MetricsExporter: exporter,
	}
}
