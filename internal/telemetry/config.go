package telemetry

// Config holds OpenTelemetry tracing configuration for one process.
type Config struct {
	// Enabled indicates whether tracing is active.
	Enabled bool

	// ServiceName is reported to the trace backend as the resource's
	// service.name attribute.
	ServiceName string

	// ServiceVersion is the running build's version string.
	ServiceVersion string

	// Endpoint is the OTLP gRPC collector endpoint, e.g. "localhost:4317".
	Endpoint string

	// Insecure selects a non-TLS connection to the collector.
	Insecure bool

	// SampleRate is the trace sampling rate, 0.0 to 1.0.
	SampleRate float64
}

// DefaultConfig returns a disabled configuration suitable for local use.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "svfsd",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
