// Package metrics is the import-cycle-breaking indirection between
// pkg/svf/pkg/svfs and their Prometheus-backed instrumentation in
// pkg/metrics/prometheus.
//
// pkg/svf deliberately stays dependency-free (SPEC_FULL.md §10), so it
// only knows about the svf.Metrics interface. This package owns the
// shared *prometheus.Registry and the enabled flag; pkg/metrics/prometheus
// registers its constructor here via an init() function so that importing
// it for side effect (as cmd/svfsd does) is enough to wire everything up.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	enabled  bool
	registry *prometheus.Registry
)

// InitRegistry enables metrics collection and creates the shared
// registry. Safe to call more than once; later calls are no-ops once a
// registry already exists.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	enabled = true
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// GetRegistry returns the shared registry, creating it (without enabling
// collection) if it does not yet exist. Metrics constructors call this to
// register their collectors regardless of whether collection is enabled;
// IsEnabled is what actually gates whether a collector is instantiated.
func GetRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return registry
}
