package metrics

import "github.com/marmos91/dittofs/pkg/svf"

// NewSVFMetrics creates a new Prometheus-backed svf.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called). A nil
// svf.Metrics is safe to pass to svf.NewWithMetrics and svfs.New: every
// operation on the core checks for nil before reporting, so disabled
// metrics cost nothing beyond the check.
func NewSVFMetrics() svf.Metrics {
	if !IsEnabled() {
		return nil
	}
	if newPrometheusSVFMetrics == nil {
		return nil
	}
	return newPrometheusSVFMetrics()
}

// newPrometheusSVFMetrics is registered by pkg/metrics/prometheus's init(),
// mirroring the teacher's RegisterCacheMetricsConstructor indirection so
// pkg/metrics never imports pkg/metrics/prometheus (which imports
// pkg/metrics) and pkg/svf never imports pkg/metrics at all.
var newPrometheusSVFMetrics func() svf.Metrics

// RegisterSVFMetricsConstructor registers the Prometheus svf.Metrics
// constructor. Called by pkg/metrics/prometheus's package init.
func RegisterSVFMetricsConstructor(constructor func() svf.Metrics) {
	newPrometheusSVFMetrics = constructor
}
