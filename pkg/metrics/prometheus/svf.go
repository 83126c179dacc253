// Package prometheus provides Prometheus-backed implementations of the
// metrics interfaces declared in pkg/svf and wired through pkg/metrics.
//
// Importing this package for side effect (as cmd/svfsd's start command does)
// registers the constructor pkg/metrics.NewSVFMetrics delegates to.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittofs/pkg/metrics"
	"github.com/marmos91/dittofs/pkg/svf"
)

func init() {
	metrics.RegisterSVFMetricsConstructor(func() svf.Metrics { return newSVFMetrics() })
}

// svfMetrics is the Prometheus implementation of svf.Metrics.
type svfMetrics struct {
	writeOperations *prometheus.CounterVec
	writeDuration   *prometheus.HistogramVec
	writeBytes      *prometheus.HistogramVec
	readOperations  *prometheus.CounterVec
	readDuration    *prometheus.HistogramVec
	readBytes       *prometheus.HistogramVec
	diffRejected    *prometheus.CounterVec
	blockCount      *prometheus.GaugeVec
	byteSize        *prometheus.GaugeVec
	evictions       *prometheus.CounterVec
	evictedBytes    *prometheus.CounterVec
}

// byteSizeBuckets mirror the sizes a cache backing a remote file is
// actually exercised with: control-sized reads up through multi-megabyte
// sequential fetches.
var byteSizeBuckets = []float64{
	4096, 32768, 131072, 524288, 1048576, 4194304, 10485760,
}

func newSVFMetrics() svf.Metrics {
	reg := metrics.GetRegistry()

	return &svfMetrics{
		writeOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "svfs_write_operations_total",
				Help: "Total number of successful write() calls, by SVF id.",
			},
			[]string{"svf_id"},
		),
		writeDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "svfs_write_duration_seconds",
				Help:    "Duration of write() calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"svf_id"},
		),
		writeBytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "svfs_write_bytes",
				Help:    "Distribution of bytes passed to write(), including overlapped bytes.",
				Buckets: byteSizeBuckets,
			},
			[]string{"svf_id"},
		),
		readOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "svfs_read_operations_total",
				Help: "Total number of successful read() calls, by SVF id.",
			},
			[]string{"svf_id"},
		),
		readDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "svfs_read_duration_seconds",
				Help:    "Duration of read() calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"svf_id"},
		),
		readBytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "svfs_read_bytes",
				Help:    "Distribution of bytes returned by read().",
				Buckets: byteSizeBuckets,
			},
			[]string{"svf_id"},
		),
		diffRejected: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "svfs_diff_rejected_total",
				Help: "Total number of writes rejected by a byte mismatch under compare_for_diff.",
			},
			[]string{"svf_id"},
		),
		blockCount: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "svfs_block_count",
				Help: "Number of resident blocks after the most recent successful write, by SVF id. Not updated by erase, lru_punt or clear.",
			},
			[]string{"svf_id"},
		),
		byteSize: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "svfs_resident_bytes",
				Help: "bytes_total (sum of resident block sizes) after the most recent successful write, by SVF id. Not updated by erase, lru_punt or clear.",
			},
			[]string{"svf_id"},
		),
		evictions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "svfs_evictions_total",
				Help: "Total number of blocks removed by lru_punt, by SVF id.",
			},
			[]string{"svf_id"},
		),
		evictedBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "svfs_evicted_bytes_total",
				Help: "Total bytes removed by lru_punt, by SVF id.",
			},
			[]string{"svf_id"},
		),
	}
}

func (m *svfMetrics) ObserveWrite(id string, bytes int, dur time.Duration) {
	m.writeOperations.WithLabelValues(id).Inc()
	m.writeDuration.WithLabelValues(id).Observe(dur.Seconds())
	if bytes > 0 {
		m.writeBytes.WithLabelValues(id).Observe(float64(bytes))
	}
}

func (m *svfMetrics) ObserveRead(id string, bytes int, dur time.Duration) {
	m.readOperations.WithLabelValues(id).Inc()
	m.readDuration.WithLabelValues(id).Observe(dur.Seconds())
	if bytes > 0 {
		m.readBytes.WithLabelValues(id).Observe(float64(bytes))
	}
}

func (m *svfMetrics) ObserveDiffRejected(id string) {
	m.diffRejected.WithLabelValues(id).Inc()
}

func (m *svfMetrics) RecordBlockCount(id string, n int) {
	m.blockCount.WithLabelValues(id).Set(float64(n))
}

func (m *svfMetrics) RecordByteSize(id string, n uint64) {
	m.byteSize.WithLabelValues(id).Set(float64(n))
}

func (m *svfMetrics) RecordEviction(id string, bytes uint64) {
	m.evictions.WithLabelValues(id).Inc()
	m.evictedBytes.WithLabelValues(id).Add(float64(bytes))
}
