package svf

import "time"

// Metrics is the observability hook an SVF reports to, if any. An SVF may
// hold a nil Metrics: every call site in this package checks
// "if s.metrics != nil" before reporting.
type Metrics interface {
	// ObserveWrite records one successful write call.
	ObserveWrite(id string, bytes int, dur time.Duration)
	// ObserveRead records one successful read call.
	ObserveRead(id string, bytes int, dur time.Duration)
	// ObserveDiffRejected records a write rejected by a byte mismatch.
	ObserveDiffRejected(id string)
	// RecordBlockCount records the current number of resident blocks.
	RecordBlockCount(id string, n int)
	// RecordByteSize records the current bytes_total.
	RecordByteSize(id string, n uint64)
	// RecordEviction records bytes removed by one lru_punt step.
	RecordEviction(id string, bytes uint64)
}
