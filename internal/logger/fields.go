package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these consistently
// across log statements so aggregation and querying can key off a fixed
// vocabulary instead of ad-hoc strings.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Client Identification
	// ========================================================================
	KeyClientIP = "client_ip" // Client IP address

	// ========================================================================
	// Session & Connection
	// ========================================================================
	KeyRequestID = "request_id" // Per-request correlation ID (UUID)

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message

	// ========================================================================
	// Sparse Virtual File
	// ========================================================================
	KeySVFID      = "svf_id"      // SVF identifier within the keyed container
	KeyFPos       = "fpos"        // Absolute file position of a block or request
	KeyBlockCount = "block_count" // Number of resident blocks
	KeyBytesEvict = "bytes_evict" // Bytes removed by one lru_punt step
	KeyByteBudget = "byte_budget" // Target byte budget for an eviction pass
	KeyGreedyLen  = "greedy_len"  // Greedy coalescing length passed to need()
	KeyCount      = "count"       // Byte count requested or written
)

// ============================================================================
// Field constructors for type safety
// These functions provide type-safe construction of slog.Attr values.
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// RequestIDStr returns a slog.Attr for a request's correlation ID
func RequestIDStr(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ----------------------------------------------------------------------------
// Sparse Virtual File
// ----------------------------------------------------------------------------

// SVFID returns a slog.Attr for the SVF identifier a cache operation targets.
func SVFID(id string) slog.Attr {
	return slog.String(KeySVFID, id)
}

// FPos returns a slog.Attr for an absolute file position.
func FPos(fpos uint64) slog.Attr {
	return slog.Uint64(KeyFPos, fpos)
}

// BlockCount returns a slog.Attr for a resident block count.
func BlockCount(n int) slog.Attr {
	return slog.Int(KeyBlockCount, n)
}

// BytesEvicted returns a slog.Attr for bytes removed by one lru_punt step.
func BytesEvicted(n uint64) slog.Attr {
	return slog.Uint64(KeyBytesEvict, n)
}

// ByteBudget returns a slog.Attr for an eviction pass's target byte budget.
func ByteBudget(n uint64) slog.Attr {
	return slog.Uint64(KeyByteBudget, n)
}

// GreedyLen returns a slog.Attr for the greedy coalescing length passed to need().
func GreedyLen(n uint64) slog.Attr {
	return slog.Uint64(KeyGreedyLen, n)
}

// Count returns a slog.Attr for a byte count requested or written.
func Count(c uint32) slog.Attr {
	return slog.Uint64(KeyCount, uint64(c))
}
