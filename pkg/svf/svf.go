// Package svf implements a Sparse Virtual File: an in-memory cache that
// mirrors selected byte ranges of a remote or otherwise expensive file at
// their true absolute offsets.
//
// An SVF is not internally synchronized. Callers must serialize access to
// a given *SVF themselves (see the package doc of svfs for the expected
// lock ordering when an SVF is held inside a keyed container). No method
// here suspends or performs I/O; the SVF is always fed, never fetches.
package svf

import "time"

// Config are an SVF's construction options (§6.1).
type Config struct {
	// CompareForDiff verifies overlap bytes on write; when false,
	// overlapping writes silently prefer resident bytes and never
	// produce a DiffError. Default: true.
	CompareForDiff bool

	// OverwriteOnExit scrubs every block's payload with a fixed pattern
	// before it is released, on Close or Clear. Default: false.
	OverwriteOnExit bool
}

// DefaultConfig returns the construction defaults documented in §6.1.
func DefaultConfig() Config {
	return Config{CompareForDiff: true, OverwriteOnExit: false}
}

// SVF is one Sparse Virtual File cache instance.
type SVF struct {
	id      string
	modTime float64
	config  Config

	blocks blockMap
	touch  touchTracker

	countWrite uint64
	countRead  uint64
	bytesWrite uint64
	bytesRead  uint64
	bytesTotal uint64

	timeWrite    time.Time
	hasTimeWrite bool
	timeRead     time.Time
	hasTimeRead  bool

	metrics Metrics
}

// New creates an empty SVF with the given id, mod_time and config.
func New(id string, modTime float64, cfg Config) *SVF {
	return NewWithMetrics(id, modTime, cfg, nil)
}

// NewWithMetrics creates an empty SVF that reports to m. m may be nil.
func NewWithMetrics(id string, modTime float64, cfg Config, m Metrics) *SVF {
	return &SVF{
		id:      id,
		modTime: modTime,
		config:  cfg,
		blocks:  *newBlockMap(),
		touch:   newTouchTracker(),
		metrics: m,
	}
}

// ID returns the SVF's immutable identifier.
func (s *SVF) ID() string { return s.id }

// FileModTime returns the caller-supplied modification timestamp.
func (s *SVF) FileModTime() float64 { return s.modTime }

// FileModTimeMatches reports whether t equals the stored mod_time.
// Matches the original implementation's direct equality comparison: no
// epsilon tolerance.
func (s *SVF) FileModTimeMatches(t float64) bool { return s.modTime == t }

// GetConfig returns the SVF's construction configuration.
func (s *SVF) GetConfig() Config { return s.config }

// CountWrite returns the cumulative number of successful write calls.
func (s *SVF) CountWrite() uint64 { return s.countWrite }

// CountRead returns the cumulative number of successful read calls.
func (s *SVF) CountRead() uint64 { return s.countRead }

// BytesWrite returns the cumulative number of bytes passed to write,
// including bytes that were part of an overlap.
func (s *SVF) BytesWrite() uint64 { return s.bytesWrite }

// BytesRead returns the cumulative number of bytes returned by read.
func (s *SVF) BytesRead() uint64 { return s.bytesRead }

// NumBlocks returns the number of resident blocks.
func (s *SVF) NumBlocks() int { return s.blocks.len() }

// NumBytes returns bytes_total: the exact sum of all resident block sizes.
func (s *SVF) NumBytes() uint64 { return s.bytesTotal }

// LastFilePosition returns the end (exclusive) of the highest-offset
// block, or 0 if the SVF holds no blocks.
func (s *SVF) LastFilePosition() uint64 {
	bs := s.blocks.all()
	if len(bs) == 0 {
		return 0
	}
	return bs[len(bs)-1].end()
}

// SizeOf returns a best-effort, monotonic-within-a-state memory estimate:
// the sum of payload sizes plus a fixed per-block overhead estimate.
const perBlockOverhead = 48 // fpos + slice header + touch counter, rough

func (s *SVF) SizeOf() uint64 {
	return s.bytesTotal + uint64(s.blocks.len())*perBlockOverhead
}

// TimeWrite returns the wall-clock time of the most recent successful
// write, and whether one has occurred yet.
func (s *SVF) TimeWrite() (time.Time, bool) { return s.timeWrite, s.hasTimeWrite }

// TimeRead returns the wall-clock time of the most recent successful
// read, and whether one has occurred yet.
func (s *SVF) TimeRead() (time.Time, bool) { return s.timeRead, s.hasTimeRead }

// Blocks returns the resident blocks as (fpos, size) pairs, strictly
// ascending in fpos (§4.6, P7).
func (s *SVF) Blocks() []BlockInfo {
	bs := s.blocks.all()
	out := make([]BlockInfo, len(bs))
	for i, b := range bs {
		out[i] = BlockInfo{FPos: b.fpos, Size: uint64(len(b.data))}
	}
	return out
}

// BlockInfo is a (fpos, size) pair describing one resident block.
type BlockInfo struct {
	FPos uint64
	Size uint64
}

// BlockTouches returns a snapshot mapping touch counter to the block's
// current fpos.
func (s *SVF) BlockTouches() map[uint64]uint64 {
	return s.touch.snapshot()
}

// Clear drops all blocks and resets counters, timestamps and bytes_total
// to zero/absent. id, mod_time and config are retained (P9).
func (s *SVF) Clear() {
	if s.config.OverwriteOnExit {
		scrubAll(s.blocks.all())
	}

	s.blocks.clear()
	s.touch = newTouchTracker()
	s.countWrite = 0
	s.countRead = 0
	s.bytesWrite = 0
	s.bytesRead = 0
	s.bytesTotal = 0
	s.timeWrite = time.Time{}
	s.hasTimeWrite = false
	s.timeRead = time.Time{}
	s.hasTimeRead = false
}

// Close releases the SVF's resources, scrubbing block payloads first if
// OverwriteOnExit is set. After Close the SVF must not be used again.
func (s *SVF) Close() {
	if s.config.OverwriteOnExit {
		scrubAll(s.blocks.all())
	}
	s.blocks.clear()
	s.touch = touchTracker{}
}

const scrubPattern = 0x00

func scrubAll(blocks []*block) {
	for _, b := range blocks {
		for i := range b.data {
			b.data[i] = scrubPattern
		}
	}
}
