package svf

import "time"

// Write merges data into the block map at absolute offset fpos,
// coalescing with any resident block that overlaps or abuts
// [fpos, fpos+len(data)) (§4.2).
//
// Empty writes are no-ops: no counters move and no error is possible.
//
// Atomicity: the overlap-verification pass below runs entirely before any
// mutation, and the coalesced payload is assembled in a fresh buffer
// swapped in only after verification passes. A DiffError therefore always
// leaves the SVF exactly as it was (§7, P10).
func (s *SVF) Write(fpos uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	start := time.Now()
	a, b := fpos, fpos+uint64(len(data))

	mergeSet := s.blocks.overlapping(a, b)

	if len(mergeSet) == 0 {
		nb := &block{fpos: a, data: append([]byte(nil), data...)}
		s.touch.refresh(nb)
		s.blocks.insert(nb)
		s.bytesTotal += uint64(len(data))
		s.afterWrite(len(data), start)
		return nil
	}

	lo, hi := a, b
	if mergeSet[0].fpos < lo {
		lo = mergeSet[0].fpos
	}
	if last := mergeSet[len(mergeSet)-1]; last.end() > hi {
		hi = last.end()
	}

	if s.config.CompareForDiff {
		if err := verifyNoDiff(mergeSet, a, data); err != nil {
			if s.metrics != nil {
				s.metrics.ObserveDiffRejected(s.id)
			}
			return err
		}
	}

	payload := make([]byte, hi-lo)
	copy(payload[a-lo:], data)
	var oldSum uint64
	for _, mb := range mergeSet {
		// Resident bytes are preferred on overlap (§4.2 step 5c), so
		// each merge-set block's bytes are copied in after the
		// incoming write, overwriting any overlap.
		copy(payload[mb.fpos-lo:], mb.data)
		oldSum += uint64(len(mb.data))
	}

	for _, mb := range mergeSet {
		s.blocks.eraseBlock(mb)
		s.touch.forget(mb)
	}

	nb := &block{fpos: lo, data: payload}
	s.touch.refresh(nb)
	s.blocks.insert(nb)

	s.bytesTotal = s.bytesTotal - oldSum + uint64(len(payload))
	s.afterWrite(len(data), start)
	return nil
}

// verifyNoDiff scans every overlap point between the merge set and the
// incoming write [a, a+len(data)) in ascending position order, returning
// the first byte mismatch found.
func verifyNoDiff(mergeSet []*block, a uint64, data []byte) error {
	for _, mb := range mergeSet {
		overlapLo := maxU64(mb.fpos, a)
		overlapHi := minU64(mb.end(), a+uint64(len(data)))
		for p := overlapLo; p < overlapHi; p++ {
			existing := mb.data[p-mb.fpos]
			incoming := data[p-a]
			if existing != incoming {
				return NewDiffError(p, existing, incoming)
			}
		}
	}
	return nil
}

func (s *SVF) afterWrite(n int, start time.Time) {
	s.countWrite++
	s.bytesWrite += uint64(n)
	s.timeWrite = time.Now()
	s.hasTimeWrite = true

	if s.metrics != nil {
		s.metrics.ObserveWrite(s.id, n, time.Since(start))
		s.metrics.RecordBlockCount(s.id, s.blocks.len())
		s.metrics.RecordByteSize(s.id, s.bytesTotal)
	}
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
