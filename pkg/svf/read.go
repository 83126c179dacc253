package svf

import "time"

// Has reports whether a single resident block fully contains
// [fpos, fpos+length). A zero-length query is trivially true.
func (s *SVF) Has(fpos, length uint64) bool {
	if length == 0 {
		return true
	}
	_, ok := s.blocks.containing(fpos, length)
	return ok
}

// Read copies length bytes starting at fpos from the single containing
// block. Precondition: Has(fpos, length); otherwise returns a ReadError
// describing whether the request precedes the first block, overruns a
// block, or falls in a gap.
//
// On success, the containing block's touch counter is refreshed (reads
// count as touches) and count_read/bytes_read/time_read are updated.
func (s *SVF) Read(fpos, length uint64) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}

	readStart := time.Now()

	b, ok := s.blocks.containing(fpos, length)
	if !ok {
		return nil, s.classifyReadError(fpos, length)
	}

	start := fpos - b.fpos
	out := make([]byte, length)
	copy(out, b.data[start:start+length])

	s.touch.refresh(b)
	s.countRead++
	s.bytesRead += length
	s.timeRead = time.Now()
	s.hasTimeRead = true

	if s.metrics != nil {
		s.metrics.ObserveRead(s.id, int(length), time.Since(readStart))
	}

	return out, nil
}

func (s *SVF) classifyReadError(fpos, length uint64) error {
	if s.blocks.len() == 0 {
		return NewReadError(ReadEmpty, fpos, length)
	}

	pred, ok := s.blocks.predecessor(fpos)
	if !ok {
		return NewReadError(ReadBeforeFirst, fpos, length)
	}
	if fpos < pred.end() {
		// Starts inside pred but extends past it.
		return NewReadError(ReadOverruns, fpos, length)
	}
	return NewReadError(ReadGap, fpos, length)
}

// FetchInstruction is one (fpos, len) the caller should fetch from the
// underlying source and feed back through Write.
type FetchInstruction struct {
	FPos uint64
	Len  uint64
}

// Need returns the minimal ordered set of fetch instructions such that,
// once the caller performs them and writes the results back, Has(fpos,
// length) becomes true. Returns an empty sequence if Has is already true.
// Does not mutate state or update counters.
//
// When greedyLen > 0, consecutive gaps whose combined span (including the
// resident block between them) is <= greedyLen are coalesced into one
// instruction, and any emitted instruction shorter than greedyLen is
// rounded up to it. Since the SVF has no knowledge of the underlying
// file's length, a rounded-up instruction may extend past EOF; clamping
// is the caller's responsibility (§4.3, §9 "Greedy need").
func (s *SVF) Need(fpos, length uint64, greedyLen uint64) []FetchInstruction {
	if length == 0 {
		return nil
	}

	raw := s.rawGaps(fpos, fpos+length)
	if greedyLen == 0 {
		return raw
	}
	return coalesceGreedy(raw, greedyLen)
}

func (s *SVF) rawGaps(lo, hi uint64) []FetchInstruction {
	var gaps []FetchInstruction

	cur := lo
	for cur < hi {
		pred, ok := s.blocks.predecessor(cur)
		if ok && cur < pred.end() {
			cur = pred.end()
			continue
		}

		gapEnd := hi
		if succ, ok := s.blocks.successor(cur); ok && succ.fpos < gapEnd {
			gapEnd = succ.fpos
		}

		gaps = append(gaps, FetchInstruction{FPos: cur, Len: gapEnd - cur})
		cur = gapEnd
	}

	return gaps
}

func coalesceGreedy(raw []FetchInstruction, greedyLen uint64) []FetchInstruction {
	if len(raw) == 0 {
		return raw
	}

	merged := make([]FetchInstruction, 0, len(raw))
	for _, g := range raw {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			combinedSpan := (g.FPos + g.Len) - last.FPos
			if combinedSpan <= greedyLen {
				last.Len = combinedSpan
				continue
			}
		}
		merged = append(merged, g)
	}

	for i := range merged {
		if merged[i].Len < greedyLen {
			merged[i].Len = greedyLen
		}
	}

	return merged
}
