package svf

// checkInvariants asserts I1-I5 hold. It is used only by tests; the
// public API has no integrity-check endpoint, since exposing one would
// invite callers to paper over bugs instead of the library maintaining
// its own invariants.
func (s *SVF) checkInvariants() error {
	bs := s.blocks.all()

	var sum uint64
	seenTouch := make(map[uint64]bool, len(bs))

	for i, b := range bs {
		if len(b.data) == 0 {
			return NewInternalError("block has size 0 (I1)")
		}
		if i > 0 {
			prev := bs[i-1]
			if prev.fpos+uint64(len(prev.data)) >= b.fpos {
				return NewInternalError("adjacent or overlapping blocks (I2)")
			}
		}
		sum += uint64(len(b.data))

		if seenTouch[b.touch] {
			return NewInternalError("duplicate touch counter (I4)")
		}
		seenTouch[b.touch] = true
		if b.touch != touchUnassigned && b.touch >= s.touch.next {
			return NewInternalError("touch counter >= next_touch (I4)")
		}
	}

	if sum != s.bytesTotal {
		return NewInternalError("bytes_total mismatch (I3)")
	}

	if len(s.touch.toFpos) != len(bs) {
		return NewInternalError("touch->fpos view size mismatch (I5)")
	}
	for touch, fpos := range s.touch.toFpos {
		found := false
		for _, b := range bs {
			if b.touch == touch && b.fpos == fpos {
				found = true
				break
			}
		}
		if !found {
			return NewInternalError("touch->fpos view not a bijection with resident blocks (I5)")
		}
	}

	return nil
}
