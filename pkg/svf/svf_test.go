package svf

import (
	"bytes"
	"testing"
)

func newTestSVF() *SVF {
	return New("test", 0, DefaultConfig())
}

func assertBlocks(t *testing.T, s *SVF, want []BlockInfo) {
	t.Helper()
	got := s.Blocks()
	if len(got) != len(want) {
		t.Fatalf("blocks() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("blocks()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func mustRead(t *testing.T, s *SVF, fpos, length uint64) []byte {
	t.Helper()
	out, err := s.Read(fpos, length)
	if err != nil {
		t.Fatalf("read(%d, %d) failed: %v", fpos, length, err)
	}
	return out
}

// S1. Simple insert.
func TestS1SimpleInsert(t *testing.T) {
	s := newTestSVF()
	if err := s.Write(8, []byte("ABCD")); err != nil {
		t.Fatal(err)
	}
	assertBlocks(t, s, []BlockInfo{{FPos: 8, Size: 4}})
	if got := mustRead(t, s, 8, 4); !bytes.Equal(got, []byte("ABCD")) {
		t.Fatalf("read = %q", got)
	}
	if err := s.checkInvariants(); err != nil {
		t.Fatal(err)
	}
}

// S2. Coalesce on adjacency.
func TestS2CoalesceOnAdjacency(t *testing.T) {
	s := newTestSVF()
	must(t, s.Write(8, []byte("ABCD")))
	must(t, s.Write(12, []byte("EFGH")))

	assertBlocks(t, s, []BlockInfo{{FPos: 8, Size: 8}})
	if got := mustRead(t, s, 8, 8); !bytes.Equal(got, []byte("ABCDEFGH")) {
		t.Fatalf("read = %q", got)
	}
	if err := s.checkInvariants(); err != nil {
		t.Fatal(err)
	}
}

// S3. Coalesce across a gap by new write.
func TestS3CoalesceAcrossGap(t *testing.T) {
	s := newTestSVF()
	must(t, s.Write(8, []byte("AB")))
	must(t, s.Write(16, []byte("CD")))
	must(t, s.Write(10, []byte("xxxxxx")))

	assertBlocks(t, s, []BlockInfo{{FPos: 8, Size: 10}})
	if got := mustRead(t, s, 8, 10); !bytes.Equal(got, []byte("ABxxxxxxCD")) {
		t.Fatalf("read = %q", got)
	}
}

// S4. Diff rejection.
func TestS4DiffRejection(t *testing.T) {
	s := newTestSVF()
	must(t, s.Write(8, []byte("ABCD")))

	err := s.Write(8, []byte("ABXD"))
	if err == nil {
		t.Fatal("expected Diff error")
	}
	de, ok := err.(*DiffError)
	if !ok {
		t.Fatalf("expected *DiffError, got %T: %v", err, err)
	}
	if de.At != 10 || de.ExistingByte != 'C' || de.IncomingByte != 'X' {
		t.Fatalf("unexpected diff error: %+v", de)
	}

	assertBlocks(t, s, []BlockInfo{{FPos: 8, Size: 4}})
	if got := mustRead(t, s, 8, 4); !bytes.Equal(got, []byte("ABCD")) {
		t.Fatalf("read = %q", got)
	}
}

// S5. need() over partial coverage.
func TestS5NeedPartialCoverage(t *testing.T) {
	s := newTestSVF()
	must(t, s.Write(8, []byte("ABCD")))
	must(t, s.Write(16, []byte("EFGH")))

	got := s.Need(4, 16, 0)
	want := []FetchInstruction{{FPos: 4, Len: 4}, {FPos: 12, Len: 4}}
	if len(got) != len(want) {
		t.Fatalf("need() = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("need()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// S6. LRU eviction.
func TestS6LRUEviction(t *testing.T) {
	s := newTestSVF()
	must(t, s.Write(0, bytes.Repeat([]byte("A"), 100)))
	must(t, s.Write(200, bytes.Repeat([]byte("B"), 100)))
	must(t, s.Write(400, bytes.Repeat([]byte("C"), 100)))

	mustRead(t, s, 200, 1) // touch B

	removed := s.LRUPunt(250)
	if removed != 100 {
		t.Fatalf("lru_punt removed %d bytes, want 100", removed)
	}
	if s.NumBytes() != 200 {
		t.Fatalf("num_bytes() = %d, want 200", s.NumBytes())
	}

	blocks := s.Blocks()
	if len(blocks) != 2 || blocks[0].FPos != 200 || blocks[1].FPos != 400 {
		t.Fatalf("unexpected blocks after eviction: %v", blocks)
	}
}

// S7. Erase at non-start.
func TestS7EraseAtNonStart(t *testing.T) {
	s := newTestSVF()
	must(t, s.Write(8, []byte("ABCD")))

	err := s.Erase(9)
	if err == nil {
		t.Fatal("expected Erase error")
	}
	ee, ok := err.(*EraseError)
	if !ok {
		t.Fatalf("expected *EraseError, got %T", err)
	}
	if ee.At != 9 {
		t.Fatalf("unexpected erase error: %+v", ee)
	}
	assertBlocks(t, s, []BlockInfo{{FPos: 8, Size: 4}})
}

// P3: has(fpos, len) iff need(fpos, len) is empty, for len > 0.
func TestP3HasIffNeedEmpty(t *testing.T) {
	s := newTestSVF()
	must(t, s.Write(8, []byte("ABCD")))

	cases := []struct{ fpos, length uint64 }{
		{8, 4}, {8, 2}, {9, 2}, {0, 4}, {6, 4}, {10, 10},
	}
	for _, c := range cases {
		has := s.Has(c.fpos, c.length)
		needEmpty := len(s.Need(c.fpos, c.length, 0)) == 0
		if has != needEmpty {
			t.Fatalf("fpos=%d len=%d: has=%v needEmpty=%v", c.fpos, c.length, has, needEmpty)
		}
	}
}

// P5: write(fpos, X); read(fpos, X.len) == X.
func TestP5RoundTrip(t *testing.T) {
	s := newTestSVF()
	data := []byte("the quick brown fox")
	must(t, s.Write(1000, data))
	got := mustRead(t, s, 1000, uint64(len(data)))
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip failed: got %q want %q", got, data)
	}
}

// P6: two identical writes leave the map unchanged; counters advance twice.
func TestP6IdenticalWritesIdempotentOnMap(t *testing.T) {
	s := newTestSVF()
	must(t, s.Write(8, []byte("ABCD")))
	must(t, s.Write(8, []byte("ABCD")))

	assertBlocks(t, s, []BlockInfo{{FPos: 8, Size: 4}})
	if s.CountWrite() != 2 {
		t.Fatalf("count_write = %d, want 2", s.CountWrite())
	}
	if s.BytesWrite() != 8 {
		t.Fatalf("bytes_write = %d, want 8", s.BytesWrite())
	}
}

// P7: blocks() strictly ascending with a gap of at least 1 between them.
func TestP7BlocksStrictlyAscending(t *testing.T) {
	s := newTestSVF()
	must(t, s.Write(100, []byte("A")))
	must(t, s.Write(50, []byte("B")))
	must(t, s.Write(200, []byte("C")))

	blocks := s.Blocks()
	for i := 1; i < len(blocks); i++ {
		if blocks[i-1].FPos+blocks[i-1].Size >= blocks[i].FPos {
			t.Fatalf("blocks not strictly ascending/non-adjacent: %v", blocks)
		}
	}
}

// P8: lru_punt(B) twice in a row returns 0 the second time.
func TestP8LRUPuntIdempotentOnStableState(t *testing.T) {
	s := newTestSVF()
	must(t, s.Write(0, bytes.Repeat([]byte("A"), 100)))
	must(t, s.Write(200, bytes.Repeat([]byte("B"), 100)))

	s.LRUPunt(100)
	second := s.LRUPunt(100)
	if second != 0 {
		t.Fatalf("second lru_punt removed %d bytes, want 0", second)
	}
}

// P9: clear() resets counters/blocks but retains id, mod_time, config.
func TestP9Clear(t *testing.T) {
	s := New("myid", 42.5, Config{CompareForDiff: false, OverwriteOnExit: true})
	must(t, s.Write(0, []byte("ABCD")))
	mustRead(t, s, 0, 4)

	s.Clear()

	if s.NumBlocks() != 0 || s.NumBytes() != 0 {
		t.Fatalf("clear() left state: blocks=%d bytes=%d", s.NumBlocks(), s.NumBytes())
	}
	if s.ID() != "myid" || s.FileModTime() != 42.5 {
		t.Fatalf("clear() changed identity: id=%s modtime=%v", s.ID(), s.FileModTime())
	}
	if s.GetConfig().CompareForDiff || !s.GetConfig().OverwriteOnExit {
		t.Fatalf("clear() changed config: %+v", s.GetConfig())
	}
	if s.CountWrite() != 0 || s.CountRead() != 0 {
		t.Fatalf("clear() did not reset counters")
	}
}

// P10: a write with compare_for_diff=true and a mismatched overlap byte
// returns Diff and leaves blocks() unchanged (duplicate of S4 at the
// property level with a different initial layout).
func TestP10DiffLeavesStateUnchanged(t *testing.T) {
	s := newTestSVF()
	must(t, s.Write(0, []byte("0123456789")))
	before := s.Blocks()

	if err := s.Write(5, []byte("5Z789")); err == nil {
		t.Fatal("expected Diff error: byte at position 6 differs")
	} else if _, ok := err.(*DiffError); !ok {
		t.Fatalf("expected DiffError, got %T", err)
	}

	after := s.Blocks()
	if len(before) != len(after) || before[0] != after[0] {
		t.Fatalf("state changed after Diff: before=%v after=%v", before, after)
	}
}

func TestFileModTimeMatches(t *testing.T) {
	s := New("x", 123.456, DefaultConfig())
	if !s.FileModTimeMatches(123.456) {
		t.Fatal("expected match")
	}
	if s.FileModTimeMatches(123.457) {
		t.Fatal("expected no match")
	}
}

func TestEmptyWriteIsNoOp(t *testing.T) {
	s := newTestSVF()
	must(t, s.Write(5, nil))
	if s.CountWrite() != 0 {
		t.Fatalf("count_write = %d after empty write, want 0", s.CountWrite())
	}
	if s.NumBlocks() != 0 {
		t.Fatalf("empty write created a block")
	}
}

func TestReadErrorKinds(t *testing.T) {
	s := newTestSVF()

	if _, err := s.Read(0, 4); err.(*ReadError).Kind != ReadEmpty {
		t.Fatalf("expected ReadEmpty, got %v", err)
	}

	must(t, s.Write(10, []byte("ABCD")))

	if _, err := s.Read(0, 4); err.(*ReadError).Kind != ReadBeforeFirst {
		t.Fatalf("expected ReadBeforeFirst, got %v", err)
	}
	if _, err := s.Read(12, 10); err.(*ReadError).Kind != ReadOverruns {
		t.Fatalf("expected ReadOverruns, got %v", err)
	}
	if _, err := s.Read(20, 4); err.(*ReadError).Kind != ReadGap {
		t.Fatalf("expected ReadGap, got %v", err)
	}
}

func TestLastFilePosition(t *testing.T) {
	s := newTestSVF()
	if s.LastFilePosition() != 0 {
		t.Fatalf("empty svf last_file_position = %d, want 0", s.LastFilePosition())
	}
	must(t, s.Write(10, []byte("ABCD")))
	must(t, s.Write(100, []byte("Z")))
	if s.LastFilePosition() != 101 {
		t.Fatalf("last_file_position = %d, want 101", s.LastFilePosition())
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
