package svf

import "sort"

// block is a contiguous run of bytes resident at an absolute file
// position, owned exclusively by the SVF that holds it.
type block struct {
	fpos  uint64
	data  []byte
	touch uint64
}

func (b *block) end() uint64 {
	return b.fpos + uint64(len(b.data))
}

// blockMap is the ordered index from fpos to block described in §4.1.
// Blocks are kept in a single fpos-ascending slice and located via binary
// search; see DESIGN.md for why this, rather than a balanced tree, is the
// chosen ordered associative structure here.
//
// Invariant maintained internally (I1, I2): blocks is strictly ascending
// by fpos, and for consecutive blocks b[i], b[i+1]: b[i].end() < b[i+1].fpos.
type blockMap struct {
	blocks []*block
}

func newBlockMap() *blockMap {
	return &blockMap{}
}

func (m *blockMap) len() int {
	return len(m.blocks)
}

// indexOf returns the index of the block whose fpos equals q, and whether
// it was found.
func (m *blockMap) indexOf(q uint64) (int, bool) {
	i := sort.Search(len(m.blocks), func(i int) bool { return m.blocks[i].fpos >= q })
	if i < len(m.blocks) && m.blocks[i].fpos == q {
		return i, true
	}
	return i, false
}

// predecessor returns the block with the largest fpos <= q, if any.
func (m *blockMap) predecessor(q uint64) (*block, bool) {
	i := sort.Search(len(m.blocks), func(i int) bool { return m.blocks[i].fpos > q })
	if i == 0 {
		return nil, false
	}
	return m.blocks[i-1], true
}

// successor returns the block with the smallest fpos > q, if any.
func (m *blockMap) successor(q uint64) (*block, bool) {
	i := sort.Search(len(m.blocks), func(i int) bool { return m.blocks[i].fpos > q })
	if i == len(m.blocks) {
		return nil, false
	}
	return m.blocks[i], true
}

// containing returns the single block whose range fully contains
// [fpos, fpos+length), if one exists.
func (m *blockMap) containing(fpos, length uint64) (*block, bool) {
	b, ok := m.predecessor(fpos)
	if !ok {
		return nil, false
	}
	if fpos+length > b.end() {
		return nil, false
	}
	return b, true
}

// overlapping returns every resident block whose range intersects or
// touches (is adjacent to) [lo, hi), in ascending fpos order.
func (m *blockMap) overlapping(lo, hi uint64) []*block {
	// The first candidate is either the predecessor of lo (it may end
	// exactly at lo, i.e. touch) or the successor of lo-1's block set;
	// scanning from the first block whose end is >= lo is sufficient and
	// simple at this scale.
	start := sort.Search(len(m.blocks), func(i int) bool { return m.blocks[i].end() >= lo })

	var out []*block
	for i := start; i < len(m.blocks); i++ {
		b := m.blocks[i]
		if b.fpos > hi {
			break
		}
		// Touches or overlaps [lo, hi): b.end() >= lo (from the search)
		// and b.fpos <= hi.
		out = append(out, b)
	}
	return out
}

// insert adds b to the map, preserving fpos order. The caller must have
// already verified b does not overlap or abut any resident block.
func (m *blockMap) insert(b *block) {
	i := sort.Search(len(m.blocks), func(i int) bool { return m.blocks[i].fpos >= b.fpos })
	m.blocks = append(m.blocks, nil)
	copy(m.blocks[i+1:], m.blocks[i:])
	m.blocks[i] = b
}

// eraseAt removes the block whose fpos equals fpos exactly, returning its
// size. Returns (0, false) if no block starts there.
func (m *blockMap) eraseAt(fpos uint64) (uint64, bool) {
	i, ok := m.indexOf(fpos)
	if !ok {
		return 0, false
	}
	size := uint64(len(m.blocks[i].data))
	m.blocks = append(m.blocks[:i], m.blocks[i+1:]...)
	return size, true
}

// eraseBlock removes a specific block pointer from the map (used when
// absorbing a merge set whose members are already known by reference).
func (m *blockMap) eraseBlock(target *block) {
	for i, b := range m.blocks {
		if b == target {
			m.blocks = append(m.blocks[:i], m.blocks[i+1:]...)
			return
		}
	}
}

// clear drops every block.
func (m *blockMap) clear() {
	m.blocks = nil
}

// all returns the resident blocks in ascending fpos order. The returned
// slice is the map's own backing storage and must not be retained or
// mutated by callers outside this package.
func (m *blockMap) all() []*block {
	return m.blocks
}
