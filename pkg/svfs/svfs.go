// Package svfs implements a Sparse Virtual File System: a keyed
// collection of independent SVFs that share a construction configuration.
//
// Locking model (§5): the container has its own lock, held only for the
// duration of Insert/Remove/Keys/HasID. Each entry additionally guards its
// *svf.SVF with its own lock, acquired only while the delegated operation
// runs. Lock ordering is always container lock, then entry lock, never the
// reverse; an aggregate operation such as LRUPuntAll releases the
// container lock before it starts walking entries and takes each entry's
// lock only while visiting it, never holding two entry locks at once.
package svfs

import (
	"sort"
	"sync"

	"github.com/marmos91/dittofs/internal/logger"
	"github.com/marmos91/dittofs/pkg/svf"
)

// entry pairs one resident SVF with the lock external callers must hold
// for the duration of any operation against it. sync.Mutex is not
// reentrant; callers must not call back into the same SVF's operations
// from within another call on the same goroutine.
type entry struct {
	mu  sync.Mutex
	svf *svf.SVF
}

// SVFS is a keyed container of SVFs, all constructed with the same
// Config. It adds no semantics beyond keying and aggregate statistics;
// every per-file operation is delegated to the named SVF.
type SVFS struct {
	mu      sync.RWMutex
	entries map[string]*entry
	config  svf.Config
	metrics svf.Metrics
}

// New creates an empty SVFS. Every SVF later inserted is constructed with
// cfg and reports to m (which may be nil).
func New(cfg svf.Config, m svf.Metrics) *SVFS {
	return &SVFS{
		entries: make(map[string]*entry),
		config:  cfg,
		metrics: m,
	}
}

// Insert creates a new SVF with the container's shared config. Fails with
// AlreadyExistsError if id is already present.
func (s *SVFS) Insert(id string, modTime float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; ok {
		return NewAlreadyExistsError(id)
	}

	s.entries[id] = &entry{svf: svf.NewWithMetrics(id, modTime, s.config, s.metrics)}
	logger.Debug("svfs: inserted", logger.SVFID(id))
	return nil
}

// Remove destroys the named SVF, respecting its OverwriteOnExit setting.
// Fails with NotFoundError if id is absent.
func (s *SVFS) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return NewNotFoundError(id)
	}

	e.mu.Lock()
	e.svf.Close()
	e.mu.Unlock()

	delete(s.entries, id)
	logger.Debug("svfs: removed", logger.SVFID(id))
	return nil
}

// HasID reports whether id is present in the container.
func (s *SVFS) HasID(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[id]
	return ok
}

// Keys returns every id currently in the container, sorted for
// deterministic iteration.
func (s *SVFS) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// lookup returns the entry for id under the container's read lock, or a
// NotFoundError.
func (s *SVFS) lookup(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, NewNotFoundError(id)
	}
	return e, nil
}

// At runs fn against the named SVF while holding its entry lock, the
// mechanism every delegated operation below is built on. Exposed for
// callers (such as the HTTP API) that need an operation not already
// delegated below.
func (s *SVFS) At(id string, fn func(*svf.SVF) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.svf)
}

// --- Delegated per-SVF operations (§6.4) ---

// Has delegates to the named SVF's Has.
func (s *SVFS) Has(id string, fpos, length uint64) (bool, error) {
	var out bool
	err := s.At(id, func(f *svf.SVF) error {
		out = f.Has(fpos, length)
		return nil
	})
	return out, err
}

// Write delegates to the named SVF's Write.
func (s *SVFS) Write(id string, fpos uint64, data []byte) error {
	return s.At(id, func(f *svf.SVF) error { return f.Write(fpos, data) })
}

// Read delegates to the named SVF's Read.
func (s *SVFS) Read(id string, fpos, length uint64) ([]byte, error) {
	var out []byte
	err := s.At(id, func(f *svf.SVF) error {
		var rerr error
		out, rerr = f.Read(fpos, length)
		return rerr
	})
	return out, err
}

// Need delegates to the named SVF's Need.
func (s *SVFS) Need(id string, fpos, length, greedyLen uint64) ([]svf.FetchInstruction, error) {
	var out []svf.FetchInstruction
	err := s.At(id, func(f *svf.SVF) error {
		out = f.Need(fpos, length, greedyLen)
		return nil
	})
	return out, err
}

// Erase delegates to the named SVF's Erase.
func (s *SVFS) Erase(id string, fpos uint64) error {
	return s.At(id, func(f *svf.SVF) error { return f.Erase(fpos) })
}

// Blocks delegates to the named SVF's Blocks.
func (s *SVFS) Blocks(id string) ([]svf.BlockInfo, error) {
	var out []svf.BlockInfo
	err := s.At(id, func(f *svf.SVF) error {
		out = f.Blocks()
		return nil
	})
	return out, err
}

// BlockTouches delegates to the named SVF's BlockTouches.
func (s *SVFS) BlockTouches(id string) (map[uint64]uint64, error) {
	var out map[uint64]uint64
	err := s.At(id, func(f *svf.SVF) error {
		out = f.BlockTouches()
		return nil
	})
	return out, err
}

// LRUPunt delegates to the named SVF's LRUPunt.
func (s *SVFS) LRUPunt(id string, byteBudget uint64) (uint64, error) {
	var out uint64
	err := s.At(id, func(f *svf.SVF) error {
		out = f.LRUPunt(byteBudget)
		return nil
	})
	return out, err
}

// Clear delegates to the named SVF's Clear.
func (s *SVFS) Clear(id string) error {
	return s.At(id, func(f *svf.SVF) error { f.Clear(); return nil })
}

// Stat is a snapshot of one SVF's counters, timestamps and size, returned
// by Stat for the HTTP API's per-SVF stat endpoint.
type Stat struct {
	ID               string
	FileModTime      float64
	CountWrite       uint64
	CountRead        uint64
	BytesWrite       uint64
	BytesRead        uint64
	NumBlocks        int
	NumBytes         uint64
	LastFilePosition uint64
	SizeOf           uint64
	TimeWrite        *float64 // unix seconds, nil if absent
	TimeRead         *float64
}

// Stat delegates to the named SVF and returns a snapshot of its counters.
func (s *SVFS) Stat(id string) (Stat, error) {
	var out Stat
	err := s.At(id, func(f *svf.SVF) error {
		out = Stat{
			ID:               f.ID(),
			FileModTime:      f.FileModTime(),
			CountWrite:       f.CountWrite(),
			CountRead:        f.CountRead(),
			BytesWrite:       f.BytesWrite(),
			BytesRead:        f.BytesRead(),
			NumBlocks:        f.NumBlocks(),
			NumBytes:         f.NumBytes(),
			LastFilePosition: f.LastFilePosition(),
			SizeOf:           f.SizeOf(),
		}
		if t, ok := f.TimeWrite(); ok {
			sec := float64(t.UnixNano()) / 1e9
			out.TimeWrite = &sec
		}
		if t, ok := f.TimeRead(); ok {
			sec := float64(t.UnixNano()) / 1e9
			out.TimeRead = &sec
		}
		return nil
	})
	return out, err
}

// --- Aggregate statistics (§4.5, §6.4) ---

// TotalSizeOf sums SizeOf across every contained SVF.
func (s *SVFS) TotalSizeOf() uint64 {
	return s.aggregate(func(f *svf.SVF) uint64 { return f.SizeOf() })
}

// TotalBytes sums NumBytes across every contained SVF.
func (s *SVFS) TotalBytes() uint64 {
	return s.aggregate(func(f *svf.SVF) uint64 { return f.NumBytes() })
}

// TotalBlocks sums NumBlocks across every contained SVF.
func (s *SVFS) TotalBlocks() uint64 {
	return s.aggregate(func(f *svf.SVF) uint64 { return uint64(f.NumBlocks()) })
}

// aggregate visits a snapshot of the container's entries, taking each
// entry's lock only while reading it, per the documented lock ordering.
func (s *SVFS) aggregate(fn func(*svf.SVF) uint64) uint64 {
	var total uint64
	for _, e := range s.snapshotEntries() {
		e.mu.Lock()
		total += fn(e.svf)
		e.mu.Unlock()
	}
	return total
}

func (s *SVFS) snapshotEntries() []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// LRUPuntAll applies LRUPunt(byteBudget) to every contained SVF and
// returns the total bytes removed. The container lock is released before
// any entry is visited; each entry's lock is held only while it is being
// punted.
func (s *SVFS) LRUPuntAll(byteBudget uint64) uint64 {
	var total uint64
	for _, e := range s.snapshotEntries() {
		e.mu.Lock()
		total += e.svf.LRUPunt(byteBudget)
		e.mu.Unlock()
	}
	if total > 0 {
		logger.Info("svfs: lru_punt_all reclaimed bytes", logger.ByteBudget(byteBudget), logger.BytesEvicted(total))
	}
	return total
}
