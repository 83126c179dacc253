// Package janitor runs the periodic lru_punt_all sweep, which applies the
// configured byte budget to each SVF in a container separately; the
// container's aggregate resident bytes are not bounded by that budget.
//
// Unlike dittofs's flusher (which completes idle uploads), there is
// nothing here to finish: every sweep is the same idempotent eviction
// step, so a missed or doubled tick changes nothing but how much gets
// reclaimed.
package janitor

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/dittofs/internal/logger"
	"github.com/marmos91/dittofs/pkg/svfs"
)

const defaultSweepInterval = 30 * time.Second

// Janitor periodically applies LRUPuntAll to a container.
type Janitor struct {
	system        *svfs.SVFS
	byteBudget    uint64
	sweepInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Janitor that punts each SVF in system down to byteBudget
// (each SVF keeps at least one block). A zero byteBudget disables
// eviction entirely (New still
// returns a Janitor, but Start's sweeps become no-ops).
func New(system *svfs.SVFS, byteBudget uint64, sweepInterval time.Duration) *Janitor {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	return &Janitor{system: system, byteBudget: byteBudget, sweepInterval: sweepInterval}
}

// Start begins the background sweep goroutine. It runs until Stop is
// called or ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	j.ctx, j.cancel = context.WithCancel(ctx)

	j.wg.Add(1)
	go j.run()
}

// Stop cancels the sweep loop and waits for it to exit.
func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
}

func (j *Janitor) run() {
	defer j.wg.Done()

	if j.byteBudget == 0 {
		<-j.ctx.Done()
		return
	}

	ticker := time.NewTicker(j.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *Janitor) sweep() {
	removed := j.system.LRUPuntAll(j.byteBudget)
	if removed > 0 {
		logger.Debug("janitor: sweep reclaimed bytes", logger.ByteBudget(j.byteBudget), logger.BytesEvicted(removed))
	}
}
