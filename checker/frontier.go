package checker

import (
	"sync"

	"github.com/quorumcheck/quorumcheck/globalmodel"
)

// frontierItem is one (state, depth) pair waiting to be expanded.
type frontierItem struct {
	state globalmodel.GlobalState
	hash  globalmodel.Hash
	depth uint32
}

// frontier is the shared work queue every worker goroutine pops from and
// pushes successors back on to. It is a plain mutex/condvar queue, not a
// channel: a channel-based queue would need an a-priori capacity bound
// or a second goroutine just to keep it drained, and the termination
// rule below — stop once the queue is empty and every worker is idle —
// is the textbook use for sync.Cond's broadcast-on-last-waiter shape.
type frontier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []frontierItem
	idle    int
	workers int
	stopped bool
}

func newFrontier(workers int) *frontier {
	f := &frontier{workers: workers}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// push adds an item and wakes one waiting worker. A push after stop is a
// silent no-op: a worker that just discovered a property violation may
// still be mid-expansion and try to push more work after calling stop.
func (f *frontier) push(item frontierItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	f.items = append(f.items, item)
	f.cond.Signal()
}

// pop blocks until work is available or the frontier is exhausted. It
// returns ok=false exactly once termination is detected: the queue is
// empty and every worker (including this one) is idle, or stop was
// called externally (cancellation, a violation, a resource limit).
func (f *frontier) pop() (frontierItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.items) == 0 && !f.stopped {
		f.idle++
		if f.idle == f.workers {
			f.stopped = true
			f.cond.Broadcast()
			f.idle--
			return frontierItem{}, false
		}
		f.cond.Wait()
		f.idle--
	}
	if f.stopped {
		return frontierItem{}, false
	}

	item := f.items[0]
	f.items = f.items[1:]
	return item, true
}

// stop forces every blocked and future pop to return immediately. Called
// on an Always-property violation, a state_limit hit, or a worker panic.
func (f *frontier) stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	f.cond.Broadcast()
}
