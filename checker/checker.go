// Package checker is the exploration engine: it walks the reachable
// GlobalState graph breadth-first, in parallel, up to a depth or state
// budget, and evaluates a set of Properties against every state it
// visits. Nothing here implements the protocol itself — that is
// globalmodel's job — this package only explores and judges.
package checker

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/quorumcheck/quorumcheck/globalmodel"
	"github.com/quorumcheck/quorumcheck/internal/util"
)

// Config is the exploration-level configuration: the model configuration
// plus the budget and the properties to evaluate against it.
type Config struct {
	Model globalmodel.Config

	Properties []Property

	// DepthBound caps how many transitions deep the BFS expands. A state
	// at DepthBound is still visited and evaluated, just never expanded.
	DepthBound uint32

	// StateLimit caps the total number of distinct states visited before
	// the traversal is cut short as Inconclusive.
	StateLimit uint64

	WorkerCount int
}

// Validate checks the exploration knobs and delegates to Model.Validate
// for the model-level configuration.
func (c Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("checker: worker_count must be positive, got %d", c.WorkerCount)
	}
	if c.StateLimit == 0 {
		return fmt.Errorf("checker: state_limit must be positive")
	}
	return nil
}

// record is the parent-pointer entry the visited set keeps for every
// state it has ever claimed, so a violated trace can be walked back to
// the initial state without storing every GlobalState in memory.
type record struct {
	parent    globalmodel.Hash
	action    globalmodel.Action
	depth     uint32
	hasParent bool
}

// Check runs the bounded exploration and returns a Report. It never
// mutates cfg.Model or any GlobalState it produces; every worker only
// ever reads a frontierItem's state and writes brand-new clones of it.
func Check(cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	initial := globalmodel.Initial(cfg.Model)
	initHash := globalmodel.CanonicalHash(initial)

	visited := &sync.Map{}
	visited.Store(initHash, &record{})

	front := newFrontier(cfg.WorkerCount)
	front.push(frontierItem{state: initial, hash: initHash, depth: 0})

	states := propertyStates(cfg.Properties)

	var statesExplored uint64 = 1
	var maxDepth uint32
	var depthLimited, stateLimited, violationStopped, internalErrored int32
	var internalErr atomic.Value

	evaluateAll(states, initial, nil, cfg.Model, 0)

	var wg sync.WaitGroup
	for w := 0; w < cfg.WorkerCount; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					internalErr.Store(fmt.Errorf("checker: internal invariant violation (worker %d): %v", worker, r))
					atomic.StoreInt32(&internalErrored, 1)
					front.stop()
				}
			}()

			for {
				item, ok := front.pop()
				if !ok {
					return
				}

				actions := globalmodel.EnabledActions(item.state, cfg.Model)

				if item.depth >= cfg.DepthBound {
					// A depth-bound state with nothing left to expand costs
					// the traversal no coverage at all; only a state that
					// still has unexplored successors makes the run
					// non-exhaustive.
					if len(actions) > 0 {
						atomic.StoreInt32(&depthLimited, 1)
					}
					continue
				}

				for _, a := range actions {
					next, err := globalmodel.Apply(item.state, a, cfg.Model)
					if err != nil {
						panic(fmt.Sprintf("enabled action %v rejected by Apply: %v", a, err))
					}
					h := globalmodel.CanonicalHash(next)

					nextDepth := item.depth + 1
					rec := &record{parent: item.hash, action: a, depth: nextDepth, hasParent: true}
					if _, loaded := visited.LoadOrStore(h, rec); loaded {
						continue
					}

					n := atomic.AddUint64(&statesExplored, 1)
					util.Logf("checker", fmt.Sprintf("worker-%d", worker), "visited state %d at depth %d via %s", n, nextDepth, a)
					bumpMaxDepth(&maxDepth, nextDepth)

					parent := item.state
					violated := evaluateAll(states, next, &parent, cfg.Model, nextDepth)
					if violated {
						atomic.StoreInt32(&violationStopped, 1)
						recordTraces(states, visited, initHash)
						front.stop()
						break
					}

					if n >= cfg.StateLimit {
						atomic.StoreInt32(&stateLimited, 1)
						front.stop()
						break
					}

					front.push(frontierItem{state: next, hash: h, depth: nextDepth})
				}
			}
		}(w)
	}
	wg.Wait()

	var reportErr error
	if v := internalErr.Load(); v != nil {
		reportErr = v.(error)
	}

	exhaustive := atomic.LoadInt32(&depthLimited) == 0 &&
		atomic.LoadInt32(&stateLimited) == 0 &&
		atomic.LoadInt32(&violationStopped) == 0 &&
		atomic.LoadInt32(&internalErrored) == 0

	results := finalizeResults(states, exhaustive)

	return Report{
		StatesExplored:  atomic.LoadUint64(&statesExplored),
		MaxDepthReached: atomic.LoadUint32(&maxDepth),
		Results:         results,
		InternalError:   reportErr,
	}, nil
}

func bumpMaxDepth(addr *uint32, depth uint32) {
	for {
		cur := atomic.LoadUint32(addr)
		if depth <= cur {
			return
		}
		if atomic.CompareAndSwapUint32(addr, cur, depth) {
			return
		}
	}
}

// Replay re-derives the GlobalState sequence a trace of Actions produces
// starting from Initial(model) — the round-trip check a counterexample
// trace must satisfy (property #8): replaying the recorded actions
// against a freshly built initial state reaches exactly the state the
// exploration engine claimed it would.
func Replay(model globalmodel.Config, actions []globalmodel.Action) ([]globalmodel.GlobalState, error) {
	states := make([]globalmodel.GlobalState, 0, len(actions)+1)
	cur := globalmodel.Initial(model)
	states = append(states, cur)
	for _, a := range actions {
		next, err := globalmodel.Apply(cur, a, model)
		if err != nil {
			return nil, fmt.Errorf("checker: replay failed on action %v: %w", a, err)
		}
		states = append(states, next)
		cur = next
	}
	return states, nil
}
