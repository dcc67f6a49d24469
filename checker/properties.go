package checker

import (
	"sync"

	"github.com/quorumcheck/quorumcheck/consensus"
	"github.com/quorumcheck/quorumcheck/globalmodel"
)

// PropertyKind distinguishes a safety invariant, checked against every
// visited state, from a liveness witness, satisfied by at least one.
type PropertyKind int

const (
	Always PropertyKind = iota
	Sometimes
)

func (k PropertyKind) String() string {
	if k == Sometimes {
		return "Sometimes"
	}
	return "Always"
}

// Predicate judges a single visited state. parent is nil only for the
// initial state; it is passed alongside state so monotonicity-style
// Always properties (phase never regresses, an accepted value never
// changes) can compare a successor against what it came from instead of
// re-deriving history from scratch.
type Predicate func(state globalmodel.GlobalState, parent *globalmodel.GlobalState, cfg globalmodel.Config) bool

// Property pairs a name and kind with the predicate that judges it.
type Property struct {
	Name      string
	Kind      PropertyKind
	Predicate Predicate
}

// Verdict is the final judgement on one Property after exploration ends.
type Verdict int

const (
	// Holds: an Always property saw no violation across an exhaustive
	// traversal, or a Sometimes property found its witness.
	Holds Verdict = iota
	// Violated: an Always property's predicate returned false on some
	// visited state; Trace on the corresponding PropertyResult is populated.
	Violated
	// Inconclusive: an Always property never saw a violation, but the
	// traversal was cut short (depth bound, state limit, or another
	// property's violation stopped the run first) before covering the
	// whole reachable space.
	Inconclusive
	// InsufficientlyWitnessed: a Sometimes property never found a witness.
	// This covers both a genuinely impossible scenario under an
	// exhaustive traversal and a traversal cut short before one was found
	// — a Sometimes property can never be proven false, only unwitnessed.
	InsufficientlyWitnessed
)

func (v Verdict) String() string {
	switch v {
	case Holds:
		return "Holds"
	case Violated:
		return "Violated"
	case Inconclusive:
		return "Inconclusive"
	case InsufficientlyWitnessed:
		return "InsufficientlyWitnessed"
	default:
		return "Unknown"
	}
}

// TraceStep is one edge along a counterexample trace from the initial
// state to the violating one.
type TraceStep struct {
	Action globalmodel.Action
	Depth  uint32
}

// PropertyResult is one Property's outcome.
type PropertyResult struct {
	Name   string
	Kind   PropertyKind
	Verdict Verdict
	Trace  []TraceStep
}

// Report is the outcome of a full Check run.
type Report struct {
	StatesExplored  uint64
	MaxDepthReached uint32
	Results         []PropertyResult
	// InternalError is set only when the engine itself hit a bug (an
	// enabled action Apply rejected, an out-of-range node id, and the
	// like) — never for a genuine protocol violation. A harness should
	// check this before trusting any Violated verdict in Results.
	InternalError error
}

// propertyState is the engine's mutable bookkeeping for one Property
// across the run: whether it has been violated (and the hash it was
// violated at, to build a trace from), or witnessed.
type propertyState struct {
	prop Property

	mu         sync.Mutex
	violated   bool
	witnessed  bool
	atHash     globalmodel.Hash
	atDepth    uint32
	traceCache []TraceStep
}

func propertyStates(props []Property) []*propertyState {
	out := make([]*propertyState, len(props))
	for i, p := range props {
		out[i] = &propertyState{prop: p}
	}
	return out
}

// evaluateAll judges every property against (state, parent) and records
// the first violation/witness each one reaches. It returns true if any
// Always property was violated by this state, signalling the caller to
// stop the traversal (spec.md §4.4: a property failure is a termination
// condition for the whole run, not just that property).
func evaluateAll(states []*propertyState, state globalmodel.GlobalState, parent *globalmodel.GlobalState, cfg globalmodel.Config, depth uint32) bool {
	var anyViolation bool
	hash := globalmodel.CanonicalHash(state)
	for _, ps := range states {
		switch ps.prop.Kind {
		case Always:
			if ps.alreadyViolated() {
				continue
			}
			if !ps.prop.Predicate(state, parent, cfg) {
				ps.markViolated(hash, depth)
				anyViolation = true
			}
		case Sometimes:
			if ps.alreadyWitnessed() {
				continue
			}
			if ps.prop.Predicate(state, parent, cfg) {
				ps.markWitnessed()
			}
		}
	}
	return anyViolation
}

func (ps *propertyState) alreadyViolated() bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.violated
}

func (ps *propertyState) markViolated(hash globalmodel.Hash, depth uint32) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.violated {
		return
	}
	ps.violated = true
	ps.atHash = hash
	ps.atDepth = depth
}

func (ps *propertyState) alreadyWitnessed() bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.witnessed
}

func (ps *propertyState) markWitnessed() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.witnessed = true
}

// recordTraces walks the visited set's parent pointers from the hash
// each already-violated Always property was flagged at back to root,
// and attaches the resulting TraceStep slice to that property.
func recordTraces(states []*propertyState, visited *sync.Map, root globalmodel.Hash) {
	for _, ps := range states {
		ps.mu.Lock()
		violated, at, depth := ps.violated, ps.atHash, ps.atDepth
		ps.mu.Unlock()
		if !violated {
			continue
		}
		trace := buildTrace(visited, root, at, depth)
		ps.mu.Lock()
		ps.traceCache = trace
		ps.mu.Unlock()
	}
}

func buildTrace(visited *sync.Map, root, leaf globalmodel.Hash, leafDepth uint32) []TraceStep {
	steps := make([]TraceStep, 0, leafDepth)
	cur := leaf
	for cur != root {
		v, ok := visited.Load(cur)
		if !ok {
			break
		}
		rec := v.(*record)
		if !rec.hasParent {
			break
		}
		steps = append(steps, TraceStep{Action: rec.action, Depth: rec.depth})
		cur = rec.parent
	}
	// steps were collected leaf-to-root; reverse to root-to-leaf.
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}

func finalizeResults(states []*propertyState, exhaustive bool) []PropertyResult {
	out := make([]PropertyResult, len(states))
	for i, ps := range states {
		ps.mu.Lock()
		violated, witnessed, trace := ps.violated, ps.witnessed, ps.traceCache
		ps.mu.Unlock()

		r := PropertyResult{Name: ps.prop.Name, Kind: ps.prop.Kind}
		switch ps.prop.Kind {
		case Always:
			switch {
			case violated:
				r.Verdict = Violated
				r.Trace = trace
			case !exhaustive:
				r.Verdict = Inconclusive
			default:
				r.Verdict = Holds
			}
		case Sometimes:
			if witnessed {
				r.Verdict = Holds
			} else {
				r.Verdict = InsufficientlyWitnessed
			}
		}
		out[i] = r
	}
	return out
}

// --- Built-in properties (spec.md §8) ---------------------------------

// Agreement: no two non-faulty decided nodes ever decide different
// values.
func Agreement() Property {
	return Property{
		Name: "agreement",
		Kind: Always,
		Predicate: func(state globalmodel.GlobalState, _ *globalmodel.GlobalState, _ globalmodel.Config) bool {
			decided := state.NonFaultyDecided()
			if len(decided) == 0 {
				return true
			}
			first := decided[0]
			for _, v := range decided[1:] {
				if v != first {
					return false
				}
			}
			return true
		},
	}
}

// NoPrematureDecision: a node only ever decides a value backed by a
// commit tally that actually reached quorum.
func NoPrematureDecision() Property {
	return Property{
		Name: "no_premature_decision",
		Kind: Always,
		Predicate: func(state globalmodel.GlobalState, _ *globalmodel.GlobalState, _ globalmodel.Config) bool {
			for _, n := range state.Nodes {
				if n.Phase != consensus.Decided {
					continue
				}
				if n.AcceptedValue == nil {
					return false
				}
				if n.CommitTally[*n.AcceptedValue] < n.Quorum {
					return false
				}
			}
			return true
		},
	}
}

// ValueMonotonicity: once a node accepts a value, it never accepts (or
// is reported as holding) a different one.
func ValueMonotonicity() Property {
	return Property{
		Name: "value_monotonicity",
		Kind: Always,
		Predicate: func(state globalmodel.GlobalState, parent *globalmodel.GlobalState, _ globalmodel.Config) bool {
			if parent == nil {
				return true
			}
			for i, before := range parent.Nodes {
				if before.AcceptedValue == nil {
					continue
				}
				after := state.Nodes[i]
				if after.AcceptedValue == nil || *after.AcceptedValue != *before.AcceptedValue {
					return false
				}
			}
			return true
		},
	}
}

// PhaseMonotonicity: a node's phase never regresses along
// Init < Prepared < Committed < Decided.
func PhaseMonotonicity() Property {
	return Property{
		Name: "phase_monotonicity",
		Kind: Always,
		Predicate: func(state globalmodel.GlobalState, parent *globalmodel.GlobalState, _ globalmodel.Config) bool {
			if parent == nil {
				return true
			}
			for i, before := range parent.Nodes {
				if !before.Phase.Advances(state.Nodes[i].Phase) {
					return false
				}
			}
			return true
		},
	}
}

// FaultyInertness: a faulty node never leaves Failed and never appears
// in a decided, committed, or prepared state.
func FaultyInertness() Property {
	return Property{
		Name: "faulty_inertness",
		Kind: Always,
		Predicate: func(state globalmodel.GlobalState, _ *globalmodel.GlobalState, _ globalmodel.Config) bool {
			for _, n := range state.Nodes {
				if n.Faulty && n.Phase != consensus.Failed {
					return false
				}
			}
			return true
		},
	}
}

// EventualDecision: at least one visited state has at least one non-faulty
// node decided (spec §8 item 6, GLOSSARY "Liveness"). A Sometimes property,
// so failing to find one is reported InsufficientlyWitnessed rather than
// Violated — a bounded search cannot prove liveness impossible, only fail
// to witness it.
func EventualDecision() Property {
	return Property{
		Name: "eventual_decision",
		Kind: Sometimes,
		Predicate: func(state globalmodel.GlobalState, _ *globalmodel.GlobalState, _ globalmodel.Config) bool {
			return len(state.NonFaultyDecided()) > 0
		},
	}
}

// DefaultProperties is the standard suite spec.md §8 names.
func DefaultProperties() []Property {
	return []Property{
		Agreement(),
		NoPrematureDecision(),
		ValueMonotonicity(),
		PhaseMonotonicity(),
		FaultyInertness(),
		EventualDecision(),
	}
}
