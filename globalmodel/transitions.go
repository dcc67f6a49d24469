package globalmodel

import (
	"fmt"

	"github.com/quorumcheck/quorumcheck/consensus"
)

// ActionKind tags the four single-step actions spec.md §4.3 names as
// enabled transitions.
type ActionKind int

const (
	ActionDeliver ActionKind = iota
	ActionFire
	ActionDrop
	ActionDuplicate
)

func (k ActionKind) String() string {
	switch k {
	case ActionDeliver:
		return "deliver"
	case ActionFire:
		return "fire"
	case ActionDrop:
		return "drop"
	case ActionDuplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Action identifies a single enabled transition out of a GlobalState,
// precisely enough that Apply can reproduce it against any GlobalState
// whose Bag/Nodes are in the same shape it was enumerated against — which
// is exactly what replaying a counterexample trace from a fresh initial
// state needs (round-trip property #8).
type Action struct {
	Kind ActionKind

	// EnvelopeIndex is the Bag index acted on, for Deliver/Drop/Duplicate.
	EnvelopeIndex int

	// Node and Value identify which node's which-value timer fired, for Fire.
	Node  consensus.NodeID
	Value consensus.Value
}

func (a Action) String() string {
	switch a.Kind {
	case ActionFire:
		return fmt.Sprintf("fire(node=%d, value=%s)", a.Node, a.Value)
	default:
		return fmt.Sprintf("%s(envelope=%d)", a.Kind, a.EnvelopeIndex)
	}
}

// Successors enumerates every enabled transition from gs under cfg and
// returns the resulting GlobalState for each, in a deterministic order
// (ascending envelope index, then ascending node id x value for fires).
// Determinism here is what makes trace replay reproducible: the same
// (gs, cfg) always enumerates successors the same way.
func Successors(gs GlobalState, cfg Config) []GlobalState {
	actions := EnabledActions(gs, cfg)
	out := make([]GlobalState, 0, len(actions))
	for _, a := range actions {
		next, err := Apply(gs, a, cfg)
		if err != nil {
			// EnabledActions only ever returns actions Apply accepts; a
			// mismatch here is a programmer error in this package, not a
			// reachable runtime condition.
			panic(fmt.Sprintf("globalmodel: enabled action %v rejected by Apply: %v", a, err))
		}
		out = append(out, next)
	}
	return out
}

// EnabledActions lists every Action enabled from gs under cfg, without
// computing the resulting states — the engine calls it and then Applies
// each action itself, so it can record the Action that produced every
// successor without materialising every successor at once.
func EnabledActions(gs GlobalState, cfg Config) []Action {
	var actions []Action

	deliverable := deliverableIndices(gs, cfg)
	for _, i := range deliverable {
		actions = append(actions, Action{Kind: ActionDeliver, EnvelopeIndex: i})
	}

	for _, n := range gs.Nodes {
		if n.Faulty || n.Phase != consensus.Init || n.HasProposed {
			continue
		}
		for _, v := range consensus.Values() {
			actions = append(actions, Action{Kind: ActionFire, Node: n.ID, Value: v})
		}
	}

	if cfg.Mode == Lossy {
		for _, i := range deliverable {
			actions = append(actions, Action{Kind: ActionDrop, EnvelopeIndex: i})
		}
	}

	if cfg.Mode == Duplicating {
		for _, i := range deliverable {
			actions = append(actions, Action{Kind: ActionDuplicate, EnvelopeIndex: i})
		}
	}

	return actions
}

// deliverableIndices returns the Bag indices eligible for delivery (or
// drop) under cfg's mode: every index under UnorderedNonduplicating and
// Lossy, but only the head of each (From, To) FIFO under Ordered.
func deliverableIndices(gs GlobalState, cfg Config) []int {
	if cfg.Mode != Ordered {
		indices := make([]int, len(gs.Bag))
		for i := range gs.Bag {
			indices[i] = i
		}
		return indices
	}

	seen := make(map[[2]consensus.NodeID]bool)
	var indices []int
	for i, e := range gs.Bag {
		key := e.pairKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		indices = append(indices, i)
	}
	return indices
}

// Apply performs the single Action against gs and returns the resulting
// GlobalState. It never mutates gs.
func Apply(gs GlobalState, a Action, cfg Config) (GlobalState, error) {
	switch a.Kind {
	case ActionDeliver:
		return applyDeliver(gs, cfg, a.EnvelopeIndex, true)
	case ActionDuplicate:
		return applyDeliver(gs, cfg, a.EnvelopeIndex, false)
	case ActionDrop:
		return applyDrop(gs, a.EnvelopeIndex)
	case ActionFire:
		return applyFire(gs, cfg, a.Node, a.Value)
	default:
		return GlobalState{}, fmt.Errorf("globalmodel: unknown action kind %v", a.Kind)
	}
}

func applyDeliver(gs GlobalState, cfg Config, index int, remove bool) (GlobalState, error) {
	if index < 0 || index >= len(gs.Bag) {
		return GlobalState{}, fmt.Errorf("globalmodel: envelope index %d out of range", index)
	}
	env := gs.Bag[index]
	next := gs.clone()

	dest := int(env.To)
	if dest < 0 || dest >= len(next.Nodes) {
		return GlobalState{}, fmt.Errorf("globalmodel: envelope destination %d out of range", env.To)
	}

	newState, sends := consensus.OnMessage(next.Nodes[dest], env.Message, cfg.Peers())
	next.Nodes[dest] = newState

	if remove {
		next.Bag = append(next.Bag[:index:index], next.Bag[index+1:]...)
	}
	next.Bag = append(next.Bag, stampSends(env.To, sends)...)
	return next, nil
}

func applyDrop(gs GlobalState, index int) (GlobalState, error) {
	if index < 0 || index >= len(gs.Bag) {
		return GlobalState{}, fmt.Errorf("globalmodel: envelope index %d out of range", index)
	}
	next := gs.clone()
	next.Bag = append(next.Bag[:index:index], next.Bag[index+1:]...)
	return next, nil
}

func applyFire(gs GlobalState, cfg Config, node consensus.NodeID, value consensus.Value) (GlobalState, error) {
	idx := int(node)
	if idx < 0 || idx >= len(gs.Nodes) {
		return GlobalState{}, fmt.Errorf("globalmodel: fire node %d out of range", node)
	}
	next := gs.clone()
	newState, sends := consensus.OnTimer(next.Nodes[idx], value, cfg.Peers())
	next.Nodes[idx] = newState
	next.Bag = append(next.Bag, stampSends(node, sends)...)
	return next, nil
}
