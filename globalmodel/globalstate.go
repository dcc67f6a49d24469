package globalmodel

import "github.com/quorumcheck/quorumcheck/consensus"

// GlobalState is the tuple (vector of N replica states, in-flight
// envelope bag) the exploration engine treats as one vertex of the
// reachability graph. It is created by Initial, and from then on only
// ever produced by Apply — nothing mutates one in place, so a parent
// GlobalState a predecessor pointer refers to stays valid forever.
type GlobalState struct {
	Nodes []consensus.State
	Bag   []Envelope
}

// Initial builds the starting GlobalState: every node's on_start result,
// with the bag seeded by every initial send. cfg must already have
// passed Validate.
func Initial(cfg Config) GlobalState {
	peers := cfg.Peers()
	gs := GlobalState{Nodes: make([]consensus.State, cfg.NumNodes)}
	for i := 0; i < cfg.NumNodes; i++ {
		id := consensus.NodeID(i)
		state, sends := consensus.OnStart(id, peers, cfg.FaultyNodes, cfg.Proposers, cfg.Quorum)
		gs.Nodes[i] = state
		gs.Bag = append(gs.Bag, stampSends(id, sends)...)
	}
	return gs
}

// clone deep-copies a GlobalState so Apply can mutate a working copy
// without disturbing the state a caller (or another goroutine) still
// holds a reference to.
func (gs GlobalState) clone() GlobalState {
	nodes := make([]consensus.State, len(gs.Nodes))
	for i, n := range gs.Nodes {
		nodes[i] = n.Clone()
	}
	bag := make([]Envelope, len(gs.Bag))
	copy(bag, gs.Bag)
	return GlobalState{Nodes: nodes, Bag: bag}
}

// NonFaultyDecided returns the accepted values of every non-faulty
// decided node, in node-id order. Properties in checker/properties.go
// (Agreement, EventualDecision) are built on top of this.
func (gs GlobalState) NonFaultyDecided() []consensus.Value {
	var out []consensus.Value
	for _, n := range gs.Nodes {
		if !n.Faulty && n.Decided && n.AcceptedValue != nil {
			out = append(out, *n.AcceptedValue)
		}
	}
	return out
}
