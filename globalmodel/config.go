// Package globalmodel composes N consensus.State replicas and an
// in-flight message bag into a single global state, and exposes the
// enumeration of its enabled transitions — the piece the exploration
// engine actually walks. Nothing here is concurrent; every function is
// a pure mapping, mirroring consensus's own purity so that the engine
// can run transitions on independent states with no coordination.
package globalmodel

import (
	"fmt"

	"github.com/quorumcheck/quorumcheck/consensus"
)

// NetworkMode selects how the in-flight message bag behaves.
type NetworkMode int

const (
	// Ordered: envelopes per (source, destination) pair deliver in send
	// order — the bag behaves as a per-pair FIFO.
	Ordered NetworkMode = iota
	// UnorderedNonduplicating: a multiset, each envelope deliverable at
	// most once, in any order.
	UnorderedNonduplicating
	// Lossy: unordered, plus a drop transition is enabled for every
	// in-flight envelope (the checker branches over both drop and deliver).
	Lossy
	// Duplicating exists so Successors' transition table is structurally
	// complete per spec.md §4.3, but no configuration surface selects it —
	// see DESIGN.md "Open-question resolutions". Validate rejects it.
	Duplicating
)

func (m NetworkMode) String() string {
	switch m {
	case Ordered:
		return "Ordered"
	case UnorderedNonduplicating:
		return "UnorderedNonduplicating"
	case Lossy:
		return "Lossy"
	case Duplicating:
		return "Duplicating"
	default:
		return fmt.Sprintf("NetworkMode(%d)", int(m))
	}
}

// Config is the model-level configuration: cluster shape and network
// behaviour. checker.Config holds this in its Model field and adds the exploration knobs
// (depth bound, state limit, worker count, properties).
type Config struct {
	NumNodes    int
	FaultyNodes map[consensus.NodeID]bool
	// Proposers designates which nodes flood the network with Propose
	// envelopes at on_start. Parameterised rather than hard-coded to
	// node 0, per spec.md §9.
	Proposers map[consensus.NodeID]bool
	Quorum    int
	Mode      NetworkMode
	// LossRate is informational only: the checker enumerates both the
	// drop and the deliver branch for every in-flight envelope under
	// Lossy, it does not sample — there is nothing probabilistic about a
	// bounded model checker. Kept on Config because spec.md §6 lists it
	// as part of the network_mode value.
	LossRate float64
}

// Peers returns every non-faulty node id in [0, NumNodes) in ascending
// order. Every broadcast in this system, including the one in
// consensus.OnStart, is fed a peer list from here so that send order is
// deterministic and reproducible across a replayed trace, and so that no
// envelope is ever addressed to a faulty node.
func (c Config) Peers() []consensus.NodeID {
	peers := make([]consensus.NodeID, 0, c.NumNodes)
	for i := 0; i < c.NumNodes; i++ {
		id := consensus.NodeID(i)
		if c.FaultyNodes[id] {
			continue
		}
		peers = append(peers, id)
	}
	return peers
}

// Validate checks the configuration-error conditions spec.md §7 names as
// fatal and must-fail-fast: an impossible quorum, and a faulty/proposer
// overlap that leaves no proposer able to start.
func (c Config) Validate() error {
	if c.NumNodes <= 0 {
		return fmt.Errorf("globalmodel: num_nodes must be positive, got %d", c.NumNodes)
	}
	if c.Quorum <= 0 || c.Quorum > c.NumNodes {
		return fmt.Errorf("globalmodel: quorum %d is impossible for %d nodes", c.Quorum, c.NumNodes)
	}
	if c.Mode == Duplicating {
		return fmt.Errorf("globalmodel: network_mode Duplicating is not a configurable mode (see DESIGN.md)")
	}
	for id := range c.FaultyNodes {
		if id < 0 || int(id) >= c.NumNodes {
			return fmt.Errorf("globalmodel: faulty node %d out of range [0, %d)", id, c.NumNodes)
		}
	}
	haveLiveProposer := false
	for id := range c.Proposers {
		if id < 0 || int(id) >= c.NumNodes {
			return fmt.Errorf("globalmodel: proposer %d out of range [0, %d)", id, c.NumNodes)
		}
		if !c.FaultyNodes[id] {
			haveLiveProposer = true
		}
	}
	if len(c.Proposers) == 0 {
		return fmt.Errorf("globalmodel: no proposer designated, no node will ever propose a value")
	}
	if !haveLiveProposer {
		return fmt.Errorf("globalmodel: every designated proposer is faulty, no proposer can start")
	}
	return nil
}
