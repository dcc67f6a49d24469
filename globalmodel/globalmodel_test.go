package globalmodel

import (
	"testing"

	"github.com/quorumcheck/quorumcheck/consensus"
)

func baseConfig(n int, quorum int) Config {
	return Config{
		NumNodes:  n,
		Quorum:    quorum,
		Proposers: map[consensus.NodeID]bool{0: true},
		Mode:      UnorderedNonduplicating,
	}
}

func TestValidateRejectsImpossibleQuorum(t *testing.T) {
	cfg := baseConfig(3, 4)
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for quorum > num_nodes")
	}
}

func TestValidateRejectsAllProposersFaulty(t *testing.T) {
	cfg := baseConfig(3, 3)
	cfg.FaultyNodes = map[consensus.NodeID]bool{0: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error when the only proposer is faulty")
	}
}

func TestValidateRejectsDuplicatingMode(t *testing.T) {
	cfg := baseConfig(3, 3)
	cfg.Mode = Duplicating
	if err := cfg.Validate(); err == nil {
		t.Fatal("Duplicating is not a selectable network_mode")
	}
}

func TestValidateAccepts(t *testing.T) {
	cfg := baseConfig(3, 3)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected a valid config to pass, got %v", err)
	}
}

func TestInitialSeedsOneProposePerPeerPerValue(t *testing.T) {
	cfg := baseConfig(3, 3)
	gs := Initial(cfg)

	want := cfg.NumNodes * len(consensus.Values())
	if len(gs.Bag) != want {
		t.Fatalf("expected %d seeded envelopes, got %d", want, len(gs.Bag))
	}
	for _, n := range gs.Nodes {
		if n.Phase != consensus.Init {
			t.Fatalf("expected every node to start Init, got %v for node %d", n.Phase, n.ID)
		}
	}
}

func TestInitialMarksFaultyNodesFailed(t *testing.T) {
	cfg := baseConfig(5, 5)
	cfg.FaultyNodes = map[consensus.NodeID]bool{4: true}
	gs := Initial(cfg)

	if gs.Nodes[4].Phase != consensus.Failed || !gs.Nodes[4].Faulty {
		t.Fatalf("expected node 4 to start Failed, got %+v", gs.Nodes[4])
	}
	for _, e := range gs.Bag {
		if e.From == 4 || e.To == 4 {
			t.Fatalf("a faulty node must neither send nor receive, found envelope %+v", e)
		}
	}
}

func TestCanonicalHashIgnoresBagAppendOrder(t *testing.T) {
	a := GlobalState{
		Nodes: []consensus.State{},
		Bag: []Envelope{
			{From: 0, To: 1, Message: consensus.Message{Kind: consensus.Propose, Value: consensus.V1}},
			{From: 0, To: 2, Message: consensus.Message{Kind: consensus.Propose, Value: consensus.V2}},
		},
	}
	b := GlobalState{
		Nodes: []consensus.State{},
		Bag: []Envelope{
			{From: 0, To: 2, Message: consensus.Message{Kind: consensus.Propose, Value: consensus.V2}},
			{From: 0, To: 1, Message: consensus.Message{Kind: consensus.Propose, Value: consensus.V1}},
		},
	}
	if CanonicalHash(a) != CanonicalHash(b) {
		t.Fatal("states differing only in bag append order must hash equal")
	}
}

func TestCanonicalHashExcludesTallyCounts(t *testing.T) {
	n1 := consensus.State{ID: 0, Phase: consensus.Init, PrepareTally: map[consensus.Value]int{consensus.V1: 1, consensus.V2: 2}}
	n2 := consensus.State{ID: 0, Phase: consensus.Init, PrepareTally: map[consensus.Value]int{consensus.V2: 99, consensus.V1: 1}}

	a := GlobalState{Nodes: []consensus.State{n1}}
	b := GlobalState{Nodes: []consensus.State{n2}}
	if CanonicalHash(a) != CanonicalHash(b) {
		t.Fatal("differing tally counts must not affect the canonical hash (tallies are intentionally excluded)")
	}
}

func TestCanonicalHashDistinguishesDifferentPhases(t *testing.T) {
	a := GlobalState{Nodes: []consensus.State{{ID: 0, Phase: consensus.Init}}}
	b := GlobalState{Nodes: []consensus.State{{ID: 0, Phase: consensus.Prepared}}}
	if CanonicalHash(a) == CanonicalHash(b) {
		t.Fatal("different phases must hash differently")
	}
}

func TestSuccessorsIncludeDeliverAndFire(t *testing.T) {
	cfg := baseConfig(2, 2)
	gs := Initial(cfg)

	actions := EnabledActions(gs, cfg)
	var sawDeliver, sawFire bool
	for _, a := range actions {
		switch a.Kind {
		case ActionDeliver:
			sawDeliver = true
		case ActionFire:
			sawFire = true
		}
	}
	if !sawDeliver {
		t.Fatal("expected at least one deliver action from a freshly seeded state")
	}
	if !sawFire {
		t.Fatal("expected node 1 (non-proposer, still Init) to have a pending fire action")
	}

	successors := Successors(gs, cfg)
	if len(successors) != len(actions) {
		t.Fatalf("expected one successor per enabled action, got %d actions and %d successors", len(actions), len(successors))
	}
}

func TestOrderedModeOnlyDeliversHeadOfEachFIFO(t *testing.T) {
	cfg := baseConfig(2, 2)
	cfg.Mode = Ordered
	gs := GlobalState{
		Nodes: []consensus.State{
			{ID: 0, Phase: consensus.Init, PrepareTally: map[consensus.Value]int{}, CommitTally: map[consensus.Value]int{}, Quorum: 2},
			{ID: 1, Phase: consensus.Init, PrepareTally: map[consensus.Value]int{}, CommitTally: map[consensus.Value]int{}, Quorum: 2},
		},
		Bag: []Envelope{
			{From: 0, To: 1, Message: consensus.Message{Kind: consensus.Propose, Value: consensus.V1}},
			{From: 0, To: 1, Message: consensus.Message{Kind: consensus.Propose, Value: consensus.V2}},
		},
	}
	indices := deliverableIndices(gs, cfg)
	if len(indices) != 1 || indices[0] != 0 {
		t.Fatalf("expected only the head envelope (index 0) deliverable under Ordered mode, got %v", indices)
	}
}

func TestLossyModeEnablesDropActions(t *testing.T) {
	cfg := baseConfig(2, 2)
	cfg.Mode = Lossy
	gs := Initial(cfg)

	var sawDrop bool
	for _, a := range EnabledActions(gs, cfg) {
		if a.Kind == ActionDrop {
			sawDrop = true
		}
	}
	if !sawDrop {
		t.Fatal("expected drop actions to be enabled under Lossy mode")
	}
}

func TestApplyDeliverIsPureAndDoesNotMutateInput(t *testing.T) {
	cfg := baseConfig(2, 2)
	gs := Initial(cfg)
	before := gs.clone()

	actions := EnabledActions(gs, cfg)
	_, err := Apply(gs, actions[0], cfg)
	if err != nil {
		t.Fatalf("unexpected error applying an enabled action: %v", err)
	}
	if CanonicalHash(gs) != CanonicalHash(before) {
		t.Fatal("Apply must not mutate its input GlobalState")
	}
}
