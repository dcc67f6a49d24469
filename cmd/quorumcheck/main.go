package main

import (
	"fmt"
	"log"

	"github.com/quorumcheck/quorumcheck/checker"
	"github.com/quorumcheck/quorumcheck/consensus"
	"github.com/quorumcheck/quorumcheck/globalmodel"
)

const (
	DEPTH_BOUND  = 14
	STATE_LIMIT  = 50000
	WORKER_COUNT = 4
)

func proposers(ids ...consensus.NodeID) map[consensus.NodeID]bool {
	out := make(map[consensus.NodeID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func faulty(ids ...consensus.NodeID) map[consensus.NodeID]bool {
	out := make(map[consensus.NodeID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func runScenario(name string, model globalmodel.Config) {
	cfg := checker.Config{
		Model:       model,
		Properties:  checker.DefaultProperties(),
		DepthBound:  DEPTH_BOUND,
		StateLimit:  STATE_LIMIT,
		WorkerCount: WORKER_COUNT,
	}
	log.Printf("running %s", name)
	report, err := checker.Check(cfg)
	if err != nil {
		log.Fatalf("%s: bad configuration: %v", name, err)
	}
	fmt.Printf("=== %s ===\n%s\n", name, report.DebugString())
}

func main() {
	runScenario("three nodes, no faults, unanimous quorum", globalmodel.Config{
		NumNodes: 3, Quorum: 3, Proposers: proposers(0), Mode: globalmodel.Ordered,
	})
	runScenario("five nodes, one crash against a strict quorum", globalmodel.Config{
		NumNodes: 5, Quorum: 5, FaultyNodes: faulty(4), Proposers: proposers(0), Mode: globalmodel.Ordered,
	})
	runScenario("five nodes, two crashes against a majority quorum", globalmodel.Config{
		NumNodes: 5, Quorum: 3, FaultyNodes: faulty(3, 4), Proposers: proposers(0), Mode: globalmodel.UnorderedNonduplicating,
	})
}
