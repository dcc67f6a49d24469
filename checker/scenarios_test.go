package checker

import (
	"testing"

	"github.com/quorumcheck/quorumcheck/consensus"
	"github.com/quorumcheck/quorumcheck/globalmodel"
)

// scenario mirrors the concrete-scenarios table: a model configuration
// plus the expected Agreement and EventualDecision verdicts.
type scenario struct {
	name             string
	model            globalmodel.Config
	wantAgreement    Verdict
	wantEventualDecn Verdict
}

func faultySet(ids ...consensus.NodeID) map[consensus.NodeID]bool {
	out := make(map[consensus.NodeID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func proposerSet(ids ...consensus.NodeID) map[consensus.NodeID]bool {
	out := make(map[consensus.NodeID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func scenarios() []scenario {
	return []scenario{
		{
			name: "S1_three_nodes_no_faults_unanimous_quorum",
			model: globalmodel.Config{
				NumNodes: 3, Quorum: 3, Proposers: proposerSet(0), Mode: globalmodel.Ordered,
			},
			wantAgreement:    Holds,
			wantEventualDecn: Holds,
		},
		{
			name: "S2_five_nodes_no_faults_unanimous_quorum",
			model: globalmodel.Config{
				NumNodes: 5, Quorum: 5, Proposers: proposerSet(0), Mode: globalmodel.Ordered,
			},
			wantAgreement:    Holds,
			wantEventualDecn: Holds,
		},
		{
			// One crash against a strict (== N) quorum makes the quorum
			// unreachable: no trajectory ever decides.
			name: "S3_one_crash_breaks_strict_quorum",
			model: globalmodel.Config{
				NumNodes: 5, Quorum: 5, FaultyNodes: faultySet(4), Proposers: proposerSet(0), Mode: globalmodel.Ordered,
			},
			wantAgreement:    Holds,
			wantEventualDecn: InsufficientlyWitnessed,
		},
		{
			// A majority quorum tolerates two crashes out of five.
			name: "S4_majority_quorum_tolerates_two_crashes",
			model: globalmodel.Config{
				NumNodes: 5, Quorum: 3, FaultyNodes: faultySet(3, 4), Proposers: proposerSet(0), Mode: globalmodel.UnorderedNonduplicating,
			},
			wantAgreement:    Holds,
			wantEventualDecn: Holds,
		},
		{
			// Lossy delivery still lets the non-lossy branches decide; the
			// engine enumerates the drop branch rather than sampling it.
			name: "S5_lossy_network_still_has_a_deciding_branch",
			model: globalmodel.Config{
				NumNodes: 5, Quorum: 5, Proposers: proposerSet(0), Mode: globalmodel.Lossy, LossRate: 0.1,
			},
			wantAgreement:    Holds,
			wantEventualDecn: Holds,
		},
		{
			// The adversarial case: the proposer floods every value in the
			// domain (per consensus.OnStart), a superset of "sends V1 and
			// V2". Agreement must hold despite the fork attempt.
			name: "S6_proposer_floods_conflicting_values",
			model: globalmodel.Config{
				NumNodes: 3, Quorum: 2, Proposers: proposerSet(0), Mode: globalmodel.UnorderedNonduplicating,
			},
			wantAgreement:    Holds,
			wantEventualDecn: Holds,
		},
	}
}

func mustFind(t *testing.T, report Report, name string) PropertyResult {
	t.Helper()
	for _, r := range report.Results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("property %q missing from report", name)
	return PropertyResult{}
}

func TestScenarios(t *testing.T) {
	// Agreement is an Always property: it only comes back Holds (instead of
	// Inconclusive) once the traversal fully drains the reachable graph, not
	// merely once some node decides. The largest cluster here is N=5 with a
	// single proposer; the longest path to a fully-drained bag is bounded by
	// 3*N + 4*N^2 + N = 120 steps (the initial flood, one self-timer Propose,
	// one Prepare, one Commit and one Decide broadcast per live node, plus
	// the timer fires), so the bound below clears that with margin for every
	// scenario in the table.
	const (
		scenarioDepthBound = 140
		scenarioStateLimit = 400000
	)
	for _, sc := range scenarios() {
		sc := sc
		t.Run(sc.name, func(t *testing.T) {
			cfg := Config{
				Model:       sc.model,
				Properties:  []Property{Agreement(), EventualDecision()},
				DepthBound:  scenarioDepthBound,
				StateLimit:  scenarioStateLimit,
				WorkerCount: 4,
			}
			report, err := Check(cfg)
			if err != nil {
				t.Fatalf("Check returned an error: %v", err)
			}
			if report.InternalError != nil {
				t.Fatalf("internal engine error: %v", report.InternalError)
			}

			agreement := mustFind(t, report, "agreement")
			if agreement.Verdict != sc.wantAgreement {
				t.Fatalf("agreement: want %s, got %s (trace=%v)", sc.wantAgreement, agreement.Verdict, agreement.Trace)
			}

			eventual := mustFind(t, report, "eventual_decision")
			if eventual.Verdict != sc.wantEventualDecn {
				t.Fatalf("eventual_decision: want %s, got %s", sc.wantEventualDecn, eventual.Verdict)
			}
		})
	}
}
