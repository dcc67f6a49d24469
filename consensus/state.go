package consensus

import (
	"github.com/emirpasic/gods/sets/treeset"
)

func tallyComparator(a, b interface{}) int {
	av, bv := a.(TallyEntry).Value, b.(TallyEntry).Value
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

// State is a single replica's view of the protocol (spec: ConsensusNodeState).
// It is a plain value-ish struct: every mutation goes through Clone() first,
// so a predecessor State survives for counterexample reconstruction even
// after OnMessage/OnTimer produce a successor. Treat a State as immutable
// once handed to a caller; the state machine below never mutates one in place.
type State struct {
	ID NodeID

	Phase Phase

	// AcceptedValue is the value this node has latched onto. It is set at
	// most once, by the first Propose it accepts, and never changes again.
	AcceptedValue *Value

	// PrepareTally and CommitTally count distinct PREPARE/COMMIT votes
	// received for each value, including the node's own self-credited vote
	// at broadcast time.
	PrepareTally map[Value]int
	CommitTally  map[Value]int

	Decided bool

	Quorum int

	Faulty bool

	// HasProposed guards a non-proposer from spontaneously proposing more
	// than once via OnTimer.
	HasProposed bool
}

// Clone returns a deep copy of s. Every transition in this package starts
// by cloning its input state, mutating only the clone, and returning it —
// the copy-on-write discipline the exploration engine depends on to keep
// a parent state intact for trace reconstruction.
func (s State) Clone() State {
	out := s
	if s.AcceptedValue != nil {
		v := *s.AcceptedValue
		out.AcceptedValue = &v
	}
	out.PrepareTally = cloneTally(s.PrepareTally)
	out.CommitTally = cloneTally(s.CommitTally)
	return out
}

func cloneTally(in map[Value]int) map[Value]int {
	out := make(map[Value]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// TallyEntry is one (value, count) pair from a canonicalised tally.
type TallyEntry struct {
	Value Value
	Count int
}

// SortedTally returns a tally map's entries in ascending Value order, for
// anything that needs a deterministic view of a tally instead of ranging
// over the map directly, since Go map iteration order is randomised per
// process. globalmodel.CanonicalHash does not use it: the hash excludes
// tallies altogether.
func SortedTally(tally map[Value]int) []TallyEntry {
	set := treeset.NewWith(tallyComparator)
	for v, c := range tally {
		set.Add(TallyEntry{Value: v, Count: c})
	}
	entries := make([]TallyEntry, 0, set.Size())
	for _, item := range set.Values() {
		entries = append(entries, item.(TallyEntry))
	}
	return entries
}

// Equal reports whether two states are field-for-field identical,
// including tally counts. Used by the transition tests, including the
// idempotence test.
func (s State) Equal(other State) bool {
	if s.ID != other.ID || s.Phase != other.Phase || s.Decided != other.Decided ||
		s.Quorum != other.Quorum || s.Faulty != other.Faulty || s.HasProposed != other.HasProposed {
		return false
	}
	if (s.AcceptedValue == nil) != (other.AcceptedValue == nil) {
		return false
	}
	if s.AcceptedValue != nil && *s.AcceptedValue != *other.AcceptedValue {
		return false
	}
	return tallyEqual(s.PrepareTally, other.PrepareTally) && tallyEqual(s.CommitTally, other.CommitTally)
}

func tallyEqual(a, b map[Value]int) bool {
	if len(a) != len(b) {
		return false
	}
	for v, c := range a {
		if b[v] != c {
			return false
		}
	}
	return true
}

func newState(id NodeID, quorum int, faulty bool) State {
	phase := Init
	if faulty {
		phase = Failed
	}
	return State{
		ID:           id,
		Phase:        phase,
		PrepareTally: make(map[Value]int),
		CommitTally:  make(map[Value]int),
		Quorum:       quorum,
		Faulty:       faulty,
	}
}
