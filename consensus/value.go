// Package consensus implements the per-replica protocol state machine:
// a closed value/message algebra and the pure Propose/Prepare/Commit/Decide
// transition function each node runs. Nothing in this package touches a
// network, a clock, or the filesystem; every exported function is a pure
// mapping from inputs to (new state, outgoing envelopes).
package consensus

import "fmt"

// Value is the closed set of things a replica can propose. Three values
// is enough to expose disagreement bugs (the proposer floods all of them
// at once, see OnStart) without letting the state space explode.
type Value int

const (
	V1 Value = iota
	V2
	V3
)

// Values returns the whole value domain in canonical (ascending) order.
// Every place that needs to iterate "all proposable values" — on_start's
// flood of initial Propose envelopes, tests enumerating scenarios — uses
// this instead of hard-coding the domain a second time.
func Values() []Value {
	return []Value{V1, V2, V3}
}

func (v Value) String() string {
	switch v {
	case V1:
		return "V1"
	case V2:
		return "V2"
	case V3:
		return "V3"
	default:
		return fmt.Sprintf("Value(%d)", int(v))
	}
}

// Less gives Value a total order, used to canonicalise tally maps and
// message bags before they are hashed or compared.
func (v Value) Less(other Value) bool {
	return v < other
}
