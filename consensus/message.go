package consensus

import "fmt"

// MessageKind tags the four message shapes the protocol ever sends. All
// four carry exactly one Value; sender identity is delivery bookkeeping,
// not message payload, so it lives on the Envelope in globalmodel, not here.
type MessageKind int

const (
	Propose MessageKind = iota
	Prepare
	Commit
	Decide
)

func (k MessageKind) String() string {
	switch k {
	case Propose:
		return "Propose"
	case Prepare:
		return "Prepare"
	case Commit:
		return "Commit"
	case Decide:
		return "Decide"
	default:
		return fmt.Sprintf("MessageKind(%d)", int(k))
	}
}

// Message is the tagged variant {Propose(v), Prepare(v), Commit(v), Decide(v)}.
// Messages are immutable and value-typed: two messages of the same kind
// carrying the same value are indistinguishable and compare equal.
type Message struct {
	Kind  MessageKind
	Value Value
}

func (m Message) String() string {
	return fmt.Sprintf("%s(%s)", m.Kind, m.Value)
}

// Equal reports whether two messages are the same kind carrying the same value.
func (m Message) Equal(other Message) bool {
	return m.Kind == other.Kind && m.Value == other.Value
}

// Less gives Message a total order (kind first, then value), for use as
// a canonicalisation key when sorting an in-flight message bag.
func (m Message) Less(other Message) bool {
	if m.Kind != other.Kind {
		return m.Kind < other.Kind
	}
	return m.Value < other.Value
}
