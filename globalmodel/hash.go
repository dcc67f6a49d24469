package globalmodel

import (
	"encoding/binary"

	"github.com/emirpasic/gods/sets/treeset"
	"golang.org/x/crypto/sha3"
)

// Hash is a 256-bit digest of a GlobalState, stable across structurally
// equal states regardless of tally-map or bag insertion order — the
// property the exploration engine's visited set relies on to dedupe.
type Hash [32]byte

type envelopeKey struct {
	env Envelope
	seq int // breaks ties between otherwise-identical envelopes, so the
	// canonical ordering below is a total order even over a true multiset
}

func envelopeComparator(a, b interface{}) int {
	x, y := a.(envelopeKey), b.(envelopeKey)
	if x.env.From != y.env.From {
		return int(x.env.From) - int(y.env.From)
	}
	if x.env.To != y.env.To {
		return int(x.env.To) - int(y.env.To)
	}
	if x.env.Message.Kind != y.env.Message.Kind {
		return int(x.env.Message.Kind) - int(y.env.Message.Kind)
	}
	if x.env.Message.Value != y.env.Message.Value {
		return int(x.env.Message.Value) - int(y.env.Message.Value)
	}
	return x.seq - y.seq
}

// CanonicalBag returns gs.Bag in a deterministic order, independent of
// the order envelopes happened to be appended in. Built on
// github.com/emirpasic/gods/sets/treeset the same way the teacher used it
// to keep a priority-ordered transaction set: the seq tiebreaker in
// envelopeKey lets a Set-shaped container stand in for a sorted multiset,
// since a plain Set would silently collapse true duplicate envelopes.
func CanonicalBag(bag []Envelope) []Envelope {
	set := treeset.NewWith(envelopeComparator)
	for i, e := range bag {
		set.Add(envelopeKey{env: e, seq: i})
	}
	out := make([]Envelope, 0, set.Size())
	for _, item := range set.Values() {
		out = append(out, item.(envelopeKey).env)
	}
	return out
}

// CanonicalHash digests gs. Per-node it includes only
// (id, phase, accepted_value, decided, has_proposed, faulty) — the tally
// maps are intentionally excluded; see DESIGN.md "Open-question
// resolutions" #1 for why that is safe in this protocol's monotone
// regime. The bag is canonicalised via CanonicalBag first, so two states
// differing only in append order hash identically.
func CanonicalHash(gs GlobalState) Hash {
	h := sha3.New256()

	var buf [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		h.Write(buf[:])
	}

	for _, n := range gs.Nodes {
		writeInt(int(n.ID))
		writeInt(int(n.Phase))
		if n.AcceptedValue != nil {
			h.Write([]byte{1})
			writeInt(int(*n.AcceptedValue))
		} else {
			h.Write([]byte{0})
		}
		writeInt(boolInt(n.Decided))
		writeInt(boolInt(n.HasProposed))
		writeInt(boolInt(n.Faulty))
	}

	for _, e := range CanonicalBag(gs.Bag) {
		writeInt(int(e.From))
		writeInt(int(e.To))
		writeInt(int(e.Message.Kind))
		writeInt(int(e.Message.Value))
	}

	var out Hash
	h.Sum(out[:0])
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
