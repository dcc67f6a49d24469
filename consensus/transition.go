package consensus

// Send is an outgoing message paired with its destination. Transition
// functions return a slice of Sends; the caller (globalmodel) knows which
// node produced them and stamps the source on to build a full Envelope —
// sender identity is delivery bookkeeping, not message-payload semantics,
// per the protocol's own design (no message authentication is modelled).
type Send struct {
	To      NodeID
	Message Message
}

func broadcast(peers []NodeID, msg Message) []Send {
	sends := make([]Send, 0, len(peers))
	for _, p := range peers {
		sends = append(sends, Send{To: p, Message: msg})
	}
	return sends
}

// OnStart constructs a replica's initial state. A node in faultySet comes
// up Failed and silent — this is a crash-at-start model, there is no
// notion of a node that later fails. A node in proposers floods every
// peer, including itself, with one Propose envelope per value in the
// domain: that flood is the only source of non-determinism the scheduler
// has to work with, since nothing else in this system reads a clock or
// rolls dice.
func OnStart(id NodeID, peers []NodeID, faultySet map[NodeID]bool, proposers map[NodeID]bool, quorum int) (State, []Send) {
	faulty := faultySet[id]
	s := newState(id, quorum, faulty)
	if faulty || !proposers[id] {
		return s, nil
	}

	var sends []Send
	for _, v := range Values() {
		sends = append(sends, broadcast(peers, Message{Kind: Propose, Value: v})...)
	}
	return s, sends
}

// OnMessage is the single pure transition table described in spec §4.2.
// Faulty nodes, and every (phase, message) combination not named in the
// table, are no-ops: the input state comes back unchanged and no sends
// are produced.
func OnMessage(s State, msg Message, peers []NodeID) (State, []Send) {
	if s.Faulty {
		return s, nil
	}

	switch msg.Kind {
	case Propose:
		return onPropose(s, msg.Value, peers)
	case Prepare:
		return onPrepare(s, msg.Value, peers)
	case Commit:
		return onCommit(s, msg.Value, peers)
	case Decide:
		return onDecide(s, msg.Value)
	default:
		return s, nil
	}
}

func onPropose(s State, v Value, peers []NodeID) (State, []Send) {
	if s.Phase != Init || s.AcceptedValue != nil {
		return s, nil
	}
	next := s.Clone()
	next.AcceptedValue = &v
	// The +1 self-credit: initialising our own tally to 1 when we broadcast
	// PREPARE is the canonical trick for counting our own vote without a
	// separate self-delivery event.
	next.PrepareTally[v] = 1
	return next, broadcast(peers, Message{Kind: Prepare, Value: v})
}

func onPrepare(s State, v Value, peers []NodeID) (State, []Send) {
	if s.AcceptedValue == nil || *s.AcceptedValue != v {
		return s, nil
	}
	next := s.Clone()
	next.PrepareTally[v]++

	if next.Phase == Init && next.PrepareTally[v] >= next.Quorum {
		next.Phase = Prepared
		next.CommitTally[v] = 1
		return next, broadcast(peers, Message{Kind: Commit, Value: v})
	}
	return next, nil
}

func onCommit(s State, v Value, peers []NodeID) (State, []Send) {
	if s.Phase != Prepared || s.AcceptedValue == nil || *s.AcceptedValue != v {
		return s, nil
	}
	next := s.Clone()
	next.CommitTally[v]++

	if next.CommitTally[v] >= next.Quorum {
		next.Phase = Committed
		return next, broadcast(peers, Message{Kind: Decide, Value: v})
	}
	return next, nil
}

func onDecide(s State, v Value) (State, []Send) {
	if s.AcceptedValue == nil || *s.AcceptedValue != v || s.Decided {
		return s, nil
	}
	next := s.Clone()
	next.Decided = true
	next.Phase = Decided
	return next, nil
}

// OnTimer lets a non-proposer spontaneously propose once, gated by
// Phase == Init && !HasProposed. One timer instance exists per value in
// the domain (the global model enumerates a "fire" transition per
// pending timer), so the caller picks which value's timer fired; the
// guard ensures only the first one to actually fire has any effect.
// Faulty nodes never fire a timer.
func OnTimer(s State, v Value, peers []NodeID) (State, []Send) {
	if s.Faulty || s.Phase != Init || s.HasProposed {
		return s, nil
	}
	next := s.Clone()
	next.HasProposed = true
	return next, broadcast(peers, Message{Kind: Propose, Value: v})
}
