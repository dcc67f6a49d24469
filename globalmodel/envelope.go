package globalmodel

import "github.com/quorumcheck/quorumcheck/consensus"

// Envelope is one in-flight message: who sent it, who it is addressed to.
// Sender identity is delivery bookkeeping only — consensus.Message itself
// carries no sender, since no message authentication is modelled — but
// Ordered mode needs it to maintain a per-(From,To) FIFO.
type Envelope struct {
	From    consensus.NodeID
	To      consensus.NodeID
	Message consensus.Message
}

func (e Envelope) pairKey() [2]consensus.NodeID {
	return [2]consensus.NodeID{e.From, e.To}
}

func stampSends(from consensus.NodeID, sends []consensus.Send) []Envelope {
	envs := make([]Envelope, 0, len(sends))
	for _, s := range sends {
		envs = append(envs, Envelope{From: from, To: s.To, Message: s.Message})
	}
	return envs
}
