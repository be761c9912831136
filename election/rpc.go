package election

// RequestVoteArgs is the payload of the requestVote RPC:
// POST /_api/agency_priv/requestVote?term=T&candidateId=C&prevLogIndex=I&prevLogTerm=PT
type RequestVoteArgs struct {
	Term         Term
	CandidateID  PeerID
	PrevLogIndex uint64
	PrevLogTerm  Term
}

// RequestVoteReply is the two-field reply body. Extra keys on the wire are
// tolerated and ignored by the decoder in transport_http.go.
type RequestVoteReply struct {
	Term        Term `json:"term"`
	VoteGranted bool `json:"voteGranted"`
}

// NotifyAllArgs is the body of the one-shot notifyAll bootstrap RPC:
// POST /_api/agency_priv/notifyAll?term=T&agencyId=A
// Body: { "endpoints": [...] }
type NotifyAllArgs struct {
	Term      Term
	AgencyID  PeerID
	Endpoints []string `json:"endpoints"`
}

// AppendHeartbeatArgs is the payload of the implicit AppendHeartbeat path
// (spec.md §4.3, §6): heartbeat/append traffic from a current leader is
// routed to this core by the external replicated-log core so it can observe
// the leader's term and reset its own election timeout. This core does not
// implement AppendEntries itself (log replication is out of scope); this is
// only the term/leader-observation slice of that traffic.
type AppendHeartbeatArgs struct {
	Term     Term
	LeaderID PeerID
}

// StatusReply reports a peer's role, term, and believed leader for operator
// inspection. It is not part of the inter-peer protocol; nothing in the
// election driver consumes it, only agencyctl/agencyd status.
type StatusReply struct {
	ID        PeerID `json:"id"`
	Role      string `json:"role"`
	Term      Term   `json:"term"`
	LeaderID  PeerID `json:"leaderId"`
	HasLeader bool   `json:"hasLeader"`
}
