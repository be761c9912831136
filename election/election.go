package election

import (
	"context"
	"sync"
	"time"
)

// follow transitions to Follower of term t. If t is strictly greater than
// the current term, the vote and believed leader are cleared; otherwise only
// the tally is reset. This matches Constituent::follow in the original
// source, split so the higher-term clearing is explicit rather than
// implicit in a single term-setter.
func (c *Constituent) follow(t Term) {
	c.mu.Lock()
	c.followLocked(t)
	c.mu.Unlock()
}

func (c *Constituent) followLocked(t Term) {
	old := c.role
	if t > c.term {
		c.votedFor = noPeer
		c.leaderID = noPeer
		c.term = t
	}
	for i := range c.tally {
		c.tally[i] = false
	}
	c.role = Follower
	if old != Follower {
		c.log.LogStateChange(old, Follower, c.term)
	}
}

// candidate transitions Follower -> Candidate. The term is NOT incremented
// here; callElection raises it whenever it runs with role Candidate, which
// includes the first attempt after this promotion.
func (c *Constituent) candidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.role != Follower {
		return
	}
	old := c.role
	c.role = Candidate
	c.log.LogStateChange(old, Candidate, c.term)
}

// lead transitions Candidate -> Leader. Precondition: the caller has already
// established a majority for the current term.
func (c *Constituent) lead() {
	c.mu.Lock()
	old := c.role
	c.role = Leader
	c.leaderID = c.cfg.ID
	term := c.term
	c.mu.Unlock()

	if old != Leader {
		c.log.LogStateChange(old, Leader, term)
		c.agent.Lead()
	}
}

// vote implements the grant decision: true iff candidateTerm > Term, or
// candidateTerm == Term and LeaderId == candidateId (re-affirming a vote
// for the believed leader). Persistence happens before the reply can be
// observed as granted; a persistence failure forces a false reply even
// though the decision rule said to grant.
func (c *Constituent) vote(candidateTerm Term, candidateID PeerID, prevLogIndex uint64, prevLogTerm Term) (replyTerm Term, granted bool) {
	c.mu.Lock()

	grant := candidateTerm > c.term || (c.term == candidateTerm && c.leaderID == candidateID)
	if !grant {
		replyTerm = c.term
		c.mu.Unlock()
		return replyTerm, false
	}

	// votedFor and leaderID are always set together below, so the grant
	// formula above already implements the tie-break: a peer that voted
	// for X this term has leaderID == X, and a later candidate Y != X
	// fails the leaderID == candidateID test.
	wasHigherRole := c.role != Follower
	c.term = candidateTerm
	c.votedFor = candidateID
	c.leaderID = candidateID
	if wasHigherRole {
		for i := range c.tally {
			c.tally[i] = false
		}
		c.role = Follower
	}
	replyTerm = c.term
	c.mu.Unlock()

	if err := c.agent.Persist(candidateTerm, candidateID); err != nil {
		c.log.Error("persist(term=%d, votedFor=%d) failed: %v — withholding vote", candidateTerm, candidateID, err)
		return replyTerm, false
	}

	c.log.LogVoteGranted(candidateID, candidateTerm)
	c.mu.Lock()
	c.hasVoted = true
	c.mu.Unlock()
	signalReset(c.resetC)

	return replyTerm, true
}

// callElection runs one election attempt: vote for self, conditionally raise
// the term, broadcast RequestVote, collect replies within a bounded window,
// and either lead or fall back to Follower.
func (c *Constituent) callElection(ctx context.Context) {
	c.mu.Lock()
	c.tally[c.cfg.ID] = true
	c.hasVoted = true
	if c.role == Candidate {
		// Every attempt a Candidate makes, the first one after promotion
		// included, raises the term; a Leader re-running an election keeps
		// its current term.
		c.term++
		if err := c.agent.Persist(c.term, c.votedFor); err != nil {
			// Abandon this attempt: drop the unpersisted term and fall back
			// to Follower, retrying after the next election timeout.
			c.log.Error("persist(term=%d) before election failed: %v", c.term, err)
			c.term--
			c.followLocked(c.term)
			c.mu.Unlock()
			return
		}
	}
	term := c.term
	id := c.cfg.ID
	endpoints := append([]string(nil), c.cfg.Endpoints...)
	minPing := c.cfg.MinPing
	c.mu.Unlock()

	c.log.LogElectionStart(term)
	lastIndex, lastTerm := c.agent.LastLog()

	deadline := time.Duration(minPing * float64(time.Second))
	reqCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	type reply struct {
		id  PeerID
		rep RequestVoteReply
		err error
	}
	replies := make(chan reply, len(endpoints))

	for i, ep := range endpoints {
		if PeerID(i) == id || ep == "" {
			continue
		}
		go func(peer PeerID, endpoint string) {
			rep, err := c.trans.RequestVote(reqCtx, endpoint, RequestVoteArgs{
				Term:         term,
				CandidateID:  id,
				PrevLogIndex: lastIndex,
				PrevLogTerm:  lastTerm,
			})
			replies <- reply{id: peer, rep: rep, err: err}
		}(PeerID(i), ep)
	}

	collectWindow := time.Duration((0.5*minPing + c.rng.fraction()*0.3*minPing) * float64(time.Second))
	collectTimer := time.NewTimer(collectWindow)
	defer collectTimer.Stop()

	remaining := 0
	for i, ep := range endpoints {
		if PeerID(i) != id && ep != "" {
			remaining++
		}
	}

	abort := false
collect:
	for n := 0; n < remaining; n++ {
		select {
		case r := <-replies:
			if r.err != nil {
				c.log.Debug("RequestVote to peer %d failed: %v", r.id, r.err)
				c.mu.Lock()
				c.tally[r.id] = false
				c.mu.Unlock()
				continue
			}
			if r.rep.Term > term {
				c.follow(r.rep.Term)
				abort = true
				break collect
			}
			c.mu.Lock()
			c.tally[r.id] = r.rep.VoteGranted
			c.mu.Unlock()
		case <-collectTimer.C:
			break collect
		case <-c.shutdownC:
			return
		case <-ctx.Done():
			return
		}
	}
	if abort {
		return
	}

	c.mu.Lock()
	yea := 0
	for _, v := range c.tally {
		if v {
			yea++
		}
	}
	n := c.cfg.Size
	// A vote granted to another candidate during collection may have moved
	// this peer to a higher term or back to Follower; the tally then no
	// longer counts for the current term.
	won := yea > n/2 && c.term == term && c.role != Follower
	c.mu.Unlock()

	if won {
		c.log.LogElectionWon(term, uint64(yea), uint64(n/2+1))
		c.lead()
	} else {
		c.log.LogElectionLost(term, uint64(yea), uint64(n/2+1))
		c.follow(term)
	}
}

// RequestVote is the inbound RPC handler. Term adoption on a higher
// candidateTerm happens inside vote() itself, as part of granting:
// every path that raises Term here also grants the vote in the same step,
// so there is no separate pre-adoption before the decision rule runs (doing
// so would clear LeaderId before vote() can compare against it, and refuse
// a vote that should have been granted).
func (c *Constituent) RequestVote(args RequestVoteArgs) RequestVoteReply {
	term, granted := c.vote(args.Term, args.CandidateID, args.PrevLogIndex, args.PrevLogTerm)
	return RequestVoteReply{Term: term, VoteGranted: granted}
}

// notifyAll broadcasts the current endpoint table to every other configured
// peer, fire-and-forget, as a bootstrap hint. It never blocks the caller on
// replies (the original issues an async ClusterComm request and returns
// immediately).
//
// TODO: replace this bootstrap broadcast with a gossip protocol; preserved
// as-is per the original's own TODO, which this core does not attempt to
// resolve.
func (c *Constituent) notifyAll(ctx context.Context) {
	c.mu.Lock()
	term := c.term
	id := c.cfg.ID
	endpoints := append([]string(nil), c.cfg.Endpoints...)
	c.mu.Unlock()

	args := NotifyAllArgs{Term: term, AgencyID: id, Endpoints: endpoints}

	var wg sync.WaitGroup
	for i, ep := range endpoints {
		if PeerID(i) == id || ep == "" {
			continue
		}
		wg.Add(1)
		go func(endpoint string) {
			defer wg.Done()
			if err := c.trans.NotifyAll(ctx, endpoint, args); err != nil {
				c.log.Debug("notifyAll to %s failed: %v", endpoint, err)
			}
		}(ep)
	}
	// Fire-and-forget: don't make New()/configure() wait on slow peers.
	go wg.Wait()
}

// NotifyAll broadcasts the endpoint table once, from outside construction
// (e.g. a manual admin trigger). It is idempotent and safe to call multiple
// times.
func (c *Constituent) NotifyAll(ctx context.Context) {
	c.notifyAll(ctx)
}

// HandleNotifyAll is the inbound handler for a peer's notifyAll broadcast.
// It is safe to ignore unknown senders; callers MAY refresh their endpoint
// table from args.Endpoints, which this minimal core does not do since
// Config is immutable after init — refreshing membership is out of scope.
func (c *Constituent) HandleNotifyAll(args NotifyAllArgs) {
	c.log.Debug("received notifyAll from agency %d (term=%d, %d endpoints)", args.AgencyID, args.Term, len(args.Endpoints))
}
