// Package election implements the leader-election core of the agency: the
// role state machine, the election driver, and the RequestVote/NotifyAll RPC
// endpoints. It deliberately knows nothing about log replication, snapshots,
// or client commands — those live in an external Agent this package only
// calls through a narrow interface.
package election

import (
	"context"
	"sync"
	"time"
)

// Role is the closed set of states a constituent can be in. It is modeled as
// a small tagged type rather than an ordered integer: transitions are always
// explicit assignments or switch statements, never comparisons like
// "role > Follower".
type Role int

const (
	Follower Role = iota
	Candidate
	Leader
)

func (r Role) String() string {
	switch r {
	case Follower:
		return "Follower"
	case Candidate:
		return "Candidate"
	case Leader:
		return "Leader"
	default:
		return "Unknown"
	}
}

// PeerID is a peer's index in [0, N).
type PeerID = uint64

// Term is the monotonically increasing election term.
type Term = uint64

// noPeer marks "no vote cast this term" / "no known leader".
const noPeer PeerID = ^PeerID(0)

// Agent is the external collaborator that owns durable log state and is
// notified of leadership changes. It is implemented outside this package;
// see the agent/ package for reference implementations used in tests and the
// demo binary.
type Agent interface {
	// LastLog returns the index and term of the last log entry this peer
	// holds. It is read-only to the election core.
	LastLog() (index uint64, term Term)

	// Persist durably records (term, votedFor) before a vote may be granted.
	// A non-nil error is election-fatal for the in-flight operation: the
	// caller must not reply vote-granted.
	Persist(term Term, votedFor PeerID) error

	// Lead is called once, synchronously, when this peer transitions to
	// Leader. The Agent uses it to reinitialise whatever replication state
	// it owns.
	Lead()
}

// Transport delivers RPCs to remote peers. It is best-effort: implementations
// must return an error on network failure rather than panic, since a
// negative vote is the correct response to an unreachable peer.
type Transport interface {
	RequestVote(ctx context.Context, endpoint string, args RequestVoteArgs) (RequestVoteReply, error)
	NotifyAll(ctx context.Context, endpoint string, args NotifyAllArgs) error
}

// Config is the immutable configuration supplied at construction.
type Config struct {
	// ID is this peer's index in [0, Size).
	ID PeerID
	// Size is the cluster size N.
	Size int
	// Endpoints holds one transport endpoint per peer, indexed by PeerID. An
	// empty string means "this peer is not currently reachable" and is
	// skipped when broadcasting RequestVote/NotifyAll.
	Endpoints []string
	// MinPing/MaxPing bound the randomised follower election timeout, in
	// seconds, and derive the vote-collection window and per-RPC deadline.
	MinPing float64
	MaxPing float64
	// NotifyOnStart, if true, broadcasts notifyAll once after construction.
	NotifyOnStart bool
	// HasInitialVote, InitialTerm, and InitialVotedFor restore a
	// previously-persisted (term, votedFor) pair before the driver starts.
	// A caller that reopens its Agent's durable store on restart (e.g.
	// BadgerAgent.LoadVote) must feed the result in here: without it, a
	// peer that already granted a vote at term 4 comes back up believing
	// it is still at term 0 and will grant a *different* vote at term 4
	// the next time it is asked, violating election safety across a
	// restart (spec.md §8 S6). Leave HasInitialVote false for a peer that
	// has never persisted a vote (a fresh cluster).
	HasInitialVote  bool
	InitialTerm     Term
	InitialVotedFor PeerID
}

// Endpoint returns the endpoint of peer id, or "" if out of range.
func (c *Config) Endpoint(id PeerID) string {
	if int(id) >= len(c.Endpoints) {
		return ""
	}
	return c.Endpoints[id]
}

// EndpointList returns all configured endpoints.
func (c *Config) EndpointList() []string {
	return c.Endpoints
}

// Constituent is one peer's election subsystem. The zero value is not
// usable; construct with New.
type Constituent struct {
	mu sync.Mutex

	cfg   Config
	agent Agent
	trans Transport
	log   *Logger

	term     Term
	role     Role
	votedFor PeerID // noPeer if none
	leaderID PeerID // noPeer if none
	tally    []bool
	hasVoted bool // cast a vote, or became candidate, in this timeout window

	// resetC is signalled whenever a vote is granted, waking the follower
	// sleep early. It is the Go-idiomatic replacement for the condition
	// variable the original C++ source signals from vote().
	resetC    chan struct{}
	shutdownC chan struct{}
	shutOnce  sync.Once
	rng       *electionRNG
}

// New constructs a Constituent. It validates the configuration and refuses
// to start on inconsistent size/endpoints, since configuration errors are
// not recoverable once the driver is running.
func New(cfg Config, agent Agent, trans Transport, logger *Logger) (*Constituent, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewLogger(cfg.ID, INFO)
	}

	c := &Constituent{
		cfg:       cfg,
		agent:     agent,
		trans:     trans,
		log:       logger,
		role:      Follower,
		votedFor:  noPeer,
		leaderID:  noPeer,
		tally:     make([]bool, cfg.Size),
		resetC:    make(chan struct{}, 1),
		shutdownC: make(chan struct{}),
		rng:       newElectionRNG(),
	}

	if cfg.HasInitialVote {
		// Replay a previously-persisted (term, votedFor) before anything
		// else runs, so a restart never re-grants a different vote for a
		// term it already decided (spec.md §8 S6).
		c.term = cfg.InitialTerm
		c.votedFor = cfg.InitialVotedFor
		c.leaderID = cfg.InitialVotedFor
		c.log.Debug("restored persisted vote: term=%d votedFor=%d", cfg.InitialTerm, cfg.InitialVotedFor)
	}

	if cfg.Size == 1 {
		// Single-peer shortcut: permanently Leader from initialisation,
		// at whatever term was restored (or 0 for a fresh cluster).
		c.role = Leader
		c.leaderID = cfg.ID
		c.tally[cfg.ID] = true
		agent.Lead()
	} else if cfg.NotifyOnStart {
		c.notifyAll(context.Background())
	}

	return c, nil
}

func validateConfig(cfg Config) error {
	if cfg.Size <= 0 {
		return ErrConfigInvalid
	}
	if int(cfg.ID) >= cfg.Size {
		return ErrConfigInvalid
	}
	if len(cfg.Endpoints) != cfg.Size {
		return ErrConfigInvalid
	}
	if cfg.MinPing <= 0 || cfg.MaxPing < cfg.MinPing {
		return ErrConfigInvalid
	}
	return nil
}

// Run starts the election driver loop. It blocks until Shutdown is called or
// ctx is cancelled, and is meant to be invoked in its own goroutine. A
// single-peer cluster (Size == 1) returns immediately: there is never an
// election to run.
func (c *Constituent) Run(ctx context.Context) {
	if c.cfg.Size <= 1 {
		return
	}

	for {
		select {
		case <-c.shutdownC:
			return
		case <-ctx.Done():
			return
		default:
		}

		if c.Role() == Follower {
			c.runFollowerWait(ctx)
		} else {
			c.callElection(ctx)
		}
	}
}

// runFollowerWait sleeps U(MinPing, MaxPing) or until a vote is cast in this
// window, then promotes to Candidate if no vote was cast.
func (c *Constituent) runFollowerWait(ctx context.Context) {
	c.mu.Lock()
	c.hasVoted = false
	timeout := c.rng.uniform(c.cfg.MinPing, c.cfg.MaxPing)
	c.mu.Unlock()
	drainReset(c.resetC)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-c.resetC:
		return
	case <-c.shutdownC:
		return
	case <-ctx.Done():
		return
	}

	c.mu.Lock()
	cast := c.hasVoted
	c.mu.Unlock()
	if !cast {
		c.candidate()
	}
}

func drainReset(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}

func signalReset(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Shutdown stops the election driver and wakes any blocked waiters.
func (c *Constituent) Shutdown() {
	c.shutOnce.Do(func() {
		close(c.shutdownC)
	})
}

// Role returns the current role.
func (c *Constituent) Role() Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

// Term returns the current term.
func (c *Constituent) Term() Term {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.term
}

// LeaderID returns the believed leader and whether one is known.
func (c *Constituent) LeaderID() (PeerID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.leaderID == noPeer {
		return 0, false
	}
	return c.leaderID, true
}

// IsLeader, IsFollower, IsCandidate are cheap role probes, matching the
// original's leading()/following()/running() accessors.
func (c *Constituent) IsLeader() bool    { return c.Role() == Leader }
func (c *Constituent) IsFollower() bool  { return c.Role() == Follower }
func (c *Constituent) IsCandidate() bool { return c.Role() == Candidate }

// ObserveTerm gives the original's empty update(term, id) hook real
// semantics: the external replicated-log core reports a term observed on
// inbound heartbeat/append traffic. If the observed term is higher, this
// peer immediately becomes a Follower of that term. If the term matches and
// no leader is currently known, the reported leader is adopted without a
// term bump.
func (c *Constituent) ObserveTerm(term Term, leader PeerID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if term > c.term {
		c.followLocked(term)
		c.leaderID = leader
		return
	}
	if term == c.term && c.leaderID == noPeer {
		c.leaderID = leader
	}
}

// HandleAppendHeartbeat is the inbound entry point for the implicit
// AppendHeartbeat RPC (spec.md §4.3, §6): the external replicated-log core
// routes its heartbeat/append traffic here so this core can feed the
// observed term through ObserveTerm and reset the follower election
// timeout. A heartbeat carrying a stale term (below what this peer already
// knows) is dropped without resetting anything, exactly like a stale
// RequestVote.
func (c *Constituent) HandleAppendHeartbeat(args AppendHeartbeatArgs) {
	c.mu.Lock()
	stale := args.Term < c.term
	c.mu.Unlock()
	if stale {
		c.log.Debug("dropping stale appendHeartbeat: term=%d < local term", args.Term)
		return
	}

	c.ObserveTerm(args.Term, args.LeaderID)
	signalReset(c.resetC)
}
