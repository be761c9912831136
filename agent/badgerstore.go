package agent

import (
	"encoding/binary"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

var (
	voteTermKey     = []byte("vote/term")
	voteVotedForKey = []byte("vote/votedFor")
)

// BadgerAgent is the durable election.Agent: (term, votedFor) is persisted
// to a badger.DB before any vote reply can be observed as granted, so a
// restart replays the exact same decision for a term it already voted in.
// Log entries are kept in entryLog rather than in badger itself, keeping
// the agency's own persisted state (term, votedFor) separate from the
// replicated log store.
type BadgerAgent struct {
	db     *badger.DB
	log    *entryLog
	onLead func()
}

// NewBadgerAgent opens (or creates) a durable agent rooted at dir.
func NewBadgerAgent(dir string) (*BadgerAgent, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("agent: open badger store: %w", err)
	}
	log, err := newEntryLog(dir)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BadgerAgent{db: db, log: log}, nil
}

// NewBadgerAgentInMemory opens a non-durable badger store, for tests that
// want the BadgerAgent code path exercised without touching disk.
func NewBadgerAgentInMemory() (*BadgerAgent, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("agent: open in-memory badger store: %w", err)
	}
	return &BadgerAgent{db: db}, nil
}

// OnLead registers the callback invoked when Lead is called.
func (a *BadgerAgent) OnLead(fn func()) {
	a.onLead = fn
}

func (a *BadgerAgent) LastLog() (index uint64, term uint64) {
	if a.log == nil {
		return 0, 0
	}
	index, term, err := a.log.Last()
	if err != nil {
		return 0, 0
	}
	return index, term
}

// Persist durably writes (term, votedFor) in a single transaction: a torn
// write here would let a restart read a term without its matching vote,
// which is exactly the crash window election safety depends on closing.
func (a *BadgerAgent) Persist(term uint64, votedFor uint64) error {
	return a.db.Update(func(txn *badger.Txn) error {
		var termBuf, votedForBuf [8]byte
		binary.LittleEndian.PutUint64(termBuf[:], term)
		binary.LittleEndian.PutUint64(votedForBuf[:], votedFor)
		if err := txn.Set(voteTermKey, termBuf[:]); err != nil {
			return err
		}
		return txn.Set(voteVotedForKey, votedForBuf[:])
	})
}

func (a *BadgerAgent) Lead() {
	if a.onLead != nil {
		a.onLead()
	}
}

// LoadVote reads back the last persisted (term, votedFor) pair, for a
// caller replaying state on startup before handing the Agent to
// election.New. Returns (0, 0, false) if nothing has ever been persisted.
func (a *BadgerAgent) LoadVote() (term uint64, votedFor uint64, ok bool) {
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(voteTermKey)
		if err != nil {
			return err
		}
		if err := item.Value(func(v []byte) error {
			term = binary.LittleEndian.Uint64(v)
			return nil
		}); err != nil {
			return err
		}

		item, err = txn.Get(voteVotedForKey)
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			votedFor = binary.LittleEndian.Uint64(v)
			return nil
		})
	})
	if err != nil {
		return 0, 0, false
	}
	return term, votedFor, true
}

// AppendEntry records a log entry, advancing what LastLog reports.
func (a *BadgerAgent) AppendEntry(index, term uint64) error {
	if a.log == nil {
		return fmt.Errorf("agent: in-memory badger store has no entry log")
	}
	return a.log.Append(LogEntry{Index: index, Term: term})
}

func (a *BadgerAgent) Close() error {
	if a.log != nil {
		if err := a.log.Close(); err != nil {
			return err
		}
	}
	return a.db.Close()
}
