package agent

import "sync"

// MemoryAgent is an in-memory election.Agent, used by unit tests and by
// single-process demos that don't need durability across restarts. It
// satisfies election.Agent without importing the election package, so
// election stays free of a dependency on its own reference collaborators.
type MemoryAgent struct {
	mu        sync.Mutex
	lastIndex uint64
	lastTerm  uint64
	term      uint64
	votedFor  uint64
	onLead    func()
}

// NewMemoryAgent returns a MemoryAgent. onLead, if non-nil, is invoked
// (synchronously, on the caller's goroutine) every time Lead is called.
func NewMemoryAgent(onLead func()) *MemoryAgent {
	return &MemoryAgent{onLead: onLead}
}

func (m *MemoryAgent) LastLog() (index uint64, term uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastIndex, m.lastTerm
}

func (m *MemoryAgent) Persist(term uint64, votedFor uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.term = term
	m.votedFor = votedFor
	return nil
}

func (m *MemoryAgent) Lead() {
	if m.onLead != nil {
		m.onLead()
	}
}

// Vote returns the last persisted (term, votedFor) pair, for assertions in
// tests that want to inspect what was durably recorded.
func (m *MemoryAgent) Vote() (term uint64, votedFor uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.term, m.votedFor
}

// Append appends a log entry and updates the reported LastLog values,
// letting tests simulate replication progress independent of voting.
func (m *MemoryAgent) Append(index, term uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastIndex = index
	m.lastTerm = term
}
