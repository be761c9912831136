package agent

import "testing"

func TestMemoryAgentPersistAndVote(t *testing.T) {
	m := NewMemoryAgent(nil)
	if err := m.Persist(3, 1); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	term, votedFor := m.Vote()
	if term != 3 || votedFor != 1 {
		t.Fatalf("expected (3,1), got (%d,%d)", term, votedFor)
	}
}

func TestMemoryAgentLeadCallback(t *testing.T) {
	called := false
	m := NewMemoryAgent(func() { called = true })
	m.Lead()
	if !called {
		t.Fatalf("expected onLead callback to fire")
	}
}

func TestMemoryAgentLastLogDefaultsToZero(t *testing.T) {
	m := NewMemoryAgent(nil)
	index, term := m.LastLog()
	if index != 0 || term != 0 {
		t.Fatalf("expected (0,0), got (%d,%d)", index, term)
	}
	m.Append(5, 2)
	index, term = m.LastLog()
	if index != 5 || term != 2 {
		t.Fatalf("expected (5,2), got (%d,%d)", index, term)
	}
}
