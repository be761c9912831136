package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerAgentPersistRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a, err := NewBadgerAgent(dir)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Persist(4, 2))

	term, votedFor, ok := a.LoadVote()
	require.True(t, ok)
	assert.Equal(t, uint64(4), term)
	assert.Equal(t, uint64(2), votedFor)
}

func TestBadgerAgentSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	a1, err := NewBadgerAgent(dir)
	require.NoError(t, err)
	require.NoError(t, a1.Persist(7, 1))
	require.NoError(t, a1.Close())

	a2, err := NewBadgerAgent(dir)
	require.NoError(t, err)
	defer a2.Close()

	term, votedFor, ok := a2.LoadVote()
	require.True(t, ok)
	assert.Equal(t, uint64(7), term)
	assert.Equal(t, uint64(1), votedFor)
}

func TestBadgerAgentLoadVoteEmpty(t *testing.T) {
	a, err := NewBadgerAgentInMemory()
	require.NoError(t, err)
	defer a.Close()

	_, _, ok := a.LoadVote()
	assert.False(t, ok)
}

func TestBadgerAgentLastLogTracksAppendedEntries(t *testing.T) {
	dir := t.TempDir()
	a, err := NewBadgerAgent(dir)
	require.NoError(t, err)
	defer a.Close()

	index, term := a.LastLog()
	assert.Equal(t, uint64(0), index)
	assert.Equal(t, uint64(0), term)

	require.NoError(t, a.AppendEntry(1, 3))
	require.NoError(t, a.AppendEntry(2, 3))

	index, term = a.LastLog()
	assert.Equal(t, uint64(2), index)
	assert.Equal(t, uint64(3), term)
}

func TestBadgerAgentLeadCallback(t *testing.T) {
	a, err := NewBadgerAgentInMemory()
	require.NoError(t, err)
	defer a.Close()

	called := false
	a.OnLead(func() { called = true })
	a.Lead()
	assert.True(t, called)
}
