package agent

import "testing"

func TestEntryLogAppendAndReadAll(t *testing.T) {
	dir := t.TempDir()
	l, err := newEntryLog(dir)
	if err != nil {
		t.Fatalf("newEntryLog: %v", err)
	}
	defer l.Close()

	if err := l.Append(LogEntry{Index: 1, Term: 1, Data: []byte("a")}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append(LogEntry{Index: 2, Term: 1, Data: []byte("bb")}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Index != 2 || string(entries[1].Data) != "bb" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestEntryLogLast(t *testing.T) {
	dir := t.TempDir()
	l, err := newEntryLog(dir)
	if err != nil {
		t.Fatalf("newEntryLog: %v", err)
	}
	defer l.Close()

	index, term, err := l.Last()
	if err != nil {
		t.Fatalf("Last (empty): %v", err)
	}
	if index != 0 || term != 0 {
		t.Fatalf("expected (0,0) on empty log, got (%d,%d)", index, term)
	}

	if err := l.Append(LogEntry{Index: 9, Term: 4}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	index, term, err = l.Last()
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if index != 9 || term != 4 {
		t.Fatalf("expected (9,4), got (%d,%d)", index, term)
	}
}
