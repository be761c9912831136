package election

import (
	"fmt"
	"log"
	"time"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// Logger provides structured logging for the election core, keyed by peer
// id so log lines from a multi-peer test or demo cluster stay distinguishable.
type Logger struct {
	peerID PeerID
	level  LogLevel
}

// NewLogger creates a new logger for a peer.
func NewLogger(peerID PeerID, level LogLevel) *Logger {
	return &Logger{peerID: peerID, level: level}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level <= DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *Logger) Info(format string, args ...interface{}) {
	if l.level <= INFO {
		l.log("INFO", format, args...)
	}
}

func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level <= WARN {
		l.log("WARN", format, args...)
	}
}

func (l *Logger) Error(format string, args ...interface{}) {
	if l.level <= ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *Logger) log(level, format string, args ...interface{}) {
	timestamp := time.Now().Format("15:04:05.000")
	prefix := fmt.Sprintf("[%s] [peer %d] [%s] ", timestamp, l.peerID, level)
	log.Printf(prefix+format, args...)
}

// Specialized log functions for election events.

func (l *Logger) LogStateChange(oldRole, newRole Role, term Term) {
	emoji := map[Role]string{
		Follower:  "👤",
		Candidate: "🗳️",
		Leader:    "👑",
	}
	l.Info("%s %s → %s %s (term=%d)",
		emoji[oldRole], oldRole,
		emoji[newRole], newRole, term)
}

func (l *Logger) LogElectionStart(term Term) {
	l.Info("🗳️  Starting election for term %d", term)
}

func (l *Logger) LogElectionWon(term, votes, needed uint64) {
	l.Info("👑 WON election for term %d (votes=%d/%d)", term, votes, needed)
}

func (l *Logger) LogElectionLost(term, votes, needed uint64) {
	l.Info("❌ LOST election for term %d (votes=%d/%d)", term, votes, needed)
}

func (l *Logger) LogVoteGranted(candidateID PeerID, term Term) {
	l.Info("✅ Granted vote to peer %d for term %d", candidateID, term)
}

func (l *Logger) LogVoteDenied(candidateID PeerID, term Term, reason string) {
	l.Info("❌ Denied vote to peer %d for term %d: %s", candidateID, term, reason)
}

func (l *Logger) LogStepDown(oldTerm, newTerm Term) {
	l.Info("⬇️  Stepping down: term %d → %d", oldTerm, newTerm)
}

func (l *Logger) LogElectionTimeout() {
	l.Debug("⏰ Election timeout - becoming candidate")
}
