package election

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Mux is the subset of a multiplexer this package needs to install its
// handlers, matching bernerdschaefer-raft/http's Install(mux) pattern so the
// caller's HTTP server (not this package) owns the listener and routing.
type Mux interface {
	HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request))
}

// Server installs the election RPC endpoints onto a Mux.
type Server struct {
	c *Constituent
}

// NewServer wraps a Constituent as an HTTP RPC server.
func NewServer(c *Constituent) *Server {
	return &Server{c: c}
}

// Install registers the requestVote, notifyAll, appendHeartbeat, and status
// handlers.
func (s *Server) Install(mux Mux) {
	mux.HandleFunc(RequestVotePath, s.handleRequestVote)
	mux.HandleFunc(NotifyAllPath, s.handleNotifyAll)
	mux.HandleFunc(AppendHeartbeatPath, s.handleAppendHeartbeat)
	mux.HandleFunc(StatusPath, s.handleStatus)
}

func (s *Server) handleRequestVote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term, err1 := strconv.ParseUint(q.Get("term"), 10, 64)
	candidateID, err2 := strconv.ParseUint(q.Get("candidateId"), 10, 64)
	prevLogIndex, err3 := strconv.ParseUint(q.Get("prevLogIndex"), 10, 64)
	prevLogTerm, err4 := strconv.ParseUint(q.Get("prevLogTerm"), 10, 64)

	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		// Malformed request: logged and dropped rather than crashing the
		// handler.
		s.c.log.Error("malformed requestVote query: %q", r.URL.RawQuery)
		http.Error(w, "malformed requestVote", http.StatusBadRequest)
		return
	}

	reply := s.c.RequestVote(RequestVoteArgs{
		Term:         term,
		CandidateID:  candidateID,
		PrevLogIndex: prevLogIndex,
		PrevLogTerm:  prevLogTerm,
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply)
}

func (s *Server) handleNotifyAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term, _ := strconv.ParseUint(q.Get("term"), 10, 64)
	agencyID, _ := strconv.ParseUint(q.Get("agencyId"), 10, 64)

	var body struct {
		Endpoints []string `json:"endpoints"`
	}
	// Malformed or empty body is tolerated: notifyAll is a best-effort
	// bootstrap hint, safe to ignore.
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.c.HandleNotifyAll(NotifyAllArgs{Term: term, AgencyID: agencyID, Endpoints: body.Endpoints})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleAppendHeartbeat(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term, err1 := strconv.ParseUint(q.Get("term"), 10, 64)
	leaderID, err2 := strconv.ParseUint(q.Get("leaderId"), 10, 64)

	if err1 != nil || err2 != nil {
		s.c.log.Error("malformed appendHeartbeat query: %q", r.URL.RawQuery)
		http.Error(w, "malformed appendHeartbeat", http.StatusBadRequest)
		return
	}

	s.c.HandleAppendHeartbeat(AppendHeartbeatArgs{Term: term, LeaderID: leaderID})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	leaderID, hasLeader := s.c.LeaderID()

	reply := StatusReply{
		ID:        s.c.cfg.ID,
		Role:      s.c.Role().String(),
		Term:      s.c.Term(),
		LeaderID:  leaderID,
		HasLeader: hasLeader,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply)
}
