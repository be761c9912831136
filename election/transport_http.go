package election

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Wire paths for the RPC surface.
const (
	RequestVotePath     = "/_api/agency_priv/requestVote"
	NotifyAllPath       = "/_api/agency_priv/notifyAll"
	AppendHeartbeatPath = "/_api/agency_priv/appendHeartbeat"
	StatusPath          = "/_api/agency_priv/status"
)

// HTTPTransport is the reference Transport implementation: best-effort
// request/response delivery over plain net/http, with query-string
// parameters and a JSON-ish body. See DESIGN.md for why a gRPC+protobuf
// transport was not carried forward; this is the transport the wire
// contract itself describes, and the one pack example that implements an
// HTTP Raft transport (bernerdschaefer-raft/http) also reaches only for
// stdlib net/http, never a third-party router.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport builds a Transport with the given per-request timeout as
// a fallback; callers normally bound requests with a context deadline
// derived from Config.MinPing instead.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{client: &http.Client{Timeout: timeout}}
}

func (t *HTTPTransport) RequestVote(ctx context.Context, endpoint string, args RequestVoteArgs) (RequestVoteReply, error) {
	q := url.Values{}
	q.Set("term", strconv.FormatUint(args.Term, 10))
	q.Set("candidateId", strconv.FormatUint(args.CandidateID, 10))
	q.Set("prevLogIndex", strconv.FormatUint(args.PrevLogIndex, 10))
	q.Set("prevLogTerm", strconv.FormatUint(args.PrevLogTerm, 10))

	u := endpoint + RequestVotePath + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return RequestVoteReply{}, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return RequestVoteReply{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RequestVoteReply{}, fmt.Errorf("election: requestVote to %s: HTTP %d", endpoint, resp.StatusCode)
	}

	var reply RequestVoteReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return RequestVoteReply{}, fmt.Errorf("election: decoding requestVote reply from %s: %w", endpoint, err)
	}
	return reply, nil
}

func (t *HTTPTransport) NotifyAll(ctx context.Context, endpoint string, args NotifyAllArgs) error {
	q := url.Values{}
	q.Set("term", strconv.FormatUint(args.Term, 10))
	q.Set("agencyId", strconv.FormatUint(args.AgencyID, 10))

	body, err := json.Marshal(struct {
		Endpoints []string `json:"endpoints"`
	}{Endpoints: args.Endpoints})
	if err != nil {
		return err
	}

	u := endpoint + NotifyAllPath + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("election: notifyAll to %s: HTTP %d", endpoint, resp.StatusCode)
	}
	return nil
}

// SendAppendHeartbeat delivers the implicit AppendHeartbeat term-observation
// hint (spec.md §4.3) to a peer over HTTP. The election driver itself never
// calls this — it stands in for what the external replicated-log core's own
// heartbeat dispatch would do, so HandleAppendHeartbeat/ObserveTerm have a
// real wire-level call site; see cmd/agencyctl's "heartbeat" subcommand.
func SendAppendHeartbeat(ctx context.Context, client *http.Client, endpoint string, args AppendHeartbeatArgs) error {
	q := url.Values{}
	q.Set("term", strconv.FormatUint(args.Term, 10))
	q.Set("leaderId", strconv.FormatUint(args.LeaderID, 10))

	u := endpoint + AppendHeartbeatPath + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("election: appendHeartbeat to %s: HTTP %d", endpoint, resp.StatusCode)
	}
	return nil
}

// GetStatus fetches a peer's current role/term/leader over HTTP. It is used
// by operator tooling (agencyd status), never by the election driver
// itself.
func GetStatus(ctx context.Context, client *http.Client, endpoint string) (StatusReply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+StatusPath, nil)
	if err != nil {
		return StatusReply{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return StatusReply{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StatusReply{}, fmt.Errorf("election: status from %s: HTTP %d", endpoint, resp.StatusCode)
	}

	var reply StatusReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return StatusReply{}, fmt.Errorf("election: decoding status reply from %s: %w", endpoint, err)
	}
	return reply, nil
}
