// Command agencyctl is a small operator tool for manually sending notifyAll,
// requestVote and appendHeartbeat RPCs to an agency peer, querying its
// status, and inspecting the wire protocol from outside a running cluster.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agency-consensus/agency/election"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agencyctl",
		Short: "agencyctl talks to a running agencyd peer over its HTTP RPC surface",
	}

	notifyCmd := &cobra.Command{
		Use:   "notify-all <peer-url>",
		Short: "Send a notifyAll broadcast hint to a peer",
		Args:  cobra.ExactArgs(1),
		RunE:  runNotifyAll,
	}
	notifyCmd.Flags().Uint64("term", 0, "term to advertise")
	notifyCmd.Flags().Uint64("agency-id", 0, "sender's peer id")
	notifyCmd.Flags().StringSlice("endpoints", nil, "endpoint table to advertise")
	rootCmd.AddCommand(notifyCmd)

	voteCmd := &cobra.Command{
		Use:   "request-vote <peer-url>",
		Short: "Send a requestVote RPC to a peer and print the reply",
		Args:  cobra.ExactArgs(1),
		RunE:  runRequestVote,
	}
	voteCmd.Flags().Uint64("term", 1, "candidate term")
	voteCmd.Flags().Uint64("candidate-id", 0, "candidate id")
	voteCmd.Flags().Uint64("prev-log-index", 0, "candidate's last log index")
	voteCmd.Flags().Uint64("prev-log-term", 0, "candidate's last log term")
	rootCmd.AddCommand(voteCmd)

	statusCmd := &cobra.Command{
		Use:   "status <peer-url>",
		Short: "Query a peer's role, term, and believed leader",
		Args:  cobra.ExactArgs(1),
		RunE:  runStatus,
	}
	rootCmd.AddCommand(statusCmd)

	heartbeatCmd := &cobra.Command{
		Use:   "heartbeat <peer-url>",
		Short: "Send an appendHeartbeat term-observation hint to a peer",
		Args:  cobra.ExactArgs(1),
		RunE:  runHeartbeat,
	}
	heartbeatCmd.Flags().Uint64("term", 0, "term to advertise")
	heartbeatCmd.Flags().Uint64("leader-id", 0, "believed leader's peer id")
	rootCmd.AddCommand(heartbeatCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runNotifyAll(cmd *cobra.Command, args []string) error {
	base := args[0]
	term, _ := cmd.Flags().GetUint64("term")
	agencyID, _ := cmd.Flags().GetUint64("agency-id")
	endpoints, _ := cmd.Flags().GetStringSlice("endpoints")

	q := url.Values{}
	q.Set("term", fmt.Sprintf("%d", term))
	q.Set("agencyId", fmt.Sprintf("%d", agencyID))

	body, err := json.Marshal(struct {
		Endpoints []string `json:"endpoints"`
	}{Endpoints: endpoints})
	if err != nil {
		return err
	}

	resp, err := http.Post(base+"/_api/agency_priv/notifyAll?"+q.Encode(), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("agencyctl: notifyAll: %w", err)
	}
	defer resp.Body.Close()
	fmt.Printf("notifyAll: HTTP %d\n", resp.StatusCode)
	return nil
}

func runRequestVote(cmd *cobra.Command, args []string) error {
	base := args[0]
	term, _ := cmd.Flags().GetUint64("term")
	candidateID, _ := cmd.Flags().GetUint64("candidate-id")
	prevLogIndex, _ := cmd.Flags().GetUint64("prev-log-index")
	prevLogTerm, _ := cmd.Flags().GetUint64("prev-log-term")

	q := url.Values{}
	q.Set("term", fmt.Sprintf("%d", term))
	q.Set("candidateId", fmt.Sprintf("%d", candidateID))
	q.Set("prevLogIndex", fmt.Sprintf("%d", prevLogIndex))
	q.Set("prevLogTerm", fmt.Sprintf("%d", prevLogTerm))

	resp, err := http.Post(base+"/_api/agency_priv/requestVote?"+q.Encode(), "application/json", nil)
	if err != nil {
		return fmt.Errorf("agencyctl: requestVote: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runHeartbeat(cmd *cobra.Command, args []string) error {
	base := args[0]
	term, _ := cmd.Flags().GetUint64("term")
	leaderID, _ := cmd.Flags().GetUint64("leader-id")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := election.SendAppendHeartbeat(ctx, &http.Client{}, base, election.AppendHeartbeatArgs{
		Term:     term,
		LeaderID: leaderID,
	}); err != nil {
		return fmt.Errorf("agencyctl: heartbeat: %w", err)
	}
	fmt.Printf("appendHeartbeat: term=%d leaderId=%d delivered\n", term, leaderID)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	base := args[0]

	resp, err := http.Get(base + "/_api/agency_priv/status")
	if err != nil {
		return fmt.Errorf("agencyctl: status: %w", err)
	}
	defer resp.Body.Close()

	var status struct {
		ID        uint64 `json:"id"`
		Role      string `json:"role"`
		Term      uint64 `json:"term"`
		LeaderID  uint64 `json:"leaderId"`
		HasLeader bool   `json:"hasLeader"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("agencyctl: decoding status reply: %w", err)
	}

	fmt.Printf("peer %d: role=%s term=%d", status.ID, status.Role, status.Term)
	if status.HasLeader {
		fmt.Printf(" leader=%d\n", status.LeaderID)
	} else {
		fmt.Printf(" leader=none\n")
	}
	return nil
}
