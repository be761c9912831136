// Command agencyd runs one agency peer: the election core plus its HTTP
// RPC endpoints.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agency-consensus/agency/agent"
	"github.com/agency-consensus/agency/config"
	"github.com/agency-consensus/agency/election"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "agencyd",
		Short: "agencyd runs one peer of an agency's leader-election core",
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("agencyd v%s\n", version)
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a peer's election driver and RPC server",
		RunE:  runServe,
	}
	serveCmd.Flags().String("config", "./agency.yaml", "Path to the agency configuration file")
	rootCmd.AddCommand(serveCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running peer's role, term, and believed leader",
		RunE:  runStatus,
	}
	statusCmd.Flags().String("config", "./agency.yaml", "Path to the agency configuration file")
	statusCmd.Flags().Uint64("peer", 0, "Peer id to query (defaults to this config's own id)")
	rootCmd.AddCommand(statusCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("agencyd: %w", err)
	}

	badgerAgent, err := agent.NewBadgerAgent(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("agencyd: %w", err)
	}
	defer badgerAgent.Close()

	econfig := election.Config{
		ID:            election.PeerID(cfg.ID),
		Size:          cfg.Size,
		Endpoints:     cfg.Endpoints,
		MinPing:       cfg.MinPing,
		MaxPing:       cfg.MaxPing,
		NotifyOnStart: cfg.NotifyOnStart,
	}

	if term, votedFor, ok := badgerAgent.LoadVote(); ok {
		log.Printf("🗳️  replayed persisted vote: term=%d votedFor=%d", term, votedFor)
		econfig.HasInitialVote = true
		econfig.InitialTerm = term
		econfig.InitialVotedFor = votedFor
	}

	trans := election.NewHTTPTransport(0)
	logger := election.NewLogger(econfig.ID, election.INFO)

	badgerAgent.OnLead(func() {
		log.Printf("👑 peer %d is now leading", econfig.ID)
	})

	constituent, err := election.New(econfig, badgerAgent, trans, logger)
	if err != nil {
		return fmt.Errorf("agencyd: %w", err)
	}

	mux := http.NewServeMux()
	election.NewServer(constituent).Install(mux)

	addr := cfg.ListenAddr
	if addr == "" && int(cfg.ID) < len(cfg.Endpoints) {
		addr = cfg.Endpoints[cfg.ID]
	}
	server := &http.Server{Addr: addr, Handler: mux}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go constituent.Run(ctx)

	go func() {
		log.Printf("👤 agency peer %d listening on %s", econfig.ID, addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ http server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	constituent.Shutdown()
	return server.Close()
}

// runStatus reads the local configuration to find a peer's endpoint, then
// queries that peer's status RPC directly. It does not start an election
// driver of its own; it is a thin wrapper over election.GetStatus for
// operators running agencyd alongside a live cluster.
func runStatus(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	peer, _ := cmd.Flags().GetUint64("peer")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("agencyd: %w", err)
	}

	if !cmd.Flags().Changed("peer") || int(peer) >= len(cfg.Endpoints) {
		peer = cfg.ID
	}
	endpoint := cfg.Endpoints[peer]
	if endpoint == "" {
		return fmt.Errorf("agencyd: peer %d has no configured endpoint", peer)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := election.GetStatus(ctx, &http.Client{}, endpoint)
	if err != nil {
		return fmt.Errorf("agencyd: status: %w", err)
	}

	fmt.Printf("peer %d: role=%s term=%d", reply.ID, reply.Role, reply.Term)
	if reply.HasLeader {
		fmt.Printf(" leader=%d\n", reply.LeaderID)
	} else {
		fmt.Printf(" leader=none\n")
	}
	return nil
}
