package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cib/internal/daemon"
	"cib/internal/endpoint"

	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Serve JSON-RPC on the workspace-derived socket",
	Long: `Start the bridge on the socket endpoint derived from the
workspace root. A client started independently against the same
workspace computes the same endpoint, so no address coordination is
needed.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(workspaceRoot)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	address, err := endpoint.Derive(workspaceRoot)
	if err != nil {
		return err
	}

	service := buildService(workspaceRoot, cfg, logger)
	defer service.Close()

	server := daemon.NewServer(address, workspaceRoot, service, logger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		fmt.Printf("cib listening on %s\n", address)
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		return err
	case sig := <-shutdown:
		logger.Info("Received shutdown signal", map[string]interface{}{
			"signal": sig.String(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}
