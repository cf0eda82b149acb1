package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cib/internal/api"

	"github.com/spf13/cobra"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the bridge HTTP API server. The server exposes a health
route and reference-finding routes over local HTTP.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 3000)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config, localhost)")
}

func runServe(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(workspaceRoot)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	host := cfg.HTTP.Host
	if serveHost != "" {
		host = serveHost
	}
	port := cfg.HTTP.Port
	if servePort != 0 {
		port = servePort
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	service := buildService(workspaceRoot, cfg, logger)
	defer service.Close()

	server := api.NewServer(addr, workspaceRoot, service, logger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		fmt.Printf("cib HTTP server listening on http://%s\n", addr)
		fmt.Println("Press Ctrl+C to stop")
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
		if err := server.Shutdown(ctx); err != nil {
			return err
		}
	}

	return nil
}
