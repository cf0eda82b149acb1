package main

import (
	"encoding/json"
	"fmt"
	"time"

	"cib/internal/daemon"
	"cib/internal/endpoint"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether a bridge daemon is serving this workspace",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(workspaceRoot)
	if err != nil {
		return err
	}

	address, err := endpoint.Derive(workspaceRoot)
	if err != nil {
		return err
	}

	client, err := daemon.Dial(address, time.Duration(cfg.Client.TimeoutMs)*time.Millisecond)
	if err != nil {
		fmt.Printf("No bridge running for %s\n", workspaceRoot)
		fmt.Printf("Expected endpoint: %s\n", address)
		return nil
	}
	defer client.Close()

	result, err := client.Call("health", nil)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
