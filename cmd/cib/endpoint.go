package main

import (
	"fmt"

	"cib/internal/endpoint"

	"github.com/spf13/cobra"
)

var endpointCmd = &cobra.Command{
	Use:   "endpoint",
	Short: "Print the socket endpoint derived from the workspace",
	RunE:  runEndpoint,
}

func init() {
	rootCmd.AddCommand(endpointCmd)
}

func runEndpoint(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}

	address, err := endpoint.Derive(workspaceRoot)
	if err != nil {
		return err
	}

	fmt.Println(address)
	return nil
}
