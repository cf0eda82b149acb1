package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <symbolName>",
	Short: "Resolve a symbol's declaration without a running daemon",
	Long: `Resolve a symbol name to its declaration location. The command
builds the engine in-process, so it works without a running daemon but
pays engine startup cost on every invocation.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	workspaceRoot, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(workspaceRoot)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	service := buildService(workspaceRoot, cfg, logger)
	defer service.Close()

	symbol, err := service.Resolve(context.Background(), args[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(symbol, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
