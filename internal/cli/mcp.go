package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	stabmcp "github.com/ppiankov/stabwatch/internal/mcp"
)

var mcpConfig string

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpConfig, "config", "", "Path to config YAML")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long:  "Runs stabwatch as an MCP (Model Context Protocol) server over stdio.\nExposes stability tools: update, status, stakeholder, trace, reset.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	srv, err := stabmcp.New(stabmcp.Config{ConfigPath: mcpConfig})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "stabwatch MCP server running on stdio (session %s)\n", srv.Engine().SessionID())
	fmt.Fprintln(os.Stderr)

	return srv.Run(ctx)
}
