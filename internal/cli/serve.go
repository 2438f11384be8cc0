package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/stabwatch/internal/server"
)

var (
	servePort   int
	serveConfig string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP listen port (0 uses the configured port)")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Path to config YAML")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stability monitoring HTTP server",
	Long:  "Runs stabwatch as an HTTP server. Agents POST event batches to /v1/update\nand read reports from /v1/stakeholder, /v1/trace, and /v1/history.\nA websocket at /ws streams per-tick snapshots.\nSupports hot-reload of the config file.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := server.New(server.Config{
		Port:       servePort,
		ConfigPath: serveConfig,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	reloader, err := server.NewReloader(srv, serveConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: hot-reload disabled: %v\n", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if reloader != nil {
		go reloader.Run(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down stability server...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "stabwatch server starting (session %s)\n", srv.Engine().SessionID())
	if serveConfig != "" {
		fmt.Fprintf(os.Stderr, "Config: %s (hot-reload enabled)\n", serveConfig)
	}
	fmt.Fprintln(os.Stderr)

	return srv.Serve()
}
