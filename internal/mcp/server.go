// Package mcp exposes the stability engine as MCP tools over stdio, so
// agent runtimes can report events and read stability state in-band.
package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/stabwatch/internal/alert"
	"github.com/ppiankov/stabwatch/internal/config"
	"github.com/ppiankov/stabwatch/internal/engine"
	"github.com/ppiankov/stabwatch/internal/model"
)

// Config holds MCP server configuration.
type Config struct {
	ConfigPath string
}

// Server wraps the MCP SDK server around one stability engine.
type Server struct {
	mcpServer  *mcpsdk.Server
	eng        *engine.Engine
	dispatcher *alert.Dispatcher
	configHash string
}

// New creates an MCP server with an engine built from the loaded
// configuration.
func New(cfg Config) (*Server, error) {
	fileCfg, hash, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	s := &Server{
		dispatcher: alert.NewDispatcher(fileCfg.Alerts),
		configHash: hash,
	}

	opts := fileCfg.EngineOptions()
	opts.OnSafety = s.onSafety
	s.eng = engine.New(opts)

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "stabwatch",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Engine returns the server's engine. For tests and host wiring.
func (s *Server) Engine() *engine.Engine {
	return s.eng
}

func (s *Server) onSafety(kind engine.SafetyKind, m model.Metrics) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(alert.Event{
		Timestamp:  m.Timestamp.UTC().Format(time.RFC3339Nano),
		SessionID:  s.eng.SessionID(),
		Kind:       string(kind),
		Zone:       m.Zone.String(),
		Stability:  m.Stability,
		Derivative: m.Derivative,
		Compliance: m.Compliance,
		Reason:     fmt.Sprintf("dS/dt=%.2f stability=%.2f", m.Derivative, m.Stability),
	})
}

// registerTools adds all stabwatch tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "stabwatch_update",
		Description: "Report one tick of errors, exceptions, and panics to the stability engine. Returns the resulting snapshot including zone and kill-switch state.",
	}, s.handleUpdate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "stabwatch_status",
		Description: "Read the most recent stability snapshot without reporting new events.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "stabwatch_stakeholder",
		Description: "Compute developer risk, consumer safety, and stakeholder reward over the snapshot history.",
	}, s.handleStakeholder)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "stabwatch_trace",
		Description: "Read the diagnostic trace for the last tick. Only available while the system is in the stable zone.",
	}, s.handleTrace)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "stabwatch_reset",
		Description: "Reset the stability engine to its initial state. Dwell tracking and history are cleared; zone callbacks survive.",
	}, s.handleReset)
}
