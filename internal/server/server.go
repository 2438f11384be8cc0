// Package server exposes a stability engine over HTTP: an ingest endpoint
// for event batches, read endpoints for reports, and a websocket stream of
// per-tick snapshots.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ppiankov/stabwatch/internal/alert"
	"github.com/ppiankov/stabwatch/internal/config"
	"github.com/ppiankov/stabwatch/internal/engine"
	"github.com/ppiankov/stabwatch/internal/model"
)

const maxClients = 100

// Config holds HTTP server configuration.
type Config struct {
	Port       int
	ConfigPath string
}

// Server owns one engine instance and serves it over HTTP.
type Server struct {
	mu         sync.RWMutex
	eng        *engine.Engine
	dispatcher *alert.Dispatcher
	configHash string
	cfg        Config

	httpServer *http.Server
	upgrader   websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*wsClient]bool
}

// New creates a server with an engine built from the loaded configuration.
func New(cfg Config) (*Server, error) {
	fileCfg, hash, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Port == 0 {
		cfg.Port = fileCfg.Serve.Port
	}

	s := &Server{
		dispatcher: alert.NewDispatcher(fileCfg.Alerts),
		configHash: hash,
		cfg:        cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]bool),
	}

	opts := fileCfg.EngineOptions()
	opts.OnSafety = s.onSafety
	s.eng = engine.New(opts)

	return s, nil
}

// Engine returns the server's engine. For wiring additional callbacks.
func (s *Server) Engine() *engine.Engine {
	return s.eng
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/update", s.handleUpdate)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/stakeholder", s.handleStakeholder)
	mux.HandleFunc("GET /v1/trace", s.handleTrace)
	mux.HandleFunc("GET /v1/history", s.handleHistory)
	mux.HandleFunc("POST /v1/reset", s.handleReset)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// Serve starts the HTTP server on the configured port. Blocks until stopped.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.cfg.Port, err)
	}
	return s.ServeOn(lis)
}

// ServeOn starts the HTTP server on the given listener. For testing.
func (s *Server) ServeOn(lis net.Listener) error {
	s.httpServer = &http.Server{Handler: s.Handler()}
	err := s.httpServer.Serve(lis)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server and closes stream clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.clientsMu.Lock()
	for c := range s.clients {
		c.conn.Close()
	}
	s.clients = make(map[*wsClient]bool)
	s.clientsMu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ReloadConfig atomically swaps engine tuning and alert destinations.
// Called by the hot-reloader on file change. Accumulated engine state is
// kept across reloads.
func (s *Server) ReloadConfig() error {
	fileCfg, hash, err := config.Load(s.cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	e := fileCfg.Engine
	if err := s.eng.SetTuning(e.LambdaWeight, e.MuWeight, e.NuWeight, e.TauPanic, e.Horizon); err != nil {
		return err
	}

	s.mu.Lock()
	s.dispatcher = alert.NewDispatcher(fileCfg.Alerts)
	s.configHash = hash
	s.mu.Unlock()

	return nil
}

// ConfigHash returns the hash of the currently loaded configuration.
func (s *Server) ConfigHash() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configHash
}

// onSafety forwards engine safety conditions to webhook alerts and the
// websocket stream. Runs on the engine's tick path; the dispatcher sends
// asynchronously.
func (s *Server) onSafety(kind engine.SafetyKind, m model.Metrics) {
	s.mu.RLock()
	d := s.dispatcher
	s.mu.RUnlock()
	if d != nil {
		d.Dispatch(alert.Event{
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

	s.broadcast(streamMessage{Type: "safety", Kind: string(kind), Metrics: &m})
}
