package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ppiankov/stabwatch/internal/model"
)

// streamMessage is the envelope for websocket frames. Type is "snapshot"
// for per-tick metrics and "safety" for safety conditions.
type streamMessage struct {
	Type    string         `json:"type"`
	Kind    string         `json:"kind,omitempty"`
	Metrics *model.Metrics `json:"metrics,omitempty"`
}

// Stream keepalive timing. The read deadline outlasts the ping interval so
// one lost pong does not drop the client.
var pingInterval = 30 * time.Second

const (
	pongWait  = 60 * time.Second
	writeWait = 10 * time.Second
)

// wsClient serializes writes to one stream connection. Broadcasts arrive
// from request goroutines and pings from the keepalive goroutine;
// gorilla/websocket forbids concurrent writers on a connection.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var batch model.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid batch: %v", err))
		return
	}

	m := s.eng.Update(batch)
	s.broadcast(streamMessage{Type: "snapshot", Metrics: &m})
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	m, ok := s.eng.Last()
	if !ok {
		writeError(w, http.StatusNotFound, "no updates observed yet")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		SessionID string `json:"session_id"`
		model.Metrics
	}{s.eng.SessionID(), m})
}

func (s *Server) handleStakeholder(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.StakeholderMetrics())
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	trace, ok := s.eng.Trace()
	if !ok {
		writeError(w, http.StatusConflict, "trace available only in the stable zone")
		return
	}
	writeJSON(w, http.StatusOK, trace)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	items := s.eng.History()
	writeJSON(w, http.StatusOK, struct {
		Count     int             `json:"count"`
		Snapshots []model.Metrics `json:"snapshots"`
	}{len(items), items})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.eng.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"session_id":  s.eng.SessionID(),
		"config_hash": s.ConfigHash(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.clientsMu.RLock()
	count := len(s.clients)
	s.clientsMu.RUnlock()
	if count >= maxClients {
		http.Error(w, "maximum clients reached", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "server: websocket upgrade failed: %v\n", err)
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn}
	s.clientsMu.Lock()
	s.clients[client] = true
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client)
		s.clientsMu.Unlock()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Read loop only detects disconnects; clients never send frames.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Keepalive: the pong handler above only refreshes the read deadline
	// when the client answers a ping, so the server must keep pinging.
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := client.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readDone:
			return
		}
	}
}

// broadcast sends one frame to every connected stream client, dropping
// connections whose writes fail. Safe for concurrent callers; each client's
// write mutex serializes the frames.
func (s *Server) broadcast(msg streamMessage) {
	s.clientsMu.RLock()
	if len(s.clients) == 0 {
		s.clientsMu.RUnlock()
		return
	}
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()

	data, err := json.Marshal(msg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "server: marshal stream frame: %v\n", err)
		return
	}

	var failed []*wsClient
	for _, c := range clients {
		if err := c.write(websocket.TextMessage, data); err != nil {
			c.conn.Close()
			failed = append(failed, c)
		}
	}
	if len(failed) > 0 {
		s.clientsMu.Lock()
		for _, c := range failed {
			delete(s.clients, c)
		}
		s.clientsMu.Unlock()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
