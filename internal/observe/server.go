// Package observe exposes a small operator surface for the headless
// bridge: a health endpoint and a websocket stream of bridge events
// (lifecycle, submissions, dispatched responses). Read-only; there is no
// control plane here.
package observe

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Event is one frame on the websocket stream.
type Event struct {
	Name    string    `json:"name"`
	Payload any       `json:"payload,omitempty"`
	Time    time.Time `json:"time"`
}

// client wraps a websocket connection with a write lock. Broadcasts come
// from multiple bridge goroutines and gorilla/websocket allows at most
// one concurrent writer per conn.
type client struct {
	conn *websocket.Conn

	mu sync.Mutex
}

func (c *client) write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// Server broadcasts bridge events to connected websocket clients.
type Server struct {
	listen   string
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool

	httpServer *http.Server
}

// NewServer creates an observe server bound to the given address.
func NewServer(listen string) *Server {
	return &Server{
		listen:  listen,
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Local diagnostics endpoint; no cross-origin browsers expected.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start begins serving. Non-blocking; errors after startup are logged.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
	s.httpServer = &http.Server{Addr: s.listen, Handler: mux}

	go func() {
		slog.Info("observe server listening", "addr", s.listen)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observe server failed", "error", err)
		}
	}()
}

// Stop shuts the server down and disconnects clients.
func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	for c := range s.clients {
		c.conn.Close()
	}
	s.clients = make(map[*client]bool)
	s.mu.Unlock()
	if s.httpServer != nil {
		_ = s.httpServer.Shutdown(ctx)
	}
}

// Broadcast fans one event out to all connected clients. Slow or dead
// clients are dropped rather than allowed to stall the bridge.
func (s *Server) Broadcast(name string, payload any) {
	frame, err := json.Marshal(Event{Name: name, Payload: payload, Time: time.Now().UTC()})
	if err != nil {
		return
	}

	s.mu.RLock()
	conns := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		if err := c.write(frame); err != nil {
			s.drop(c)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "clients": s.clientCount()})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("observe upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn}
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()
	slog.Debug("observe client connected", "remote", conn.RemoteAddr())

	// Reader goroutine only to detect disconnect; inbound frames are ignored.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(c)
				return
			}
		}
	}()
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	if s.clients[c] {
		delete(s.clients, c)
		c.conn.Close()
	}
	s.mu.Unlock()
}

func (s *Server) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
