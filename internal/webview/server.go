// Package webview exposes a session over HTTP for browser frontends: a
// JSON snapshot endpoint, submit/cancel/reset actions, and a WebSocket
// that pushes a fresh snapshot on every state change.
package webview

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/studyscout/scout/pkg/chat"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local-only tool; the listener binds loopback by default.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server bridges a chat session to HTTP and WebSocket clients.
type Server struct {
	logger  *logrus.Entry
	session *chat.Session
	server  *http.Server
}

// New creates a webview server around an existing session.
func New(logger *logrus.Entry, session *chat.Session) *Server {
	return &Server{
		logger:  logger,
		session: session,
	}
}

// Handler returns the route table, exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/submit", s.handleSubmit)
	mux.HandleFunc("/api/cancel", s.handleCancel)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// ListenAndServe starts the webview on addr and blocks until it stops.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.WithField("addr", addr).Info("Webview listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.session.Snapshot())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.session.Submit(req.Text)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.session.CancelActiveJob()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.session.Reset()
	w.WriteHeader(http.StatusOK)
}

// handleWS upgrades the connection and forwards session snapshots. The
// subscription already queues the current snapshot, so clients render
// immediately.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := s.session.Subscribe()
	defer s.session.Unsubscribe(ch)

	s.logger.Debug("WebSocket client connected")

	// Reads are discarded; a read error doubles as the disconnect signal.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				s.logger.WithError(err).Error("Failed to marshal snapshot")
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("WebSocket client disconnected")
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
