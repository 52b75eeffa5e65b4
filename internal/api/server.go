// Package api exposes a small local HTTP surface while a pipeline is
// running: a health probe and a server-sent-events re-broadcast of the
// bus.
package api

import (
	"cellar/internal/events"
	"cellar/internal/utils"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Server re-broadcasts bus events to local subscribers. Every SSE
// client gets its own bus subscription, so a slow client only drops
// its own events.
type Server struct {
	bus    *events.Bus
	token  string
	buffer int
}

// NewServer returns a server streaming from bus. The token protects
// the event stream; buffer sizes each client's subscription.
func NewServer(bus *events.Bus, token string, buffer int) *Server {
	return &Server{bus: bus, token: token, buffer: buffer}
}

// Handler returns the routed HTTP surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Get("/health", s.handleHealth)
	r.Group(func(pr chi.Router) {
		pr.Use(authMiddleware(s.token))
		pr.Get("/events", s.handleEvents)
	})
	return r
}

// Serve blocks serving the listener until it is closed.
func (s *Server) Serve(ln net.Listener) error {
	server := &http.Server{Handler: s.Handler()}
	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		utils.Debug("Failed to encode response: %v", err)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := s.bus.Subscribe(s.buffer)
	defer sub.Cancel()

	// Flush headers immediately so the client knows the stream is live.
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	flusher.Flush()

	done := r.Context().Done()
	for {
		select {
		case <-done:
			return
		case e, ok := <-sub.Events():
			if !ok {
				return
			}

			data, err := json.Marshal(e)
			if err != nil {
				utils.Debug("Error marshaling event: %v", err)
				continue
			}

			// SSE format:
			// event: <kind>
			// data: <json>
			_, _ = fmt.Fprintf(w, "event: %s\n", e.Kind())
			_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// corsMiddleware keeps local tools unblocked across origins.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware protects a route group with a shared bearer token.
func authMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				provided := strings.TrimPrefix(authHeader, "Bearer ")
				if len(provided) == len(token) && subtle.ConstantTimeCompare([]byte(provided), []byte(token)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		})
	}
}
