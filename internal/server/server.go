// Package server provides tinsel's HTTP surface: the renderer's static
// files, the photo API, uploaded photo files, the camera preview and the
// scene WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/tinsel/internal/server/api"
)

// PhotoCounter reports how many photos are catalogued.
type PhotoCounter interface {
	Count() (int, error)
}

// Config holds the server's handlers and directories. Nil or empty fields
// leave the matching routes unregistered.
type Config struct {
	StaticDir string
	PhotoDir  string
	Photos    api.PhotoAdder
	Catalog   PhotoCounter
	Hub       *Hub
	Preview   PreviewSource
}

// Server is tinsel's HTTP handler.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a Server.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Photos != nil {
		s.mux.Handle("/api/photos", api.NewPhotosHandler(s.config.Photos))
	}
	if s.config.PhotoDir != "" {
		s.mux.Handle("/photos/", http.StripPrefix("/photos/", http.FileServer(http.Dir(s.config.PhotoDir))))
	}
	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}
	if s.config.Hub != nil {
		s.mux.Handle("/api/scene", s.config.Hub)
	}
	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Hub != nil {
		response["clients"] = s.config.Hub.Clients()
	}
	if s.config.Catalog != nil {
		n, err := s.config.Catalog.Count()
		if err != nil {
			http.Error(w, "Failed to read catalog", http.StatusInternalServerError)
			return
		}
		response["photos"] = n
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.config.Hub != nil {
		s.config.Hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
