// Package web exposes engine telemetry and controls over HTTP and a
// websocket feed.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guidoenr/resonance/internal/app"
	"github.com/guidoenr/resonance/internal/render"
)

const (
	broadcastInterval = 250 * time.Millisecond
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = 54 * time.Second
	shutdownTimeout   = 2 * time.Second
)

// Backend is the part of the app the server reads and tunes.
type Backend interface {
	Status() app.Status
	Controls() app.Controls
	SetControls(app.Controls) app.Controls
	Visuals() app.Visuals
	SetVisuals(app.Visuals)
}

// Server serves the JSON API and the telemetry websocket.
type Server struct {
	backend  Backend
	log      *log.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	Smoothness   *float64 `json:"smoothness,omitempty"`
	Alpha        *float64 `json:"alpha,omitempty"`
	Sensitivity  *float64 `json:"sensitivity,omitempty"`
	Palette      *string  `json:"palette,omitempty"`
	Pattern      *string  `json:"pattern,omitempty"`
	ColorMode    *string  `json:"colorMode,omitempty"`
	ColorOnAudio *bool    `json:"colorOnAudio,omitempty"`
}

// UpdateResponse echoes the values in effect after an update.
type UpdateResponse struct {
	Controls app.Controls `json:"controls"`
	Visuals  app.Visuals  `json:"visuals"`
}

// NewServer creates a server for backend. A nil logger logs to stderr.
func NewServer(backend Backend, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stderr, "[web] ", 0)
	}
	return &Server{
		backend: backend,
		log:     logger,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/update", s.handleUpdate)
	mux.HandleFunc("/api/palettes", listHandler(render.PaletteNames))
	mux.HandleFunc("/api/patterns", listHandler(render.PatternNames))
	mux.HandleFunc("/api/colorModes", listHandler(render.ColorModeNames))
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Run serves on addr until ctx ends.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go s.broadcastLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.closeClients()
	}()

	s.log.Printf("listening on http://%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.backend.Status())
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validateNames(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c := s.backend.Controls()
	if req.Smoothness != nil {
		c.Smoothness = *req.Smoothness
	}
	if req.Alpha != nil {
		c.Alpha = *req.Alpha
	}
	if req.Sensitivity != nil {
		c.Sensitivity = *req.Sensitivity
	}
	c = s.backend.SetControls(c)

	v := s.backend.Visuals()
	if req.Palette != nil || req.Pattern != nil || req.ColorMode != nil || req.ColorOnAudio != nil {
		if req.Palette != nil {
			v.Palette = *req.Palette
		}
		if req.Pattern != nil {
			v.Pattern = *req.Pattern
		}
		if req.ColorMode != nil {
			v.ColorMode = *req.ColorMode
		}
		if req.ColorOnAudio != nil {
			v.ColorOnAudio = *req.ColorOnAudio
		}
		s.backend.SetVisuals(v)
	}
	writeJSON(w, UpdateResponse{Controls: c, Visuals: v})
}

var errUnknownName = errors.New("unknown name")

func validateNames(req *UpdateRequest) error {
	check := func(field string, v *string, names []string) error {
		if v != nil && !slices.Contains(names, *v) {
			return &fieldError{field: field, value: *v}
		}
		return nil
	}
	return errors.Join(
		check("palette", req.Palette, render.PaletteNames()),
		check("pattern", req.Pattern, render.PatternNames()),
		check("colorMode", req.ColorMode, render.ColorModeNames()),
	)
}

type fieldError struct {
	field, value string
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.field, e.value, errUnknownName)
}

func (e *fieldError) Unwrap() error { return errUnknownName }

func listHandler(names func() []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, names())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
