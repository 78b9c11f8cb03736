package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/benchwire-project/benchwire-go/pkg/instrument"
	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

//go:embed static/*
var staticFiles embed.FS

// ServerConfig holds configuration for the monitor server.
type ServerConfig struct {
	Addr     string
	Interval time.Duration
}

// Server polls the instrument and broadcasts measurement frames to
// WebSocket clients.
type Server struct {
	config ServerConfig
	scope  *instrument.Scope
	ident  scpi.Identity
	mux    *http.ServeMux
	server *http.Server

	clients   map[*wsClient]struct{}
	clientsMu sync.RWMutex

	upgrader websocket.Upgrader
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Frame is the JSON structure sent to WebSocket clients. The identity
// block goes out once on connect; measurement frames follow at the
// poll interval.
type Frame struct {
	Identity *IdentityInfo    `json:"identity,omitempty"`
	Channels []ChannelReading `json:"channels,omitempty"`
	DMM      *float64         `json:"dmm,omitempty"`
	Acquire  string           `json:"acquire,omitempty"`
	Stamp    int64            `json:"stamp"` // Unix ms
}

// IdentityInfo mirrors the *IDN? fields for clients.
type IdentityInfo struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Serial       string `json:"serial"`
	Firmware     string `json:"firmware"`
}

// ChannelReading carries one channel's periodic measurements.
type ChannelReading struct {
	Channel   int     `json:"channel"`
	Vpp       float64 `json:"vpp"`
	Frequency float64 `json:"frequency"`
	Mean      float64 `json:"mean"`
}

// NewServer creates a monitor server over an open scope. The identity
// labels the dashboard; a zero value hides the label.
func NewServer(cfg ServerConfig, scope *instrument.Scope, ident scpi.Identity) *Server {
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	s := &Server{
		config:  cfg,
		scope:   scope,
		ident:   ident,
		mux:     http.NewServeMux(),
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.registerRoutes()
	s.server = &http.Server{Addr: cfg.Addr, Handler: s.mux}
	return s
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/api/v1/health", s.handleHealth)
	s.mux.HandleFunc("/api/v1/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("/", s.handleStatic)
}

// Run starts the poll loop and serves HTTP until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go s.pollLoop(ctx)

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutCtx)
	}()

	log.Printf("[server] listening on %s", s.config.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}

	// Queue the identity before the client joins the broadcast set,
	// so it is the first frame on the wire.
	if s.ident.Model != "" {
		frame := Frame{
			Identity: &IdentityInfo{
				Manufacturer: s.ident.Manufacturer,
				Model:        s.ident.Model,
				Serial:       s.ident.Serial,
				Firmware:     s.ident.Firmware,
			},
			Stamp: time.Now().UnixMilli(),
		}
		if data, err := json.Marshal(frame); err == nil {
			client.send <- data
		}
	}

	s.clientsMu.Lock()
	s.clients[client] = struct{}{}
	total := len(s.clients)
	s.clientsMu.Unlock()

	log.Printf("[ws] client connected (%d total)", total)

	// Writer goroutine
	go func() {
		defer conn.Close()
		for msg := range client.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reader goroutine (drains keep-alives, detects disconnect)
	go func() {
		defer func() {
			s.clientsMu.Lock()
			delete(s.clients, client)
			total := len(s.clients)
			s.clientsMu.Unlock()
			close(client.send)
			log.Printf("[ws] client disconnected (%d total)", total)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := map[string]string{"status": "ok"}
	if s.ident.Model != "" {
		resp["model"] = s.ident.Model
		resp["serial"] = s.ident.Serial
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSnapshot reads one measurement frame for plain HTTP clients.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot(r.Context()))
}

// handleStatic serves the embedded dashboard page.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		path = "index.html"
	}
	serveFileFS(w, r, staticFS, path)
}

// serveFileFS mirrors http.ServeFileFS, which is unavailable before Go 1.22;
// the toolchain building this module is older. Behavior matches the stdlib
// for every request shape reachable through an embed.FS.
func serveFileFS(w http.ResponseWriter, r *http.Request, fsys fs.FS, name string) {
	if containsDotDot(r.URL.Path) {
		http.Error(w, "invalid URL path", http.StatusBadRequest)
		return
	}

	// Redirect .../index.html to .../ as the stdlib file server does.
	if strings.HasSuffix(r.URL.Path, "/index.html") {
		localRedirect(w, r, "./")
		return
	}

	f, err := fsys.Open(name)
	if err != nil {
		msg, code := toHTTPError(err)
		http.Error(w, msg, code)
		return
	}
	defer f.Close()

	d, err := f.Stat()
	if err != nil {
		msg, code := toHTTPError(err)
		http.Error(w, msg, code)
		return
	}

	if d.IsDir() {
		url := r.URL.Path
		if url == "" || url[len(url)-1] != '/' {
			localRedirect(w, r, path.Base(url)+"/")
			return
		}
	}

	rs, ok := f.(io.ReadSeeker)
	if !ok {
		http.Error(w, "seeker can't seek", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, d.Name(), d.ModTime(), rs)
}

func containsDotDot(v string) bool {
	if !strings.Contains(v, "..") {
		return false
	}
	for _, ent := range strings.FieldsFunc(v, isSlashRune) {
		if ent == ".." {
			return true
		}
	}
	return false
}

func isSlashRune(r rune) bool { return r == '/' || r == '\\' }

// localRedirect replies with a relative Location so the handler keeps
// working behind StripPrefix, as the stdlib file server does.
func localRedirect(w http.ResponseWriter, r *http.Request, newPath string) {
	if q := r.URL.RawQuery; q != "" {
		newPath += "?" + q
	}
	w.Header().Set("Location", newPath)
	w.WriteHeader(http.StatusMovedPermanently)
}

func toHTTPError(err error) (msg string, httpStatus int) {
	if errors.Is(err, fs.ErrNotExist) {
		return "404 page not found", http.StatusNotFound
	}
	if errors.Is(err, fs.ErrPermission) {
		return "403 Forbidden", http.StatusForbidden
	}
	return "500 Internal Server Error", http.StatusInternalServerError
}

// pollLoop reads a measurement snapshot each tick and broadcasts it.
// Polling pauses while nobody is connected, so an idle monitor leaves
// the instrument alone.
func (s *Server) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.clientCount() == 0 {
				continue
			}
			s.broadcast(s.snapshot(ctx))
		}
	}
}

func (s *Server) clientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// snapshot reads one round of measurements. A channel that fails to
// read is left out of the frame; the poll carries on with the rest.
func (s *Server) snapshot(ctx context.Context) Frame {
	frame := Frame{
		Acquire: s.scope.Sync.State().String(),
		Stamp:   time.Now().UnixMilli(),
	}

	prof := s.scope.Profile()
	for ch := 1; ch <= prof.Channels; ch++ {
		reading, err := s.readChannel(ctx, ch)
		if err != nil {
			continue
		}
		frame.Channels = append(frame.Channels, reading)
	}

	if prof.HasDMM {
		if v, err := s.scope.DMM.Value(ctx); err == nil {
			frame.DMM = &v
		}
	}
	return frame
}

func (s *Server) readChannel(ctx context.Context, ch int) (ChannelReading, error) {
	r := ChannelReading{Channel: ch}
	var err error
	if r.Vpp, err = s.scope.Measure.Value(ctx, ch, "vpp"); err != nil {
		return r, err
	}
	if r.Frequency, err = s.scope.Measure.Value(ctx, ch, "frequency"); err != nil {
		return r, err
	}
	if r.Mean, err = s.scope.Measure.Value(ctx, ch, "mean"); err != nil {
		return r, err
	}
	return r, nil
}

// broadcast marshals the frame once and queues it to every client.
// A client with a full send queue misses the frame rather than
// blocking the poll.
func (s *Server) broadcast(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for client := range s.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
