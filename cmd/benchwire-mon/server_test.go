package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/benchwire-project/benchwire-go/internal/testharness/mock"
	"github.com/benchwire-project/benchwire-go/pkg/instrument"
	"github.com/benchwire-project/benchwire-go/pkg/profile"
	"github.com/benchwire-project/benchwire-go/pkg/registry"
	"github.com/benchwire-project/benchwire-go/pkg/transport"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	reg := registry.New(registry.Options{Internal: mock.NewInstrument()})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := reg.Open(ctx, registry.Descriptor{
		Class:     registry.ClassScope,
		Transport: transport.KindInternal,
		Endpoint:  registry.InternalName,
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { reg.CloseAll() })

	ident, err := identify(ctx, sess)
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	prof, err := profile.ForModel(ident.Model)
	if err != nil {
		t.Fatalf("ForModel failed: %v", err)
	}
	scope := instrument.NewScope(sess, prof)

	return NewServer(ServerConfig{Addr: ":0", Interval: 20 * time.Millisecond}, scope, ident)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()

	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("Expected status 'ok', got %q", resp["status"])
	}
	if resp["model"] != "BW-2204P" {
		t.Errorf("Expected model 'BW-2204P', got %q", resp["model"])
	}
}

func TestHealthEndpointMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/health", nil)
	w := httptest.NewRecorder()

	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
	w := httptest.NewRecorder()

	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var frame Frame
	if err := json.Unmarshal(w.Body.Bytes(), &frame); err != nil {
		t.Fatalf("Failed to parse frame: %v", err)
	}

	if len(frame.Channels) != 4 {
		t.Fatalf("Expected 4 channel readings, got %d", len(frame.Channels))
	}
	if frame.Channels[0].Channel != 1 {
		t.Errorf("Expected first reading from channel 1, got %d", frame.Channels[0].Channel)
	}
	if frame.Channels[0].Vpp != 1000 {
		t.Errorf("Expected vpp 1000, got %g", frame.Channels[0].Vpp)
	}
	if frame.DMM == nil || *frame.DMM != 1.234 {
		t.Errorf("Expected DMM reading 1.234, got %v", frame.DMM)
	}
	if frame.Acquire != "IDLE" {
		t.Errorf("Expected acquire state IDLE, got %q", frame.Acquire)
	}
	if frame.Stamp == 0 {
		t.Error("Expected a nonzero timestamp")
	}
}

func TestSnapshotMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/snapshot", nil)
	w := httptest.NewRecorder()

	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestDashboardPage(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("Expected an HTML document")
	}
	if !strings.Contains(body, "BenchWire Monitor") {
		t.Error("Expected the dashboard title")
	}
}

func TestWebSocketStream(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.pollLoop(ctx)

	ts := httptest.NewServer(srv.mux)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// First frame carries the identity.
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var first Frame
	if err := json.Unmarshal(data, &first); err != nil {
		t.Fatalf("Failed to parse frame: %v", err)
	}
	if first.Identity == nil || first.Identity.Model != "BW-2204P" {
		t.Fatalf("Expected identity frame for BW-2204P, got %+v", first)
	}

	// Then the poll loop streams measurement frames.
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var second Frame
	if err := json.Unmarshal(data, &second); err != nil {
		t.Fatalf("Failed to parse frame: %v", err)
	}
	if len(second.Channels) != 4 {
		t.Errorf("Expected 4 channel readings, got %d", len(second.Channels))
	}
	if second.Acquire != "IDLE" {
		t.Errorf("Expected acquire state IDLE, got %q", second.Acquire)
	}
}
