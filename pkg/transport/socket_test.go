package transport

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

// startEchoServer runs a line-oriented echo server that answers
// queries and swallows everything else, mimicking an instrument.
func startEchoServer(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			go func(nc net.Conn) {
				defer nc.Close()
				sc := bufio.NewScanner(nc)
				for sc.Scan() {
					line := sc.Text()
					if strings.HasSuffix(line, "?") {
						nc.Write([]byte(line + " OK\n"))
					}
				}
			}(nc)
		}
	}()
	return ln
}

func TestSocketEndpointMetadata(t *testing.T) {
	ep := NewSocketEndpoint("192.0.2.1:5025")
	if ep.Kind() != KindSocket {
		t.Errorf("Kind: got %v, want %v", ep.Kind(), KindSocket)
	}
	if ep.ID() != "192.0.2.1:5025" {
		t.Errorf("ID: got %q, want %q", ep.ID(), "192.0.2.1:5025")
	}
}

func TestSocketRoundTrip(t *testing.T) {
	ln := startEchoServer(t)

	ep := NewSocketEndpoint(ln.Addr().String())
	conn, err := ep.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	if err := conn.SetReadTimeout(2 * time.Second); err != nil {
		t.Fatalf("SetReadTimeout failed: %v", err)
	}
	if _, err := conn.Write([]byte("*IDN?\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got, want := string(buf[:n]), "*IDN? OK\n"; got != want {
		t.Errorf("Read: got %q, want %q", got, want)
	}
}

func TestSocketReadTimeout(t *testing.T) {
	ln := startEchoServer(t)

	conn, err := NewSocketEndpoint(ln.Addr().String()).Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	if err := conn.SetReadTimeout(50 * time.Millisecond); err != nil {
		t.Fatalf("SetReadTimeout failed: %v", err)
	}

	// A set command produces no response; the read must time out.
	if _, err := conn.Write([]byte(":RUN\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	start := time.Now()
	_, err = conn.Read(make([]byte, 8))
	if !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("Read: got %v, want ErrReadTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Read blocked %v, want about 50ms", elapsed)
	}
}

func TestSocketConnectRefused(t *testing.T) {
	// Grab a free port, then close the listener so the dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	_, err = NewSocketEndpoint(addr).Connect(context.Background())
	if !errors.Is(err, ErrEndpointUnavailable) {
		t.Errorf("Connect: got %v, want ErrEndpointUnavailable", err)
	}
}

func TestSocketConnectCanceledContext(t *testing.T) {
	ln := startEchoServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSocketEndpoint(ln.Addr().String()).Connect(ctx)
	if err == nil {
		t.Fatal("Connect succeeded with canceled context")
	}
}
