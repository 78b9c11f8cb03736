// Command benchwire-mon serves a live measurement dashboard for a
// BenchWire instrument.
//
// It opens one instrument endpoint, polls the automatic measurement
// engine and the built-in multimeter, and streams the readings to
// browser clients over a WebSocket. An embedded page renders the feed;
// /api/v1/snapshot serves one-shot readings to plain HTTP clients.
//
// Usage:
//
//	benchwire-mon [flags]
//
// Flags:
//
//	-addr string        HTTP listen address (default ":8080")
//	-interval duration  Measurement poll interval (default 500ms)
//	-mock               Monitor a simulated instrument
//	-serial string      Monitor the instrument on a serial device path
//	-tcp string         Monitor the instrument at host:port
//	-log-level string   Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Simulated instrument, dashboard on http://localhost:8080
//	benchwire-mon -mock
//
//	# Scope on USB, polled twice a second
//	benchwire-mon -serial /dev/ttyACM0
//
//	# Scope on the LAN, slower poll
//	benchwire-mon -tcp 192.168.1.50:3000 -interval 2s
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benchwire-project/benchwire-go/internal/testharness/mock"
	"github.com/benchwire-project/benchwire-go/pkg/instrument"
	"github.com/benchwire-project/benchwire-go/pkg/profile"
	"github.com/benchwire-project/benchwire-go/pkg/registry"
	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/session"
	"github.com/benchwire-project/benchwire-go/pkg/transport"
)

var (
	addr       = flag.String("addr", ":8080", "HTTP listen address")
	interval   = flag.Duration("interval", 500*time.Millisecond, "Measurement poll interval")
	useMock    = flag.Bool("mock", false, "Monitor a simulated instrument")
	serialPath = flag.String("serial", "", "Monitor the instrument on a serial device path")
	tcpAddr    = flag.String("tcp", "", "Monitor the instrument at host:port")
	logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)
	if *logLevel == "debug" {
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	}

	desc, opts, err := deviceSource()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	reg := registry.New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal: %v", sig)
		cancel()
	}()

	openCtx, openCancel := context.WithTimeout(ctx, 30*time.Second)
	sess, err := reg.Open(openCtx, desc)
	openCancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open %s: %v\n", desc, err)
		return 1
	}
	defer reg.CloseAll()

	// The reported model picks the instrument family and channel
	// count; an unanswered *IDN? falls back to the descriptor.
	ident, err := identify(ctx, sess)
	model := desc.Model
	if err != nil {
		log.Printf("Identify failed: %v", err)
	} else {
		model = ident.Model
		log.Printf("Instrument: %s %s %s %s",
			ident.Manufacturer, ident.Model, ident.Serial, ident.Firmware)
	}
	prof, err := profile.ForModel(model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: no instrument profile for %q: %v\n", model, err)
		return 1
	}
	scope := instrument.NewScope(sess, prof)

	srv := NewServer(ServerConfig{Addr: *addr, Interval: *interval}, scope, ident)
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
		return 1
	}

	log.Println("Goodbye!")
	return 0
}

// deviceSource maps the source flags to the descriptor to open.
// Exactly one of -mock, -serial and -tcp must be given.
func deviceSource() (registry.Descriptor, registry.Options, error) {
	var opts registry.Options

	sources := 0
	for _, set := range []bool{*useMock, *serialPath != "", *tcpAddr != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return registry.Descriptor{}, opts,
			fmt.Errorf("pick one instrument source: -mock, -serial or -tcp")
	}

	switch {
	case *useMock:
		opts.Internal = mock.NewInstrument()
		return registry.Descriptor{
			Class:     registry.ClassScope,
			Transport: transport.KindInternal,
			Endpoint:  registry.InternalName,
		}, opts, nil

	case *serialPath != "":
		return registry.Descriptor{
			Class:     registry.ClassScope,
			Transport: transport.KindSerial,
			Endpoint:  *serialPath,
		}, opts, nil

	default:
		return registry.Descriptor{
			Class:     registry.ClassScope,
			Transport: transport.KindSocket,
			Endpoint:  *tcpAddr,
		}, opts, nil
	}
}

// identify queries *IDN? over a fresh session.
func identify(ctx context.Context, sess *session.Session) (scpi.Identity, error) {
	qctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := sess.Send(qctx, scpi.Query(scpi.ModSystem, "identify"))
	if err != nil {
		return scpi.Identity{}, err
	}
	return scpi.ParseIdentity(resp.Payload)
}
