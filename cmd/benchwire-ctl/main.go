// Command benchwire-ctl is an interactive controller for BenchWire
// instruments and bench devices.
//
// It discovers devices over the internal, USB-CDC serial and LAN
// transports, opens sessions against them, and exposes the oscilloscope
// and bench vocabularies as shell commands. All session traffic can be
// teed to a .bwlog event log for later inspection with benchwire-log.
//
// Usage:
//
//	benchwire-ctl [flags]
//
// Flags:
//
//	-log string         Event log destination (.bwlog file)
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-mock               Register a simulated instrument on the internal endpoint
//
// Examples:
//
//	# Explore a simulated instrument without hardware
//	benchwire-ctl -mock
//
//	# Control bench hardware, recording every exchange
//	benchwire-ctl -log bench.bwlog
//
// Interactive Commands:
//
//	discover    - Scan internal, USB and LAN endpoints
//	open <n>    - Open device n from the last discover
//	close       - Close the selected device
//	list        - List open endpoints
//	status      - Show selected device and session state
//	idn         - Query device identity
//	raw <scpi>  - Send raw command text
//	channel, awg, dmm, acquire, wait, measure - Scope control
//	log <file>  - Tee session events to a .bwlog file
//	quit        - Exit the controller
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/benchwire-project/benchwire-go/cmd/benchwire-ctl/interactive"
	"github.com/benchwire-project/benchwire-go/internal/testharness/mock"
	"github.com/benchwire-project/benchwire-go/pkg/registry"
)

// Config holds the controller configuration.
type Config struct {
	LogFile  string
	LogLevel string
	Mock     bool
}

var config Config

func init() {
	flag.StringVar(&config.LogFile, "log", "", "Event log destination (.bwlog file)")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&config.Mock, "mock", false, "Register a simulated instrument on the internal endpoint")
}

func main() {
	flag.Parse()

	setupLogging(config.LogLevel)

	log.Println("BenchWire Controller")
	log.Println("====================")

	tee := interactive.NewEventTee()
	if config.LogFile != "" {
		if err := tee.Attach(config.LogFile); err != nil {
			log.Fatalf("Failed to open event log: %v", err)
		}
		log.Printf("Logging session events to %s", config.LogFile)
	}

	opts := registry.Options{Logger: tee}
	if config.Mock {
		opts.Internal = mock.NewInstrument()
		log.Println("Mock instrument registered on the internal endpoint")
	}
	reg := registry.New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ic, err := interactive.New(reg, tee)
	if err != nil {
		log.Fatalf("Failed to create interactive controller: %v", err)
	}
	// Redirect log output through readline to avoid interfering with input
	log.SetOutput(ic.Stdout())
	go ic.Run(ctx, cancel)

	// Wait for shutdown signal or context cancellation
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
		// Context was cancelled by the quit command
	}

	log.Println("Shutting down...")
	cancel()

	if err := reg.CloseAll(); err != nil {
		log.Printf("Error closing sessions: %v", err)
	}
	if err := tee.Detach(); err != nil {
		log.Printf("Error closing event log: %v", err)
	}

	log.Println("Goodbye!")
}

func setupLogging(level string) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	}
}
