// Package log provides structured event logging for BenchWire.
//
// This package defines the Logger interface and Event types for capturing
// instrument traffic at multiple layers (transport, session, instrument,
// registry). It is separate from operational logging (slog) - event capture
// provides a complete machine-readable trace of every command exchange for
// debugging and analysis.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/benchwire/bench.bwlog")
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    log.NewFileLogger("/var/log/benchwire/bench.bwlog"),
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Session: Command exchanges with wire text and timing (CommandEvent)
//   - Session: Lifecycle transitions (StateChangeEvent)
//   - Registry: Discovered endpoints (DiscoveryEvent)
//
// Errors at any layer have a dedicated event type.
//
// # File Format
//
// Log files use CBOR encoding with .bwlog extension. The benchwire-log CLI
// tool provides viewing, filtering, and export capabilities.
package log
