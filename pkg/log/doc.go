// Package log provides structured protocol logging for the OSCC engine.
//
// This package defines the Logger interface and Event types for
// capturing protocol-level events at each layer (channel, wire,
// engine). It is separate from operational logging (slog) - protocol
// capture produces a complete machine-readable trace of bus traffic
// and state changes for later analysis.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.Logger, _ = log.NewFileLogger("/var/log/oscc/trace.olog")
//
//	// Both: use MultiLogger
//	cfg.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// Events are CBOR-encoded with integer keys when written to a file;
// EventReader reads them back.
package log
