// Package logging provides a minimal logging interface and adapters for Metamesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn,
// Error) that the engine and agents use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - MetameshLogger with contextual helpers (session, run, component) and
//     domain helpers for model calls, tool calls and strategy runs
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	engine := engine.New(sessionStore, artifactStore, memoryStore, engine.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
