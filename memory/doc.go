// Package memory provides a process-local implementation of the
// core.MemoryStore interface: session-scoped key/value memory plus
// append-only stored memories with substring search. It is the default
// store wired by the engine when none is configured.
package memory
