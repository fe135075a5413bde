// Package artifact contains concrete implementations of core.ArtifactStore.
//
// The canonical ArtifactStore interface lives in the core package to avoid
// dependency cycles and keep domain contracts central. This package provides
// an in-memory store for tests and prototypes; the fs subpackage provides a
// file-backed store that survives process restarts. Callers should depend on
// the core interface rather than concrete types so they can substitute
// alternative persistence layers.
package artifact
