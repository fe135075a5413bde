// Package runner implements the per-run event loop of Metamesh.
//
// A Runner executes single agent runs on behalf of the engine: it builds the
// run context, persists the triggering user event, drives the agent lifecycle
// (Start/Run/Stop), and pumps the agent's emitted events through the
// processing pipeline:
//
//  1. Apply event actions (state deltas) to the session store
//  2. Persist non-partial events to session history
//  3. Forward events to the caller's channel
//  4. Signal resumption so the agent can continue past a committed event
//
// Resume signaling is non-blocking: composite strategy agents run their
// children through isolated child contexts and never consume the parent
// resume channel, so a blocking send would wedge the loop.
//
// The Runner owns no registry and no concurrency policy; those live in the
// engine package.
package runner
