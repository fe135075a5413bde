// Package agent contains the agent implementations Metamesh executes. Three
// concerns live here:
//
//  1. Base lifecycle + hierarchy plumbing (BaseAgent)
//  2. The model-backed conversational agent (ModelAgent), driven through the
//     flow package
//  3. Strategy agents turning the collection personas into executable state
//     machines: AssessorAgent, EvaluatorAgent, RefinerAgent, EnsembleAgent
//     and SinglePassAgent
//
// Strategy agents compose ModelAgent workers through isolated child contexts:
// each worker run gets its own emit/resume channels and a branch label, so
// parallel strategies never trample each other's state while still drawing
// from the shared run Budget.
//
// Persistence, model specifics and tool registries stay in their own packages
// to avoid cyclic dependencies.
package agent
