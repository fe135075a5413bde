// Package score contains the deterministic decision math of Metamesh:
// verdicts from soft scores, complexity routing bands, iteration history
// bookkeeping with plateau detection, and ensemble consensus voting.
//
// Everything here is pure computation over decoded model output. Strategy
// agents ask models to produce scores; this package decides what the scores
// mean. Keeping the arithmetic out of prompts makes routing, termination and
// voting reproducible and unit-testable.
//
// Soft scores are 0.0-1.0 floats. Complexity scores are 1.0-10.0. Nullable
// values (a model declining to score) are represented as *float64.
package score
