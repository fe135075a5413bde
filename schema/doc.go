// Package schema defines the JSON output contracts strategy agents hold their
// models to: assessment, evaluation, refinement and ensemble report shapes.
//
// Schemas are embedded and compiled once with santhosh-tekuri/jsonschema.
// Raw model text rarely arrives as clean JSON, so the package also provides
// lenient extraction (fenced block or first balanced object) and typed decode
// helpers returning score domain structs. Violations carry the contract name
// and JSON pointer path so a failing agent can be identified from logs.
package schema
