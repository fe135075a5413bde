// Package model defines the provider-agnostic abstractions and concrete
// helpers for interacting with language / reasoning models inside Metamesh.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Resolve collection provider declarations to concrete models (Registry)
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. Anthropic, OpenAI) implement the Model interface from this
// package so higher layers (agents, strategies) remain decoupled from vendor
// SDKs. The Registry maps the provider module names agent files declare in
// frontmatter (provider-anthropic, provider-openai) to factories; unknown
// modules surface as load-time errors rather than runtime surprises.
package model
