// Package testutil contains fluent builders used across tests to reduce
// boilerplate when constructing sessions and events. Not intended for
// production use.
package testutil
