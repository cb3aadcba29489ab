// Package tracing provides a thin wrapper around OpenTelemetry tracing so
// that the rest of the code-base can create spans without depending on the
// upstream API directly.
package tracing
