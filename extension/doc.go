// Package extension provides run-time registries that let querybot work with
// user-defined Go types and action services (for example a custom summarizer
// or an alternative vector index client) without compile-time wiring.
//
// The registries are normally populated through the public APIs of the root
// querybot package, therefore most applications do not need to import this
// package directly.
package extension
