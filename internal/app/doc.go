// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the wiring between the modifier registry,
// the graph store and the evaluator, decoupled from any specific entrypoint
// like a CLI or server.
package app
