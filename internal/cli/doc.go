// Package cli defines the patterngridgo command tree: serving the graph
// API, rendering graph documents to standard MIDI files, inspecting them in
// a terminal UI, and checking them for structural problems. It translates
// command-line flags into the application's internal configuration and owns
// process-level concerns like exit codes.
package cli
