// Package graph defines the modifier graph model: pattern sources and
// modifier nodes wired together by port-addressed edges.
//
// A Graph value is an immutable snapshot. The store owning the live topology
// hands out copies, and nothing in this package mutates a snapshot after
// construction. That is what lets the evaluator and HTTP handlers read one
// without locks.
package graph
