// Package graphdoc is the JSON document form of a modifier graph: the wire
// format of the HTTP API and the file format the CLI reads and writes.
//
// Rationals travel as strings ("3/16") so exactness survives the trip.
// Parameter values travel as plain JSON and are bridged to cty values, the
// same representation node params use in memory. Bounds appear in encoded
// patterns for readers but are ignored on decode and recomputed, since they
// are a derived cache.
package graphdoc
