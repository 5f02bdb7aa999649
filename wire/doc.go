// Package wire implements the D-Bus value model and binary message codec:
// typed values and their signature strings, and the length-framed,
// alignment-aware encoding used on the wire. It has no notion of a
// connection, a bus, or a transport; those live in sibling packages.
package wire
