// Package xmltree provides a minimal XML document tree that round-trips
// Ableton Live set markup byte-for-byte: attribute order, indentation
// whitespace, and self-closing element style are all preserved. Lookups use
// a dotted-path convention ("LiveSet.Tracks") instead of a general XPath
// engine.
package xmltree
