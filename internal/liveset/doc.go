// Package liveset models an Ableton Live set document: parsing the gzip
// container, detecting the creator version, and exposing typed views over
// tracks and sample references that read and mutate the underlying XML tree
// without disturbing unrelated content.
//
// The same logical sample-reference fields are stored in two structurally
// different tree shapes depending on the set's format generation (pre-11
// binary path blobs vs 11+ plain strings). A schema strategy is selected
// once when the version becomes known and every field access dispatches
// through it.
package liveset
