// Package pathcodec decodes and encodes the binary absolute-path blobs that
// pre-Live-11 sets store for sample and plugin references. macOS sets use an
// undocumented chunked struct layout; Windows sets use UTF-16 text. The
// dispatch between the two is a byte-pattern heuristic, not a format tag.
package pathcodec
