package liveset

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoaded is returned by operations that need a parsed tree.
	ErrNotLoaded = errors.New("set is not loaded")

	// ErrVersionUnknown is returned by version-gated operations before
	// DetectVersion has run.
	ErrVersionUnknown = errors.New("set version is not parsed")

	// ErrUnsupportedLegacyFormat marks the pre-8.2 uncompressed container,
	// which spells "able" in its magic bytes and is not supported.
	ErrUnsupportedLegacyFormat = errors.New("set uses the pre-8.2 uncompressed format, which is unsupported")

	// ErrUnrecognizedContainer marks files that are neither the legacy
	// magic nor gzip.
	ErrUnrecognizedContainer = errors.New("file is not a gzip-compressed set")

	// ErrEmptyPayload marks a container whose decompressed payload is empty.
	ErrEmptyPayload = errors.New("decompressed set payload is empty")
)

// UnsupportedVersionError reports an operation invoked against a set older
// than the operation supports. It is a typed no-op failure, distinguishable
// from "ran and changed nothing".
type UnsupportedVersionError struct {
	Op      string
	Current Version
	Minimum Version
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s is only supported for %s and above (set is %s)", e.Op, e.Minimum, e.Current)
}

// VersionParseError reports a Creator string that did not match any known
// version pattern.
type VersionParseError struct {
	Creator string
}

func (e *VersionParseError) Error() string {
	return fmt.Sprintf("could not parse set version from creator %q", e.Creator)
}
