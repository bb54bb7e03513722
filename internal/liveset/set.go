package liveset

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"setmend/internal/logging"
	"setmend/internal/pathcodec"
	"setmend/internal/xmltree"
)

// projectSentinel is the directory entry that marks a project root.
const projectSentinel = "Ableton Project Info"

// maxRootSearchDepth bounds the upward ancestor walk when locating the
// project root.
const maxRootSearchDepth = 10

// legacyMagic is the first two bytes of pre-8.2 uncompressed sets. It spells
// "able".
var legacyMagic = []byte{0xAB, 0x1E}

// gzipMagic is the standard gzip header prefix.
var gzipMagic = []byte{0x1F, 0x8B}

// Set is one Live set document. Mutating operations require Load to have
// succeeded; version-gated operations additionally require DetectVersion.
type Set struct {
	path   string
	logger *slog.Logger

	root *xmltree.Node

	version      Version
	versionKnown bool
	creator      string
	beta         bool
	schema       refSchema

	projectRoot      string
	searchedRoot     bool
	creationTime     time.Time
	modificationTime time.Time

	tracks []*Track
	refs   []*SampleRef
}

// New constructs an unparsed Set for the file at path.
func New(path string, logger *slog.Logger) *Set {
	return &Set{
		path:   path,
		logger: logging.NewComponentLogger(logger, "liveset"),
	}
}

// Path returns the set file location.
func (s *Set) Path() string { return s.path }

// Name returns the set file name.
func (s *Set) Name() string { return filepath.Base(s.path) }

// Load sniffs the container magic, decompresses the payload, and parses the
// XML tree. The original file timestamps are recorded so they can be
// restored after a rewrite.
func (s *Set) Load() error {
	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open set: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat set: %w", err)
	}
	s.modificationTime = info.ModTime()
	// Creation time is not portably available; the modification time is the
	// best observable stand-in and is what gets restored after a rewrite.
	s.creationTime = info.ModTime()

	magic := make([]byte, 2)
	if _, err := io.ReadFull(file, magic); err != nil {
		return fmt.Errorf("%w: %s", ErrUnrecognizedContainer, s.path)
	}
	if bytes.Equal(magic, legacyMagic) {
		return fmt.Errorf("%w: %s", ErrUnsupportedLegacyFormat, s.path)
	}
	if !bytes.Equal(magic, gzipMagic) {
		return fmt.Errorf("%w: %s", ErrUnrecognizedContainer, s.path)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind set: %w", err)
	}
	reader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer reader.Close()

	payload, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("decompress set: %w", err)
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyPayload, s.path)
	}

	root, err := xmltree.Parse(payload)
	if err != nil {
		return fmt.Errorf("parse set xml: %w", err)
	}
	s.root = root
	return nil
}

// Loaded reports whether the tree has been parsed.
func (s *Set) Loaded() bool { return s.root != nil }

// Root exposes the parsed tree for read-only inspection.
func (s *Set) Root() *xmltree.Node { return s.root }

// DetectVersion parses the Creator attribute into a version triple and
// selects the reference schema generation. Beta releases log an advisory.
func (s *Set) DetectVersion() (Version, error) {
	if err := s.requireLoaded(); err != nil {
		return Version{}, err
	}
	creator, ok := s.root.Attr("Creator")
	if !ok {
		return Version{}, &VersionParseError{Creator: ""}
	}
	version, beta, err := ParseCreator(creator)
	if err != nil {
		return Version{}, err
	}
	s.creator = creator
	s.version = version
	s.versionKnown = true
	s.beta = beta
	if version.AtLeast(Version{11, 0, 0}) {
		s.schema = modernSchema{}
	} else {
		s.schema = legacySchema{}
	}
	s.logger.Info("set version detected", logging.String("set", s.Name()), logging.String("version", version.String()))
	if beta {
		s.logger.Warn("set is from a beta version, some commands might not work properly", logging.String("creator", creator))
	}
	return version, nil
}

// Version returns the detected version; ok is false before DetectVersion.
func (s *Set) Version() (Version, bool) {
	return s.version, s.versionKnown
}

// Creator returns the raw Creator string observed at detection time.
func (s *Set) Creator() string { return s.creator }

// Beta reports whether the set was saved by a beta release.
func (s *Set) Beta() bool { return s.beta }

// FileTimes returns the creation and modification times observed at load,
// for restoring after a rewrite.
func (s *Set) FileTimes() (created, modified time.Time) {
	return s.creationTime, s.modificationTime
}

// ProjectRoot walks ancestor directories upward from the set location and
// returns the first one containing the project sentinel entry. ok is false
// when no root was found within the bounded search; project-relative paths
// are unverifiable in that case.
func (s *Set) ProjectRoot() (string, bool) {
	if s.searchedRoot {
		return s.projectRoot, s.projectRoot != ""
	}
	s.searchedRoot = true

	dir := filepath.Dir(s.path)
	for depth := 0; depth <= maxRootSearchDepth; depth++ {
		if _, err := os.Stat(filepath.Join(dir, projectSentinel)); err == nil {
			s.projectRoot = dir
			s.logger.Debug("project root found", logging.String("dir", dir))
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	s.logger.Warn("could not find project root, unable to validate relative paths",
		logging.String("set", s.Name()),
		logging.String("sentinel", projectSentinel))
	return "", false
}

// DetectedOS aggregates the per-reference OS tags produced while decoding
// legacy path blobs. Sets never record their origin OS, so this is a
// majority vote over heuristics and can be unknown.
func (s *Set) DetectedOS() pathcodec.OS {
	counts := map[pathcodec.OS]int{}
	for _, ref := range s.refs {
		if ref.osTag != pathcodec.OSUnknown {
			counts[ref.osTag]++
		}
	}
	if counts[pathcodec.OSMac] > counts[pathcodec.OSWindows] {
		return pathcodec.OSMac
	}
	if counts[pathcodec.OSWindows] > counts[pathcodec.OSMac] {
		return pathcodec.OSWindows
	}
	return pathcodec.OSUnknown
}

func (s *Set) requireLoaded() error {
	if s.root == nil {
		return ErrNotLoaded
	}
	return nil
}

func (s *Set) requireVersion(op string, minimum Version) error {
	if err := s.requireLoaded(); err != nil {
		return err
	}
	if !s.versionKnown {
		return ErrVersionUnknown
	}
	if !s.version.AtLeast(minimum) {
		return &UnsupportedVersionError{Op: op, Current: s.version, Minimum: minimum}
	}
	return nil
}
