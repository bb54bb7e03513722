package liveset

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"setmend/internal/fileutil"
	"setmend/internal/logging"
)

// SaveOptions controls how a modified set is written back to disk.
type SaveOptions struct {
	// BackupDirName is the sibling directory the original file is moved
	// into before the rewrite.
	BackupDirName string
	// AppendBarsBPM renames the saved file to carry the arrangement length
	// and tempo, replacing any marker from a previous save.
	AppendBarsBPM bool
	// PrependVersion renames the saved file to carry the creator version,
	// replacing any marker from a previous save.
	PrependVersion bool
}

// GenerateXML serializes the tree with the fixed declaration header and
// trailing newline the set format uses.
func (s *Set) GenerateXML() ([]byte, error) {
	if err := s.requireLoaded(); err != nil {
		return nil, err
	}
	body := s.root.Marshal()
	out := make([]byte, 0, len(body)+64)
	out = append(out, []byte("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

// SaveXML writes the uncompressed document next to the set file with an
// .xml extension, backing up any previous export first.
func (s *Set) SaveXML(backupDirName string) (string, error) {
	payload, err := s.GenerateXML()
	if err != nil {
		return "", err
	}
	xmlPath := strings.TrimSuffix(s.path, filepath.Ext(s.path)) + ".xml"
	if _, err := os.Stat(xmlPath); err == nil {
		if _, err := fileutil.CreateBackup(xmlPath, backupDirName); err != nil {
			return "", fmt.Errorf("back up previous xml export: %w", err)
		}
	}
	if err := os.WriteFile(xmlPath, payload, 0o644); err != nil {
		return "", fmt.Errorf("write xml export: %w", err)
	}
	s.logger.Info("saved xml", logging.String("path", xmlPath))
	return xmlPath, nil
}

var (
	barsBPMMarker = regexp.MustCompile(`_\d{1,3}bars_\d{1,3}\.\d{2}bpm`)
	versionMarker = regexp.MustCompile(`^\d{1,2}\.\d{1,3}\.[b\d]{1,5}_`)
)

// Save moves the original file into the backup directory, applies any
// filename markers, and recompresses the tree to the (possibly renamed) set
// path. The write runs on its own goroutine, joined before return, so an
// interrupt to the caller cannot tear the file mid-write. Returns the path
// the set was saved to.
func (s *Set) Save(opts SaveOptions) (string, error) {
	payload, err := s.GenerateXML()
	if err != nil {
		return "", err
	}

	backupPath, err := fileutil.CreateBackup(s.path, opts.BackupDirName)
	if err != nil {
		return "", fmt.Errorf("back up set: %w", err)
	}
	s.logger.Info("moved original to backup", logging.String("from", s.path), logging.String("to", backupPath))

	if opts.AppendBarsBPM {
		if err := s.appendBarsBPM(); err != nil {
			return "", err
		}
	}
	if opts.PrependVersion && s.versionKnown {
		s.prependVersion()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.writeCompressed(payload)
	}()
	if err := <-errCh; err != nil {
		return "", err
	}
	s.logger.Info("saved set", logging.String("path", s.path))
	return s.path, nil
}

func (s *Set) appendBarsBPM() error {
	bars, err := s.FurthestBar()
	if err != nil {
		return fmt.Errorf("find furthest bar: %w", err)
	}
	tempo, err := s.Tempo()
	if err != nil {
		return fmt.Errorf("read tempo: %w", err)
	}
	dir := filepath.Dir(s.path)
	stem := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	cleaned := barsBPMMarker.ReplaceAllString(stem, "")
	s.path = filepath.Join(dir, fmt.Sprintf("%s_%dbars_%.2fbpm.als", cleaned, bars, tempo))
	s.logger.Debug("appending bars and bpm", logging.String("name", filepath.Base(s.path)))
	return nil
}

func (s *Set) prependVersion() {
	dir := filepath.Dir(s.path)
	base := filepath.Base(s.path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	cleaned := versionMarker.ReplaceAllString(stem, "")
	s.path = filepath.Join(dir, fmt.Sprintf("%s_%s%s", s.version, cleaned, ext))
}

// writeCompressed gzips the payload to the set path and restores the
// original file times so sorting by date still reflects real edits.
func (s *Set) writeCompressed(payload []byte) error {
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create set file: %w", err)
	}
	writer := gzip.NewWriter(file)
	if _, err := writer.Write(payload); err != nil {
		file.Close()
		return fmt.Errorf("compress set: %w", err)
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return fmt.Errorf("finish compression: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close set file: %w", err)
	}
	if !s.modificationTime.IsZero() {
		if err := os.Chtimes(s.path, s.modificationTime, s.modificationTime); err != nil {
			s.logger.Warn("could not restore file times", logging.Error(err))
		}
	}
	return nil
}
