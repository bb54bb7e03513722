// Package testsupport builds small synthetic set files for package tests:
// gzip containers around hand-assembled document fragments in both format
// generations.
package testsupport

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"setmend/internal/hexblock"
	"setmend/internal/pathcodec"
)

// WriteSet gzips an XML document body to path as a set file. The standard
// declaration header and trailing newline are added.
func WriteSet(t *testing.T, path, body string) {
	t.Helper()
	payload := "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" + body + "\n"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for set: %v", err)
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create set: %v", err)
	}
	writer := gzip.NewWriter(file)
	if _, err := writer.Write([]byte(payload)); err != nil {
		t.Fatalf("compress set: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("finish set: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close set: %v", err)
	}
}

// Document wraps a LiveSet body in the root element with the given creator.
func Document(creator, liveSetBody string) string {
	return fmt.Sprintf("<Ableton MajorVersion=\"5\" Creator=\"%s\" Revision=\"test\"><LiveSet>%s</LiveSet></Ableton>", creator, liveSetBody)
}

// MarkProjectRoot drops the sentinel directory that makes dir a project
// root.
func MarkProjectRoot(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "Ableton Project Info"), 0o755); err != nil {
		t.Fatalf("mark project root: %v", err)
	}
}

// DataBlock encodes a path into a wrapped legacy hex block at the fixture's
// standard indent.
func DataBlock(path string) string {
	return hexblock.Format(pathcodec.EncodeLegacy(path), 6)
}

// ModernRef describes one 11+ sample reference.
type ModernRef struct {
	Absolute     string
	Relative     string
	RelativeType int
	Size         int64
	LastModified int64
}

// XML renders the reference as a SampleRef fragment.
func (r ModernRef) XML() string {
	return fmt.Sprintf(
		"<SampleRef><FileRef>"+
			"<RelativePathType Value=\"%d\" />"+
			"<RelativePath Value=\"%s\" />"+
			"<Path Value=\"%s\" />"+
			"<Type Value=\"1\" />"+
			"<OriginalFileSize Value=\"%d\" />"+
			"<OriginalCrc Value=\"7866\" />"+
			"</FileRef><LastModDate Value=\"%d\" /></SampleRef>",
		r.RelativeType, r.Relative, r.Absolute, r.Size, r.LastModified)
}

// LegacyRef describes one pre-11 sample reference. Absolute is encoded into
// the Data hex block the way a Windows-origin set stores it.
type LegacyRef struct {
	Name         string
	Absolute     string
	RelativeDirs []string
	HasRelative  bool
	RelativeType int
	Size         int64
	LastModified int64
}

// XML renders the reference as a SampleRef fragment. The Data block uses a
// fixed indent of 6, matching a reference nested inside a track's device
// chain.
func (r LegacyRef) XML() string {
	var relative strings.Builder
	relative.WriteString("<RelativePath>")
	for i, dir := range r.RelativeDirs {
		fmt.Fprintf(&relative, "\n\t\t\t\t\t\t<RelativePathElement Id=\"%d\" Dir=\"%s\" />", i, dir)
	}
	if len(r.RelativeDirs) > 0 {
		relative.WriteString("\n\t\t\t\t\t")
	}
	relative.WriteString("</RelativePath>")

	data := hexblock.Format(pathcodec.EncodeLegacy(r.Absolute), 6)
	return fmt.Sprintf(
		"<SampleRef><FileRef>"+
			"<HasRelativePath Value=\"%t\" />"+
			"<RelativePathType Value=\"%d\" />"+
			"%s"+
			"<Name Value=\"%s\" />"+
			"<Type Value=\"1\" />"+
			"<Data>%s</Data>"+
			"<RefersToFolder Value=\"false\" />"+
			"<SearchHint><PathHint /><FileSize Value=\"%d\" /><Crc Value=\"0\" /><MaxCrcSize Value=\"16384\" /><HasExtendedInfo Value=\"false\" /></SearchHint>"+
			"</FileRef><LastModDate Value=\"%d\" /></SampleRef>",
		r.HasRelative, r.RelativeType, relative.String(), r.Name, data, r.Size, r.LastModified)
}
