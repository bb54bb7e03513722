package reconcile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"setmend/internal/liveset"
	"setmend/internal/logging"
	"setmend/internal/sampledb"
	"setmend/internal/testsupport"
)

const creator = "Ableton Live 11.1.5"

func loadSet(t *testing.T, path, body string) *liveset.Set {
	t.Helper()
	testsupport.WriteSet(t, path, body)
	set := liveset.New(path, logging.NewNop())
	if err := set.Load(); err != nil {
		t.Fatalf("load set: %v", err)
	}
	if _, err := set.DetectVersion(); err != nil {
		t.Fatalf("detect version: %v", err)
	}
	return set
}

func writeSample(t *testing.T, path, content string) sampledb.Entry {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat sample: %v", err)
	}
	return sampledb.Entry{
		Path:         path,
		Name:         filepath.Base(path),
		Size:         info.Size(),
		LastModified: info.ModTime().Unix(),
	}
}

func TestCheckDeduplicatesMissingPaths(t *testing.T) {
	missing := testsupport.ModernRef{
		Absolute:     "/gone/kick.wav",
		Relative:     "Samples/Imported/kick.wav",
		RelativeType: 3,
		Size:         4,
	}
	body := "<Tracks><AudioTrack Id=\"1\">" + missing.XML() + missing.XML() + "</AudioTrack></Tracks>"
	set := loadSet(t, filepath.Join(t.TempDir(), "song.als"), testsupport.Document(creator, body))

	engine := New(nil, logging.NewNop())
	report, err := engine.Check(set)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.Total != 2 || report.Missing != 2 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.MissingAbsolute) != 1 || len(report.MissingRelative) != 1 {
		t.Fatalf("missing paths not deduplicated: %+v", report)
	}
	if report.MissingAbsolute[0] != "/gone/kick.wav" {
		t.Fatalf("missing absolute = %v", report.MissingAbsolute)
	}
}

func TestFixRewritesAbsolutePath(t *testing.T) {
	library := t.TempDir()
	entry := writeSample(t, filepath.Join(library, "kick.wav"), "abcd")

	ref := testsupport.ModernRef{Absolute: "/gone/kick.wav", Size: 4, LastModified: 999}
	body := "<Tracks><AudioTrack Id=\"1\">" + ref.XML() + "</AudioTrack></Tracks>"
	set := loadSet(t, filepath.Join(t.TempDir(), "song.als"), testsupport.Document(creator, body))

	engine := New([]sampledb.Entry{entry}, logging.NewNop())
	result, err := engine.Fix(set, Options{})
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if result.Missing != 1 || result.Fixed != 1 || result.Unfixed != 0 {
		t.Fatalf("result = %+v", result)
	}

	refs, err := set.SampleRefs()
	if err != nil {
		t.Fatalf("refs: %v", err)
	}
	if refs[0].Absolute != entry.Path {
		t.Fatalf("absolute = %q, want %q", refs[0].Absolute, entry.Path)
	}
	if refs[0].RelativeType() != liveset.RelativeTypeAbsolute {
		t.Fatalf("relative type = %d", refs[0].RelativeType())
	}
	if !refs[0].AbsoluteExists() {
		t.Fatal("rewritten path should exist")
	}
}

func TestFixMatchesOnSizeAloneAndModTimeAlone(t *testing.T) {
	library := t.TempDir()
	entry := writeSample(t, filepath.Join(library, "kick.wav"), "abcd")

	// Size matches, stored mtime does not.
	sizeOnly := testsupport.ModernRef{Absolute: "/gone/kick.wav", Size: 4, LastModified: 1}
	// Stored size is absent, mtime matches.
	modOnly := testsupport.ModernRef{Absolute: "/gone2/kick.wav", Size: 0, LastModified: entry.LastModified}
	body := "<Tracks><AudioTrack Id=\"1\">" + sizeOnly.XML() + modOnly.XML() + "</AudioTrack></Tracks>"
	set := loadSet(t, filepath.Join(t.TempDir(), "song.als"), testsupport.Document(creator, body))

	engine := New([]sampledb.Entry{entry}, logging.NewNop())
	result, err := engine.Fix(set, Options{})
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if result.Fixed != 2 {
		t.Fatalf("result = %+v", result)
	}
}

func TestFixServesRepeatedReferencesFromCache(t *testing.T) {
	library := t.TempDir()
	entry := writeSample(t, filepath.Join(library, "kick.wav"), "abcd")

	ref := testsupport.ModernRef{Absolute: "/gone/kick.wav", Size: 4}
	body := "<Tracks><AudioTrack Id=\"1\">" + ref.XML() + ref.XML() + ref.XML() + "</AudioTrack></Tracks>"
	set := loadSet(t, filepath.Join(t.TempDir(), "song.als"), testsupport.Document(creator, body))

	engine := New([]sampledb.Entry{entry}, logging.NewNop())
	result, err := engine.Fix(set, Options{})
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if result.Fixed != 3 {
		t.Fatalf("result = %+v", result)
	}
	if result.IndexScans != 1 {
		t.Fatalf("index scanned %d times, want 1 with cache serving repeats", result.IndexScans)
	}
}

func TestFixDeterministicFirstMatch(t *testing.T) {
	library := t.TempDir()
	first := writeSample(t, filepath.Join(library, "a", "kick.wav"), "abcd")
	second := writeSample(t, filepath.Join(library, "b", "kick.wav"), "abcd")

	ref := testsupport.ModernRef{Absolute: "/gone/kick.wav", Size: 4}
	body := "<Tracks><AudioTrack Id=\"1\">" + ref.XML() + "</AudioTrack></Tracks>"
	set := loadSet(t, filepath.Join(t.TempDir(), "song.als"), testsupport.Document(creator, body))

	// Entries arrive path-ordered from the index snapshot; the first always
	// wins.
	engine := New([]sampledb.Entry{first, second}, logging.NewNop())
	if _, err := engine.Fix(set, Options{}); err != nil {
		t.Fatalf("fix: %v", err)
	}
	refs, _ := set.SampleRefs()
	if refs[0].Absolute != first.Path {
		t.Fatalf("absolute = %q, want first entry %q", refs[0].Absolute, first.Path)
	}
}

func TestFixCollectCopiesIntoProject(t *testing.T) {
	project := t.TempDir()
	testsupport.MarkProjectRoot(t, project)
	library := t.TempDir()
	entry := writeSample(t, filepath.Join(library, "kick.wav"), "abcd")

	// An existing collected relative dir is reused instead of the default.
	ref := testsupport.ModernRef{
		Absolute:     "/gone/kick.wav",
		Relative:     "Samples/Processed/kick.wav",
		RelativeType: 3,
		Size:         4,
	}
	body := "<Tracks><AudioTrack Id=\"1\">" + ref.XML() + "</AudioTrack></Tracks>"
	set := loadSet(t, filepath.Join(project, "song.als"), testsupport.Document(creator, body))

	engine := New([]sampledb.Entry{entry}, logging.NewNop())
	result, err := engine.Fix(set, Options{Collect: true})
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if result.Fixed != 1 {
		t.Fatalf("result = %+v", result)
	}

	collected := filepath.Join(project, "Samples", "Processed", "kick.wav")
	data, err := os.ReadFile(collected)
	if err != nil {
		t.Fatalf("collected file missing: %v", err)
	}
	if string(data) != "abcd" {
		t.Fatalf("collected content = %q", data)
	}

	refs, _ := set.SampleRefs()
	if refs[0].Relative != "Samples/Processed/kick.wav" {
		t.Fatalf("relative = %q", refs[0].Relative)
	}
	if refs[0].RelativeType() != liveset.RelativeTypeCollected {
		t.Fatalf("relative type = %d", refs[0].RelativeType())
	}
	if !refs[0].RelativeExists() {
		t.Fatal("relative path should resolve after collect")
	}
}

func TestFixCollectDefaultDirWhenNotCollectedBefore(t *testing.T) {
	project := t.TempDir()
	testsupport.MarkProjectRoot(t, project)
	library := t.TempDir()
	entry := writeSample(t, filepath.Join(library, "kick.wav"), "abcd")

	ref := testsupport.ModernRef{Absolute: "/gone/kick.wav", RelativeType: 1, Size: 4}
	body := "<Tracks><AudioTrack Id=\"1\">" + ref.XML() + "</AudioTrack></Tracks>"
	set := loadSet(t, filepath.Join(project, "song.als"), testsupport.Document(creator, body))

	engine := New([]sampledb.Entry{entry}, logging.NewNop())
	if _, err := engine.Fix(set, Options{Collect: true}); err != nil {
		t.Fatalf("fix: %v", err)
	}
	if _, err := os.Stat(filepath.Join(project, "Samples", "Imported", "kick.wav")); err != nil {
		t.Fatalf("sample not collected into default dir: %v", err)
	}
}

func TestFixCollectConflictNeedsForce(t *testing.T) {
	project := t.TempDir()
	testsupport.MarkProjectRoot(t, project)
	library := t.TempDir()
	entry := writeSample(t, filepath.Join(library, "kick.wav"), "abcd")
	// A different file with the same name already collected in the project.
	writeSample(t, filepath.Join(project, "Samples", "Imported", "kick.wav"), "different-bytes")

	ref := testsupport.ModernRef{Absolute: "/gone/kick.wav", RelativeType: 1, Size: 4}
	body := "<Tracks><AudioTrack Id=\"1\">" + ref.XML() + "</AudioTrack></Tracks>"
	set := loadSet(t, filepath.Join(project, "song.als"), testsupport.Document(creator, body))

	engine := New([]sampledb.Entry{entry}, logging.NewNop())
	result, err := engine.Fix(set, Options{Collect: true})
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if result.Fixed != 0 || result.Unfixed != 1 {
		t.Fatalf("conflict should stay unfixed without force: %+v", result)
	}
	data, _ := os.ReadFile(filepath.Join(project, "Samples", "Imported", "kick.wav"))
	if string(data) != "different-bytes" {
		t.Fatal("conflicting project file was overwritten without force")
	}

	// Force replaces the conflicting file.
	set = loadSet(t, filepath.Join(project, "song2.als"), testsupport.Document(creator, body))
	result, err = engine.Fix(set, Options{Collect: true, Force: true})
	if err != nil {
		t.Fatalf("fix with force: %v", err)
	}
	if result.Fixed != 1 {
		t.Fatalf("result = %+v", result)
	}
	data, _ = os.ReadFile(filepath.Join(project, "Samples", "Imported", "kick.wav"))
	if string(data) != "abcd" {
		t.Fatalf("forced collect content = %q", data)
	}
}

func TestFixSkipsFactoryPackContent(t *testing.T) {
	ref := testsupport.ModernRef{
		Absolute: "/Users/x/Library/Application Support/Ableton/Factory Packs/Drums/kick.wav",
		Size:     4,
	}
	body := "<Tracks><AudioTrack Id=\"1\">" + ref.XML() + "</AudioTrack></Tracks>"
	set := loadSet(t, filepath.Join(t.TempDir(), "song.als"), testsupport.Document(creator, body))

	engine := New(nil, logging.NewNop())
	result, err := engine.Fix(set, Options{})
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if result.Missing != 0 || result.Unfixed != 0 {
		t.Fatalf("factory content should be skipped entirely: %+v", result)
	}
}

func TestFixReportsUnfixable(t *testing.T) {
	ref := testsupport.ModernRef{Absolute: "/gone/nowhere.wav", Size: 123}
	body := "<Tracks><AudioTrack Id=\"1\">" + ref.XML() + "</AudioTrack></Tracks>"
	set := loadSet(t, filepath.Join(t.TempDir(), "song.als"), testsupport.Document(creator, body))

	engine := New(nil, logging.NewNop())
	result, err := engine.Fix(set, Options{})
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if result.Unfixed != 1 || len(result.UnfixedNames) != 1 {
		t.Fatalf("result = %+v", result)
	}
	if !strings.Contains(result.UnfixedNames[0], "nowhere.wav") {
		t.Fatalf("unfixed names = %v", result.UnfixedNames)
	}
}
