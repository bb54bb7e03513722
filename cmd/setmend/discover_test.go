package main

import (
	"os"
	"path/filepath"
	"testing"

	"setmend/internal/testsupport"
)

func TestDiscoverSetsSkipsBackupsAndResourceForks(t *testing.T) {
	base := t.TempDir()
	testsupport.WriteSet(t, filepath.Join(base, "one.als"), testsupport.Document("Ableton Live 11.1.5", ""))
	testsupport.WriteSet(t, filepath.Join(base, "nested", "two.als"), testsupport.Document("Ableton Live 11.1.5", ""))
	testsupport.WriteSet(t, filepath.Join(base, "Backup", "old.als"), testsupport.Document("Ableton Live 11.1.5", ""))
	testsupport.WriteSet(t, filepath.Join(base, "setmend_backup", "one__1.als"), testsupport.Document("Ableton Live 11.1.5", ""))
	if err := os.WriteFile(filepath.Join(base, "._one.als"), []byte("fork"), 0o644); err != nil {
		t.Fatalf("write resource fork: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write text file: %v", err)
	}

	sets, err := discoverSets([]string{base}, "setmend_backup")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("expected 2 sets, got %v", sets)
	}
	if filepath.Base(sets[0]) != "two.als" && filepath.Base(sets[1]) != "two.als" {
		t.Fatalf("nested set not discovered: %v", sets)
	}
}

func TestDiscoverSetsExplicitFile(t *testing.T) {
	base := t.TempDir()
	setPath := filepath.Join(base, "song.als")
	testsupport.WriteSet(t, setPath, testsupport.Document("Ableton Live 11.1.5", ""))

	sets, err := discoverSets([]string{setPath, setPath}, "setmend_backup")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("duplicate arguments should collapse: %v", sets)
	}

	if _, err := discoverSets([]string{filepath.Join(base, "missing.als")}, ""); err == nil {
		t.Fatal("expected error for missing path")
	}
}
