package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// discoverSets expands the given paths into a sorted list of set files.
// Directories are walked recursively; backup directories and macOS resource
// fork leftovers are skipped so a fix run never edits its own backups.
func discoverSets(paths []string, backupDirName string) ([]string, error) {
	skipDirs := map[string]struct{}{
		"Backup": {},
		"backup": {},
	}
	if backupDirName != "" {
		skipDirs[backupDirName] = struct{}{}
	}

	seen := make(map[string]struct{})
	var sets []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		sets = append(sets, path)
	}

	for _, arg := range paths {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve path %q: %w", arg, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", abs, err)
		}
		if !info.IsDir() {
			if !isSetFile(abs) {
				return nil, fmt.Errorf("%s is not a set file", abs)
			}
			add(abs)
			continue
		}
		err = filepath.WalkDir(abs, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				if _, skip := skipDirs[entry.Name()]; skip {
					return filepath.SkipDir
				}
				return nil
			}
			if isSetFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", abs, err)
		}
	}
	sort.Strings(sets)
	return sets, nil
}

func isSetFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, "._") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".als")
}
