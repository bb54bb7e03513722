// Package reconcile matches a set's broken sample references against the
// sample index and rewrites them, either to the indexed absolute path or by
// collecting the file into the project folder.
package reconcile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"setmend/internal/fileutil"
	"setmend/internal/liveset"
	"setmend/internal/logging"
	"setmend/internal/sampledb"
)

// DefaultCollectDir is where collected samples land when a reference has no
// usable relative directory of its own. It matches the layout Live's own
// collect-and-save produces.
const DefaultCollectDir = "Samples/Imported"

// factoryPackFragments mark built-in pack content. Those references are
// skipped: Live relinks its own packs on load and copying pack audio into
// projects just duplicates it.
var factoryPackFragments = []string{
	"/Resources/Builtin/Samples",
	"Ableton/Factory Packs",
}

// Options controls how found samples are written back.
type Options struct {
	// Collect copies each found sample into the project folder and stores a
	// project-relative reference, like Live's collect-and-save.
	Collect bool
	// Force lets Collect overwrite a same-named project file whose size
	// differs from the reference.
	Force bool
	// CollectDir overrides DefaultCollectDir.
	CollectDir string
}

// CheckReport lists the references that resolve nowhere. The same file is
// often referenced many times in one set, so the path lists are deduplicated.
type CheckReport struct {
	Total           int
	Missing         int
	MissingAbsolute []string
	MissingRelative []string
}

// Result summarizes a fix run.
type Result struct {
	Missing int
	Fixed   int
	Unfixed int
	// UnfixedNames are the sample names no index entry matched.
	UnfixedNames []string
	// IndexScans counts full index passes; repeated references to the same
	// file are served from the per-run cache instead.
	IndexScans int
}

// Engine reconciles sets against one index snapshot. The snapshot is
// path-ordered, so when several index entries match a reference the same one
// wins on every run.
type Engine struct {
	entries []sampledb.Entry
	logger  *slog.Logger
}

// New builds an engine over a path-ordered index snapshot.
func New(entries []sampledb.Entry, logger *slog.Logger) *Engine {
	return &Engine{
		entries: entries,
		logger:  logging.NewComponentLogger(logger, "reconcile"),
	}
}

// Check reports which references in the set resolve nowhere on disk.
func (e *Engine) Check(set *liveset.Set) (*CheckReport, error) {
	refs, err := set.SampleRefs()
	if err != nil {
		return nil, err
	}
	report := &CheckReport{Total: len(refs)}
	seenAbsolute := make(map[string]struct{})
	seenRelative := make(map[string]struct{})
	for _, ref := range refs {
		if ref.AbsoluteExists() || ref.RelativeExists() {
			e.logger.Debug("sample found",
				logging.String("name", ref.Name),
				logging.String("absolute", ref.Absolute),
				logging.String("relative", ref.Relative))
			continue
		}
		report.Missing++
		if ref.Absolute != "" {
			if _, ok := seenAbsolute[ref.Absolute]; !ok {
				seenAbsolute[ref.Absolute] = struct{}{}
				report.MissingAbsolute = append(report.MissingAbsolute, ref.Absolute)
			}
		}
		if ref.Relative != "" {
			if _, ok := seenRelative[ref.Relative]; !ok {
				seenRelative[ref.Relative] = struct{}{}
				report.MissingRelative = append(report.MissingRelative, ref.Relative)
			}
		}
	}
	return report, nil
}

// Fix rewrites every missing reference a matching index entry can serve.
// References into factory pack content are left alone.
func (e *Engine) Fix(set *liveset.Set, opts Options) (*Result, error) {
	refs, err := set.SampleRefs()
	if err != nil {
		return nil, err
	}
	projectRoot, hasRoot := set.ProjectRoot()

	result := &Result{}
	// The same sample is usually referenced many times per set; matches
	// found this run are tried before another full index pass.
	cache := make([]sampledb.Entry, 0, 4)

	for _, ref := range refs {
		if ref.AbsoluteExists() || ref.RelativeExists() {
			continue
		}
		if isFactoryContent(ref.Absolute) {
			e.logger.Debug("skipping builtin pack content", logging.String("path", ref.Absolute))
			continue
		}
		result.Missing++

		entry, ok := e.match(ref, cache)
		if !ok {
			result.IndexScans++
			entry, ok = e.match(ref, e.entries)
		}
		if !ok {
			result.Unfixed++
			result.UnfixedNames = append(result.UnfixedNames, ref.Name)
			e.logger.Warn("could not find sample",
				logging.String("name", ref.Name),
				logging.String("absolute", ref.Absolute),
				logging.String("relative", ref.Relative))
			continue
		}

		fixed, err := e.apply(ref, entry, projectRoot, hasRoot, opts)
		if err != nil {
			return nil, err
		}
		if fixed {
			result.Fixed++
			cache = append(cache, entry)
		} else {
			result.Unfixed++
			result.UnfixedNames = append(result.UnfixedNames, ref.Name)
		}
	}
	e.logger.Info("fix run finished",
		logging.Int("missing", result.Missing),
		logging.Int("fixed", result.Fixed),
		logging.Int("unfixed", result.Unfixed))
	return result, nil
}

func (e *Engine) apply(ref *liveset.SampleRef, entry sampledb.Entry, projectRoot string, hasRoot bool, opts Options) (bool, error) {
	e.logger.Debug("found match",
		logging.String("name", ref.Name),
		logging.String("replacement", entry.Path))

	if opts.Collect && hasRoot {
		return e.collect(ref, entry, projectRoot, opts)
	}
	if opts.Collect {
		e.logger.Warn("project root not found, using absolute path instead",
			logging.String("name", ref.Name))
	}
	if err := ref.SetAbsolute(entry.Path); err != nil {
		return false, fmt.Errorf("rewrite absolute path: %w", err)
	}
	ref.SetRelativeType(liveset.RelativeTypeAbsolute)
	return true, nil
}

// match returns the first index entry for the reference. The name must
// match, plus the size or the modification time: sets do not always store a
// size, but a name and mtime both matching is almost never a false positive.
func (e *Engine) match(ref *liveset.SampleRef, entries []sampledb.Entry) (sampledb.Entry, bool) {
	for _, entry := range entries {
		if entry.Name != ref.Name {
			continue
		}
		sizeMatch := ref.Size != 0 && entry.Size == ref.Size
		modifiedMatch := ref.LastModified != 0 && entry.LastModified == ref.LastModified
		if sizeMatch || modifiedMatch {
			return entry, true
		}
	}
	return sampledb.Entry{}, false
}

// collect copies the found sample into the project and stores a relative
// reference. A same-named project file of the same size is reused without
// copying; a different size is a conflict that only Force may overwrite.
func (e *Engine) collect(ref *liveset.SampleRef, entry sampledb.Entry, projectRoot string, opts Options) (bool, error) {
	relDir := opts.CollectDir
	if relDir == "" {
		relDir = DefaultCollectDir
	}
	if ref.RelativeType() == liveset.RelativeTypeCollected {
		if dir := ref.RelativeDir(); dir != "" {
			relDir = dir
		}
	}
	targetDir := filepath.Join(projectRoot, filepath.FromSlash(relDir))
	if err := fileutil.EnsureDir(targetDir); err != nil {
		return false, fmt.Errorf("create collect directory: %w", err)
	}

	target := filepath.Join(targetDir, entry.Name)
	info, err := os.Stat(target)
	switch {
	case err == nil && info.Size() == ref.Size:
		// Same file already collected, reuse it.
	case err == nil && !opts.Force:
		e.logger.Error("cannot copy sample, would replace project file with same name",
			logging.String("target", target))
		return false, nil
	default:
		if err := fileutil.CopyFileVerified(entry.Path, target); err != nil {
			return false, fmt.Errorf("copy sample into project: %w", err)
		}
	}

	if err := ref.SetRelative(relDir + "/" + entry.Name); err != nil {
		return false, fmt.Errorf("rewrite relative path: %w", err)
	}
	ref.SetRelativeType(liveset.RelativeTypeCollected)
	return true, nil
}

func isFactoryContent(absolute string) bool {
	if absolute == "" {
		return false
	}
	normalized := strings.ReplaceAll(absolute, `\`, "/")
	for _, fragment := range factoryPackFragments {
		if strings.Contains(normalized, fragment) {
			return true
		}
	}
	return false
}
