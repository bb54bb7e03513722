package sampledb

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"setmend/internal/logging"
)

// Builder scans directories for audio files and records them in the store.
type Builder struct {
	store      *Store
	extensions map[string]struct{}
	logger     *slog.Logger
}

// BuildStats summarizes one index build run.
type BuildStats struct {
	Scanned int
	Added   int
	Skipped int
}

// NewBuilder constructs a Builder for the given audio extensions
// (lowercase, without leading dot).
func NewBuilder(store *Store, extensions []string, logger *slog.Logger) *Builder {
	extSet := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &Builder{
		store:      store,
		extensions: extSet,
		logger:     logging.NewComponentLogger(logger, "sampledb"),
	}
}

// Build walks roots, stats every matching audio file, and upserts entries
// that are not yet indexed. A file lock next to the database serializes
// concurrent builders so their writes cannot interleave.
func (b *Builder) Build(ctx context.Context, roots []string) (BuildStats, error) {
	var stats BuildStats

	lock := flock.New(b.store.Path() + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return stats, fmt.Errorf("acquire index lock: %w", err)
	}
	if !locked {
		return stats, fmt.Errorf("index build already in progress (lock held on %s)", lock.Path())
	}
	defer func() {
		_ = lock.Unlock()
	}()

	var pending []Entry
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return stats, fmt.Errorf("resolve root %q: %w", root, err)
		}
		walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				b.logger.Warn("skipping unreadable entry", logging.String("path", path), logging.Error(err))
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(d.Name()), "."))
			if _, ok := b.extensions[ext]; !ok {
				return nil
			}
			stats.Scanned++

			known, err := b.store.Has(ctx, path)
			if err != nil {
				return err
			}
			if known {
				stats.Skipped++
				return nil
			}
			info, err := d.Info()
			if err != nil {
				b.logger.Warn("cannot stat sample", logging.String("path", path), logging.Error(err))
				return nil
			}
			pending = append(pending, Entry{
				Path:         path,
				Name:         d.Name(),
				Size:         info.Size(),
				LastModified: info.ModTime().Unix(),
			})
			return nil
		})
		if walkErr != nil {
			return stats, fmt.Errorf("walk %q: %w", absRoot, walkErr)
		}
	}

	if err := b.store.UpsertMany(ctx, pending); err != nil {
		return stats, err
	}
	stats.Added = len(pending)
	b.logger.Info("index build finished",
		logging.Int("scanned", stats.Scanned),
		logging.Int("added", stats.Added),
		logging.Int("already_indexed", stats.Skipped))
	return stats, nil
}
