package config

import (
	"path"
	"strings"
)

// normalize expands user paths and fills in zero-valued fields with
// defaults so downstream code never needs fallbacks.
func (c *Config) normalize() error {
	expanded, err := expandPath(c.Paths.IndexDB)
	if err != nil {
		return err
	}
	if expanded == "" {
		expanded, err = expandPath(defaultIndexDB)
		if err != nil {
			return err
		}
	}
	c.Paths.IndexDB = expanded

	if strings.TrimSpace(c.Paths.BackupDirName) == "" {
		c.Paths.BackupDirName = defaultBackupDirName
	}
	// The collect dir is project-relative and always slash-separated in the
	// set file, so clean it with path, not filepath.
	c.Paths.CollectDir = path.Clean(strings.Trim(strings.TrimSpace(c.Paths.CollectDir), "/"))
	if c.Paths.CollectDir == "" || c.Paths.CollectDir == "." {
		c.Paths.CollectDir = defaultCollectDir
	}

	if len(c.Index.Extensions) == 0 {
		c.Index.Extensions = append([]string{}, defaultExtensions...)
	}
	for i, ext := range c.Index.Extensions {
		c.Index.Extensions[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	return nil
}
