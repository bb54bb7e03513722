package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.IndexDB) == "" {
		return errors.New("paths.index_db must be set")
	}
	if strings.ContainsAny(c.Paths.BackupDirName, `/\`) {
		return fmt.Errorf("paths.backup_dir_name must be a bare directory name, got %q", c.Paths.BackupDirName)
	}
	for _, ext := range c.Index.Extensions {
		if ext == "" {
			return errors.New("index.extensions must not contain empty entries")
		}
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
