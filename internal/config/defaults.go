package config

const (
	defaultIndexDB       = "~/.local/share/setmend/samples.db"
	defaultBackupDirName = "setmend_backup"
	defaultCollectDir    = "Samples/Imported"
	defaultLogLevel      = "info"
	defaultLogFormat     = "console"
)

var defaultExtensions = []string{"wav", "aif", "aiff", "mp3", "flac", "ogg", "mp4"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			IndexDB:       defaultIndexDB,
			BackupDirName: defaultBackupDirName,
			CollectDir:    defaultCollectDir,
		},
		Index: Index{
			Extensions: append([]string{}, defaultExtensions...),
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
