package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

type (
	Config struct {
		Database
		Snapshot
		Logging
	}

	Database struct {
		Dir  string // Directory holding the working SQLite file
		File string // Working database file name
	}
	Snapshot struct {
		Dir       string // Badger store directory for the serialized image
		Key       string // Well-known key the image lives under
		ChunkSize int    // Chunk size in bytes for the encoded image
	}
	Logging struct {
		Level  string // debug, info, warn, error
		Format string // pretty or json
	}
)

// WorkingPath returns the full path of the working SQLite file.
func (d Database) WorkingPath() string {
	return filepath.Join(d.Dir, d.File)
}

func NewConfig() *Config {
	v := viper.New()
	v.SetEnvPrefix("SHELFTRACK")
	v.AutomaticEnv()

	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("database_file", DefaultDatabaseFile)
	v.SetDefault("snapshot_dir", DefaultSnapshotDir)
	v.SetDefault("snapshot_key", DefaultSnapshotKey)
	v.SetDefault("snapshot_chunk_size", DefaultSnapshotChunkSize)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "pretty")

	return &Config{
		Database: Database{
			Dir:  v.GetString("DATA_DIR"),
			File: v.GetString("DATABASE_FILE"),
		},
		Snapshot: Snapshot{
			Dir:       v.GetString("SNAPSHOT_DIR"),
			Key:       v.GetString("SNAPSHOT_KEY"),
			ChunkSize: v.GetInt("SNAPSHOT_CHUNK_SIZE"),
		},
		Logging: Logging{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}
