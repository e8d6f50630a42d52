package config

// Default locations for the working database and its durable snapshot.
const (
	DefaultDataDir      = "./data"
	DefaultDatabaseFile = "shelftrack.db"

	DefaultSnapshotDir = "./data/snapshot"
	DefaultSnapshotKey = "shelftrack/library"

	// DefaultSnapshotChunkSize bounds each stored chunk of the encoded
	// database image. 256 KiB keeps individual key/value writes small.
	DefaultSnapshotChunkSize = 256 * 1024
)
