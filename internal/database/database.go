package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelftrack/shelftrack/internal/apperrors"
	"github.com/shelftrack/shelftrack/internal/config"
	"github.com/shelftrack/shelftrack/internal/entities"
	"github.com/shelftrack/shelftrack/internal/snapshot"
)

// Case-insensitive uniqueness lives in expression indexes, which GORM's
// migrator cannot express; they are applied as raw DDL after AutoMigrate.
var ciIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_ci ON users (lower(username))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_series_name_author_ci ON series (lower(name), lower(author))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_books_title_author_ci ON books (lower(title), lower(author))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_genres_name_ci ON genres (lower(name))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_user_books_pair ON user_books (user_id, book_id)`,
}

// Database owns the single live GORM handle for the process lifetime and
// writes the full database image back to the snapshot store after every
// mutation.
type Database struct {
	db        *gorm.DB
	store     snapshot.Store
	key       string
	chunkSize int
	workPath  string
	log       *slog.Logger
}

// Open initializes the database: it restores the working SQLite file from a
// previously stored image if one exists, or creates a fresh schema and
// persists it immediately. A failed open leaves no live handle, so the call
// can be retried.
func Open(cfg *config.Config, store snapshot.Store, log *slog.Logger) (*Database, error) {
	if log == nil {
		log = slog.Default()
	}

	workPath := cfg.Database.WorkingPath()
	if err := os.MkdirAll(filepath.Dir(workPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	d := &Database{
		store:     store,
		key:       cfg.Snapshot.Key,
		chunkSize: cfg.Snapshot.ChunkSize,
		workPath:  workPath,
		log:       log,
	}

	restored := false
	if store != nil {
		image, err := snapshot.Load(store, d.key)
		switch {
		case err == nil:
			if err := os.WriteFile(workPath, image, 0o600); err != nil {
				return nil, fmt.Errorf("failed to materialize stored database image: %w", err)
			}
			restored = true
		case apperrors.Is(err, snapshot.ErrKeyNotFound):
			// First run, fresh schema below.
		default:
			// A corrupt stored image is treated the same as an absent one:
			// start fresh rather than refuse to boot.
			log.Warn("stored database image unreadable, starting fresh", "error", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(workPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		if !restored {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// The restored file would not open; fall back to a fresh database.
		log.Warn("restored database image failed to open, starting fresh", "error", err)
		if err := os.Remove(workPath); err != nil {
			return nil, fmt.Errorf("failed to discard unreadable database image: %w", err)
		}
		restored = false
		db, err = gorm.Open(sqlite.Open(workPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	d.db = db

	if !restored {
		if err := d.Persist(); err != nil {
			d.db = nil
			return nil, fmt.Errorf("failed to persist fresh database: %w", err)
		}
	}

	log.Info("database initialized", "path", workPath, "restored", restored)
	return d, nil
}

// Migrate applies the schema and the expression indexes. Exported so tests
// can build a database on a handle of their own.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.User{},
		&entities.Series{},
		&entities.Book{},
		&entities.Genre{},
		&entities.UserBook{},
		&entities.ReadingCountLog{},
	)
	if err != nil {
		return err
	}

	for _, ddl := range ciIndexes {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("apply index: %w", err)
		}
	}
	return nil
}

// Handle returns the live GORM handle, or an error when Open has not
// completed successfully.
func (d *Database) Handle() (*gorm.DB, error) {
	if d == nil || d.db == nil {
		return nil, apperrors.Internal("database not initialized", nil)
	}
	return d.db, nil
}

// Persist serializes the entire database content into the snapshot store.
// Called synchronously after every mutating operation; there is no batching
// or write-behind. With no store attached (tests) it is a no-op.
func (d *Database) Persist() error {
	if d.store == nil {
		return nil
	}
	if d.db == nil {
		return apperrors.Internal("database not initialized", nil)
	}

	// VACUUM INTO produces a complete, WAL-independent image.
	tmp := d.workPath + ".image"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear previous image: %w", err)
	}
	quoted := strings.ReplaceAll(tmp, "'", "''")
	if err := d.db.Exec(fmt.Sprintf("VACUUM INTO '%s'", quoted)).Error; err != nil {
		return fmt.Errorf("failed to serialize database: %w", err)
	}
	defer os.Remove(tmp)

	image, err := os.ReadFile(tmp)
	if err != nil {
		return fmt.Errorf("failed to read serialized database: %w", err)
	}

	if err := snapshot.Save(d.store, d.key, image, d.chunkSize); err != nil {
		return fmt.Errorf("failed to store database image: %w", err)
	}
	return nil
}

// Log returns the logger attached at Open time.
func (d *Database) Log() *slog.Logger {
	if d == nil || d.log == nil {
		return slog.Default()
	}
	return d.log
}

// Close closes the underlying connection. The snapshot store is owned by
// the caller and is not closed here.
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewForTesting wraps an externally created handle. Persist is a no-op
// because no snapshot store is attached. Test seam only.
func NewForTesting(db *gorm.DB) *Database {
	return &Database{db: db, log: slog.Default()}
}

// Reset drops the live handle so a subsequent Open starts clean. Test seam
// only.
func (d *Database) Reset() {
	d.db = nil
}
