// Package readinglogs provides database operations for completed-read
// events, which back the re-read tallies shown per book and per series.
package readinglogs

import (
	"time"

	"github.com/shelftrack/shelftrack/internal/apperrors"
	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/entities"
	"github.com/shelftrack/shelftrack/internal/id"
)

// Repository handles all reading-count log operations.
type Repository struct {
	db *database.Database
}

// NewRepository creates a new reading-logs repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// AddLog records one completed read of a book or a series. Exactly one
// target must be given: neither is rejected here, both is rejected by the
// table's mutual-exclusion check. ReadDate defaults to now when nil.
func (r *Repository) AddLog(userID string, bookID, seriesID *string, readDate *time.Time) (*entities.ReadingCountLog, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	if bookID == nil && seriesID == nil {
		return nil, apperrors.Validation("either bookId or seriesId must be provided")
	}

	when := time.Now()
	if readDate != nil {
		when = *readDate
	}

	log := &entities.ReadingCountLog{
		ID:        id.MustGenerate(id.PrefixLog),
		UserID:    userID,
		BookID:    bookID,
		SeriesID:  seriesID,
		ReadDate:  when,
		CreatedAt: time.Now(),
	}
	if err := gdb.Create(log).Error; err != nil {
		return nil, apperrors.Constraint("failed to record completed read", err)
	}
	if err := r.db.Persist(); err != nil {
		return nil, err
	}
	return log, nil
}

// GetAllLogs returns every completed-read event, oldest first. Used by the
// export assembler.
func (r *Repository) GetAllLogs() ([]entities.ReadingCountLog, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var logs []entities.ReadingCountLog
	err = gdb.Order("created_at ASC").Find(&logs).Error
	return logs, err
}

// GetCount tallies the matching log rows. With neither target given it
// returns 0 rather than failing.
func (r *Repository) GetCount(userID string, bookID, seriesID *string) (int64, error) {
	if bookID == nil && seriesID == nil {
		return 0, nil
	}

	gdb, err := r.db.Handle()
	if err != nil {
		return 0, err
	}

	query := gdb.Model(&entities.ReadingCountLog{}).Where("user_id = ?", userID)
	if bookID != nil {
		query = query.Where("book_id = ?", *bookID)
	}
	if seriesID != nil {
		query = query.Where("series_id = ?", *seriesID)
	}

	var count int64
	err = query.Count(&count).Error
	return count, err
}

// HasLog reports whether an identical completed-read event already exists.
// Used by the importer to keep re-imports from inflating tallies.
func (r *Repository) HasLog(userID string, bookID, seriesID *string, readDate time.Time) (bool, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return false, err
	}

	query := gdb.Model(&entities.ReadingCountLog{}).
		Where("user_id = ? AND read_date = ?", userID, readDate)
	if bookID != nil {
		query = query.Where("book_id = ?", *bookID)
	} else {
		query = query.Where("book_id IS NULL")
	}
	if seriesID != nil {
		query = query.Where("series_id = ?", *seriesID)
	} else {
		query = query.Where("series_id IS NULL")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
