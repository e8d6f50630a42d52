// Package stats provides the aggregate counts shown on the dashboard.
// Every query returns 0 for unknown ids rather than failing.
package stats

import (
	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/entities"
)

// Repository handles the aggregate count queries.
type Repository struct {
	db *database.Database
}

// NewRepository creates a new stats repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// TotalBooks returns the catalog size.
func (r *Repository) TotalBooks() (int64, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return 0, err
	}

	var count int64
	err = gdb.Model(&entities.Book{}).Count(&count).Error
	return count, err
}

// UserCollectionCount returns the size of a user's collection.
func (r *Repository) UserCollectionCount(userID string) (int64, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return 0, err
	}

	var count int64
	err = gdb.Model(&entities.UserBook{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// UserSeriesCount returns how many distinct series appear in a user's
// collection.
func (r *Repository) UserSeriesCount(userID string) (int64, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return 0, err
	}

	var count int64
	err = gdb.Model(&entities.UserBook{}).
		Joins("JOIN books ON books.id = user_books.book_id").
		Where("user_books.user_id = ? AND books.series_id IS NOT NULL", userID).
		Distinct("books.series_id").
		Count(&count).Error
	return count, err
}

// SeriesBookCount returns how many books belong to a series.
func (r *Repository) SeriesBookCount(seriesID string) (int64, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return 0, err
	}

	var count int64
	err = gdb.Model(&entities.Book{}).Where("series_id = ?", seriesID).Count(&count).Error
	return count, err
}
