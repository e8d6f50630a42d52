// Package series provides database operations for series and the weak
// book-to-series membership link.
package series

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shelftrack/shelftrack/internal/apperrors"
	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/database/books"
	"github.com/shelftrack/shelftrack/internal/entities"
	"github.com/shelftrack/shelftrack/internal/id"
	"github.com/shelftrack/shelftrack/internal/validation"
)

// Repository handles all series database operations.
type Repository struct {
	db    *database.Database
	books *books.Repository
}

// NewRepository creates a new series repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db, books: books.NewRepository(db)}
}

// CreateSeries rejects a case-insensitive name/author duplicate and inserts
// the series.
func (r *Repository) CreateSeries(name, author string) (*entities.Series, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	name, ok := validation.TrimmedNonEmpty(name)
	if !ok {
		return nil, apperrors.Validation("series name is required")
	}
	author, ok = validation.TrimmedNonEmpty(author)
	if !ok {
		return nil, apperrors.Validation("series author is required")
	}

	var existing entities.Series
	result := gdb.Where("LOWER(name) = LOWER(?) AND LOWER(author) = LOWER(?)", name, author).First(&existing)
	if result.Error == nil {
		return nil, apperrors.AlreadyExists("series %q by %q already exists", name, author)
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	now := time.Now()
	series := &entities.Series{
		ID:        id.MustGenerate(id.PrefixSeries),
		Name:      name,
		Author:    author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := gdb.Create(series).Error; err != nil {
		return nil, apperrors.Constraint("failed to create series", err)
	}
	if err := r.db.Persist(); err != nil {
		return nil, err
	}
	return series, nil
}

// GetSeries retrieves a series by ID, or nil when absent.
func (r *Repository) GetSeries(seriesID string) (*entities.Series, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var series entities.Series
	result := gdb.Where("id = ?", seriesID).First(&series)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &series, nil
}

// GetSeriesByNameAuthor retrieves a series by its case-insensitive natural
// key, or nil when absent.
func (r *Repository) GetSeriesByNameAuthor(name, author string) (*entities.Series, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var series entities.Series
	result := gdb.Where("LOWER(name) = LOWER(?) AND LOWER(author) = LOWER(?)", name, author).First(&series)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &series, nil
}

// GetAllSeries returns every series in alphabetical order.
func (r *Repository) GetAllSeries() ([]entities.Series, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var series []entities.Series
	err = gdb.Order("LOWER(name) ASC").Find(&series).Error
	return series, err
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name   *string
	Author *string
}

// UpdateSeries applies a partial update and refreshes UpdatedAt.
func (r *Repository) UpdateSeries(seriesID string, input UpdateInput) (*entities.Series, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_at": time.Now()}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Author != nil {
		updates["author"] = *input.Author
	}

	result := gdb.Model(&entities.Series{}).Where("id = ?", seriesID).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NotFound("series not found")
	}
	if err := r.db.Persist(); err != nil {
		return nil, err
	}
	return r.GetSeries(seriesID)
}

// DeleteSeries detaches every member book (their series link and position
// are nulled) and removes the series row. Deleting an unknown series is a
// no-op.
func (r *Repository) DeleteSeries(seriesID string) error {
	gdb, err := r.db.Handle()
	if err != nil {
		return err
	}

	err = gdb.Model(&entities.Book{}).
		Where("series_id = ?", seriesID).
		Updates(map[string]any{"series_id": nil, "position": nil, "updated_at": time.Now()}).Error
	if err != nil {
		return err
	}

	if err := gdb.Where("id = ?", seriesID).Delete(&entities.Series{}).Error; err != nil {
		return err
	}
	return r.db.Persist()
}

// AddBookToSeries links a book into a series, optionally at a position. A
// book already linked to a different series is rejected; the caller must
// remove it first. Re-adding to the same series is allowed, e.g. to change
// the position.
func (r *Repository) AddBookToSeries(bookID, seriesID string, position *int) error {
	gdb, err := r.db.Handle()
	if err != nil {
		return err
	}

	book, err := r.books.GetBook(bookID)
	if err != nil {
		return err
	}
	if book == nil {
		return apperrors.NotFound("book not found")
	}
	if book.SeriesID != nil && *book.SeriesID != seriesID {
		return apperrors.Conflict("book is already in another series")
	}

	series, err := r.GetSeries(seriesID)
	if err != nil {
		return err
	}
	if series == nil {
		return apperrors.NotFound("series not found")
	}

	err = gdb.Model(&entities.Book{}).
		Where("id = ?", bookID).
		Updates(map[string]any{"series_id": seriesID, "position": position, "updated_at": time.Now()}).Error
	if err != nil {
		return err
	}
	return r.db.Persist()
}

// RemoveBookFromSeries clears the book's series link and position
// unconditionally.
func (r *Repository) RemoveBookFromSeries(bookID string) error {
	gdb, err := r.db.Handle()
	if err != nil {
		return err
	}

	err = gdb.Model(&entities.Book{}).
		Where("id = ?", bookID).
		Updates(map[string]any{"series_id": nil, "position": nil, "updated_at": time.Now()}).Error
	if err != nil {
		return err
	}
	return r.db.Persist()
}

// GetSeriesBooks returns the member books ordered by position then title,
// each annotated with genres and the ownership flag for userID.
func (r *Repository) GetSeriesBooks(seriesID, userID string) ([]books.BookWithDetails, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var members []entities.Book
	err = gdb.Where("series_id = ?", seriesID).
		Order("position ASC, LOWER(title) ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	return r.books.AssembleDetails(members, userID)
}
