// Package userbooks provides database operations for the user-book
// association: one user's copy/status of one book, plus the denormalized
// collection read-model with filtering and sorting.
package userbooks

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shelftrack/shelftrack/internal/apperrors"
	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/database/books"
	"github.com/shelftrack/shelftrack/internal/database/genres"
	"github.com/shelftrack/shelftrack/internal/entities"
	"github.com/shelftrack/shelftrack/internal/id"
	"github.com/shelftrack/shelftrack/internal/validation"
)

// Sort selects the ordering of a user's collection.
type Sort string

const (
	SortLatestAdded  Sort = "latest-added" // default, added_at descending
	SortTitleAZ      Sort = "title-az"
	SortAuthorAZ     Sort = "author-az"
	SortYear         Sort = "year" // publication year descending
	SortDateStarted  Sort = "date-started"
	SortDateFinished Sort = "date-finished"
)

// Filters narrows a collection listing. All dimensions are ANDed; an empty
// value on any dimension means no restriction there.
type Filters struct {
	Statuses []entities.ReadingStatus
	Formats  []entities.BookFormat
	Authors  []string // case-insensitive exact matches
	Genres   []string // case-insensitive exact matches
	ISBN     string   // substring
	ASIN     string   // substring
}

// CollectionEntry is the denormalized collection read-model: the
// association joined with its book, series summary, genres, and the user's
// completed-read count for the book.
type CollectionEntry struct {
	entities.UserBook
	Book         entities.Book        `json:"book"`
	Series       *books.SeriesSummary `json:"series,omitempty"`
	Genres       []entities.Genre     `json:"genres"`
	ReadingCount int64                `json:"readingCount"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Status       *entities.ReadingStatus
	StartedDate  *time.Time
	FinishedDate *time.Time
	Progress     *int
}

// Repository handles all user-book association operations.
type Repository struct {
	db     *database.Database
	genres *genres.Repository
}

// NewRepository creates a new user-books repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db, genres: genres.NewRepository(db)}
}

// AddBookToCollection creates the association with the default status and
// zero progress. Unknown user or book ids are rejected, as is an existing
// pair.
func (r *Repository) AddBookToCollection(userID, bookID string) (*entities.UserBook, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var user entities.User
	if err := gdb.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}
	var book entities.Book
	if err := gdb.Where("id = ?", bookID).First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("book not found")
		}
		return nil, err
	}

	var existing entities.UserBook
	result := gdb.Where("user_id = ? AND book_id = ?", userID, bookID).First(&existing)
	if result.Error == nil {
		return nil, apperrors.AlreadyExists("book is already in your collection")
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	now := time.Now()
	userBook := &entities.UserBook{
		ID:        id.MustGenerate(id.PrefixUserBook),
		UserID:    userID,
		BookID:    bookID,
		Status:    entities.StatusToRead,
		Progress:  0,
		AddedAt:   now,
		UpdatedAt: now,
	}
	if err := gdb.Create(userBook).Error; err != nil {
		return nil, apperrors.Constraint("failed to add book to collection", err)
	}
	if err := r.db.Persist(); err != nil {
		return nil, err
	}
	return userBook, nil
}

// GetUserBook retrieves one association, or nil when absent.
func (r *Repository) GetUserBook(userID, bookID string) (*entities.UserBook, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var userBook entities.UserBook
	result := gdb.Where("user_id = ? AND book_id = ?", userID, bookID).First(&userBook)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &userBook, nil
}

// GetAllUserBooks returns every association, oldest first. Used by the
// export assembler.
func (r *Repository) GetAllUserBooks() ([]entities.UserBook, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var rows []entities.UserBook
	err = gdb.Order("added_at ASC").Find(&rows).Error
	return rows, err
}

// GetUserBooks lists the user's collection as denormalized entries,
// filtered and sorted.
func (r *Repository) GetUserBooks(userID string, filters Filters, sort Sort) ([]CollectionEntry, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	query := gdb.Model(&entities.UserBook{}).
		Joins("JOIN books ON books.id = user_books.book_id").
		Where("user_books.user_id = ?", userID)

	if len(filters.Statuses) > 0 {
		query = query.Where("user_books.status IN ?", filters.Statuses)
	}
	if len(filters.Formats) > 0 {
		query = query.Where("books.format IN ?", filters.Formats)
	}
	if len(filters.Authors) > 0 {
		lowered := make([]string, len(filters.Authors))
		for i, a := range filters.Authors {
			lowered[i] = strings.ToLower(a)
		}
		query = query.Where("LOWER(books.author) IN ?", lowered)
	}
	if len(filters.Genres) > 0 {
		lowered := make([]string, len(filters.Genres))
		for i, g := range filters.Genres {
			lowered[i] = strings.ToLower(g)
		}
		query = query.Where(`books.id IN (
			SELECT bg.book_id FROM book_genres bg
			JOIN genres g ON g.id = bg.genre_id
			WHERE LOWER(g.name) IN ?)`, lowered)
	}
	if filters.ISBN != "" {
		query = query.Where("LOWER(books.isbn) LIKE ?", "%"+strings.ToLower(filters.ISBN)+"%")
	}
	if filters.ASIN != "" {
		query = query.Where("LOWER(books.asin) LIKE ?", "%"+strings.ToLower(filters.ASIN)+"%")
	}

	switch sort {
	case SortTitleAZ:
		query = query.Order("LOWER(books.title) ASC")
	case SortAuthorAZ:
		query = query.Order("LOWER(books.author) ASC")
	case SortYear:
		query = query.Order("books.publication_year DESC")
	case SortDateStarted:
		query = query.Order("user_books.started_date DESC")
	case SortDateFinished:
		query = query.Order("user_books.finished_date DESC")
	default:
		query = query.Order("user_books.added_at DESC")
	}

	var rows []entities.UserBook
	if err := query.Preload("Book").Find(&rows).Error; err != nil {
		return nil, err
	}

	return r.assembleEntries(rows)
}

// assembleEntries attaches the book, series summary, genres, and per-book
// reading count to each association with one batched query per dimension.
func (r *Repository) assembleEntries(rows []entities.UserBook) ([]CollectionEntry, error) {
	if len(rows) == 0 {
		return []CollectionEntry{}, nil
	}

	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	bookIDs := make([]string, len(rows))
	seriesIDs := make([]string, 0)
	for i, row := range rows {
		bookIDs[i] = row.BookID
		if row.Book.SeriesID != nil {
			seriesIDs = append(seriesIDs, *row.Book.SeriesID)
		}
	}

	genresByBook, err := r.genres.GenresForBooks(bookIDs)
	if err != nil {
		return nil, err
	}

	seriesByID := make(map[string]books.SeriesSummary, len(seriesIDs))
	if len(seriesIDs) > 0 {
		var allSeries []entities.Series
		if err := gdb.Where("id IN ?", seriesIDs).Find(&allSeries).Error; err != nil {
			return nil, err
		}
		for _, s := range allSeries {
			seriesByID[s.ID] = books.SeriesSummary{ID: s.ID, Name: s.Name, Author: s.Author}
		}
	}

	type countRow struct {
		BookID string
		Count  int64
	}
	var counts []countRow
	err = gdb.Model(&entities.ReadingCountLog{}).
		Select("book_id, COUNT(*) AS count").
		Where("user_id = ? AND book_id IN ?", rows[0].UserID, bookIDs).
		Group("book_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	countsByBook := make(map[string]int64, len(counts))
	for _, c := range counts {
		countsByBook[c.BookID] = c.Count
	}

	entries := make([]CollectionEntry, len(rows))
	for i, row := range rows {
		entry := CollectionEntry{
			UserBook:     row,
			Book:         row.Book,
			Genres:       genresByBook[row.BookID],
			ReadingCount: countsByBook[row.BookID],
		}
		if entry.Genres == nil {
			entry.Genres = []entities.Genre{}
		}
		if row.Book.SeriesID != nil {
			if summary, ok := seriesByID[*row.Book.SeriesID]; ok {
				entry.Series = &summary
			}
		}
		entries[i] = entry
	}
	return entries, nil
}

// UpdateUserBook applies a partial update to one association. Dates may not
// lie in the future, and the effective start/finish pair, merged over the
// stored values, must stay ordered. Setting the status to read forces the
// progress to 100 regardless of any progress supplied in the same call.
func (r *Repository) UpdateUserBook(userID, bookID string, input UpdateInput) (*entities.UserBook, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	existing, err := r.GetUserBook(userID, bookID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperrors.NotFound("book not found in your collection")
	}

	if err := validation.ValidateNotFuture(input.StartedDate, "started date"); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotFuture(input.FinishedDate, "finished date"); err != nil {
		return nil, err
	}

	effectiveStarted := existing.StartedDate
	if input.StartedDate != nil {
		effectiveStarted = input.StartedDate
	}
	effectiveFinished := existing.FinishedDate
	if input.FinishedDate != nil {
		effectiveFinished = input.FinishedDate
	}
	if effectiveStarted != nil && effectiveFinished != nil && effectiveFinished.Before(*effectiveStarted) {
		return nil, apperrors.Validation("finished date cannot be earlier than started date")
	}

	updates := map[string]any{"updated_at": time.Now()}
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	if input.StartedDate != nil {
		updates["started_date"] = *input.StartedDate
	}
	if input.FinishedDate != nil {
		updates["finished_date"] = *input.FinishedDate
	}
	if input.Progress != nil {
		updates["progress"] = *input.Progress
	}
	// Completed reads are always at 100%, whatever progress came along.
	if input.Status != nil && *input.Status == entities.StatusRead {
		updates["progress"] = 100
	}

	result := gdb.Model(&entities.UserBook{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Updates(updates)
	if result.Error != nil {
		return nil, apperrors.Constraint("failed to update collection entry", result.Error)
	}
	if err := r.db.Persist(); err != nil {
		return nil, err
	}

	return r.GetUserBook(userID, bookID)
}

// RemoveBookFromCollection hard-deletes the association. Removing an absent
// pair is a no-op, not an error. The book row itself is never touched.
func (r *Repository) RemoveBookFromCollection(userID, bookID string) error {
	gdb, err := r.db.Handle()
	if err != nil {
		return err
	}

	err = gdb.Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&entities.UserBook{}).Error
	if err != nil {
		return err
	}
	return r.db.Persist()
}

// BulkUpdateUserBooks applies the update to each book id independently.
// Best-effort: a failure on one id is logged and the rest continue. Returns
// how many updates succeeded.
func (r *Repository) BulkUpdateUserBooks(userID string, bookIDs []string, input UpdateInput) int {
	updated := 0
	for _, bookID := range bookIDs {
		if _, err := r.UpdateUserBook(userID, bookID, input); err != nil {
			r.db.Log().Warn("bulk update skipped entry", "bookId", bookID, "error", err)
			continue
		}
		updated++
	}
	return updated
}

// BulkRemoveUserBooks removes each association independently. Best-effort:
// a failure on one id is logged and the rest continue. Returns how many
// removals succeeded.
func (r *Repository) BulkRemoveUserBooks(userID string, bookIDs []string) int {
	removed := 0
	for _, bookID := range bookIDs {
		if err := r.RemoveBookFromCollection(userID, bookID); err != nil {
			r.db.Log().Warn("bulk remove skipped entry", "bookId", bookID, "error", err)
			continue
		}
		removed++
	}
	return removed
}
