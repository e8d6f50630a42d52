// Package books provides database operations for the book catalog, plus the
// denormalized book read-model (genres, series summary, ownership flag) the
// UI consumes directly.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.CreateBook(books.CreateBookInput{Title: "Dune", Author: "Frank Herbert"})
package books

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shelftrack/shelftrack/internal/apperrors"
	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/database/genres"
	"github.com/shelftrack/shelftrack/internal/entities"
	"github.com/shelftrack/shelftrack/internal/id"
	"github.com/shelftrack/shelftrack/internal/validation"
)

const maxDescriptionLength = 5000

// CreateBookInput is the book-creation shape. Optional fields stay nil/empty.
type CreateBookInput struct {
	Title           string
	Author          string
	ISBN            string
	ASIN            string
	SeriesID        *string
	Position        *int
	PublicationYear *int
	Pages           *int
	Format          entities.BookFormat
	CoverImageURL   string
	Description     string
	Genres          []string
}

// SeriesSummary is the compact series view attached to book read-models.
type SeriesSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Author string `json:"author"`
}

// BookWithDetails is the denormalized read-model: the book row joined with
// its genres, its series summary, and whether the requesting user owns it.
type BookWithDetails struct {
	entities.Book
	Genres  []entities.Genre `json:"genres"`
	Series  *SeriesSummary   `json:"series,omitempty"`
	IsOwned bool             `json:"isOwned"`
}

// Repository handles all book database operations.
type Repository struct {
	db     *database.Database
	genres *genres.Repository
}

// NewRepository creates a new books repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db, genres: genres.NewRepository(db)}
}

// CreateBook validates the input, rejects a case-insensitive title/author
// duplicate, inserts the row, links any supplied genres, and returns the
// assembled record.
func (r *Repository) CreateBook(input CreateBookInput) (*BookWithDetails, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	title, ok := validation.TrimmedNonEmpty(input.Title)
	if !ok {
		return nil, apperrors.Validation("title is required")
	}
	author, ok := validation.TrimmedNonEmpty(input.Author)
	if !ok {
		return nil, apperrors.Validation("author is required")
	}
	if err := validation.ValidateISBN(input.ISBN); err != nil {
		return nil, err
	}
	if err := validation.ValidateASIN(input.ASIN); err != nil {
		return nil, err
	}
	if len(input.Description) > maxDescriptionLength {
		return nil, apperrors.Validation("description must be at most %d characters", maxDescriptionLength)
	}

	var existing entities.Book
	result := gdb.Where("LOWER(title) = LOWER(?) AND LOWER(author) = LOWER(?)", title, author).First(&existing)
	if result.Error == nil {
		return nil, apperrors.AlreadyExists("book %q by %q already exists", title, author)
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	now := time.Now()
	book := entities.Book{
		ID:              id.MustGenerate(id.PrefixBook),
		Title:           title,
		Author:          author,
		ISBN:            input.ISBN,
		ASIN:            input.ASIN,
		SeriesID:        input.SeriesID,
		Position:        input.Position,
		PublicationYear: input.PublicationYear,
		Pages:           input.Pages,
		Format:          input.Format,
		CoverImageURL:   input.CoverImageURL,
		Description:     input.Description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := gdb.Create(&book).Error; err != nil {
		return nil, apperrors.Constraint("failed to create book", err)
	}

	if len(input.Genres) > 0 {
		if _, err := r.genres.SetBookGenres(book.ID, input.Genres); err != nil {
			return nil, err
		}
	}

	if err := r.db.Persist(); err != nil {
		return nil, err
	}

	details, err := r.AssembleDetails([]entities.Book{book}, "")
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// GetBook retrieves a book by ID, or nil when absent.
func (r *Repository) GetBook(bookID string) (*entities.Book, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var book entities.Book
	result := gdb.Where("id = ?", bookID).First(&book)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &book, nil
}

// GetBookByTitleAuthor retrieves a book by its case-insensitive natural
// key, or nil when absent.
func (r *Repository) GetBookByTitleAuthor(title, author string) (*entities.Book, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var book entities.Book
	result := gdb.Where("LOWER(title) = LOWER(?) AND LOWER(author) = LOWER(?)", title, author).First(&book)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &book, nil
}

// GetAllBooks returns every book, most recently created first.
func (r *Repository) GetAllBooks() ([]entities.Book, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var books []entities.Book
	err = gdb.Order("created_at DESC").Find(&books).Error
	return books, err
}

// SearchBooks matches the query as a case-insensitive substring across
// title, author, ISBN, ASIN, and the linked series' name and author. An
// empty query returns all books; that is the documented contract, not an
// accident. When userID is non-empty each result carries an ownership flag.
func (r *Repository) SearchBooks(query, userID string) ([]BookWithDetails, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var books []entities.Book
	err = gdb.
		Joins("LEFT JOIN series ON series.id = books.series_id").
		Where(`LOWER(books.title) LIKE ? OR LOWER(books.author) LIKE ?
			OR LOWER(books.isbn) LIKE ? OR LOWER(books.asin) LIKE ?
			OR LOWER(series.name) LIKE ? OR LOWER(series.author) LIKE ?`,
			pattern, pattern, pattern, pattern, pattern, pattern).
		Order("books.created_at DESC").
		Find(&books).Error
	if err != nil {
		return nil, err
	}

	return r.AssembleDetails(books, userID)
}

// AssembleDetails attaches genres, series summaries, and the ownership flag
// to a slice of book rows using one batched query per dimension. Typed
// records only; no dynamic rows leave the query layer.
func (r *Repository) AssembleDetails(books []entities.Book, userID string) ([]BookWithDetails, error) {
	if len(books) == 0 {
		return []BookWithDetails{}, nil
	}

	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	bookIDs := make([]string, len(books))
	seriesIDs := make([]string, 0, len(books))
	for i, b := range books {
		bookIDs[i] = b.ID
		if b.SeriesID != nil {
			seriesIDs = append(seriesIDs, *b.SeriesID)
		}
	}

	genresByBook, err := r.genres.GenresForBooks(bookIDs)
	if err != nil {
		return nil, err
	}

	seriesByID := make(map[string]SeriesSummary, len(seriesIDs))
	if len(seriesIDs) > 0 {
		var series []entities.Series
		if err := gdb.Where("id IN ?", seriesIDs).Find(&series).Error; err != nil {
			return nil, err
		}
		for _, s := range series {
			seriesByID[s.ID] = SeriesSummary{ID: s.ID, Name: s.Name, Author: s.Author}
		}
	}

	owned := make(map[string]bool)
	if userID != "" {
		var ownedIDs []string
		err := gdb.Model(&entities.UserBook{}).
			Where("user_id = ? AND book_id IN ?", userID, bookIDs).
			Pluck("book_id", &ownedIDs).Error
		if err != nil {
			return nil, err
		}
		for _, bid := range ownedIDs {
			owned[bid] = true
		}
	}

	details := make([]BookWithDetails, len(books))
	for i, b := range books {
		d := BookWithDetails{
			Book:    b,
			Genres:  genresByBook[b.ID],
			IsOwned: owned[b.ID],
		}
		if d.Genres == nil {
			d.Genres = []entities.Genre{}
		}
		if b.SeriesID != nil {
			if summary, ok := seriesByID[*b.SeriesID]; ok {
				d.Series = &summary
			}
		}
		details[i] = d
	}
	return details, nil
}
