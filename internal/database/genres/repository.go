// Package genres provides database operations for genres and their links to
// books.
//
// # Usage
//
//	repo := genres.NewRepository(db)
//	genre, err := repo.GetOrCreateGenre("Science Fiction")
package genres

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/entities"
	"github.com/shelftrack/shelftrack/internal/id"
)

// MaxGenresPerBook caps how many genres one book may carry. Names past the
// cap are silently dropped, not rejected.
const MaxGenresPerBook = 20

// Repository handles all genre database operations.
type Repository struct {
	db *database.Database
}

// NewRepository creates a new genres repository.
func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// GetOrCreateGenre trims and truncates the name to 255 characters, reuses an
// existing case-insensitive match, and creates the genre otherwise.
func (r *Repository) GetOrCreateGenre(name string) (*entities.Genre, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if runes := []rune(name); len(runes) > 255 {
		name = string(runes[:255])
	}

	var genre entities.Genre
	result := gdb.Where("LOWER(name) = LOWER(?)", name).First(&genre)
	if result.Error == nil {
		return &genre, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	genre = entities.Genre{
		ID:        id.MustGenerate(id.PrefixGenre),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := gdb.Create(&genre).Error; err != nil {
		return nil, err
	}
	if err := r.db.Persist(); err != nil {
		return nil, err
	}
	return &genre, nil
}

// SetBookGenres replaces the book's genre set: all existing links are
// removed, then at most MaxGenresPerBook of the supplied names are
// created-or-reused and linked in order.
func (r *Repository) SetBookGenres(bookID string, names []string) ([]entities.Genre, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	if err := gdb.Exec("DELETE FROM book_genres WHERE book_id = ?", bookID).Error; err != nil {
		return nil, err
	}

	if len(names) > MaxGenresPerBook {
		names = names[:MaxGenresPerBook]
	}

	linked := make([]entities.Genre, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		genre, err := r.GetOrCreateGenre(name)
		if err != nil {
			return nil, err
		}
		if seen[genre.ID] {
			continue
		}
		seen[genre.ID] = true
		if err := gdb.Exec("INSERT INTO book_genres (book_id, genre_id) VALUES (?, ?)", bookID, genre.ID).Error; err != nil {
			return nil, err
		}
		linked = append(linked, *genre)
	}

	if err := r.db.Persist(); err != nil {
		return nil, err
	}
	return linked, nil
}

// GetBookGenres returns a book's genres in alphabetical order.
func (r *Repository) GetBookGenres(bookID string) ([]entities.Genre, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var genres []entities.Genre
	err = gdb.
		Joins("JOIN book_genres ON book_genres.genre_id = genres.id").
		Where("book_genres.book_id = ?", bookID).
		Order("LOWER(genres.name) ASC").
		Find(&genres).Error
	return genres, err
}

// GetAllGenres returns every genre in alphabetical order.
func (r *Repository) GetAllGenres() ([]entities.Genre, error) {
	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	var genres []entities.Genre
	err = gdb.Order("LOWER(name) ASC").Find(&genres).Error
	return genres, err
}

// GenresForBooks returns the alphabetically ordered genres of each book in
// one query, keyed by book id. Used by the denormalized read-models.
func (r *Repository) GenresForBooks(bookIDs []string) (map[string][]entities.Genre, error) {
	result := make(map[string][]entities.Genre, len(bookIDs))
	if len(bookIDs) == 0 {
		return result, nil
	}

	gdb, err := r.db.Handle()
	if err != nil {
		return nil, err
	}

	type row struct {
		ID        string
		Name      string
		CreatedAt time.Time
		BookID    string
	}
	var rows []row
	err = gdb.Model(&entities.Genre{}).
		Select("genres.id, genres.name, genres.created_at, book_genres.book_id AS book_id").
		Joins("JOIN book_genres ON book_genres.genre_id = genres.id").
		Where("book_genres.book_id IN ?", bookIDs).
		Order("LOWER(genres.name) ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.BookID] = append(result[row.BookID], entities.Genre{
			ID:        row.ID,
			Name:      row.Name,
			CreatedAt: row.CreatedAt,
		})
	}
	return result, nil
}
