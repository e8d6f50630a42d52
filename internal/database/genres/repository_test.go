package genres

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewRepository(database.NewForTesting(db)), db
}

func createBook(t *testing.T, db *gorm.DB, bookID, title string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, db.Create(&entities.Book{
		ID: bookID, Title: title, Author: "Author", CreatedAt: now, UpdatedAt: now,
	}).Error)
}

func TestRepository_GetOrCreateGenre(t *testing.T) {
	repo, _ := setupTestDB(t)

	created, err := repo.GetOrCreateGenre("  Science Fiction  ")
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", created.Name)

	// Case-insensitive reuse, original casing kept.
	again, err := repo.GetOrCreateGenre("science fiction")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "Science Fiction", again.Name)
}

func TestRepository_GetOrCreateGenre_TruncatesLongNames(t *testing.T) {
	repo, _ := setupTestDB(t)

	genre, err := repo.GetOrCreateGenre(strings.Repeat("x", 300))
	require.NoError(t, err)
	assert.Len(t, genre.Name, 255)
}

func TestRepository_SetBookGenres_CapsAtTwenty(t *testing.T) {
	repo, db := setupTestDB(t)
	createBook(t, db, "book-1", "Dune")

	names := make([]string, 25)
	for i := range names {
		names[i] = fmt.Sprintf("Genre %02d", i)
	}

	linked, err := repo.SetBookGenres("book-1", names)
	require.NoError(t, err)
	assert.Len(t, linked, 20)

	stored, err := repo.GetBookGenres("book-1")
	require.NoError(t, err)
	assert.Len(t, stored, 20)
}

func TestRepository_SetBookGenres_ReplacesPreviousSet(t *testing.T) {
	repo, db := setupTestDB(t)
	createBook(t, db, "book-1", "Dune")

	_, err := repo.SetBookGenres("book-1", []string{"Fantasy", "Adventure"})
	require.NoError(t, err)

	_, err = repo.SetBookGenres("book-1", []string{"Horror"})
	require.NoError(t, err)

	stored, err := repo.GetBookGenres("book-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Horror", stored[0].Name)
}

func TestRepository_SetBookGenres_DeduplicatesNames(t *testing.T) {
	repo, db := setupTestDB(t)
	createBook(t, db, "book-1", "Dune")

	linked, err := repo.SetBookGenres("book-1", []string{"Fantasy", "fantasy", "FANTASY"})
	require.NoError(t, err)
	assert.Len(t, linked, 1)
}

func TestRepository_GetBookGenres_Alphabetical(t *testing.T) {
	repo, db := setupTestDB(t)
	createBook(t, db, "book-1", "Dune")

	_, err := repo.SetBookGenres("book-1", []string{"Zombies", "adventure", "Mystery"})
	require.NoError(t, err)

	stored, err := repo.GetBookGenres("book-1")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "adventure", stored[0].Name)
	assert.Equal(t, "Mystery", stored[1].Name)
	assert.Equal(t, "Zombies", stored[2].Name)
}

func TestRepository_GetAllGenres_Alphabetical(t *testing.T) {
	repo, _ := setupTestDB(t)

	for _, name := range []string{"Western", "biography", "Crime"} {
		_, err := repo.GetOrCreateGenre(name)
		require.NoError(t, err)
	}

	all, err := repo.GetAllGenres()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "biography", all[0].Name)
	assert.Equal(t, "Crime", all[1].Name)
	assert.Equal(t, "Western", all[2].Name)
}

func TestRepository_GenresForBooks(t *testing.T) {
	repo, db := setupTestDB(t)
	createBook(t, db, "book-1", "Dune")
	createBook(t, db, "book-2", "Emma")

	_, err := repo.SetBookGenres("book-1", []string{"Science Fiction"})
	require.NoError(t, err)
	_, err = repo.SetBookGenres("book-2", []string{"Romance", "Classics"})
	require.NoError(t, err)

	byBook, err := repo.GenresForBooks([]string{"book-1", "book-2", "book-3"})
	require.NoError(t, err)
	assert.Len(t, byBook["book-1"], 1)
	assert.Len(t, byBook["book-2"], 2)
	assert.Empty(t, byBook["book-3"])
}
