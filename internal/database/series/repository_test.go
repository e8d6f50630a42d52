package series

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelftrack/shelftrack/internal/apperrors"
	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/database/books"
)

func setupTestDB(t *testing.T) (*Repository, *books.Repository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	wrapped := database.NewForTesting(db)
	return NewRepository(wrapped), books.NewRepository(wrapped)
}

func TestRepository_CreateSeries(t *testing.T) {
	repo, _ := setupTestDB(t)

	series, err := repo.CreateSeries("  Foundation  ", " Isaac Asimov ")
	require.NoError(t, err)
	assert.NotEmpty(t, series.ID)
	assert.Equal(t, "Foundation", series.Name)
	assert.Equal(t, "Isaac Asimov", series.Author)
}

func TestRepository_CreateSeries_DuplicateCaseInsensitive(t *testing.T) {
	repo, _ := setupTestDB(t)

	_, err := repo.CreateSeries("Foundation", "Isaac Asimov")
	require.NoError(t, err)

	_, err = repo.CreateSeries("FOUNDATION", "isaac asimov")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyExists))
}

func TestRepository_CreateSeries_EmptyFields(t *testing.T) {
	repo, _ := setupTestDB(t)

	_, err := repo.CreateSeries("  ", "Someone")
	assert.Error(t, err)
	_, err = repo.CreateSeries("Name", "")
	assert.Error(t, err)
}

func TestRepository_UpdateSeries(t *testing.T) {
	repo, _ := setupTestDB(t)

	series, err := repo.CreateSeries("Foundation", "Isaac Asimov")
	require.NoError(t, err)

	newName := "Foundation Saga"
	updated, err := repo.UpdateSeries(series.ID, UpdateInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Foundation Saga", updated.Name)
	assert.Equal(t, "Isaac Asimov", updated.Author)
}

func TestRepository_UpdateSeries_NotFound(t *testing.T) {
	repo, _ := setupTestDB(t)

	name := "X"
	_, err := repo.UpdateSeries("ser-nope", UpdateInput{Name: &name})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestRepository_DeleteSeries_DetachesMembers(t *testing.T) {
	repo, bookRepo := setupTestDB(t)

	series, err := repo.CreateSeries("Foundation", "Isaac Asimov")
	require.NoError(t, err)

	pos := 1
	book, err := bookRepo.CreateBook(books.CreateBookInput{
		Title: "Foundation", Author: "Isaac Asimov", SeriesID: &series.ID, Position: &pos,
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteSeries(series.ID))

	gone, err := repo.GetSeries(series.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	detached, err := bookRepo.GetBook(book.ID)
	require.NoError(t, err)
	require.NotNil(t, detached)
	assert.Nil(t, detached.SeriesID)
	assert.Nil(t, detached.Position)
}

func TestRepository_DeleteSeries_UnknownIsNoOp(t *testing.T) {
	repo, _ := setupTestDB(t)

	assert.NoError(t, repo.DeleteSeries("ser-nope"))
}

func TestRepository_AddBookToSeries(t *testing.T) {
	repo, bookRepo := setupTestDB(t)

	series, err := repo.CreateSeries("Foundation", "Isaac Asimov")
	require.NoError(t, err)
	book, err := bookRepo.CreateBook(books.CreateBookInput{Title: "Foundation", Author: "Isaac Asimov"})
	require.NoError(t, err)

	pos := 1
	require.NoError(t, repo.AddBookToSeries(book.ID, series.ID, &pos))

	linked, err := bookRepo.GetBook(book.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.SeriesID)
	assert.Equal(t, series.ID, *linked.SeriesID)
	require.NotNil(t, linked.Position)
	assert.Equal(t, 1, *linked.Position)
}

func TestRepository_AddBookToSeries_AlreadyInAnotherSeries(t *testing.T) {
	repo, bookRepo := setupTestDB(t)

	first, err := repo.CreateSeries("Foundation", "Isaac Asimov")
	require.NoError(t, err)
	second, err := repo.CreateSeries("Robot", "Isaac Asimov")
	require.NoError(t, err)
	book, err := bookRepo.CreateBook(books.CreateBookInput{Title: "Foundation", Author: "Isaac Asimov"})
	require.NoError(t, err)

	require.NoError(t, repo.AddBookToSeries(book.ID, first.ID, nil))

	err = repo.AddBookToSeries(book.ID, second.ID, nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Contains(t, err.Error(), "already in another series")

	// Re-adding to the same series just updates the position.
	pos := 3
	require.NoError(t, repo.AddBookToSeries(book.ID, first.ID, &pos))
	linked, err := bookRepo.GetBook(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *linked.Position)
}

func TestRepository_AddBookToSeries_MissingTargets(t *testing.T) {
	repo, bookRepo := setupTestDB(t)

	series, err := repo.CreateSeries("Foundation", "Isaac Asimov")
	require.NoError(t, err)
	book, err := bookRepo.CreateBook(books.CreateBookInput{Title: "Foundation", Author: "Isaac Asimov"})
	require.NoError(t, err)

	err = repo.AddBookToSeries("book-nope", series.ID, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	err = repo.AddBookToSeries(book.ID, "ser-nope", nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestRepository_RemoveBookFromSeries(t *testing.T) {
	repo, bookRepo := setupTestDB(t)

	series, err := repo.CreateSeries("Foundation", "Isaac Asimov")
	require.NoError(t, err)
	pos := 2
	book, err := bookRepo.CreateBook(books.CreateBookInput{
		Title: "Foundation", Author: "Isaac Asimov", SeriesID: &series.ID, Position: &pos,
	})
	require.NoError(t, err)

	require.NoError(t, repo.RemoveBookFromSeries(book.ID))

	detached, err := bookRepo.GetBook(book.ID)
	require.NoError(t, err)
	assert.Nil(t, detached.SeriesID)
	assert.Nil(t, detached.Position)
}

func TestRepository_GetSeriesBooks_Ordering(t *testing.T) {
	repo, bookRepo := setupTestDB(t)

	series, err := repo.CreateSeries("Foundation", "Isaac Asimov")
	require.NoError(t, err)

	two := 2
	one := 1
	_, err = bookRepo.CreateBook(books.CreateBookInput{
		Title: "Foundation and Empire", Author: "Isaac Asimov", SeriesID: &series.ID, Position: &two,
	})
	require.NoError(t, err)
	_, err = bookRepo.CreateBook(books.CreateBookInput{
		Title: "Foundation", Author: "Isaac Asimov", SeriesID: &series.ID, Position: &one,
	})
	require.NoError(t, err)

	members, err := repo.GetSeriesBooks(series.ID, "")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Foundation", members[0].Title)
	assert.Equal(t, "Foundation and Empire", members[1].Title)
}

func TestRepository_GetAllSeries_Alphabetical(t *testing.T) {
	repo, _ := setupTestDB(t)

	_, err := repo.CreateSeries("robot", "Isaac Asimov")
	require.NoError(t, err)
	_, err = repo.CreateSeries("Foundation", "Isaac Asimov")
	require.NoError(t, err)

	all, err := repo.GetAllSeries()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Foundation", all[0].Name)
	assert.Equal(t, "robot", all[1].Name)
}
