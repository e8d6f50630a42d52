package export

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelftrack/shelftrack/internal/apperrors"
	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/database/books"
	"github.com/shelftrack/shelftrack/internal/database/readinglogs"
	"github.com/shelftrack/shelftrack/internal/database/series"
	"github.com/shelftrack/shelftrack/internal/database/userbooks"
	"github.com/shelftrack/shelftrack/internal/database/users"
	"github.com/shelftrack/shelftrack/internal/entities"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(gdb))
	return database.NewForTesting(gdb)
}

// populate fills a database with one of everything and returns the ids the
// assertions need.
func populate(t *testing.T, db *database.Database) (userID, bookID string) {
	t.Helper()

	user, err := users.NewRepository(db).CreateUser("alice", "Alice", "alice@example.com")
	require.NoError(t, err)

	seriesRepo := series.NewRepository(db)
	ser, err := seriesRepo.CreateSeries("Foundation", "Isaac Asimov")
	require.NoError(t, err)

	pos := 1
	book, err := books.NewRepository(db).CreateBook(books.CreateBookInput{
		Title: "Foundation", Author: "Isaac Asimov", SeriesID: &ser.ID, Position: &pos,
		Genres: []string{"Science Fiction", "Classics"},
	})
	require.NoError(t, err)

	userBooks := userbooks.NewRepository(db)
	_, err = userBooks.AddBookToCollection(user.ID, book.ID)
	require.NoError(t, err)
	status := entities.StatusRead
	started := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	finished := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = userBooks.UpdateUserBook(user.ID, book.ID, userbooks.UpdateInput{
		Status: &status, StartedDate: &started, FinishedDate: &finished,
	})
	require.NoError(t, err)

	read := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = readinglogs.NewRepository(db).AddLog(user.ID, &book.ID, nil, &read)
	require.NoError(t, err)

	return user.ID, book.ID
}

func TestExporter_Export(t *testing.T) {
	db := setupTestDB(t)
	_, bookID := populate(t, db)

	doc, err := NewExporter(db).Export()
	require.NoError(t, err)

	assert.Equal(t, Version, doc.Version)
	require.Len(t, doc.Users, 1)
	assert.Equal(t, "alice", doc.Users[0].Username)
	require.Len(t, doc.Series, 1)
	require.Len(t, doc.Books, 1)
	assert.Equal(t, "Foundation", doc.Books[0].Title)
	require.Len(t, doc.Genres, 2)
	require.Len(t, doc.UserBooks, 1)
	assert.Equal(t, "read", doc.UserBooks[0].Status)
	assert.Equal(t, 100, doc.UserBooks[0].Progress)
	require.Len(t, doc.ReadingCountLogs, 1)
	assert.ElementsMatch(t, []string{"Science Fiction", "Classics"}, doc.BookGenreMap[bookID])
}

func TestImporter_Import_IntoEmptyDatabase(t *testing.T) {
	source := setupTestDB(t)
	populate(t, source)
	doc, err := NewExporter(source).Export()
	require.NoError(t, err)

	target := setupTestDB(t)
	summary, err := NewImporter(target).Import(doc, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Users.Imported)
	assert.Equal(t, 1, summary.Series.Imported)
	assert.Equal(t, 2, summary.Genres.Imported)
	assert.Equal(t, 1, summary.Books.Imported)
	assert.Equal(t, 1, summary.UserBooks.Imported)
	assert.Equal(t, 1, summary.ReadingLogs.Imported)

	// Ids are regenerated; the entities are found through natural keys.
	user, err := users.NewRepository(target).GetUserByUsername("alice")
	require.NoError(t, err)
	require.NotNil(t, user)

	book, err := books.NewRepository(target).GetBookByTitleAuthor("Foundation", "Isaac Asimov")
	require.NoError(t, err)
	require.NotNil(t, book)
	require.NotNil(t, book.SeriesID)

	entry, err := userbooks.NewRepository(target).GetUserBook(user.ID, book.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, entities.StatusRead, entry.Status)
	assert.Equal(t, 100, entry.Progress)

	count, err := readinglogs.NewRepository(target).GetCount(user.ID, &book.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestImporter_Import_RoundTripIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	userID, bookID := populate(t, db)

	doc, err := NewExporter(db).Export()
	require.NoError(t, err)

	// Importing a store's own export changes nothing: everything is skipped.
	summary, err := NewImporter(db).Import(doc, false)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Users.Imported)
	assert.Equal(t, 1, summary.Users.Skipped)
	assert.Equal(t, 1, summary.Series.Skipped)
	assert.Equal(t, 2, summary.Genres.Skipped)
	assert.Equal(t, 1, summary.Books.Skipped)
	assert.Equal(t, 1, summary.UserBooks.Skipped)
	assert.Equal(t, 1, summary.ReadingLogs.Skipped)

	count, err := readinglogs.NewRepository(db).GetCount(userID, &bookID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestImporter_Import_PaddedDuplicatesAreSkipped(t *testing.T) {
	db := setupTestDB(t)
	populate(t, db)

	// Documents produced elsewhere may carry padded natural keys; they must
	// resolve against the trimmed rows already stored, not crash or abort.
	bookRef := "book-doc"
	doc := &Document{
		Version: Version,
		Users: []UserRecord{
			{ID: "usr-doc", Username: "alice"},
		},
		Series: []SeriesRecord{
			{ID: "ser-doc", Name: "  Foundation  ", Author: " isaac asimov "},
		},
		Books: []BookRecord{
			{ID: bookRef, Title: "  Foundation ", Author: " Isaac Asimov "},
		},
		ReadingCountLogs: []ReadingCountLogRecord{
			{ID: "log-doc", UserID: "usr-doc", BookID: &bookRef,
				ReadDate: FlexTime{time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}},
		},
	}

	summary, err := NewImporter(db).Import(doc, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Series.Skipped)
	assert.Equal(t, 1, summary.Books.Skipped)

	// The remap resolved the padded keys to the existing rows, so the log
	// landed on the stored book.
	user, err := users.NewRepository(db).GetUserByUsername("alice")
	require.NoError(t, err)
	book, err := books.NewRepository(db).GetBookByTitleAuthor("Foundation", "Isaac Asimov")
	require.NoError(t, err)
	require.NotNil(t, book)
	count, err := readinglogs.NewRepository(db).GetCount(user.ID, &book.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestImporter_Import_UnresolvedSeriesLinkDropped(t *testing.T) {
	db := setupTestDB(t)

	ghost := "ser-ghost"
	doc := &Document{
		Version: Version,
		Books: []BookRecord{
			{ID: "book-doc", Title: "Dune", Author: "Frank Herbert", SeriesID: &ghost},
		},
	}

	summary, err := NewImporter(db).Import(doc, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Books.Imported)

	book, err := books.NewRepository(db).GetBookByTitleAuthor("Dune", "Frank Herbert")
	require.NoError(t, err)
	require.NotNil(t, book)
	assert.Nil(t, book.SeriesID)
}

func TestImporter_Import_UnknownReferenceAborts(t *testing.T) {
	db := setupTestDB(t)

	doc := &Document{
		Version: Version,
		UserBooks: []UserBookRecord{
			{ID: "ub-x", UserID: "usr-ghost", BookID: "book-ghost", Status: "to-read"},
		},
	}

	_, err := NewImporter(db).Import(doc, false)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestImporter_Import_NilDocument(t *testing.T) {
	db := setupTestDB(t)

	_, err := NewImporter(db).Import(nil, false)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestFlexTime_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339", `"2024-03-01T10:30:00Z"`, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"fractional", `"2024-03-01T10:30:00.123Z"`, time.Date(2024, 3, 1, 10, 30, 0, 123000000, time.UTC)},
		{"date only", `"2024-03-01"`, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ft FlexTime
			require.NoError(t, json.Unmarshal([]byte(tc.input), &ft))
			assert.True(t, ft.Equal(tc.want))
		})
	}
}

func TestFlexTime_UnmarshalJSON_NullAndInvalid(t *testing.T) {
	var ft FlexTime
	require.NoError(t, json.Unmarshal([]byte(`null`), &ft))
	assert.True(t, ft.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"March 1st"`), &ft))
}

func TestFlexTime_MarshalJSON(t *testing.T) {
	ft := FlexTime{time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)}
	out, err := json.Marshal(ft)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01T10:30:00Z"`, string(out))

	out, err = json.Marshal(FlexTime{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
