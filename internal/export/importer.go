package export

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shelftrack/shelftrack/internal/apperrors"
	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/database/books"
	"github.com/shelftrack/shelftrack/internal/database/genres"
	"github.com/shelftrack/shelftrack/internal/database/readinglogs"
	"github.com/shelftrack/shelftrack/internal/database/series"
	"github.com/shelftrack/shelftrack/internal/database/userbooks"
	"github.com/shelftrack/shelftrack/internal/database/users"
	"github.com/shelftrack/shelftrack/internal/entities"
)

// EntityCounts tallies one import step.
type EntityCounts struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Summary reports what an import did per entity type.
type Summary struct {
	Users       EntityCounts `json:"users"`
	Series      EntityCounts `json:"series"`
	Genres      EntityCounts `json:"genres"`
	Books       EntityCounts `json:"books"`
	UserBooks   EntityCounts `json:"userBooks"`
	ReadingLogs EntityCounts `json:"readingLogs"`
}

// Importer re-creates the entities of a document in dependency order with
// duplicate-skipping merge semantics.
type Importer struct {
	users     *users.Repository
	series    *series.Repository
	genres    *genres.Repository
	books     *books.Repository
	userBooks *userbooks.Repository
	logs      *readinglogs.Repository
	log       *slog.Logger
}

// NewImporter creates an importer over the given database.
func NewImporter(db *database.Database) *Importer {
	return &Importer{
		users:     users.NewRepository(db),
		series:    series.NewRepository(db),
		genres:    genres.NewRepository(db),
		books:     books.NewRepository(db),
		userBooks: userbooks.NewRepository(db),
		logs:      readinglogs.NewRepository(db),
		log:       db.Log(),
	}
}

// Import merges the document into the current dataset: users, then series,
// then genres, then books, then user-book associations, then reading-count
// logs. Items that already exist are skipped; any other failure aborts the
// import and propagates.
//
// Ids are regenerated on insert, so references between document entities
// are resolved through their natural keys (username, name/author,
// title/author) while importing.
//
// The clearExisting flag is accepted for document compatibility but does
// not wipe prior state; imports always merge.
func (i *Importer) Import(doc *Document, clearExisting bool) (*Summary, error) {
	if doc == nil {
		return nil, apperrors.Validation("import document is empty")
	}
	if clearExisting {
		i.log.Warn("clearExisting requested but not supported; merging instead")
	}

	summary := &Summary{}
	userIDs := make(map[string]string, len(doc.Users))
	seriesIDs := make(map[string]string, len(doc.Series))
	bookIDs := make(map[string]string, len(doc.Books))

	for _, record := range doc.Users {
		created, err := i.users.CreateUser(record.Username, record.DisplayName, record.Email)
		switch {
		case err == nil:
			userIDs[record.ID] = created.ID
			summary.Users.Imported++
		case apperrors.Is(err, apperrors.ErrAlreadyExists):
			existing, lookupErr := i.users.GetUserByUsername(record.Username)
			if lookupErr != nil {
				return nil, lookupErr
			}
			userIDs[record.ID] = existing.ID
			summary.Users.Skipped++
		default:
			return nil, fmt.Errorf("import user %q: %w", record.Username, err)
		}
	}

	for _, record := range doc.Series {
		// Create trims before its duplicate pre-check, so the lookup below
		// must see the same trimmed natural key.
		name := strings.TrimSpace(record.Name)
		author := strings.TrimSpace(record.Author)
		created, err := i.series.CreateSeries(name, author)
		switch {
		case err == nil:
			seriesIDs[record.ID] = created.ID
			summary.Series.Imported++
		case apperrors.Is(err, apperrors.ErrAlreadyExists):
			existing, lookupErr := i.series.GetSeriesByNameAuthor(name, author)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if existing == nil {
				return nil, apperrors.Internal(fmt.Sprintf("series %q reported as duplicate but not found", name), nil)
			}
			seriesIDs[record.ID] = existing.ID
			summary.Series.Skipped++
		default:
			return nil, fmt.Errorf("import series %q: %w", name, err)
		}
	}

	// Genres are pre-created so book creation below can reuse them by name.
	existingGenres, err := i.genres.GetAllGenres()
	if err != nil {
		return nil, err
	}
	knownGenres := make(map[string]bool, len(existingGenres))
	for _, g := range existingGenres {
		knownGenres[strings.ToLower(g.Name)] = true
	}
	for _, record := range doc.Genres {
		if knownGenres[strings.ToLower(strings.TrimSpace(record.Name))] {
			summary.Genres.Skipped++
			continue
		}
		if _, err := i.genres.GetOrCreateGenre(record.Name); err != nil {
			return nil, fmt.Errorf("import genre %q: %w", record.Name, err)
		}
		knownGenres[strings.ToLower(strings.TrimSpace(record.Name))] = true
		summary.Genres.Imported++
	}

	for _, record := range doc.Books {
		title := strings.TrimSpace(record.Title)
		author := strings.TrimSpace(record.Author)
		input := books.CreateBookInput{
			Title:           title,
			Author:          author,
			ISBN:            record.ISBN,
			ASIN:            record.ASIN,
			Position:        record.Position,
			PublicationYear: record.PublicationYear,
			Pages:           record.Pages,
			Format:          entities.BookFormat(record.Format),
			CoverImageURL:   record.CoverImageURL,
			Description:     record.Description,
			Genres:          doc.BookGenreMap[record.ID],
		}
		if record.SeriesID != nil {
			if mapped, ok := seriesIDs[*record.SeriesID]; ok {
				input.SeriesID = &mapped
			} else {
				i.log.Warn("book references a series missing from the document; importing without series link",
					"title", title, "seriesId", *record.SeriesID)
			}
		}

		created, err := i.books.CreateBook(input)
		switch {
		case err == nil:
			bookIDs[record.ID] = created.ID
			summary.Books.Imported++
		case apperrors.Is(err, apperrors.ErrAlreadyExists):
			existing, lookupErr := i.books.GetBookByTitleAuthor(title, author)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if existing == nil {
				return nil, apperrors.Internal(fmt.Sprintf("book %q reported as duplicate but not found", title), nil)
			}
			bookIDs[record.ID] = existing.ID
			summary.Books.Skipped++
		default:
			return nil, fmt.Errorf("import book %q: %w", title, err)
		}
	}

	for _, record := range doc.UserBooks {
		userID, ok := userIDs[record.UserID]
		if !ok {
			return nil, apperrors.Validation("collection entry references unknown user %q", record.UserID)
		}
		bookID, ok := bookIDs[record.BookID]
		if !ok {
			return nil, apperrors.Validation("collection entry references unknown book %q", record.BookID)
		}

		_, err := i.userBooks.AddBookToCollection(userID, bookID)
		if apperrors.Is(err, apperrors.ErrAlreadyExists) {
			summary.UserBooks.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("import collection entry for book %q: %w", record.BookID, err)
		}

		update := userbooks.UpdateInput{}
		if record.Status != "" {
			status := entities.ReadingStatus(record.Status)
			update.Status = &status
		}
		if record.Progress != 0 {
			progress := record.Progress
			update.Progress = &progress
		}
		if record.StartedDate != nil && !record.StartedDate.IsZero() {
			update.StartedDate = &record.StartedDate.Time
		}
		if record.FinishedDate != nil && !record.FinishedDate.IsZero() {
			update.FinishedDate = &record.FinishedDate.Time
		}
		if _, err := i.userBooks.UpdateUserBook(userID, bookID, update); err != nil {
			return nil, fmt.Errorf("import collection entry for book %q: %w", record.BookID, err)
		}
		summary.UserBooks.Imported++
	}

	for _, record := range doc.ReadingCountLogs {
		userID, ok := userIDs[record.UserID]
		if !ok {
			return nil, apperrors.Validation("reading log references unknown user %q", record.UserID)
		}
		var bookID, seriesID *string
		if record.BookID != nil {
			mapped, ok := bookIDs[*record.BookID]
			if !ok {
				return nil, apperrors.Validation("reading log references unknown book %q", *record.BookID)
			}
			bookID = &mapped
		}
		if record.SeriesID != nil {
			mapped, ok := seriesIDs[*record.SeriesID]
			if !ok {
				return nil, apperrors.Validation("reading log references unknown series %q", *record.SeriesID)
			}
			seriesID = &mapped
		}

		readDate := record.ReadDate.Time
		exists, err := i.logs.HasLog(userID, bookID, seriesID, readDate)
		if err != nil {
			return nil, err
		}
		if exists {
			summary.ReadingLogs.Skipped++
			continue
		}

		date := readDate
		if _, err := i.logs.AddLog(userID, bookID, seriesID, &date); err != nil {
			return nil, fmt.Errorf("import reading log: %w", err)
		}
		summary.ReadingLogs.Imported++
	}

	return summary, nil
}
