package export

import (
	"time"

	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/database/books"
	"github.com/shelftrack/shelftrack/internal/database/genres"
	"github.com/shelftrack/shelftrack/internal/database/readinglogs"
	"github.com/shelftrack/shelftrack/internal/database/series"
	"github.com/shelftrack/shelftrack/internal/database/userbooks"
	"github.com/shelftrack/shelftrack/internal/database/users"
	"github.com/shelftrack/shelftrack/internal/entities"
)

// Exporter assembles the portable document from the repositories.
type Exporter struct {
	users     *users.Repository
	series    *series.Repository
	genres    *genres.Repository
	books     *books.Repository
	userBooks *userbooks.Repository
	logs      *readinglogs.Repository
}

// NewExporter creates an exporter over the given database.
func NewExporter(db *database.Database) *Exporter {
	return &Exporter{
		users:     users.NewRepository(db),
		series:    series.NewRepository(db),
		genres:    genres.NewRepository(db),
		books:     books.NewRepository(db),
		userBooks: userbooks.NewRepository(db),
		logs:      readinglogs.NewRepository(db),
	}
}

// Export assembles the full dataset into one document.
func (e *Exporter) Export() (*Document, error) {
	doc := &Document{
		Users:            []UserRecord{},
		Books:            []BookRecord{},
		Series:           []SeriesRecord{},
		Genres:           []GenreRecord{},
		UserBooks:        []UserBookRecord{},
		ReadingCountLogs: []ReadingCountLogRecord{},
		BookGenreMap:     map[string][]string{},
		ExportedAt:       FlexTime{time.Now()},
		Version:          Version,
	}

	allUsers, err := e.users.GetAllUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range allUsers {
		doc.Users = append(doc.Users, UserRecord{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Email:       u.Email,
			CreatedAt:   FlexTime{u.CreatedAt},
			UpdatedAt:   FlexTime{u.UpdatedAt},
		})
	}

	allSeries, err := e.series.GetAllSeries()
	if err != nil {
		return nil, err
	}
	for _, s := range allSeries {
		doc.Series = append(doc.Series, SeriesRecord{
			ID:        s.ID,
			Name:      s.Name,
			Author:    s.Author,
			CreatedAt: FlexTime{s.CreatedAt},
			UpdatedAt: FlexTime{s.UpdatedAt},
		})
	}

	allGenres, err := e.genres.GetAllGenres()
	if err != nil {
		return nil, err
	}
	for _, g := range allGenres {
		doc.Genres = append(doc.Genres, GenreRecord{
			ID:        g.ID,
			Name:      g.Name,
			CreatedAt: FlexTime{g.CreatedAt},
		})
	}

	allBooks, err := e.books.GetAllBooks()
	if err != nil {
		return nil, err
	}
	for _, b := range allBooks {
		doc.Books = append(doc.Books, bookRecord(b))
		bookGenres, err := e.genres.GetBookGenres(b.ID)
		if err != nil {
			return nil, err
		}
		if len(bookGenres) > 0 {
			names := make([]string, len(bookGenres))
			for i, g := range bookGenres {
				names[i] = g.Name
			}
			doc.BookGenreMap[b.ID] = names
		}
	}

	allUserBooks, err := e.userBooks.GetAllUserBooks()
	if err != nil {
		return nil, err
	}
	for _, ub := range allUserBooks {
		record := UserBookRecord{
			ID:        ub.ID,
			UserID:    ub.UserID,
			BookID:    ub.BookID,
			Status:    string(ub.Status),
			Progress:  ub.Progress,
			AddedAt:   FlexTime{ub.AddedAt},
			UpdatedAt: FlexTime{ub.UpdatedAt},
		}
		if ub.StartedDate != nil {
			record.StartedDate = &FlexTime{*ub.StartedDate}
		}
		if ub.FinishedDate != nil {
			record.FinishedDate = &FlexTime{*ub.FinishedDate}
		}
		doc.UserBooks = append(doc.UserBooks, record)
	}

	allLogs, err := e.logs.GetAllLogs()
	if err != nil {
		return nil, err
	}
	for _, l := range allLogs {
		doc.ReadingCountLogs = append(doc.ReadingCountLogs, ReadingCountLogRecord{
			ID:        l.ID,
			UserID:    l.UserID,
			BookID:    l.BookID,
			SeriesID:  l.SeriesID,
			ReadDate:  FlexTime{l.ReadDate},
			CreatedAt: FlexTime{l.CreatedAt},
		})
	}

	return doc, nil
}

func bookRecord(b entities.Book) BookRecord {
	return BookRecord{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		ASIN:            b.ASIN,
		SeriesID:        b.SeriesID,
		Position:        b.Position,
		PublicationYear: b.PublicationYear,
		Pages:           b.Pages,
		Format:          string(b.Format),
		CoverImageURL:   b.CoverImageURL,
		Description:     b.Description,
		CreatedAt:       FlexTime{b.CreatedAt},
		UpdatedAt:       FlexTime{b.UpdatedAt},
	}
}
