// Package export serializes the full dataset to a portable JSON document
// and re-hydrates it with duplicate-skipping merge semantics.
package export

import (
	"fmt"
	"strings"
	"time"
)

// Version tags the document format.
const Version = "1.0.0"

// FlexTime is a timestamp that unmarshals from RFC 3339 (with or without
// fractional seconds) and from plain yyyy-mm-dd dates. Documents produced
// elsewhere carry dates in either shape.
type FlexTime struct {
	time.Time
}

var flexLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range flexLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised date value %q", s)
}

// UserRecord mirrors a user row in the document.
type UserRecord struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"displayName,omitempty"`
	Email       string   `json:"email,omitempty"`
	CreatedAt   FlexTime `json:"createdAt"`
	UpdatedAt   FlexTime `json:"updatedAt"`
}

// SeriesRecord mirrors a series row in the document.
type SeriesRecord struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Author    string   `json:"author"`
	CreatedAt FlexTime `json:"createdAt"`
	UpdatedAt FlexTime `json:"updatedAt"`
}

// BookRecord mirrors a book row in the document.
type BookRecord struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	ISBN            string   `json:"isbn,omitempty"`
	ASIN            string   `json:"asin,omitempty"`
	SeriesID        *string  `json:"seriesId,omitempty"`
	Position        *int     `json:"position,omitempty"`
	PublicationYear *int     `json:"publicationYear,omitempty"`
	Pages           *int     `json:"pages,omitempty"`
	Format          string   `json:"format,omitempty"`
	CoverImageURL   string   `json:"coverImageUrl,omitempty"`
	Description     string   `json:"description,omitempty"`
	CreatedAt       FlexTime `json:"createdAt"`
	UpdatedAt       FlexTime `json:"updatedAt"`
}

// GenreRecord mirrors a genre row in the document.
type GenreRecord struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	CreatedAt FlexTime `json:"createdAt"`
}

// UserBookRecord mirrors a user-book association in the document.
type UserBookRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	BookID       string    `json:"bookId"`
	Status       string    `json:"status"`
	StartedDate  *FlexTime `json:"startedDate,omitempty"`
	FinishedDate *FlexTime `json:"finishedDate,omitempty"`
	Progress     int       `json:"progress"`
	AddedAt      FlexTime  `json:"addedAt"`
	UpdatedAt    FlexTime  `json:"updatedAt"`
}

// ReadingCountLogRecord mirrors a completed-read event in the document.
type ReadingCountLogRecord struct {
	ID        string   `json:"id"`
	UserID    string   `json:"userId"`
	BookID    *string  `json:"bookId,omitempty"`
	SeriesID  *string  `json:"seriesId,omitempty"`
	ReadDate  FlexTime `json:"readDate"`
	CreatedAt FlexTime `json:"createdAt"`
}

// Document is the portable snapshot of the whole dataset. BookGenreMap maps
// each book id to its genre names, since genres are not embedded in the
// book records.
type Document struct {
	Users            []UserRecord            `json:"users"`
	Books            []BookRecord            `json:"books"`
	Series           []SeriesRecord          `json:"series"`
	Genres           []GenreRecord           `json:"genres"`
	UserBooks        []UserBookRecord        `json:"userBooks"`
	ReadingCountLogs []ReadingCountLogRecord `json:"readingCountLogs"`
	BookGenreMap     map[string][]string     `json:"bookGenreMap"`
	ExportedAt       FlexTime                `json:"exportedAt"`
	Version          string                  `json:"version"`
}
