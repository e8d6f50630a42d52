package entities

import (
	"time"
)

type BookFormat string

const (
	FormatDigital   BookFormat = "digital"
	FormatPhysical  BookFormat = "physical"
	FormatAudiobook BookFormat = "audiobook"
)

type ReadingStatus string

const (
	StatusToRead           ReadingStatus = "to-read"
	StatusCurrentlyReading ReadingStatus = "currently-reading"
	StatusRead             ReadingStatus = "read"
	StatusDidntFinish      ReadingStatus = "didnt-finish"
)

// User is the local reader profile. The schema permits many rows but in
// practice a single profile exists per installation.
type User struct {
	ID          string    `gorm:"primaryKey;size:32" json:"id"`
	Username    string    `gorm:"size:50;not null" json:"username"`
	DisplayName string    `gorm:"size:255" json:"displayName,omitempty"`
	Email       string    `gorm:"size:255" json:"email,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Series struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	Name      string    `gorm:"size:512;not null" json:"name"`
	Author    string    `gorm:"size:256;not null" json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Book struct {
	ID     string `gorm:"primaryKey;size:32" json:"id"`
	Title  string `gorm:"index;size:512;not null" json:"title"`
	Author string `gorm:"index;size:256;not null" json:"author"`
	// ISBN is stored verbatim, separators included; only validation strips
	// non-digit characters.
	ISBN            string     `gorm:"size:32" json:"isbn,omitempty"`
	ASIN            string     `gorm:"size:10" json:"asin,omitempty"`
	SeriesID        *string    `gorm:"index;size:32" json:"seriesId,omitempty"`
	Position        *int       `gorm:"check:chk_books_position,position IS NULL OR position > 0" json:"position,omitempty"`
	PublicationYear *int       `json:"publicationYear,omitempty"`
	Pages           *int       `gorm:"check:chk_books_pages,pages IS NULL OR pages > 0" json:"pages,omitempty"`
	Format          BookFormat `gorm:"size:20;check:chk_books_format,format IN ('','digital','physical','audiobook')" json:"format,omitempty"`
	CoverImageURL   string     `gorm:"size:2048" json:"coverImageUrl,omitempty"`
	Description     string     `gorm:"type:text" json:"description,omitempty"`
	Series          *Series    `gorm:"foreignKey:SeriesID" json:"-"`
	Genres          []Genre    `gorm:"many2many:book_genres;" json:"-"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type Genre struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Books     []Book    `gorm:"many2many:book_genres;" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserBook links one user's copy/status of one book.
type UserBook struct {
	ID           string        `gorm:"primaryKey;size:32;check:chk_user_books_read_progress,status <> 'read' OR progress = 100" json:"id"`
	UserID       string        `gorm:"index;size:32;not null" json:"userId"`
	BookID       string        `gorm:"index;size:32;not null" json:"bookId"`
	Status       ReadingStatus `gorm:"size:20;default:'to-read';check:chk_user_books_status,status IN ('to-read','currently-reading','read','didnt-finish')" json:"status"`
	StartedDate  *time.Time    `json:"startedDate,omitempty"`
	FinishedDate *time.Time    `json:"finishedDate,omitempty"`
	Progress     int           `gorm:"default:0;check:chk_user_books_progress,progress BETWEEN 0 AND 100" json:"progress"`
	Book         Book          `gorm:"foreignKey:BookID" json:"-"`
	User         User          `gorm:"foreignKey:UserID" json:"-"`
	AddedAt      time.Time     `json:"addedAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// ReadingCountLog records one completed read of a book or a series.
// Exactly one of BookID/SeriesID is set; the table check enforces it.
type ReadingCountLog struct {
	ID        string    `gorm:"primaryKey;size:32;check:chk_reading_logs_target,(book_id IS NULL) + (series_id IS NULL) = 1" json:"id"`
	UserID    string    `gorm:"index;size:32;not null" json:"userId"`
	BookID    *string   `gorm:"index;size:32" json:"bookId,omitempty"`
	SeriesID  *string   `gorm:"index;size:32" json:"seriesId,omitempty"`
	ReadDate  time.Time `json:"readDate"`
	CreatedAt time.Time `json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}

func (Series) TableName() string {
	return "series"
}

func (Book) TableName() string {
	return "books"
}

func (Genre) TableName() string {
	return "genres"
}

func (UserBook) TableName() string {
	return "user_books"
}

func (ReadingCountLog) TableName() string {
	return "reading_count_logs"
}
