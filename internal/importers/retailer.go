package importers

import (
	"regexp"
	"strings"

	"github.com/shelftrack/shelftrack/internal/database/books"
	"github.com/shelftrack/shelftrack/internal/entities"
)

// RetailerRecord is one item of a retailer library export: the shape their
// "download your library" JSON uses.
type RetailerRecord struct {
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	ASIN         string   `json:"asin"`
	ResourceType string   `json:"resourceType"`
}

// Author names in retailer exports often end in a colon ("Herbert, Frank:").
var trailingColonRun = regexp.MustCompile(`[:\s]+$`)

// resourceFormats maps retailer resource types onto catalog formats.
// Unknown types leave the format unset.
var resourceFormats = map[string]entities.BookFormat{
	"EBOOK":        entities.FormatDigital,
	"EBOOK_SAMPLE": entities.FormatDigital,
	"AUDIBLE":      entities.FormatAudiobook,
	"AUDIOBOOK":    entities.FormatAudiobook,
}

// ConvertRetailerRecord maps a retailer export record into the
// book-creation input. A blank title becomes "Untitled" and a blank author
// list becomes "Unknown"; the first author name loses any trailing run of
// colons and whitespace. The ASIN is upper-cased here because validation
// rejects lowercase instead of normalising it.
func ConvertRetailerRecord(record RetailerRecord) books.CreateBookInput {
	title := strings.TrimSpace(record.Title)
	if title == "" {
		title = "Untitled"
	}

	author := "Unknown"
	if len(record.Authors) > 0 {
		first := trailingColonRun.ReplaceAllString(record.Authors[0], "")
		first = strings.TrimSpace(first)
		if first != "" {
			author = first
		}
	}

	return books.CreateBookInput{
		Title:  title,
		Author: author,
		ASIN:   strings.ToUpper(strings.TrimSpace(record.ASIN)),
		Format: resourceFormats[strings.ToUpper(record.ResourceType)],
	}
}
