package importers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelftrack/shelftrack/internal/entities"
)

func TestConvertRetailerRecord(t *testing.T) {
	input := ConvertRetailerRecord(RetailerRecord{
		Title:        "Dune",
		Authors:      []string{"Herbert, Frank:", "Anderson, Kevin J."},
		ASIN:         "b000r34yky",
		ResourceType: "EBOOK",
	})

	assert.Equal(t, "Dune", input.Title)
	assert.Equal(t, "Herbert, Frank", input.Author)
	assert.Equal(t, "B000R34YKY", input.ASIN)
	assert.Equal(t, entities.FormatDigital, input.Format)
}

func TestConvertRetailerRecord_BlankFields(t *testing.T) {
	input := ConvertRetailerRecord(RetailerRecord{})
	assert.Equal(t, "Untitled", input.Title)
	assert.Equal(t, "Unknown", input.Author)
	assert.Empty(t, input.ASIN)
	assert.Empty(t, input.Format)

	input = ConvertRetailerRecord(RetailerRecord{Title: "   ", Authors: []string{":  "}})
	assert.Equal(t, "Untitled", input.Title)
	assert.Equal(t, "Unknown", input.Author)
}

func TestConvertRetailerRecord_TrailingColonRuns(t *testing.T) {
	cases := map[string]string{
		"Herbert, Frank:":    "Herbert, Frank",
		"Herbert, Frank: :":  "Herbert, Frank",
		"Herbert, Frank":     "Herbert, Frank",
		"  Herbert, Frank  ": "Herbert, Frank",
	}
	for raw, want := range cases {
		input := ConvertRetailerRecord(RetailerRecord{Title: "T", Authors: []string{raw}})
		assert.Equal(t, want, input.Author, "author %q", raw)
	}
}

func TestConvertRetailerRecord_ResourceTypes(t *testing.T) {
	cases := map[string]entities.BookFormat{
		"EBOOK":        entities.FormatDigital,
		"EBOOK_SAMPLE": entities.FormatDigital,
		"ebook":        entities.FormatDigital,
		"AUDIBLE":      entities.FormatAudiobook,
		"AUDIOBOOK":    entities.FormatAudiobook,
		"MAGAZINE":     "",
		"":             "",
	}
	for resourceType, want := range cases {
		input := ConvertRetailerRecord(RetailerRecord{Title: "T", ResourceType: resourceType})
		assert.Equal(t, want, input.Format, "resource type %q", resourceType)
	}
}
