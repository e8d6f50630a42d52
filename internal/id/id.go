// Package id generates opaque entity identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes keep identifiers recognisable in exports and logs.
const (
	PrefixUser     = "usr"
	PrefixBook     = "book"
	PrefixSeries   = "ser"
	PrefixGenre    = "gen"
	PrefixUserBook = "ub"
	PrefixLog      = "log"
)

// Generate creates a prefixed unique ID using NanoID,
// e.g. "book-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Entropy exhaustion is not a recoverable condition for this application.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
