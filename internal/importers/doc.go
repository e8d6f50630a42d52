// Package importers converts third-party library export records into the
// book-creation input shape.
package importers
