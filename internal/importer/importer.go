// Package importer bulk-loads book records from a CSV file into the catalog.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"bookcatalog/internal/entities"
)

// BookWriter is the catalog side of the import: all rows go in as one
// transaction, so a failed run leaves no partial batch behind.
type BookWriter interface {
	BulkCreate(books []entities.Book) error
}

// Importer reads headered (isbn, title, author, year) rows and inserts them
// as new books. It performs no deduplication against existing rows: running
// the same file twice duplicates every book.
type Importer struct {
	store BookWriter
}

// New creates an Importer writing to the given store.
func New(store BookWriter) *Importer {
	return &Importer{store: store}
}

// ImportCSV parses the reader and inserts all parsed books in a single
// transaction. Any malformed row aborts the run before anything is written.
// Returns the number of books inserted.
func (i *Importer) ImportCSV(r io.Reader) (int, error) {
	reader := csv.NewReader(r)

	// Discard the header row
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}

	var books []entities.Book
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) != 4 {
			return 0, fmt.Errorf("line %d: expected 4 fields (isbn, title, author, year), got %d", line, len(record))
		}

		year, err := strconv.Atoi(strings.TrimSpace(record[3]))
		if err != nil {
			return 0, fmt.Errorf("line %d: invalid year %q: %w", line, record[3], err)
		}

		books = append(books, entities.Book{
			ISBN:   strings.TrimSpace(record[0]),
			Title:  record[1],
			Author: record[2],
			Year:   year,
		})
	}

	if err := i.store.BulkCreate(books); err != nil {
		return 0, fmt.Errorf("failed to insert books: %w", err)
	}

	for _, book := range books {
		log.Printf("Added %s to the catalog", book.Title)
	}

	return len(books), nil
}
