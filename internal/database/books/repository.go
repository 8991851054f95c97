// Package books provides database operations for the book catalog,
// including the composed search query used by the search page.
package books

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"bookcatalog/internal/entities"
)

var (
	// ErrEmptyQuery is returned when a search has neither a term nor a
	// year. It is a user-visible "enter a query" condition, not a fault.
	ErrEmptyQuery = errors.New("search needs a term or a year")

	// ErrBookNotFound is returned when no book row matches.
	ErrBookNotFound = errors.New("book not found")
)

// SearchQuery holds the optional search criteria. Term matches isbn, title
// or author case-insensitively as a substring; Year matches exactly and only
// applies when HasYear is set.
type SearchQuery struct {
	Term    string
	Year    int
	HasYear bool
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Search runs the composed catalog query. Results are ordered by year
// descending; ties keep insertion order. An empty result is not an error.
func (r *Repository) Search(q SearchQuery) ([]entities.Book, error) {
	if q.Term == "" && !q.HasYear {
		return nil, ErrEmptyQuery
	}

	tx := r.db.Model(&entities.Book{})
	if q.Term != "" {
		pattern := "%" + strings.ToLower(q.Term) + "%"
		tx = tx.Where(
			"(LOWER(isbn) LIKE ? OR LOWER(title) LIKE ? OR LOWER(author) LIKE ?)",
			pattern, pattern, pattern,
		)
	}
	if q.HasYear {
		tx = tx.Where("year = ?", q.Year)
	}

	var books []entities.Book
	if err := tx.Order("year DESC, id ASC").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return books, nil
}

// GetByID retrieves a book by ID.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// GetByISBN retrieves a book by ISBN. If the importer created duplicates,
// the oldest row wins.
func (r *Repository) GetByISBN(isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("isbn = ?", isbn).Order("id ASC").First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// All returns every book in the catalog, in insertion order.
func (r *Repository) All() ([]entities.Book, error) {
	var books []entities.Book
	if err := r.db.Order("id ASC").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// BulkCreate inserts books in a single transaction. Any failure rolls the
// whole batch back, so a mid-run import error leaves no partial state.
func (r *Repository) BulkCreate(books []entities.Book) error {
	if len(books) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&books, 100).Error; err != nil {
			return fmt.Errorf("insert books: %w", err)
		}
		return nil
	})
}
