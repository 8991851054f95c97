// Package reviews provides database operations for book reviews.
package reviews

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookcatalog/internal/entities"
)

// Repository handles all review database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reviews repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes a user's review of a book. A second submission for the same
// (book, user) pair replaces the previous text, rating and posted timestamp
// in place. The insert-or-update is a single statement keyed on the unique
// (book_id, user_id) index, so concurrent double-submits cannot create a
// duplicate row or lose an update.
func (r *Repository) Upsert(bookID, userID uint, text string, rating int) (*entities.Review, error) {
	review := entities.Review{
		BookID: bookID,
		UserID: userID,
		Review: text,
		Rating: rating,
		Posted: time.Now(),
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"review", "rating", "posted"}),
	}).Create(&review).Error
	if err != nil {
		return nil, fmt.Errorf("upsert review: %w", err)
	}

	// Re-read so the caller sees the surviving row, not the transient
	// insert attempt.
	var saved entities.Review
	err = r.db.Where("book_id = ? AND user_id = ?", bookID, userID).First(&saved).Error
	if err != nil {
		return nil, fmt.Errorf("reload review: %w", err)
	}
	return &saved, nil
}

// ListForBook returns all reviews of a book with their authors preloaded,
// newest first.
func (r *Repository) ListForBook(bookID uint) ([]entities.Review, error) {
	var reviews []entities.Review
	err := r.db.Preload("User").
		Where("book_id = ?", bookID).
		Order("posted DESC, id ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// CountForBook returns the number of local reviews for a book.
func (r *Repository) CountForBook(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Review{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}
