// Package ratings provides database operations for external rating snapshots.
package ratings

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookcatalog/internal/entities"
)

// ErrSnapshotNotFound is returned when no snapshot exists for an ISBN.
var ErrSnapshotNotFound = errors.New("rating snapshot not found")

// Repository handles rating snapshot persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new rating snapshots repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert stores the latest aggregate rating fetched for an ISBN, replacing
// any previous snapshot atomically.
func (r *Repository) Upsert(isbn string, reviewCount int, averageRating float64) (*entities.RatingSnapshot, error) {
	snapshot := entities.RatingSnapshot{
		ISBN:          isbn,
		ReviewCount:   reviewCount,
		AverageRating: averageRating,
		FetchedAt:     time.Now(),
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "isbn"}},
		DoUpdates: clause.AssignmentColumns([]string{"review_count", "average_rating", "fetched_at"}),
	}).Create(&snapshot).Error
	if err != nil {
		return nil, fmt.Errorf("upsert rating snapshot: %w", err)
	}
	return &snapshot, nil
}

// GetByISBN returns the stored snapshot for an ISBN.
func (r *Repository) GetByISBN(isbn string) (*entities.RatingSnapshot, error) {
	var snapshot entities.RatingSnapshot
	err := r.db.Where("isbn = ?", isbn).First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}
