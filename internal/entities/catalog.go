package entities

import "time"

// User is a registered catalog account. Username and email are both unique;
// the store rejects duplicates atomically on insert.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:256" json:"name"`
	Username     string    `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	Age          int       `gorm:"default:-1" json:"age,omitempty"` // -1 when not provided
	PasswordHash string    `gorm:"size:128" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Book is a catalog record. Books are created only by the bulk importer and
// are immutable afterwards. There is deliberately no uniqueness constraint on
// ISBN: re-running the importer duplicates rows.
type Book struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	ISBN   string `gorm:"index;size:20" json:"isbn"`
	Title  string `gorm:"index;size:512" json:"title"`
	Author string `gorm:"index;size:256" json:"author"`
	Year   int    `gorm:"index" json:"year"`
}

// Review is a user's review of a book. The composite unique index on
// (book_id, user_id) backs the one-review-per-user-per-book upsert.
type Review struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	BookID uint      `gorm:"uniqueIndex:idx_reviews_book_user" json:"book_id"`
	UserID uint      `gorm:"uniqueIndex:idx_reviews_book_user" json:"user_id"`
	Review string    `gorm:"type:text" json:"review"`
	Rating int       `json:"rating"`
	Posted time.Time `json:"posted"`
	Book   Book      `gorm:"foreignKey:BookID" json:"-"`
	User   User      `gorm:"foreignKey:UserID" json:"-"`
}

// RatingSnapshot is the last aggregate rating fetched from the external
// ratings service for an ISBN. Detail pages fall back to it when the live
// call fails, so an upstream outage never blanks the page.
type RatingSnapshot struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ISBN          string    `gorm:"uniqueIndex;size:20" json:"isbn"`
	ReviewCount   int       `json:"review_count"`
	AverageRating float64   `json:"average_rating"`
	FetchedAt     time.Time `json:"fetched_at"`
}
