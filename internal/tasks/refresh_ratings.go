package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"bookcatalog/internal/entities"
	"bookcatalog/internal/ratings"
)

// BookLister provides the books whose ratings should be refreshed.
type BookLister interface {
	All() ([]entities.Book, error)
}

// RefreshRatingsTask re-fetches external rating data for every book with an
// ISBN, warming the snapshot cache so detail pages stay useful while the
// ratings service is down.
type RefreshRatingsTask struct{}

// Config returns the queue configuration for rating refresh tasks.
func (t RefreshRatingsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "refresh_ratings",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RefreshRatingsProcessor creates a processor function for RefreshRatingsTask.
// Fetches are sequential; the enricher absorbs per-book failures, so one bad
// ISBN never aborts the sweep.
func RefreshRatingsProcessor(books BookLister, enricher *ratings.Enricher) backlite.QueueProcessor[RefreshRatingsTask] {
	return func(ctx context.Context, task RefreshRatingsTask) error {
		if enricher == nil {
			return fmt.Errorf("enricher not configured")
		}

		all, err := books.All()
		if err != nil {
			return fmt.Errorf("list books: %w", err)
		}

		var refreshed, skipped int
		for _, book := range all {
			if err := ctx.Err(); err != nil {
				return err
			}
			if book.ISBN == "" {
				skipped++
				continue
			}
			if summary := enricher.FetchRatings(ctx, book.ISBN); summary.Found && !summary.Stale {
				refreshed++
			}
		}

		log.Printf("[TASK] Rating refresh complete: %d books, %d refreshed, %d without ISBN",
			len(all), refreshed, skipped)

		return nil
	}
}

// NewRefreshRatingsQueue creates a backlite queue for rating refresh tasks.
func NewRefreshRatingsQueue(books BookLister, enricher *ratings.Enricher) backlite.Queue {
	return backlite.NewQueue(RefreshRatingsProcessor(books, enricher))
}
