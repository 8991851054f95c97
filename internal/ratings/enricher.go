package ratings

import (
	"context"
	"errors"
	"log"

	"bookcatalog/internal/entities"
)

// RatingsProvider fetches live aggregate rating data.
type RatingsProvider interface {
	ReviewCounts(ctx context.Context, isbn string) (*BookRatings, error)
}

// SnapshotStore persists the last successful fetch per ISBN.
type SnapshotStore interface {
	Upsert(isbn string, reviewCount int, averageRating float64) (*entities.RatingSnapshot, error)
	GetByISBN(isbn string) (*entities.RatingSnapshot, error)
}

// RatingSummary is what page rendering consumes. Found reports whether any
// rating data is available at all; Stale marks data served from a snapshot
// after a failed live call.
type RatingSummary struct {
	ReviewCount   int
	AverageRating float64
	Found         bool
	Stale         bool
}

// Enricher augments locally-stored books with external rating data. A failed
// fetch never propagates to the caller: the page renders with the last
// snapshot, or with no rating data at all.
type Enricher struct {
	provider  RatingsProvider
	snapshots SnapshotStore
}

// NewEnricher creates an Enricher over the given provider and snapshot store.
func NewEnricher(provider RatingsProvider, snapshots SnapshotStore) *Enricher {
	return &Enricher{
		provider:  provider,
		snapshots: snapshots,
	}
}

// FetchRatings returns the aggregate rating data for an ISBN. Live data is
// snapshotted for later fallback; on failure the previous snapshot, if any,
// is served instead.
func (e *Enricher) FetchRatings(ctx context.Context, isbn string) RatingSummary {
	live, err := e.provider.ReviewCounts(ctx, isbn)
	if err == nil {
		if e.snapshots != nil {
			if _, serr := e.snapshots.Upsert(live.ISBN, live.ReviewCount, live.AverageRating); serr != nil {
				log.Printf("Failed to store rating snapshot for %s: %v", live.ISBN, serr)
			}
		}
		return RatingSummary{
			ReviewCount:   live.ReviewCount,
			AverageRating: live.AverageRating,
			Found:         true,
		}
	}

	// No credential means enrichment is off, not failing: skip the log
	// noise and the snapshot probe.
	if errors.Is(err, ErrNoAPIKey) {
		return RatingSummary{}
	}

	log.Printf("Rating enrichment failed for %s: %v", isbn, err)

	if e.snapshots != nil {
		if snapshot, serr := e.snapshots.GetByISBN(isbn); serr == nil {
			return RatingSummary{
				ReviewCount:   snapshot.ReviewCount,
				AverageRating: snapshot.AverageRating,
				Found:         true,
				Stale:         true,
			}
		}
	}

	return RatingSummary{}
}
