// Package ratings fetches aggregate review data for books from an external
// Goodreads-style service and keeps per-ISBN snapshots so detail pages can
// degrade to recent data when the service is unreachable.
package ratings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrISBNNotFound is returned when the upstream service has no record
	// for the ISBN.
	ErrISBNNotFound = errors.New("isbn not known to ratings service")

	// ErrNoAPIKey is returned when the client was built without a
	// credential; enrichment is simply unavailable in that case.
	ErrNoAPIKey = errors.New("ratings service API key is not configured")
)

// BookRatings is the aggregate rating data for one ISBN.
type BookRatings struct {
	ISBN          string
	ReviewCount   int
	AverageRating float64
}

// Client calls the review_counts endpoint of the ratings service. Every call
// is bounded by the configured timeout.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
}

// NewClient creates a ratings service client. The key is the API credential
// supplied via configuration; it is never hardcoded.
func NewClient(baseURL, key string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		key:        key,
	}
}

// reviewCountsResponse mirrors the upstream payload. average_rating arrives
// as a decimal string.
type reviewCountsResponse struct {
	Books []struct {
		ISBN             string `json:"isbn"`
		ISBN13           string `json:"isbn13"`
		WorkRatingsCount int    `json:"work_ratings_count"`
		AverageRating    string `json:"average_rating"`
	} `json:"books"`
}

// ReviewCounts fetches the aggregate rating data for one ISBN.
func (c *Client) ReviewCounts(ctx context.Context, isbn string) (*BookRatings, error) {
	if c.key == "" {
		return nil, ErrNoAPIKey
	}
	isbn = normalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("invalid ISBN")
	}

	params := url.Values{}
	params.Set("key", c.key)
	params.Set("isbns", isbn)
	endpoint := fmt.Sprintf("%s/book/review_counts.json?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch review counts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrISBNNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var payload reviewCountsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Books) == 0 {
		return nil, ErrISBNNotFound
	}

	entry := payload.Books[0]
	average, err := strconv.ParseFloat(entry.AverageRating, 64)
	if err != nil {
		return nil, fmt.Errorf("parse average rating %q: %w", entry.AverageRating, err)
	}

	return &BookRatings{
		ISBN:          isbn,
		ReviewCount:   entry.WorkRatingsCount,
		AverageRating: average,
	}, nil
}

// normalizeISBN removes hyphens and spaces and checks the length.
func normalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.TrimSpace(isbn)

	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	return isbn
}
