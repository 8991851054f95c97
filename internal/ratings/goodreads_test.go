package ratings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewCountsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/book/review_counts.json", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "0380795272", r.URL.Query().Get("isbns"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"books":[{"isbn":"0380795272","isbn13":"9780380795277","work_ratings_count":4210,"average_rating":"4.53"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", time.Second)

	ratings, err := client.ReviewCounts(context.Background(), "0380795272")
	require.NoError(t, err)
	assert.Equal(t, "0380795272", ratings.ISBN)
	assert.Equal(t, 4210, ratings.ReviewCount)
	assert.InDelta(t, 4.53, ratings.AverageRating, 0.001)
}

func TestReviewCountsNormalizesISBN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0380795272", r.URL.Query().Get("isbns"))
		_, _ = w.Write([]byte(`{"books":[{"isbn":"0380795272","work_ratings_count":1,"average_rating":"4.00"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", time.Second)

	_, err := client.ReviewCounts(context.Background(), "0-380-79527-2")
	require.NoError(t, err)
}

func TestReviewCountsUnknownISBN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", time.Second)

	_, err := client.ReviewCounts(context.Background(), "0380795272")
	assert.ErrorIs(t, err, ErrISBNNotFound)
}

func TestReviewCountsEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"books":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", time.Second)

	_, err := client.ReviewCounts(context.Background(), "0380795272")
	assert.ErrorIs(t, err, ErrISBNNotFound)
}

func TestReviewCountsWithoutKey(t *testing.T) {
	client := NewClient("http://localhost:1", "", time.Second)

	_, err := client.ReviewCounts(context.Background(), "0380795272")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestReviewCountsInvalidISBN(t *testing.T) {
	client := NewClient("http://localhost:1", "secret", time.Second)

	_, err := client.ReviewCounts(context.Background(), "not-an-isbn")
	assert.Error(t, err)
}

func TestReviewCountsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", time.Second)

	_, err := client.ReviewCounts(context.Background(), "0380795272")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrISBNNotFound)
}

func TestNormalizeISBN(t *testing.T) {
	assert.Equal(t, "0380795272", normalizeISBN("0-380-79527-2"))
	assert.Equal(t, "9780380795277", normalizeISBN("978 0380795277"))
	assert.Empty(t, normalizeISBN("12345"))
	assert.Empty(t, normalizeISBN(""))
}
