package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog/internal/database/books"
	"bookcatalog/internal/entities"
	"bookcatalog/internal/ratings"
)

type fakeBookFinder struct {
	books map[string]*entities.Book
}

func (f *fakeBookFinder) GetByISBN(isbn string) (*entities.Book, error) {
	if book, ok := f.books[isbn]; ok {
		return book, nil
	}
	return nil, books.ErrBookNotFound
}

type countingEnricher struct {
	summary ratings.RatingSummary
	calls   int
}

func (e *countingEnricher) FetchRatings(ctx context.Context, isbn string) ratings.RatingSummary {
	e.calls++
	return e.summary
}

func setupAPIRouter(finder *fakeBookFinder, enricher *countingEnricher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := NewAPIController(finder, enricher)
	router.GET("/api/:isbn", api.BookByISBN)
	return router
}

func TestBookByISBN(t *testing.T) {
	finder := &fakeBookFinder{books: map[string]*entities.Book{
		"0380795272": {ID: 1, ISBN: "0380795272", Title: "Krondor: The Betrayal", Author: "Raymond E. Feist", Year: 1998},
	}}
	enricher := &countingEnricher{summary: ratings.RatingSummary{ReviewCount: 4210, AverageRating: 4.53, Found: true}}
	router := setupAPIRouter(finder, enricher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/0380795272", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "Krondor: The Betrayal", payload["title"])
	assert.Equal(t, "Raymond E. Feist", payload["author"])
	assert.Equal(t, float64(1998), payload["year"])
	assert.Equal(t, "0380795272", payload["isbn"])
	// Aggregate count comes from the ratings service, like average_score
	assert.Equal(t, float64(4210), payload["review_count"])
	assert.InDelta(t, 4.53, payload["average_score"].(float64), 0.001)
}

func TestBookByISBNUpstreamMiss(t *testing.T) {
	finder := &fakeBookFinder{books: map[string]*entities.Book{
		"0380795272": {ID: 1, ISBN: "0380795272", Title: "Krondor: The Betrayal", Author: "Raymond E. Feist", Year: 1998},
	}}
	enricher := &countingEnricher{}
	router := setupAPIRouter(finder, enricher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/0380795272", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "Krondor: The Betrayal", payload["title"])
	// No upstream match leaves the rating fields zeroed
	assert.Equal(t, float64(0), payload["review_count"])
	assert.Equal(t, float64(0), payload["average_score"])
}

func TestBookByISBNUnknownIsLocal404(t *testing.T) {
	enricher := &countingEnricher{}
	router := setupAPIRouter(&fakeBookFinder{books: map[string]*entities.Book{}}, enricher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/0000000000", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not in our database")

	// Unknown ISBNs never trigger an external lookup
	assert.Zero(t, enricher.calls)
}
