package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookcatalog/internal/database/books"
	"bookcatalog/internal/entities"
)

// BookFinder looks up a book by its ISBN.
type BookFinder interface {
	GetByISBN(isbn string) (*entities.Book, error)
}

// APIController serves the public JSON endpoint for per-ISBN book data.
type APIController struct {
	books    BookFinder
	enricher RatingsEnricher
}

// NewAPIController creates the API controller.
func NewAPIController(bookFinder BookFinder, enricher RatingsEnricher) *APIController {
	return &APIController{
		books:    bookFinder,
		enricher: enricher,
	}
}

// bookResponse is the JSON shape of the /api/:isbn endpoint. Both rating
// fields come from the external ratings service and are zero when it has no
// data for the ISBN.
type bookResponse struct {
	Title        string  `json:"title"`
	Author       string  `json:"author"`
	Year         int     `json:"year"`
	ISBN         string  `json:"isbn"`
	ReviewCount  int     `json:"review_count"`
	AverageScore float64 `json:"average_score"`
}

// BookByISBN returns the catalog record for an ISBN together with its
// external aggregate rating data. An ISBN missing from the local catalog is
// a 404 before any external call is made.
func (ac *APIController) BookByISBN(c *gin.Context) {
	isbn := c.Param("isbn")

	book, err := ac.books.GetByISBN(isbn)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "The ISBN number you requested is not in our database.",
			})
			return
		}
		log.Printf("Failed to look up ISBN %q: %v", isbn, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	summary := ac.enricher.FetchRatings(c.Request.Context(), book.ISBN)

	c.JSON(http.StatusOK, bookResponse{
		Title:        book.Title,
		Author:       book.Author,
		Year:         book.Year,
		ISBN:         book.ISBN,
		ReviewCount:  summary.ReviewCount,
		AverageScore: summary.AverageRating,
	})
}
