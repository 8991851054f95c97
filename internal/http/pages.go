package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookcatalog/internal/auth"
	"bookcatalog/internal/database/books"
	"bookcatalog/internal/entities"
	"bookcatalog/internal/ratings"
)

// BookStore is the catalog access the page controllers need.
type BookStore interface {
	Search(q books.SearchQuery) ([]entities.Book, error)
	GetByID(id uint) (*entities.Book, error)
}

// ReviewStore is the review access the detail page needs.
type ReviewStore interface {
	Upsert(bookID, userID uint, text string, rating int) (*entities.Review, error)
	ListForBook(bookID uint) ([]entities.Review, error)
}

// RatingsEnricher augments a book with external aggregate rating data.
// It never fails; missing data comes back as a zero-valued summary.
type RatingsEnricher interface {
	FetchRatings(ctx context.Context, isbn string) ratings.RatingSummary
}

// PagesController serves the HTML pages: home, search and book detail.
type PagesController struct {
	auth         *auth.Service
	sessions     *auth.SessionManager
	books        BookStore
	reviews      ReviewStore
	enricher     RatingsEnricher
	loginLimiter *auth.RateLimiter
}

// NewPagesController creates the page controller.
func NewPagesController(
	authService *auth.Service,
	sessions *auth.SessionManager,
	bookStore BookStore,
	reviewStore ReviewStore,
	enricher RatingsEnricher,
	loginLimiter *auth.RateLimiter,
) *PagesController {
	return &PagesController{
		auth:         authService,
		sessions:     sessions,
		books:        bookStore,
		reviews:      reviewStore,
		enricher:     enricher,
		loginLimiter: loginLimiter,
	}
}

// Index renders the home page with its login and registration forms.
func (pc *PagesController) Index(c *gin.Context) {
	message := c.Query("message")
	if message == "" {
		message = c.Query("error")
	}
	pc.renderIndex(c, message)
}

func (pc *PagesController) renderIndex(c *gin.Context, message string) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Message":   message,
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

// Login handles the login form submission.
func (pc *PagesController) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	if username == "" {
		pc.renderIndex(c, "you must enter a username")
		return
	}
	if password == "" {
		pc.renderIndex(c, "please enter your password")
		return
	}

	clientIP := c.ClientIP()
	if pc.loginLimiter != nil {
		allowed, retryAfter := pc.loginLimiter.Allow(clientIP, username)
		if !allowed {
			c.Header("Retry-After", retryAfter.String())
			pc.renderIndex(c, "Too many login attempts. Please try again later.")
			return
		}
	}

	user, err := pc.auth.Authenticate(username, password)
	if err != nil {
		if pc.loginLimiter != nil {
			pc.loginLimiter.RecordFailure(clientIP, username)
		}
		// Same message for unknown users and wrong passwords.
		if errors.Is(err, auth.ErrUnknownUser) || errors.Is(err, auth.ErrBadCredentials) {
			pc.renderIndex(c, "Invalid username or password")
			return
		}
		log.Printf("Login failed for %q: %v", username, err)
		pc.renderIndex(c, "Something went wrong. Please try again.")
		return
	}

	if pc.loginLimiter != nil {
		pc.loginLimiter.RecordSuccess(clientIP, username)
	}

	if err := pc.sessions.CreateSession(c.Request, user); err != nil {
		log.Printf("Failed to create session for %q: %v", username, err)
		pc.renderIndex(c, "Something went wrong. Please try again.")
		return
	}

	c.Redirect(http.StatusFound, "/search")
}

// Logout clears the session identity and returns to the home page.
// Logging out twice is harmless.
func (pc *PagesController) Logout(c *gin.Context) {
	_ = pc.sessions.DestroySession(c.Request)
	c.Redirect(http.StatusFound, "/")
}

// Register handles the registration form. On success the new user is logged
// in right away and sent to the search page.
func (pc *PagesController) Register(c *gin.Context) {
	name := c.PostForm("name")
	username := c.PostForm("username")
	password := c.PostForm("password")
	email := c.PostForm("email")

	if name == "" {
		pc.renderIndex(c, "Please enter your full name")
		return
	}
	if username == "" {
		pc.renderIndex(c, "Please choose a username")
		return
	}
	if password == "" {
		pc.renderIndex(c, "please enter a password")
		return
	}
	if email == "" {
		pc.renderIndex(c, "An email is required in order to register")
		return
	}

	age := auth.AgeNotProvided
	if ageStr := c.PostForm("age"); ageStr != "" {
		parsed, err := strconv.Atoi(ageStr)
		if err != nil {
			pc.renderIndex(c, "Age must be a number")
			return
		}
		age = parsed
	}

	user, err := pc.auth.Register(name, username, password, email, age)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateUser):
			pc.renderIndex(c, "Username and/or email already exists")
		case errors.Is(err, auth.ErrPasswordTooLong):
			pc.renderIndex(c, "Password is too long")
		default:
			// A store fault, not a conflict - don't pretend it was one.
			log.Printf("Registration failed for %q: %v", username, err)
			pc.renderIndex(c, "Could not create your account. Please try again.")
		}
		return
	}

	if err := pc.sessions.CreateSession(c.Request, user); err != nil {
		log.Printf("Failed to create session for %q: %v", username, err)
		pc.renderIndex(c, "Account created. Please log in.")
		return
	}

	c.Redirect(http.StatusFound, "/search")
}

// SearchPage renders the empty search form.
func (pc *PagesController) SearchPage(c *gin.Context) {
	c.HTML(http.StatusOK, "search.html", gin.H{
		"Username":  auth.GetUsername(c),
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

// Search runs the catalog query built from the submitted form.
func (pc *PagesController) Search(c *gin.Context) {
	q := books.SearchQuery{Term: c.PostForm("search")}

	if yearStr := c.PostForm("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			pc.renderSearch(c, nil, "Year must be a number")
			return
		}
		q.Year = year
		q.HasYear = true
	}

	results, err := pc.books.Search(q)
	if err != nil {
		if errors.Is(err, books.ErrEmptyQuery) {
			pc.renderSearch(c, nil, "Please type in a query")
			return
		}
		log.Printf("Search failed: %v", err)
		pc.renderSearch(c, nil, "Something went wrong. Please try again.")
		return
	}

	if len(results) == 0 {
		pc.renderSearch(c, nil, "Book Not Found in Database")
		return
	}

	pc.renderSearch(c, results, "")
}

func (pc *PagesController) renderSearch(c *gin.Context, results []entities.Book, message string) {
	c.HTML(http.StatusOK, "search.html", gin.H{
		"Username":  auth.GetUsername(c),
		"Books":     results,
		"Message":   message,
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

// BookDetail renders a book's detail page; on POST with a review payload it
// first upserts the visitor's review. The listing always reflects the state
// after the write, and external ratings are fetched last so an enrichment
// failure can never lose a submitted review.
func (pc *PagesController) BookDetail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Message": "Invalid book ID",
			"Code":    "400",
		})
		return
	}

	book, err := pc.books.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			c.HTML(http.StatusNotFound, "error.html", gin.H{
				"Message": "Book not found",
				"Code":    "404",
			})
			return
		}
		log.Printf("Failed to load book %d: %v", id, err)
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Message": "Something went wrong. Please try again.",
			"Code":    "500",
		})
		return
	}

	var message string
	if c.Request.Method == http.MethodPost {
		message = pc.submitReview(c, book)
	}

	reviews, err := pc.reviews.ListForBook(book.ID)
	if err != nil {
		log.Printf("Failed to load reviews for book %d: %v", book.ID, err)
	}

	summary := pc.enricher.FetchRatings(c.Request.Context(), book.ISBN)

	c.HTML(http.StatusOK, "book.html", gin.H{
		"Book":      book,
		"Reviews":   reviews,
		"Ratings":   summary,
		"Message":   message,
		"Username":  auth.GetUsername(c),
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

// submitReview upserts the visitor's review and returns a user-visible
// message. An empty review field means no submission was intended.
func (pc *PagesController) submitReview(c *gin.Context, book *entities.Book) string {
	text := c.PostForm("review")
	if text == "" {
		return ""
	}

	rating, err := strconv.Atoi(c.PostForm("rating"))
	if err != nil || rating < 1 || rating > 5 {
		return "Rating must be a number between 1 and 5"
	}

	userID := auth.GetUserID(c)
	if userID == 0 {
		return "You must log in to review books"
	}

	if _, err := pc.reviews.Upsert(book.ID, userID, text, rating); err != nil {
		log.Printf("Failed to save review for book %d by user %d: %v", book.ID, userID, err)
		return "Could not save your review. Please try again."
	}

	return "Your review has been saved"
}
