// Package http wires the gin router, the HTML page controllers and the JSON
// API for the book catalog.
package http

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/gin-gonic/gin"

	"bookcatalog/internal/auth"
	"bookcatalog/internal/database"
)

// RouterConfig carries every dependency the router needs. Optional pieces
// (sessions, CSRF, rate limiting) are skipped when left nil or empty.
type RouterConfig struct {
	Database       *database.Database
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	Books          BookStore
	BookFinder     BookFinder
	Reviews        ReviewStore
	Enricher       RatingsEnricher
	LoginLimiter   *auth.RateLimiter
	TemplatesPath  string
	StaticPath     string
	CSRFSecret     []byte
	SecureCookies  bool
	Version        string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	funcMap := template.FuncMap{
		"formatScore": func(score float64) string {
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", score), "0"), ".")
		},
	}

	tmpl := template.Must(template.New("").Funcs(funcMap).ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	pages := NewPagesController(
		cfg.AuthService,
		cfg.SessionManager,
		cfg.Books,
		cfg.Reviews,
		cfg.Enricher,
		cfg.LoginLimiter,
	)
	api := NewAPIController(cfg.BookFinder, cfg.Enricher)
	health := NewHealthController(cfg.Database, cfg.Version)

	router.GET("/", pages.Index)
	router.POST("/login", pages.Login)
	router.GET("/logout", pages.Logout)
	router.POST("/register", pages.Register)

	router.GET("/search", pages.SearchPage)
	router.POST("/search", pages.Search)
	router.GET("/search/:id", pages.BookDetail)
	router.POST("/search/:id", pages.BookDetail)

	router.GET("/api/:isbn", api.BookByISBN)

	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	return router
}
