package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"

	"github.com/AI2HU/gosimon/internal/config"
	"github.com/AI2HU/gosimon/internal/db/mongodb"
	"github.com/AI2HU/gosimon/internal/logger"
	"github.com/AI2HU/gosimon/internal/lookup"
	"github.com/AI2HU/gosimon/internal/models"
	"github.com/AI2HU/gosimon/internal/simon"
)

const (
	entryRule = "/api/v1/entries/<objectid:id>"
	userRule  = "/api/v1/users/<objectid:id>"

	requestIDHeader = "X-Request-ID"
)

// EntryStore is the persistence the entry endpoints need
type EntryStore interface {
	lookup.Finder[models.Entry]
	All(ctx context.Context, criteria ...interface{}) ([]models.Entry, error)
	Create(ctx context.Context, doc models.Entry) (primitive.ObjectID, error)
	Search(ctx context.Context, keyword string, f mongodb.SearchFilter) ([]models.Entry, error)
}

// UserStore is the persistence the user endpoints need
type UserStore interface {
	lookup.Finder[models.User]
	Create(ctx context.Context, doc models.User) (primitive.ObjectID, error)
}

// Options tunes the server
type Options struct {
	// WriteRate and WriteBurst limit the write endpoints across all clients
	WriteRate  rate.Limit
	WriteBurst int
}

// DefaultOptions returns the defaults used by `gosimon serve`
func DefaultOptions() Options {
	return Options{WriteRate: rate.Limit(5), WriteBurst: 10}
}

// Server is the example blog application built on a simon.App
type Server struct {
	app     *simon.App
	entries EntryStore
	users   UserStore
	limiter *rate.Limiter
}

// NewServer registers the example routes on app.Engine
func NewServer(app *simon.App, entries EntryStore, users UserStore, opts Options) *Server {
	s := &Server{
		app:     app,
		entries: entries,
		users:   users,
		limiter: rate.NewLimiter(opts.WriteRate, opts.WriteBurst),
	}
	s.setupRoutes()
	return s
}

// NewMongoStores binds the example collections on the app's default
// connection and makes sure their indexes exist.
func NewMongoStores(ctx context.Context, app *simon.App) (*mongodb.Collection[models.Entry], *mongodb.Collection[models.User], error) {
	database, err := app.Connections.Database("")
	if err != nil {
		return nil, nil, err
	}

	entries := mongodb.NewCollection[models.Entry](database, "entries", entriesSort)
	users := mongodb.NewCollection[models.User](database, "users", nil)

	if err := entries.EnsureIndexes(ctx, entriesIndexes...); err != nil {
		return nil, nil, err
	}
	if err := users.EnsureIndexes(ctx, usersIndexes...); err != nil {
		return nil, nil, err
	}

	return entries, users, nil
}

func (s *Server) setupRoutes() {
	r := s.app.Engine
	r.Use(gin.Recovery(), requestID(), requestLogger())

	r.GET("/api/v1/health", s.healthCheck)

	r.GET("/api/v1/entries", s.listEntries)
	s.app.Handle(http.MethodGet, entryRule, s.getEntry)
	r.GET("/api/v1/search", s.search)

	s.app.Handle(http.MethodGet, userRule, s.getUser)
	r.POST("/api/v1/login", s.login)

	username := s.app.Settings.String(config.KeyUsername)
	password := s.app.Settings.String(config.KeyPassword)
	if username == "" || password == "" {
		logger.Warning("USERNAME/PASSWORD not configured, write endpoints are disabled")
		return
	}

	admin := r.Group("/api/v1", gin.BasicAuth(gin.Accounts{username: password}), s.rateLimit())
	admin.POST("/entries", s.createEntry)
	admin.POST("/users", s.createUser)
}

// Run starts the HTTP server
func (s *Server) Run(address string) error {
	return s.app.Engine.Run(address)
}

// Handler exposes the router, e.g. for http.Server or tests
func (s *Server) Handler() http.Handler {
	return s.app.Engine
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := logger.With(
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
		if len(c.Errors) > 0 {
			log.Warning("Request completed with errors: %s", c.Errors.String())
			return
		}
		log.Debug("Request completed")
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow() {
			s.errorResponse(c, http.StatusTooManyRequests, "Rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    data,
	})
}

func (s *Server) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// parsePagination reads page and limit query parameters, clamped to sane bounds
func (s *Server) parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}

// paginate returns the requested page of items, 1-based
func paginate[T any](items []T, page, limit int) ([]T, models.Pagination) {
	total := len(items)
	meta := models.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      int64(total),
		TotalPages: (total + limit - 1) / limit,
	}

	// (page-1)*limit overflows for huge pages, so compare page counts first
	if page-1 >= meta.TotalPages {
		return []T{}, meta
	}
	start := (page - 1) * limit
	return items[start:min(start+limit, total)], meta
}

// healthCheck handles GET /api/v1/health
func (s *Server) healthCheck(c *gin.Context) {
	if err := s.app.Connections.Ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, models.APIResponse{
			Success: false,
			Error:   "Database connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":      "healthy",
			"timestamp":   time.Now(),
			"connections": s.app.Connections.Aliases(),
		},
	})
}
