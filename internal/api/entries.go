package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AI2HU/gosimon/internal/db/mongodb"
	"github.com/AI2HU/gosimon/internal/lookup"
	"github.com/AI2HU/gosimon/internal/models"
	"github.com/AI2HU/gosimon/internal/routing"
)

// newest first
var entriesSort = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

var entriesIndexes = []mongo.IndexModel{
	{Keys: bson.D{{Key: "created_at", Value: -1}}},
}

func (s *Server) toEntryResponse(entry models.Entry) models.EntryResponse {
	url, err := s.app.URLFor(entryRule, map[string]interface{}{"id": entry.ID})
	if err != nil {
		url = ""
	}

	return models.EntryResponse{
		ID:        entry.ID.Hex(),
		URL:       url,
		Title:     entry.Title,
		Text:      entry.Text,
		CreatedAt: entry.CreatedAt,
	}
}

// listEntries handles GET /api/v1/entries
func (s *Server) listEntries(c *gin.Context) {
	page, limit := s.parsePagination(c)

	entries, err := s.entries.All(c.Request.Context())
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to list entries: "+err.Error())
		return
	}

	entries, pagination := paginate(entries, page, limit)

	responses := make([]models.EntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = s.toEntryResponse(entry)
	}

	c.JSON(http.StatusOK, models.PaginatedResponse{Data: responses, Pagination: pagination})
}

// getEntry handles GET /api/v1/entries/:id
func (s *Server) getEntry(c *gin.Context) {
	id, _ := routing.Value[primitive.ObjectID](c, "id")

	entry, err := lookup.GetOr404[models.Entry](c, s.entries, id)
	if err != nil {
		if !errors.Is(err, lookup.ErrNotFound) {
			s.errorResponse(c, http.StatusInternalServerError, "Failed to get entry: "+err.Error())
		}
		return
	}

	s.successResponse(c, s.toEntryResponse(entry))
}

// createEntry handles POST /api/v1/entries
func (s *Server) createEntry(c *gin.Context) {
	var req models.CreateEntryRequest
	if err := c.ShouldBind(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	entry := models.Entry{
		Title:     req.Title,
		Text:      req.Text,
		CreatedAt: time.Now().UTC(),
	}

	id, err := s.entries.Create(c.Request.Context(), entry)
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to create entry: "+err.Error())
		return
	}
	entry.ID = id

	response := s.toEntryResponse(entry)
	c.Header("Location", response.URL)
	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Data:    response,
		Message: "New entry was successfully posted",
	})
}

// search handles GET /api/v1/search
func (s *Server) search(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if req.Limit <= 0 || req.Limit > 1000 {
		req.Limit = 100
	}

	entries, err := s.entries.Search(c.Request.Context(), req.Keyword, mongodb.SearchFilter{
		Fields:    []string{"title", "text"},
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Limit:     req.Limit,
	})
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to search entries: "+err.Error())
		return
	}

	responses := make([]models.EntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = s.toEntryResponse(entry)
	}

	s.successResponse(c, responses)
}
