package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/AI2HU/gosimon/internal/lookup"
	"github.com/AI2HU/gosimon/internal/models"
	"github.com/AI2HU/gosimon/internal/routing"
)

var usersIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	},
}

// getUser handles GET /api/v1/users/:id
func (s *Server) getUser(c *gin.Context) {
	id, _ := routing.Value[primitive.ObjectID](c, "id")

	user, err := lookup.GetOr404[models.User](c, s.users, id)
	if err != nil {
		if !errors.Is(err, lookup.ErrNotFound) {
			s.errorResponse(c, http.StatusInternalServerError, "Failed to get user: "+err.Error())
		}
		return
	}

	s.successResponse(c, models.UserResponse{ID: user.ID.Hex(), Username: user.Username})
}

// createUser handles POST /api/v1/users
func (s *Server) createUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid password: "+err.Error())
		return
	}

	user := models.User{
		Username:  req.Username,
		Password:  string(hash),
		CreatedAt: time.Now().UTC(),
	}

	id, err := s.users.Create(c.Request.Context(), user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.errorResponse(c, http.StatusConflict, "Username already taken")
			return
		}
		s.errorResponse(c, http.StatusInternalServerError, "Failed to create user: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Data:    models.UserResponse{ID: id.Hex(), Username: user.Username},
		Message: "User created successfully",
	})
}

// login handles POST /api/v1/login. Unknown users and wrong passwords get
// the same answer.
func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	res, err := s.users.Get(c.Request.Context(), "username", req.Username)
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to look up user: "+err.Error())
		return
	}

	if res.Kind != lookup.Found ||
		bcrypt.CompareHashAndPassword([]byte(res.Document.Password), []byte(req.Password)) != nil {
		s.errorResponse(c, http.StatusUnauthorized, "The username and password were not found.")
		return
	}

	s.successResponse(c, models.UserResponse{ID: res.Document.ID.Hex(), Username: res.Document.Username})
}
