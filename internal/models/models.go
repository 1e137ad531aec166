package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Core domain models for the example applications

// Entry is a blog entry
type Entry struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title     string             `json:"title" bson:"title"`
	Text      string             `json:"text" bson:"text"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// User is an account that can be looked up by id or by credentials
type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username  string             `json:"username" bson:"username"`
	Password  string             `json:"-" bson:"password"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// CreateEntryRequest is the body accepted by POST /api/v1/entries
type CreateEntryRequest struct {
	Title string `json:"title" form:"title" binding:"required,max=200"`
	Text  string `json:"text" form:"text" binding:"required,max=10000"`
}

// EntryResponse is the public shape of an entry
type EntryResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// UserResponse is the public shape of a user
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// CreateUserRequest is the body accepted by POST /api/v1/users
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest is the body accepted by POST /api/v1/login
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// SearchRequest is the query accepted by GET /api/v1/search
type SearchRequest struct {
	Keyword   string     `form:"q" binding:"required,min=2,max=100"`
	StartTime *time.Time `form:"start_time" time_format:"2006-01-02T15:04:05Z07:00"`
	EndTime   *time.Time `form:"end_time" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit     int64      `form:"limit"`
}
