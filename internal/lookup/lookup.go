// Package lookup classifies single-document lookups and turns the
// "nothing matched" and "too many matched" outcomes into a 404.
package lookup

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/gosimon/internal/models"
)

// Kind tags the outcome of a single-document lookup
type Kind int

const (
	Found Kind = iota + 1
	NotFound
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case Found:
		return "found"
	case NotFound:
		return "not found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// ErrNotFound is returned by GetOr404 after it aborted the request
var ErrNotFound = errors.New("document not found")

// Result is the tagged outcome of Finder.Get. Document is only meaningful
// when Kind is Found.
type Result[T any] struct {
	Kind     Kind
	Document T
}

// FoundResult wraps doc as a Found outcome
func FoundResult[T any](doc T) Result[T] {
	return Result[T]{Kind: Found, Document: doc}
}

// Finder looks up exactly one document matching criteria
type Finder[T any] interface {
	Get(ctx context.Context, criteria ...interface{}) (Result[T], error)
}

// FinderFunc adapts a function to Finder
type FinderFunc[T any] func(ctx context.Context, criteria ...interface{}) (Result[T], error)

func (f FinderFunc[T]) Get(ctx context.Context, criteria ...interface{}) (Result[T], error) {
	return f(ctx, criteria...)
}

// GetOr404 returns the single document finder matches. When zero or several
// documents match, the request is aborted with 404 and ErrNotFound is
// returned. Any other finder error is returned unchanged and the request is
// left alone.
func GetOr404[T any](c *gin.Context, finder Finder[T], criteria ...interface{}) (T, error) {
	var zero T

	res, err := finder.Get(c.Request.Context(), criteria...)
	if err != nil {
		return zero, err
	}

	switch res.Kind {
	case Found:
		return res.Document, nil
	case NotFound, Ambiguous:
		_ = c.Error(ErrNotFound).SetMeta(res.Kind.String())
		c.AbortWithStatusJSON(http.StatusNotFound, models.APIResponse{
			Success: false,
			Error:   http.StatusText(http.StatusNotFound),
		})
		return zero, ErrNotFound
	default:
		return zero, errors.New("lookup: unknown result kind " + res.Kind.String())
	}
}
