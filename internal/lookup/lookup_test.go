package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	A int
}

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func finderReturning(res Result[doc], err error) (Finder[doc], *[]interface{}) {
	var got []interface{}
	return FinderFunc[doc](func(_ context.Context, criteria ...interface{}) (Result[doc], error) {
		got = criteria
		return res, err
	}), &got
}

func TestGetOr404Found(t *testing.T) {
	c, w := newContext()
	finder, criteria := finderReturning(FoundResult(doc{A: 1}), nil)

	actual, err := GetOr404[doc](c, finder, "a", 1)
	require.NoError(t, err)

	assert.Equal(t, doc{A: 1}, actual)
	assert.Equal(t, []interface{}{"a", 1}, *criteria)
	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetOr404Aborts(t *testing.T) {
	for _, kind := range []Kind{NotFound, Ambiguous} {
		t.Run(kind.String(), func(t *testing.T) {
			c, w := newContext()
			finder, _ := finderReturning(Result[doc]{Kind: kind}, nil)

			actual, err := GetOr404[doc](c, finder, "a", 1)

			assert.ErrorIs(t, err, ErrNotFound)
			assert.Zero(t, actual)
			assert.True(t, c.IsAborted())
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Contains(t, w.Body.String(), "Not Found")
		})
	}
}

func TestGetOr404PassesOtherErrorsThrough(t *testing.T) {
	c, _ := newContext()
	boom := errors.New("connection reset")
	finder, _ := finderReturning(Result[doc]{}, boom)

	_, err := GetOr404[doc](c, finder)

	assert.Same(t, boom, err)
	assert.False(t, c.IsAborted())
	assert.Empty(t, c.Errors)
}
