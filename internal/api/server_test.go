package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/AI2HU/gosimon/internal/config"
	"github.com/AI2HU/gosimon/internal/db"
	"github.com/AI2HU/gosimon/internal/db/mongodb"
	"github.com/AI2HU/gosimon/internal/lookup"
	"github.com/AI2HU/gosimon/internal/models"
	"github.com/AI2HU/gosimon/internal/simon"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEntries struct {
	docs   []models.Entry
	getErr error
}

func (f *fakeEntries) Get(_ context.Context, criteria ...interface{}) (lookup.Result[models.Entry], error) {
	if f.getErr != nil {
		return lookup.Result[models.Entry]{}, f.getErr
	}
	id := criteria[0].(primitive.ObjectID)
	var matches []models.Entry
	for _, d := range f.docs {
		if d.ID == id {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return lookup.Result[models.Entry]{Kind: lookup.NotFound}, nil
	case 1:
		return lookup.FoundResult(matches[0]), nil
	default:
		return lookup.Result[models.Entry]{Kind: lookup.Ambiguous}, nil
	}
}

func (f *fakeEntries) All(context.Context, ...interface{}) ([]models.Entry, error) {
	return f.docs, nil
}

func (f *fakeEntries) Create(_ context.Context, doc models.Entry) (primitive.ObjectID, error) {
	doc.ID = primitive.NewObjectID()
	f.docs = append([]models.Entry{doc}, f.docs...)
	return doc.ID, nil
}

func (f *fakeEntries) Search(_ context.Context, keyword string, _ mongodb.SearchFilter) ([]models.Entry, error) {
	var out []models.Entry
	for _, d := range f.docs {
		if strings.Contains(strings.ToLower(d.Title+" "+d.Text), strings.ToLower(keyword)) {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeUsers struct {
	docs []models.User
}

func (f *fakeUsers) Get(_ context.Context, criteria ...interface{}) (lookup.Result[models.User], error) {
	for _, d := range f.docs {
		switch v := criteria[0].(type) {
		case primitive.ObjectID:
			if d.ID == v {
				return lookup.FoundResult(d), nil
			}
		case string:
			if v == "username" && d.Username == criteria[1] {
				return lookup.FoundResult(d), nil
			}
		}
	}
	return lookup.Result[models.User]{Kind: lookup.NotFound}, nil
}

func (f *fakeUsers) Create(_ context.Context, doc models.User) (primitive.ObjectID, error) {
	doc.ID = primitive.NewObjectID()
	f.docs = append(f.docs, doc)
	return doc.ID, nil
}

func newTestServer(t *testing.T, settings map[string]interface{}, entries *fakeEntries, users *fakeUsers) *Server {
	t.Helper()
	return newTestServerWithOptions(t, settings, entries, users, Options{WriteRate: rate.Inf, WriteBurst: 1})
}

func newTestServerWithOptions(t *testing.T, settings map[string]interface{}, entries *fakeEntries, users *fakeUsers, opts Options) *Server {
	t.Helper()
	app := simon.NewApp("test", config.SettingsFrom(settings), db.ConnectorFunc(
		func(context.Context, db.Descriptor) (*db.Connection, error) { return &db.Connection{}, nil },
	))
	_, err := simon.New().InitApp(context.Background(), app)
	require.NoError(t, err)

	return NewServer(app, entries, users, opts)
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetEntry(t *testing.T) {
	entry := models.Entry{ID: primitive.NewObjectID(), Title: "hello", Text: "world", CreatedAt: time.Now()}
	s := newTestServer(t, nil, &fakeEntries{docs: []models.Entry{entry}}, &fakeUsers{})

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/entries/"+entry.ID.Hex(), nil))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, entry.ID.Hex(), data["id"])
	assert.Equal(t, "/api/v1/entries/"+entry.ID.Hex(), data["url"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestGetEntryNotFound(t *testing.T) {
	s := newTestServer(t, nil, &fakeEntries{}, &fakeUsers{})

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/entries/"+primitive.NewObjectID().Hex(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetEntryAmbiguous(t *testing.T) {
	id := primitive.NewObjectID()
	s := newTestServer(t, nil, &fakeEntries{docs: []models.Entry{{ID: id}, {ID: id}}}, &fakeUsers{})

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/entries/"+id.Hex(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetEntryInvalidID(t *testing.T) {
	s := newTestServer(t, nil, &fakeEntries{}, &fakeUsers{})

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/entries/00000000", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetEntryStoreError(t *testing.T) {
	s := newTestServer(t, nil, &fakeEntries{getErr: errors.New("socket closed")}, &fakeUsers{})

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/entries/"+primitive.NewObjectID().Hex(), nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w).Error, "socket closed")
}

func TestListEntriesPagination(t *testing.T) {
	var docs []models.Entry
	for i := 0; i < 3; i++ {
		docs = append(docs, models.Entry{ID: primitive.NewObjectID(), Title: "t"})
	}
	s := newTestServer(t, nil, &fakeEntries{docs: docs}, &fakeUsers{})

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/entries?page=2&limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
}

func TestListEntriesPageBeyondEnd(t *testing.T) {
	docs := []models.Entry{{ID: primitive.NewObjectID(), Title: "t"}}
	s := newTestServer(t, nil, &fakeEntries{docs: docs}, &fakeUsers{})

	for _, page := range []string{"2", "9223372036854775807"} {
		w := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/entries?page="+page, nil))
		require.Equal(t, http.StatusOK, w.Code, page)

		var resp models.PaginatedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Data, page)
		assert.Equal(t, int64(1), resp.Pagination.Total)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page, meta := paginate(items, 3, 2)
	assert.Equal(t, []int{5}, page)
	assert.Equal(t, 3, meta.TotalPages)

	page, _ = paginate(items, math.MaxInt, 2)
	assert.Empty(t, page)

	page, meta = paginate([]int{}, 1, 20)
	assert.Empty(t, page)
	assert.Equal(t, 0, meta.TotalPages)
}

func TestCreateEntryRequiresCredentials(t *testing.T) {
	settings := map[string]interface{}{"USERNAME": "admin", "PASSWORD": "default"}
	entries := &fakeEntries{}
	s := newTestServer(t, settings, entries, &fakeUsers{})

	body := `{"title":"first","text":"post"}`

	w := do(s, httptest.NewRequest(http.MethodPost, "/api/v1/entries", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("admin", "default")
	w = do(s, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, entries.docs, 1)
	assert.Equal(t, "/api/v1/entries/"+entries.docs[0].ID.Hex(), w.Header().Get("Location"))
}

func TestCreateEntryValidation(t *testing.T) {
	settings := map[string]interface{}{"USERNAME": "admin", "PASSWORD": "default"}
	s := newTestServer(t, settings, &fakeEntries{}, &fakeUsers{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries", strings.NewReader(`{"title":""}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("admin", "default")

	assert.Equal(t, http.StatusBadRequest, do(s, req).Code)
}

func TestWriteEndpointsDisabledWithoutCredentials(t *testing.T) {
	s := newTestServer(t, nil, &fakeEntries{}, &fakeUsers{})

	w := do(s, httptest.NewRequest(http.MethodPost, "/api/v1/entries", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWriteRateLimit(t *testing.T) {
	settings := map[string]interface{}{"USERNAME": "admin", "PASSWORD": "default"}
	s := newTestServerWithOptions(t, settings, &fakeEntries{}, &fakeUsers{}, Options{WriteRate: rate.Limit(0), WriteBurst: 1})

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/entries", strings.NewReader(`{"title":"a","text":"b"}`))
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth("admin", "default")
		return req
	}

	assert.Equal(t, http.StatusCreated, do(s, newReq()).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(s, newReq()).Code)
}

func TestSearch(t *testing.T) {
	docs := []models.Entry{
		{ID: primitive.NewObjectID(), Title: "Go generics"},
		{ID: primitive.NewObjectID(), Title: "Mongo indexes"},
	}
	s := newTestServer(t, nil, &fakeEntries{docs: docs}, &fakeUsers{})

	w := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=mongo", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Data, 1)

	w = do(s, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=a", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUsersAndLogin(t *testing.T) {
	settings := map[string]interface{}{"USERNAME": "admin", "PASSWORD": "default"}
	users := &fakeUsers{}
	s := newTestServer(t, settings, &fakeEntries{}, users)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(`{"username":"simon","password":"correct horse"}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("admin", "default")
	w := do(s, req)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, users.docs, 1)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.docs[0].Password), []byte("correct horse")))

	w = do(s, httptest.NewRequest(http.MethodGet, "/api/v1/users/"+users.docs[0].ID.Hex(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	login := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		return do(s, req)
	}

	assert.Equal(t, http.StatusOK, login(`{"username":"simon","password":"correct horse"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, login(`{"username":"simon","password":"wrong"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, login(`{"username":"nobody","password":"x"}`).Code)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, nil, &fakeEntries{}, &fakeUsers{})

	// the fake connector returns connections without a client
	w := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	require.NoError(t, s.app.Close(context.Background()))
	w = do(s, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
