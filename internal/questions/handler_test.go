package questions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/smartstudy/backend/internal/models"
	"github.com/smartstudy/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, f Fetcher) (*mux.Router, *Store) {
	t.Helper()
	s := NewStore(storage.NewMemoryStore())
	r := mux.NewRouter()
	h := NewHandler(s, f)
	h.Register(r)
	h.RegisterAdmin(r)
	return r, s
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestStatusBeforeAndAfterLoad(t *testing.T) {
	f := &staticFetcher{sources: sampleSources()}
	r, s := newTestRouter(t, f)

	assert.Equal(t, http.StatusServiceUnavailable, serve(r, "GET", "/questions/status").Code)

	_, err := s.Init(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(r, "GET", "/questions/status").Code)
}

func TestMasteryEndpoint(t *testing.T) {
	r, s := newTestRouter(t, &staticFetcher{})
	ctx := context.Background()
	_, err := s.Load(ctx, sampleSources())
	require.NoError(t, err)

	rec := serve(r, "GET", "/mastery")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.MasteryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Topics, "no attempts yet")

	_, err = s.RecordOutcome(ctx, "a1", true)
	require.NoError(t, err)
	_, err = s.RecordOutcome(ctx, "a2", false)
	require.NoError(t, err)

	rec = serve(r, "GET", "/mastery")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Topics, 1)
	assert.Equal(t, "Anatomy", resp.Topics[0].Topic)
	assert.Equal(t, 50, resp.Topics[0].Percent)
}

func TestBookmarkAndUnclearEndpoints(t *testing.T) {
	r, s := newTestRouter(t, &staticFetcher{})
	_, err := s.Load(context.Background(), sampleSources())
	require.NoError(t, err)

	rec := serve(r, "POST", "/questions/a1/bookmark")
	require.Equal(t, http.StatusOK, rec.Code)
	var bm models.BookmarkResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&bm))
	assert.True(t, bm.Bookmarked)

	assert.Equal(t, http.StatusNotFound, serve(r, "POST", "/questions/nope/bookmark").Code)
	assert.Equal(t, http.StatusOK, serve(r, "POST", "/questions/e1/unclear").Code)
}

func TestReloadEndpoint(t *testing.T) {
	f := &staticFetcher{sources: sampleSources()}
	r, s := newTestRouter(t, f)
	_, err := s.Init(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(r, "POST", "/admin/questions/reload").Code)
	assert.Equal(t, 2, f.calls)

	f.err = errors.New("timeout")
	assert.Equal(t, http.StatusBadGateway, serve(r, "POST", "/admin/questions/reload").Code)
}
