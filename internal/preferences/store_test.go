package preferences

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstudy/backend/internal/models"
	"github.com/smartstudy/backend/internal/storage"
)

func TestGetDefaults(t *testing.T) {
	s := NewStore(storage.NewMemoryStore())
	p, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, p.AdaptiveMode)
	assert.False(t, p.TimerEnabled)
	assert.Empty(t, p.Difficulty)
	assert.NotNil(t, p.Settings)
}

func TestPutRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	s := NewStore(repo)

	in := models.Preferences{
		Settings:     map[string]any{"darkMode": true},
		AdaptiveMode: true,
		Difficulty:   models.DifficultyHard,
		TimerEnabled: true,
	}
	require.NoError(t, s.Put(ctx, in))

	raw, err := repo.Get(ctx, storage.KeyDifficulty)
	require.NoError(t, err)
	assert.Equal(t, `"hard"`, string(raw))

	out, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	in.Difficulty = ""
	require.NoError(t, s.Put(ctx, in))
	_, err = repo.Get(ctx, storage.KeyDifficulty)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPutRejectsUnknownDifficulty(t *testing.T) {
	s := NewStore(storage.NewMemoryStore())
	err := s.Put(context.Background(), models.Preferences{Difficulty: "brutal"})
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestCorruptKeyFallsBack(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	require.NoError(t, repo.Set(ctx, storage.KeyTimerEnabled, []byte("{oops")))
	require.NoError(t, repo.Set(ctx, storage.KeyAdaptiveMode, []byte("true")))

	p, err := NewStore(repo).Get(ctx)
	require.NoError(t, err)
	assert.False(t, p.TimerEnabled)
	assert.True(t, p.AdaptiveMode)
}

func TestHandlerPut(t *testing.T) {
	r := mux.NewRouter()
	NewHandler(NewStore(storage.NewMemoryStore())).Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/preferences",
		bytes.NewBufferString(`{"adaptiveMode":true,"difficulty":"easy"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"difficulty":"easy"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/preferences",
		bytes.NewBufferString(`{"difficulty":"brutal"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
