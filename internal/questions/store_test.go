package questions

import (
	"context"
	"errors"
	"testing"

	"github.com/smartstudy/backend/internal/models"
	"github.com/smartstudy/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingRepo makes Set fail for keys listed in failKeys.
type failingRepo struct {
	*storage.MemoryStore
	failKeys map[string]bool
}

func (f *failingRepo) Set(ctx context.Context, key string, value []byte) error {
	if f.failKeys[key] {
		return errors.New("disk full")
	}
	return f.MemoryStore.Set(ctx, key, value)
}

type staticFetcher struct {
	sources []RawSource
	skipped []models.SkippedSource
	err     error
	calls   int
}

func (f *staticFetcher) FetchAll(context.Context) ([]RawSource, []models.SkippedSource, error) {
	f.calls++
	return f.sources, f.skipped, f.err
}

func sampleSources() []RawSource {
	return []RawSource{
		{Path: "questions/anatomy.json", Data: []byte(`[{"id":"a1","topic":"Anatomy","question":"Q1","answers":["x","y"],"correct":0},{"id":"a2","topic":"Anatomy","question":"Q2","answers":["x","y"],"correct":1}]`)},
		{Path: "questions/bad.json", Data: []byte(`{"questions": 3}`)},
		{Path: "questions/ethics.json", Data: []byte(`{"questions":[{"id":"e1","topic":"Ethics","question":"Q3","answers":["x","y"],"correct":0},{"id":"a1","topic":"Ethics","question":"dup","answers":["x","y"],"correct":0}]}`)},
	}
}

func TestLoadFlattensAndSkips(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	s := NewStore(repo)

	report, err := s.Load(ctx, sampleSources())
	require.NoError(t, err)

	assert.True(t, report.Loaded)
	assert.Equal(t, 3, report.Questions)
	assert.Equal(t, 1, report.Dropped, "duplicate id counted as dropped")
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "questions/bad.json", report.Skipped[0].Path)

	assert.Equal(t, []string{"Anatomy", "Ethics"}, s.Topics())
	for _, q := range s.All() {
		assert.False(t, q.Answered)
	}

	cached, found, err := storage.GetJSON[[]models.Question](ctx, repo, storage.KeyQuestions)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, cached, 3)
}

func TestInitPrefersCacheAndReappliesBookmarks(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	cached := []models.Question{
		{ID: "c1", Topic: "Anatomy", Question: "Q", Answers: []string{"a", "b"}, Answered: true, Bookmarked: true, Stats: models.QuestionStats{Correct: 2}},
		{ID: "c2", Topic: "Anatomy", Question: "Q", Answers: []string{"a", "b"}},
	}
	require.NoError(t, storage.SetJSON(ctx, repo, storage.KeyQuestions, cached))
	require.NoError(t, storage.SetJSON(ctx, repo, storage.KeyBookmarks, []string{"c2"}))

	f := &staticFetcher{}
	s := NewStore(repo)
	report, err := s.Init(ctx, f)
	require.NoError(t, err)

	assert.True(t, report.FromCache)
	assert.Equal(t, 0, f.calls)

	c1, _ := s.Get("c1")
	c2, _ := s.Get("c2")
	assert.False(t, c1.Answered, "answered resets on every load")
	assert.False(t, c1.Bookmarked, "bookmarks come from bookmarkedQuestions")
	assert.True(t, c2.Bookmarked)
	assert.Equal(t, 2, c1.Stats.Correct, "stats survive through the cache")
}

func TestInitInvalidatesBadCache(t *testing.T) {
	tests := []struct {
		name  string
		cache string
	}{
		{"corrupt", `[{"id": broken`},
		{"empty", `[]`},
		{"wrong shape", `{"id":"x"}`},
		{"correct out of range", `[{"id":"x","topic":"T","question":"Q","answers":["a","b"],"correct":7}]`},
		{"too few answers", `[{"id":"x","topic":"T","question":"Q","answers":["a"],"correct":0}]`},
		{"missing id", `[{"id":"","topic":"T","question":"Q","answers":["a","b"],"correct":0}]`},
		{"duplicate id", `[{"id":"x","question":"Q","answers":["a","b"],"correct":0},{"id":"x","question":"Q","answers":["a","b"],"correct":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := storage.NewMemoryStore()
			require.NoError(t, repo.Set(ctx, storage.KeyQuestions, []byte(tt.cache)))

			f := &staticFetcher{sources: sampleSources()}
			s := NewStore(repo)
			report, err := s.Init(ctx, f)
			require.NoError(t, err)

			assert.Equal(t, 1, f.calls)
			assert.False(t, report.FromCache)
			assert.Equal(t, 3, report.Questions)
			_, ok := s.Get("x")
			assert.False(t, ok)
		})
	}
}

func TestInitManifestFailure(t *testing.T) {
	s := NewStore(storage.NewMemoryStore())
	report, err := s.Init(context.Background(), &staticFetcher{err: errors.New("manifest 404")})
	assert.Error(t, err)
	assert.False(t, report.Loaded)
	assert.False(t, s.Loaded())
	assert.Contains(t, s.Report().Error, "manifest 404")
}

func TestRecordOutcomePersists(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	s := NewStore(repo)
	_, err := s.Load(ctx, sampleSources())
	require.NoError(t, err)

	_, err = s.RecordOutcome(ctx, "a1", true)
	require.NoError(t, err)
	q, err := s.RecordOutcome(ctx, "a1", false)
	require.NoError(t, err)

	assert.Equal(t, models.QuestionStats{Correct: 1, Incorrect: 1}, q.Stats)
	assert.True(t, q.Answered)

	cached, _, err := storage.GetJSON[[]models.Question](ctx, repo, storage.KeyQuestions)
	require.NoError(t, err)
	assert.Equal(t, 1, cached[0].Stats.Incorrect)

	_, err = s.RecordOutcome(ctx, "nope", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordOutcomeRollsBackOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepo{MemoryStore: storage.NewMemoryStore(), failKeys: map[string]bool{}}
	s := NewStore(repo)
	_, err := s.Load(ctx, sampleSources())
	require.NoError(t, err)

	repo.failKeys[storage.KeyQuestions] = true
	_, err = s.RecordOutcome(ctx, "a1", true)
	assert.Error(t, err)

	q, _ := s.Get("a1")
	assert.Equal(t, 0, q.Stats.Correct)
	assert.False(t, q.Answered)
}

func TestBookmarkRateAndFlag(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	s := NewStore(repo)
	_, err := s.Load(ctx, sampleSources())
	require.NoError(t, err)

	on, err := s.ToggleBookmark(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, on)
	ids, _, _ := storage.GetJSON[[]string](ctx, repo, storage.KeyBookmarks)
	assert.Equal(t, []string{"e1"}, ids)

	on, err = s.ToggleBookmark(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, on)
	ids, _, _ = storage.GetJSON[[]string](ctx, repo, storage.KeyBookmarks)
	assert.Empty(t, ids)

	for _, bad := range []int{0, 6, -1} {
		assert.ErrorIs(t, s.Rate(ctx, "a1", bad), ErrInvalidRating)
	}
	require.NoError(t, s.Rate(ctx, "a1", 2))
	ratings, _, _ := storage.GetJSON[map[string]int](ctx, repo, storage.KeyRatings)
	assert.Equal(t, map[string]int{"a1": 2}, ratings)

	n, err := s.FlagUnclear(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.FlagUnclear(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, s.UnclearFlags()["a2"])

	_, err = s.FlagUnclear(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMissedList(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	s := NewStore(repo)
	_, err := s.Load(ctx, sampleSources())
	require.NoError(t, err)

	require.NoError(t, s.AddMissed(ctx, "a1"))
	require.NoError(t, s.AddMissed(ctx, "e1"))
	require.NoError(t, s.AddMissed(ctx, "a1"))
	assert.Equal(t, []string{"a1", "e1"}, s.MissedIDs())

	require.NoError(t, s.RemoveMissed(ctx, "a1"))
	assert.Equal(t, []string{"e1"}, s.MissedIDs())

	persisted, _, _ := storage.GetJSON[[]string](ctx, repo, storage.KeyMissed)
	assert.Equal(t, []string{"e1"}, persisted)
}

func TestReloadKeepsStats(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	s := NewStore(repo)
	_, err := s.Load(ctx, sampleSources())
	require.NoError(t, err)
	_, err = s.RecordOutcome(ctx, "a2", false)
	require.NoError(t, err)

	f := &staticFetcher{sources: sampleSources()}
	_, err = s.Reload(ctx, f)
	require.NoError(t, err)

	q, ok := s.Get("a2")
	require.True(t, ok)
	assert.Equal(t, 1, q.Stats.Incorrect)
	assert.False(t, q.Answered)
}

func TestReloadFailureKeepsBank(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	s := NewStore(repo)
	_, err := s.Load(ctx, sampleSources())
	require.NoError(t, err)

	_, err = s.Reload(ctx, &staticFetcher{err: errors.New("manifest unreachable")})
	require.Error(t, err)
	assert.True(t, s.Loaded())
	assert.Len(t, s.All(), 3)

	cached, found, err := storage.GetJSON[[]models.Question](ctx, repo, storage.KeyQuestions)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, cached, 3)
}
