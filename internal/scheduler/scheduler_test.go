package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstudy/backend/internal/models"
	"github.com/smartstudy/backend/internal/quiz"
	"github.com/smartstudy/backend/internal/review"
	"github.com/smartstudy/backend/internal/storage"
)

type fakeBank struct {
	loaded bool
	qs     []models.Question
}

func (b *fakeBank) Loaded() bool           { return b.loaded }
func (b *fakeBank) All() []models.Question { return b.qs }

type fakeBuilder struct {
	calls []quiz.Request
}

func (f *fakeBuilder) BuildQuiz(_ context.Context, req quiz.Request, _ time.Time) ([]models.Question, error) {
	f.calls = append(f.calls, req)
	return []models.Question{{ID: "q1"}, {ID: "q2"}}, nil
}

type fakeTrimmer struct{ calls int }

func (f *fakeTrimmer) TrimHistory(context.Context) (int, error) {
	f.calls++
	return 0, nil
}

func newTestScheduler(repo storage.Repository, bank *fakeBank, builder *fakeBuilder, now time.Time) *Scheduler {
	s := New(repo, bank, builder, review.NewScheduler(repo, 24*time.Hour), &fakeTrimmer{}, time.UTC)
	s.now = func() time.Time { return now }
	return s
}

func TestPruneChallenges(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	now := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)

	for _, key := range []string{
		"challenge_2026-03-20",
		"challenge_2026-03-13",
		"challenge_2026-03-12",
		"challenge_2026-01-01",
		"challenge_latest",
	} {
		require.NoError(t, repo.Set(ctx, key, []byte("[]")))
	}
	require.NoError(t, repo.Set(ctx, "questions", []byte("[]")))

	s := newTestScheduler(repo, &fakeBank{}, &fakeBuilder{}, now)
	removed, err := s.PruneChallenges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	keys, err := repo.Keys(ctx, storage.ChallengePrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"challenge_2026-03-13", "challenge_2026-03-20", "challenge_latest"}, keys)

	_, err = repo.Get(ctx, "questions")
	assert.NoError(t, err)
}

func TestWarmDailyChallenge(t *testing.T) {
	ctx := context.Background()
	builder := &fakeBuilder{}
	bank := &fakeBank{}
	s := newTestScheduler(storage.NewMemoryStore(), bank, builder, time.Now())

	n, err := s.WarmDailyChallenge(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, builder.calls, "skipped until loaded")

	bank.loaded = true
	n, err = s.WarmDailyChallenge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, builder.calls, 1)
	assert.Equal(t, models.ModeDailyChallenge, builder.calls[0].Mode)
}

func TestDueReviews(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	now := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	rs := review.NewScheduler(repo, 24*time.Hour)
	require.NoError(t, rs.OnMissed(ctx, "q1", now.Add(-25*time.Hour)))
	require.NoError(t, rs.OnMissed(ctx, "q2", now.Add(-time.Hour)))

	bank := &fakeBank{loaded: true, qs: []models.Question{{ID: "q1"}, {ID: "q2"}}}
	s := New(repo, bank, &fakeBuilder{}, rs, &fakeTrimmer{}, time.UTC)
	s.now = func() time.Time { return now }

	n, err := s.DueReviews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler(storage.NewMemoryStore(), &fakeBank{}, &fakeBuilder{}, time.Now())
	require.NoError(t, s.Start())
	assert.Len(t, s.scheduler.Jobs(), 4)
	s.Stop()
}
