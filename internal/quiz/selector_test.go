package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/smartstudy/backend/internal/models"
	"github.com/smartstudy/backend/internal/review"
	"github.com/smartstudy/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePool struct {
	questions []models.Question
	ratings   map[string]int
	unclear   map[string]int
	missed    []string
}

func (p *fakePool) All() []models.Question {
	out := make([]models.Question, len(p.questions))
	for i, q := range p.questions {
		out[i] = q.Clone()
	}
	return out
}

func (p *fakePool) Ratings() map[string]int      { return p.ratings }
func (p *fakePool) UnclearFlags() map[string]int { return p.unclear }
func (p *fakePool) MissedIDs() []string          { return p.missed }

func mk(id, topic string, diff models.Difficulty, correct, incorrect int) models.Question {
	return models.Question{
		ID:         id,
		Topic:      topic,
		Question:   "Q " + id,
		Answers:    []string{"a", "b", "c"},
		Difficulty: diff,
		Stats:      models.QuestionStats{Correct: correct, Incorrect: incorrect},
	}
}

// bank has 3 SOAP, 4 Anatomy, 2 Ethics and 1 Pathology question.
func bank() *fakePool {
	return &fakePool{
		questions: []models.Question{
			mk("s1", "SOAP", models.DifficultyEasy, 0, 0),
			mk("s2", "SOAP", models.DifficultyModerate, 1, 2),
			mk("s3", "SOAP", models.DifficultyHard, 3, 1),
			mk("a1", "Anatomy", models.DifficultyEasy, 2, 1),
			mk("a2", "Anatomy", models.DifficultyEasy, 5, 0),
			mk("a3", "Anatomy", models.DifficultyHard, 0, 0),
			mk("a4", "Anatomy", models.DifficultyModerate, 4, 0),
			mk("e1", "Ethics", models.DifficultyEasy, 0, 4),
			mk("e2", "Ethics", models.DifficultyHard, 0, 0),
			mk("p1", "Pathology", models.DifficultyModerate, 1, 1),
		},
		ratings: map[string]int{},
		unclear: map[string]int{},
	}
}

func newSelector(pool Pool, repo storage.Repository) *Selector {
	return NewSelector(pool, review.NewScheduler(repo, 24*time.Hour), repo,
		Options{DailyChallengeSize: 5, WeakTopicCount: 2, Location: time.UTC},
		rand.New(rand.NewSource(42)))
}

func idSet(qs []models.Question) map[string]bool {
	out := make(map[string]bool, len(qs))
	for _, q := range qs {
		out[q.ID] = true
	}
	return out
}

var now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func TestByTopicNeverPads(t *testing.T) {
	s := newSelector(bank(), storage.NewMemoryStore())

	quiz, err := s.BuildQuiz(context.Background(), Request{Mode: models.ModeByTopic, Topic: "SOAP", Length: 5}, now)
	require.NoError(t, err)
	assert.Len(t, quiz, 3)
	for _, q := range quiz {
		assert.Equal(t, "SOAP", q.Topic)
	}
	assert.Equal(t, map[string]bool{"s1": true, "s2": true, "s3": true}, idSet(quiz))
}

func TestByTopicRequiresTopic(t *testing.T) {
	s := newSelector(bank(), storage.NewMemoryStore())
	_, err := s.BuildQuiz(context.Background(), Request{Mode: models.ModeByTopic}, now)
	assert.ErrorIs(t, err, ErrTopicRequired)

	_, err = s.BuildQuiz(context.Background(), Request{Mode: "trivia"}, now)
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestModeMembershipAndLength(t *testing.T) {
	pool := bank()
	pool.questions[0].Answered = true
	pool.questions[4].Answered = true
	pool.questions[1].Bookmarked = true
	pool.questions[7].Bookmarked = true
	pool.missed = []string{"e1", "p1", "gone"}

	tests := []struct {
		mode   models.QuizMode
		streak int
		length int
		member func(models.Question) bool
		want   int
	}{
		{models.ModeUnanswered, 0, 0, func(q models.Question) bool { return !q.Answered }, 8},
		{models.ModeUnanswered, 0, 3, func(q models.Question) bool { return !q.Answered }, 3},
		{models.ModeBookmarked, 0, 0, func(q models.Question) bool { return q.Bookmarked }, 2},
		{models.ModeMissed, 0, 10, func(q models.Question) bool { return q.ID == "e1" || q.ID == "p1" }, 2},
		{models.ModeAdaptive, 0, 0, func(q models.Question) bool { return q.Difficulty == models.DifficultyEasy }, 4},
		{models.ModeAdaptive, 5, 0, func(q models.Question) bool { return q.Difficulty == models.DifficultyModerate }, 3},
		{models.ModeAdaptive, 12, 2, func(q models.Question) bool { return q.Difficulty == models.DifficultyHard }, 2},
		{models.ModeSmartReview, 0, 0, NeedsSmartReview, 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/streak=%d/len=%d", tt.mode, tt.streak, tt.length), func(t *testing.T) {
			s := newSelector(pool, storage.NewMemoryStore())
			quiz, err := s.BuildQuiz(context.Background(), Request{Mode: tt.mode, Streak: tt.streak, Length: tt.length}, now)
			require.NoError(t, err)
			assert.Len(t, quiz, tt.want)
			if tt.length > 0 {
				assert.LessOrEqual(t, len(quiz), tt.length)
			}
			for _, q := range quiz {
				assert.True(t, tt.member(q), "unexpected %s in %s quiz", q.ID, tt.mode)
			}
		})
	}
}

func TestSmartReviewExcludesUnattempted(t *testing.T) {
	tests := []struct {
		stats models.QuestionStats
		want  bool
	}{
		{models.QuestionStats{}, false},
		{models.QuestionStats{Correct: 0, Incorrect: 1}, true}, // 0% accuracy
		{models.QuestionStats{Correct: 9, Incorrect: 2}, true}, // missed twice
		{models.QuestionStats{Correct: 3, Incorrect: 1}, false},
		{models.QuestionStats{Correct: 2, Incorrect: 1}, true},
		{models.QuestionStats{Correct: 7, Incorrect: 3}, true},
		{models.QuestionStats{Correct: 1, Incorrect: 0}, false},
	}
	for _, tt := range tests {
		if got := NeedsSmartReview(models.Question{Stats: tt.stats}); got != tt.want {
			t.Errorf("NeedsSmartReview(%+v) = %v, want %v", tt.stats, got, tt.want)
		}
	}
}

func TestQualityFilterAppliesToEveryMode(t *testing.T) {
	pool := bank()
	pool.ratings = map[string]int{"s1": 1}
	pool.unclear = map[string]int{"s2": 2}

	s := newSelector(pool, storage.NewMemoryStore())
	quiz, err := s.BuildQuiz(context.Background(), Request{Mode: models.ModeByTopic, Topic: "SOAP"}, now)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"s3": true}, idSet(quiz))
}

func TestBalancedRoundRobin(t *testing.T) {
	s := newSelector(bank(), storage.NewMemoryStore())

	quiz, err := s.BuildQuiz(context.Background(), Request{Mode: models.ModeBalanced, Length: 8}, now)
	require.NoError(t, err)
	require.Len(t, quiz, 8)

	counts := map[string]int{}
	for _, q := range quiz {
		counts[q.Topic]++
	}
	// Two full rounds take 2 from every topic that has them: Pathology has
	// only one, so round three starts with SOAP.
	assert.Equal(t, map[string]int{"SOAP": 3, "Anatomy": 2, "Ethics": 2, "Pathology": 1}, counts)

	all, err := s.BuildQuiz(context.Background(), Request{Mode: models.ModeBalanced}, now)
	require.NoError(t, err)
	assert.Len(t, all, 10)
}

func TestWeakTopicStartsFromWeakest(t *testing.T) {
	s := newSelector(bank(), storage.NewMemoryStore())
	// Ratios: Ethics 0.0, SOAP 4/7, Pathology 0.5, Anatomy 11/12.
	// The two weakest are Ethics then Pathology.
	quiz, err := s.BuildQuiz(context.Background(), Request{Mode: models.ModeWeakTopic}, now)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"e1": true, "e2": true, "p1": true}, idSet(quiz))

	short, err := s.BuildQuiz(context.Background(), Request{Mode: models.ModeWeakTopic, Length: 2}, now)
	require.NoError(t, err)
	assert.Len(t, short, 2)
	for id := range idSet(short) {
		assert.Contains(t, []string{"e1", "e2", "p1"}, id)
	}
}

func TestWeakTopicShufflesBeforeTruncating(t *testing.T) {
	pool := &fakePool{questions: []models.Question{mk("strong", "Strong", models.DifficultyEasy, 1, 0)}}
	for i := 0; i < 6; i++ {
		pool.questions = append(pool.questions, mk(fmt.Sprintf("w%d", i), "Weak", models.DifficultyEasy, 0, 1))
	}

	drawn := make(map[string]bool)
	for seed := int64(0); seed < 200; seed++ {
		repo := storage.NewMemoryStore()
		s := NewSelector(pool, review.NewScheduler(repo, 24*time.Hour), repo,
			Options{WeakTopicCount: 1, Location: time.UTC}, rand.New(rand.NewSource(seed)))
		quiz, err := s.BuildQuiz(context.Background(), Request{Mode: models.ModeWeakTopic, Length: 2}, now)
		require.NoError(t, err)
		require.Len(t, quiz, 2)
		for _, q := range quiz {
			assert.Equal(t, "Weak", q.Topic)
			drawn[q.ID] = true
		}
	}
	assert.Len(t, drawn, 6)
}

func TestDailyChallengeIsStableForTheDay(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	pool := bank()

	first, err := newSelector(pool, repo).BuildQuiz(ctx, Request{Mode: models.ModeDailyChallenge}, now)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.LessOrEqual(t, len(first), 5)
	for _, q := range first {
		assert.Contains(t, []string{"Ethics", "Pathology"}, q.Topic)
	}

	// A differently seeded selector, later the same day, sees the cache.
	other := NewSelector(pool, review.NewScheduler(repo, 0), repo, Options{Location: time.UTC}, rand.New(rand.NewSource(7)))
	second, err := other.BuildQuiz(ctx, Request{Mode: models.ModeDailyChallenge}, now.Add(6*time.Hour))
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}

	_, found, err := storage.GetJSON[[]models.Question](ctx, repo, "challenge_2026-10-14")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDailyChallengeFallsBackToWholeBank(t *testing.T) {
	pool := &fakePool{questions: []models.Question{
		mk("x1", "A", "", 0, 0), mk("x2", "B", "", 0, 0), mk("x3", "B", "", 0, 0),
	}}
	quiz, err := newSelector(pool, storage.NewMemoryStore()).BuildQuiz(context.Background(), Request{Mode: models.ModeDailyChallenge}, now)
	require.NoError(t, err)
	assert.Len(t, quiz, 3)
}

func TestReviewModeReturnsDue(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryStore()
	sched := review.NewScheduler(repo, time.Hour)
	require.NoError(t, sched.OnMissed(ctx, "a3", now.Add(-2*time.Hour)))
	require.NoError(t, sched.OnMissed(ctx, "e2", now.Add(-30*time.Minute)))

	s := NewSelector(bank(), sched, repo, Options{}, rand.New(rand.NewSource(1)))
	quiz, err := s.BuildQuiz(ctx, Request{Mode: models.ModeReview}, now)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a3": true}, idSet(quiz))
}

func TestEmptyPoolIsNotAnError(t *testing.T) {
	s := newSelector(&fakePool{}, storage.NewMemoryStore())
	for mode := range models.ValidQuizModes {
		req := Request{Mode: mode, Topic: "Anything", Length: 5}
		quiz, err := s.BuildQuiz(context.Background(), req, now)
		assert.NoError(t, err, mode)
		assert.Empty(t, quiz, mode)
	}
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"all", 0, false},
		{"ALL", 0, false},
		{"10", 10, false},
		{"-3", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLength(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLength(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestShufflePermutes(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	Shuffle(rand.New(rand.NewSource(3)), items)

	seen := map[int]bool{}
	for _, v := range items {
		seen[v] = true
	}
	assert.Len(t, seen, 8)
}
